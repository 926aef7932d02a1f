// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82/client"

	checkoutHTTP "github.com/allisson/accessgate/internal/checkout/http"
	checkoutService "github.com/allisson/accessgate/internal/checkout/service"
	checkoutUsecase "github.com/allisson/accessgate/internal/checkout/usecase"
	"github.com/allisson/accessgate/internal/config"
	"github.com/allisson/accessgate/internal/database"
	"github.com/allisson/accessgate/internal/fulfillment"
	"github.com/allisson/accessgate/internal/http"
	"github.com/allisson/accessgate/internal/kvstore"
	"github.com/allisson/accessgate/internal/metrics"
	webhookDomain "github.com/allisson/accessgate/internal/webhook/domain"
	webhookHTTP "github.com/allisson/accessgate/internal/webhook/http"
	webhookRepository "github.com/allisson/accessgate/internal/webhook/repository"
	webhookService "github.com/allisson/accessgate/internal/webhook/service"
	webhookUsecase "github.com/allisson/accessgate/internal/webhook/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger      *slog.Logger
	db          *sql.DB
	redisClient *redis.Client
	store       kvstore.Store

	// External clients
	stripeAPI         *client.API
	fulfillmentClient fulfillment.Client

	// Domain data
	planTable *webhookDomain.PlanTable

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Use Cases
	webhookUseCase  webhookUsecase.WebhookUseCase
	customerUseCase webhookUsecase.CustomerUseCase
	checkoutUseCase checkoutUsecase.CheckoutUseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	redisClientInit     sync.Once
	storeInit           sync.Once
	stripeAPIInit       sync.Once
	fulfillmentInit     sync.Once
	planTableInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	webhookUseCaseInit  sync.Once
	customerUseCaseInit sync.Once
	checkoutUseCaseInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the SQL database connection used by the SQL-backed store drivers.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RedisClient returns the Redis client used by the Redis store driver.
func (c *Container) RedisClient() (*redis.Client, error) {
	c.redisClientInit.Do(func() {
		c.redisClient = redis.NewClient(&redis.Options{
			Addr: c.config.RedisAddr,
		})
	})
	return c.redisClient, nil
}

// Store returns the keyed durable store selected by the configured driver.
func (c *Container) Store() (kvstore.Store, error) {
	c.storeInit.Do(func() {
		store, err := c.initStore()
		if err != nil {
			c.initErrors["store"] = err
			return
		}
		c.store = store
	})
	if storedErr, exists := c.initErrors["store"]; exists {
		return nil, storedErr
	}
	return c.store, nil
}

// StripeAPI returns the Stripe API client used for provider lookups.
func (c *Container) StripeAPI() (*client.API, error) {
	c.stripeAPIInit.Do(func() {
		sc := &client.API{}
		sc.Init(c.config.StripeAPIKey, nil)
		c.stripeAPI = sc
	})
	return c.stripeAPI, nil
}

// FulfillmentClient returns the HTTP client for the fulfillment service.
func (c *Container) FulfillmentClient() (fulfillment.Client, error) {
	c.fulfillmentInit.Do(func() {
		fc, err := fulfillment.NewHTTPClient(
			c.config.FulfillmentBaseURL,
			c.config.FulfillmentAPIKey,
			c.config.FulfillmentOnboardingSecret,
			c.config.FulfillmentTimeout,
		)
		if err != nil {
			c.initErrors["fulfillmentClient"] = err
			return
		}
		c.fulfillmentClient = fc
	})
	if storedErr, exists := c.initErrors["fulfillmentClient"]; exists {
		return nil, storedErr
	}
	return c.fulfillmentClient, nil
}

// PlanTable returns the plan table built from the configured price ids.
func (c *Container) PlanTable() *webhookDomain.PlanTable {
	c.planTableInit.Do(func() {
		c.planTable = webhookDomain.NewPlanTable(
			c.config.StripePriceIDIndividual,
			c.config.StripePriceIDPair,
		)
	})
	return c.planTable
}

// MetricsProvider returns the metrics provider instance.
// Returns nil without error when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
// Returns nil without error when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// WebhookUseCase returns the webhook processing use case instance.
func (c *Container) WebhookUseCase() (webhookUsecase.WebhookUseCase, error) {
	c.webhookUseCaseInit.Do(func() {
		useCase, err := c.initWebhookUseCase()
		if err != nil {
			c.initErrors["webhookUseCase"] = err
			return
		}
		c.webhookUseCase = useCase
	})
	if storedErr, exists := c.initErrors["webhookUseCase"]; exists {
		return nil, storedErr
	}
	return c.webhookUseCase, nil
}

// CustomerUseCase returns the customer export use case instance.
func (c *Container) CustomerUseCase() (webhookUsecase.CustomerUseCase, error) {
	c.customerUseCaseInit.Do(func() {
		useCase, err := c.initCustomerUseCase()
		if err != nil {
			c.initErrors["customerUseCase"] = err
			return
		}
		c.customerUseCase = useCase
	})
	if storedErr, exists := c.initErrors["customerUseCase"]; exists {
		return nil, storedErr
	}
	return c.customerUseCase, nil
}

// CheckoutUseCase returns the checkout session use case instance.
func (c *Container) CheckoutUseCase() (checkoutUsecase.CheckoutUseCase, error) {
	c.checkoutUseCaseInit.Do(func() {
		useCase, err := c.initCheckoutUseCase()
		if err != nil {
			c.initErrors["checkoutUseCase"] = err
			return
		}
		c.checkoutUseCase = useCase
	})
	if storedErr, exists := c.initErrors["checkoutUseCase"]; exists {
		return nil, storedErr
	}
	return c.checkoutUseCase, nil
}

// HTTPServer returns the HTTP server instance with all routes configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance.
// Returns nil without error when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the SQL database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.KVStoreDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initStore selects the store backend based on the configured driver.
func (c *Container) initStore() (kvstore.Store, error) {
	switch c.config.KVStoreDriver {
	case "redis":
		redisClient, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for store: %w", err)
		}
		return kvstore.NewRedisStore(redisClient), nil
	case "postgres":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for store: %w", err)
		}
		return kvstore.NewPostgreSQLStore(db), nil
	case "mysql":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for store: %w", err)
		}
		return kvstore.NewMySQLStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported kvstore driver: %s", c.config.KVStoreDriver)
	}
}

// initWebhookUseCase creates the webhook use case with all its dependencies.
func (c *Container) initWebhookUseCase() (webhookUsecase.WebhookUseCase, error) {
	logger := c.Logger()

	authenticator, err := webhookService.NewSignatureAuthenticator(c.config.StripeWebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature authenticator: %w", err)
	}

	stripeAPI, err := c.StripeAPI()
	if err != nil {
		return nil, fmt.Errorf("failed to get stripe client for webhook use case: %w", err)
	}

	store, err := c.Store()
	if err != nil {
		return nil, fmt.Errorf("failed to get store for webhook use case: %w", err)
	}

	fulfillmentClient, err := c.FulfillmentClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get fulfillment client for webhook use case: %w", err)
	}

	directory := webhookService.NewStripeDirectory(stripeAPI, c.config.ProviderTimeout)
	classifier := webhookUsecase.NewClassifier(directory, logger)

	locks := webhookRepository.NewEventLockRepository(
		store,
		c.config.EventLockProcessingTTL,
		c.config.EventLockDoneTTL,
	)
	records := webhookRepository.NewCustomerRecordRepository(store)
	markers := webhookRepository.NewOnboardMarkerRepository(store)

	dispatcher := webhookUsecase.NewOnboardingDispatcher(
		markers,
		fulfillmentClient,
		c.config.FulfillmentOnboardingSecret != "",
		logger,
	)

	useCase := webhookUsecase.NewWebhookUseCase(
		authenticator,
		classifier,
		locks,
		records,
		dispatcher,
		fulfillmentClient,
		c.PlanTable(),
		logger,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for webhook use case: %w", err)
	}
	if businessMetrics != nil {
		useCase = webhookUsecase.NewWebhookUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

// initCustomerUseCase creates the customer export use case.
func (c *Container) initCustomerUseCase() (webhookUsecase.CustomerUseCase, error) {
	store, err := c.Store()
	if err != nil {
		return nil, fmt.Errorf("failed to get store for customer use case: %w", err)
	}

	useCase := webhookUsecase.NewCustomerUseCase(webhookRepository.NewCustomerRecordRepository(store))

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for customer use case: %w", err)
	}
	if businessMetrics != nil {
		useCase = webhookUsecase.NewCustomerUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

// initCheckoutUseCase creates the checkout use case with all its dependencies.
func (c *Container) initCheckoutUseCase() (checkoutUsecase.CheckoutUseCase, error) {
	stripeAPI, err := c.StripeAPI()
	if err != nil {
		return nil, fmt.Errorf("failed to get stripe client for checkout use case: %w", err)
	}

	sessions := checkoutService.NewStripeSessionCreator(stripeAPI, c.config.ProviderTimeout)

	return checkoutUsecase.NewCheckoutUseCase(
		sessions,
		c.PlanTable(),
		c.config.CheckoutSuccessURL,
		c.config.CheckoutCancelURL,
		c.Logger(),
	), nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	store, err := c.Store()
	if err != nil {
		return nil, fmt.Errorf("failed to get store for http server: %w", err)
	}

	webhookUseCase, err := c.WebhookUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook use case for http server: %w", err)
	}

	customerUseCase, err := c.CustomerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get customer use case for http server: %w", err)
	}

	checkoutUseCase, err := c.CheckoutUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout use case for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(store, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(http.RouterConfig{
		WebhookHandler:         webhookHTTP.NewWebhookHandler(webhookUseCase, logger),
		CheckoutHandler:        checkoutHTTP.NewCheckoutHandler(checkoutUseCase, logger),
		CustomerHandler:        webhookHTTP.NewCustomerHandler(customerUseCase, c.config.CustomersExportKey, logger),
		MetricsProvider:        metricsProvider,
		CORSEnabled:            c.config.CORSEnabled,
		CORSAllowOrigins:       c.config.CORSAllowOrigins,
		ExportRateLimitEnabled: c.config.ExportRateLimitEnabled,
		ExportRateLimitRPS:     c.config.ExportRateLimitRequestsPerSec,
		ExportRateLimitBurst:   c.config.ExportRateLimitBurst,
	})

	return server, nil
}
