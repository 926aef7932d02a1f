package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	checkoutHTTP "github.com/allisson/accessgate/internal/checkout/http"
	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/kvstore"
	"github.com/allisson/accessgate/internal/metrics"
	webhookHTTP "github.com/allisson/accessgate/internal/webhook/http"
)

const readinessProbeKey = "readiness:probe"

// Server represents the main HTTP server.
type Server struct {
	store  kvstore.Store
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The store is used by the readiness
// endpoint to report whether the backing database is reachable.
func NewServer(
	store kvstore.Store,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		store:  store,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig holds the handlers and middleware settings for SetupRouter.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	WebhookHandler         *webhookHTTP.WebhookHandler
	CheckoutHandler        *checkoutHTTP.CheckoutHandler
	CustomerHandler        *webhookHTTP.CustomerHandler
	MetricsProvider        *metrics.Provider
	CORSEnabled            bool
	CORSAllowOrigins       string
	ExportRateLimitEnabled bool
	ExportRateLimitRPS     float64
	ExportRateLimitBurst   int
}

// SetupRouter builds the Gin router with all middleware and routes.
// The /metrics endpoint is intentionally not registered here; it lives on
// the separate MetricsServer.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if cfg.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MetricsProvider.MeterProvider(), "accessgate"))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	if cfg.WebhookHandler != nil {
		v1.POST("/webhooks/stripe", cfg.WebhookHandler.EventHandler)
	}

	if cfg.CheckoutHandler != nil {
		v1.POST("/checkout", cfg.CheckoutHandler.CreateSessionHandler)
	}

	if cfg.CustomerHandler != nil {
		customers := v1.Group("/customers")
		if cfg.ExportRateLimitEnabled {
			customers.Use(webhookHTTP.RateLimitMiddleware(
				cfg.ExportRateLimitRPS,
				cfg.ExportRateLimitBurst,
				s.logger,
			))
		}
		customers.GET("", cfg.CustomerHandler.ExportHandler)
	}

	s.router = router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic by probing
// the backing store. A missing probe key is a healthy outcome.
func (s *Server) readinessHandler(c *gin.Context) {
	components := map[string]string{"database": "ok"}
	ready := true

	if s.store == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if _, err := s.store.Get(ctx, readinessProbeKey); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("readiness probe failed", slog.String("error", err.Error()))
			components["database"] = "error"
			ready = false
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
