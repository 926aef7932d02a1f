package usecase

import (
	"context"
	"time"

	"github.com/allisson/accessgate/internal/metrics"
	"github.com/allisson/accessgate/internal/webhook/domain"
)

// webhookUseCaseWithMetrics decorates WebhookUseCase with metrics instrumentation.
type webhookUseCaseWithMetrics struct {
	next    WebhookUseCase
	metrics metrics.BusinessMetrics
}

// NewWebhookUseCaseWithMetrics wraps a WebhookUseCase with metrics recording.
func NewWebhookUseCaseWithMetrics(useCase WebhookUseCase, m metrics.BusinessMetrics) WebhookUseCase {
	return &webhookUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Process records per-outcome counters and duration for event processing.
func (w *webhookUseCaseWithMetrics) Process(
	ctx context.Context,
	payload []byte,
	signatureHeader string,
) (Outcome, error) {
	start := time.Now()
	outcome, err := w.next.Process(ctx, payload, signatureHeader)

	status := "success"
	if err != nil {
		status = "error"
	}

	w.metrics.RecordOperation(ctx, "webhook", "event_"+string(outcome), status)
	w.metrics.RecordDuration(ctx, "webhook", "event_process", time.Since(start), status)

	return outcome, err
}

// customerUseCaseWithMetrics decorates CustomerUseCase with metrics instrumentation.
type customerUseCaseWithMetrics struct {
	next    CustomerUseCase
	metrics metrics.BusinessMetrics
}

// NewCustomerUseCaseWithMetrics wraps a CustomerUseCase with metrics recording.
func NewCustomerUseCaseWithMetrics(useCase CustomerUseCase, m metrics.BusinessMetrics) CustomerUseCase {
	return &customerUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// List records metrics for customer export operations.
func (c *customerUseCaseWithMetrics) List(ctx context.Context) ([]*domain.CustomerRecord, error) {
	start := time.Now()
	records, err := c.next.List(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "customers", "customer_list", status)
	c.metrics.RecordDuration(ctx, "customers", "customer_list", time.Since(start), status)

	return records, err
}
