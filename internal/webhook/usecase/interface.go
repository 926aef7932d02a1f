// Package usecase implements the webhook processing pipeline: claim the
// event, classify it, derive plan and access, persist the outcome and
// dispatch onboarding. Use cases orchestrate repositories and services; the
// HTTP layer only translates transport concerns.
package usecase

import (
	"context"

	"github.com/stripe/stripe-go/v82"

	"github.com/allisson/accessgate/internal/fulfillment"
	"github.com/allisson/accessgate/internal/webhook/domain"
	"github.com/allisson/accessgate/internal/webhook/repository"
)

// Outcome is the terminal state of one webhook delivery.
type Outcome string

const (
	// OutcomeProcessed means the pipeline ran to completion.
	OutcomeProcessed Outcome = "processed"
	// OutcomeDuplicate means the event was already done or in flight.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeUnhandled means the event type is outside the handled set.
	OutcomeUnhandled Outcome = "unhandled"
	// OutcomeSkipped means the event carried no usable customer identity.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeRejected means signature verification failed.
	OutcomeRejected Outcome = "rejected"
	// OutcomeAborted means a strict step failed and the event will be retried.
	OutcomeAborted Outcome = "aborted"
)

// EventLockRepository is the idempotency gate over event ids.
type EventLockRepository interface {
	Begin(ctx context.Context, eventID string) (repository.LockOutcome, error)
	Commit(ctx context.Context, eventID string) error
	Abort(ctx context.Context, eventID string) error
}

// CustomerRecordRepository persists customer access records.
type CustomerRecordRepository interface {
	Get(ctx context.Context, customerID string) (*domain.CustomerRecord, error)
	GetByEmail(ctx context.Context, email string) (*domain.CustomerRecord, error)
	Save(ctx context.Context, record *domain.CustomerRecord) error
	List(ctx context.Context) ([]*domain.CustomerRecord, error)
}

// OnboardMarkerRepository tracks which customers were already onboarded.
type OnboardMarkerRepository interface {
	Exists(ctx context.Context, customerID, email string) (bool, error)
	Set(ctx context.Context, customerID, email string) error
}

// Classifier normalizes a verified provider envelope into a domain Event.
type Classifier interface {
	Classify(ctx context.Context, event *stripe.Event) (*domain.Event, error)
}

// OnboardingDispatcher performs the exactly-once onboarding side effect.
type OnboardingDispatcher interface {
	EnsureOnboarded(ctx context.Context, event *domain.Event, plan domain.Plan, access domain.AccessState) error
}

// WebhookUseCase defines the inbound webhook processing surface.
type WebhookUseCase interface {
	// Process runs the full pipeline for one raw delivery. The returned
	// Outcome is always meaningful; the error is non-nil only for rejected
	// and aborted outcomes.
	Process(ctx context.Context, payload []byte, signatureHeader string) (Outcome, error)
}

// CustomerUseCase defines the customer export surface.
type CustomerUseCase interface {
	// List returns all customer records, newest first.
	List(ctx context.Context) ([]*domain.CustomerRecord, error)
}

// LedgerClient is the slice of the fulfillment client the pipeline needs for
// order persistence.
type LedgerClient interface {
	RecordOrder(ctx context.Context, snapshot *domain.OrderSnapshot) error
}

// FulfillmentClient is the full fulfillment surface used by the dispatcher.
type FulfillmentClient interface {
	CreateAlias(ctx context.Context, req fulfillment.AliasRequest) (string, error)
	NotifyOnboarding(ctx context.Context, notice fulfillment.OnboardingNotice) (bool, error)
}
