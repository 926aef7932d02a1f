package usecase

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/webhook/domain"
	"github.com/allisson/accessgate/internal/webhook/repository"
	"github.com/allisson/accessgate/internal/webhook/service"
)

// webhookUseCase runs the processing pipeline for inbound deliveries:
// authenticate, claim the event lock, classify, resolve plan and access,
// persist the order and the customer record, dispatch onboarding and commit
// the lock. Strict steps abort the event on failure so the provider retries
// it; best-effort steps are logged and swallowed.
type webhookUseCase struct {
	authenticator service.Authenticator
	classifier    Classifier
	locks         EventLockRepository
	records       CustomerRecordRepository
	dispatcher    OnboardingDispatcher
	ledger        LedgerClient
	plans         *domain.PlanTable
	logger        *slog.Logger
}

// NewWebhookUseCase creates a WebhookUseCase.
func NewWebhookUseCase(
	authenticator service.Authenticator,
	classifier Classifier,
	locks EventLockRepository,
	records CustomerRecordRepository,
	dispatcher OnboardingDispatcher,
	ledger LedgerClient,
	plans *domain.PlanTable,
	logger *slog.Logger,
) WebhookUseCase {
	return &webhookUseCase{
		authenticator: authenticator,
		classifier:    classifier,
		locks:         locks,
		records:       records,
		dispatcher:    dispatcher,
		ledger:        ledger,
		plans:         plans,
		logger:        logger,
	}
}

// Process runs the full pipeline for one raw delivery.
func (w *webhookUseCase) Process(ctx context.Context, payload []byte, signatureHeader string) (Outcome, error) {
	envelope, err := w.authenticator.Verify(payload, signatureHeader)
	if err != nil {
		return OutcomeRejected, err
	}

	lockOutcome, err := w.locks.Begin(ctx, envelope.ID)
	if err != nil {
		return OutcomeAborted, apperrors.Wrap(err, "failed to claim event")
	}
	switch lockOutcome {
	case repository.LockAlreadyDone:
		w.logger.Info("event already processed", slog.String("event_id", envelope.ID))
		return OutcomeDuplicate, nil
	case repository.LockInFlight:
		w.logger.Info("event already in flight", slog.String("event_id", envelope.ID))
		return OutcomeDuplicate, nil
	}

	event, err := w.classifier.Classify(ctx, envelope)
	if err != nil {
		// A payload the provider signed but we cannot decode will never
		// decode on redelivery either; release the claim and reject.
		w.releaseLock(ctx, envelope.ID)
		return OutcomeRejected, err
	}

	if event.Kind == domain.Unhandled {
		w.logger.Info("unhandled event type",
			slog.String("event_id", event.ID),
			slog.String("event_type", string(envelope.Type)),
		)
		return w.commit(ctx, event.ID, OutcomeUnhandled)
	}

	if event.CustomerID == "" && event.Email == "" {
		w.logger.Error("event carries no customer identity, dropping",
			slog.String("event_id", event.ID),
			slog.String("event_kind", string(event.Kind)),
		)
		return w.commit(ctx, event.ID, OutcomeSkipped)
	}

	plan := w.plans.Resolve(event.PriceID, event.Metadata)
	access := domain.DeriveAccess(event.SubscriptionStatus, event.OneTime())

	existing, err := w.loadRecord(ctx, event)
	if err != nil {
		w.releaseLock(ctx, event.ID)
		return OutcomeAborted, apperrors.Wrap(err, "failed to load customer record")
	}

	// The delivery that first grants access must not outrun the order
	// ledger; everything after the ledger write is safely repeatable.
	strict := event.Kind == domain.CheckoutCompleted &&
		access == domain.AccessActive &&
		(existing == nil || existing.Access != domain.AccessActive)

	snapshot := buildSnapshot(event, plan)
	if strict {
		if err := w.ledger.RecordOrder(ctx, snapshot); err != nil {
			w.logger.Error("order ledger upsert failed on access-granting event",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
			w.releaseLock(ctx, event.ID)
			return OutcomeAborted, apperrors.Wrap(domain.ErrLedgerUnavailable, err.Error())
		}
	}

	record := existing
	if record == nil {
		record = domain.NewCustomerRecord()
	}
	record.Merge(buildUpdate(event, plan, access), time.Now().UTC())

	if err := w.records.Save(ctx, record); err != nil {
		w.logger.Error("customer record write failed",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()),
		)
		w.releaseLock(ctx, event.ID)
		return OutcomeAborted, apperrors.Wrap(err, "failed to save customer record")
	}

	if !strict {
		if err := w.ledger.RecordOrder(ctx, snapshot); err != nil {
			w.logger.Warn("order ledger upsert failed, continuing",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := w.dispatcher.EnsureOnboarded(ctx, event, plan, access); err != nil {
		w.logger.Warn("onboarding dispatch failed, will retry on next qualifying event",
			slog.String("event_id", event.ID),
			slog.String("customer_id", event.CustomerID),
			slog.String("error", err.Error()),
		)
	}

	return w.commit(ctx, event.ID, OutcomeProcessed)
}

// loadRecord fetches the current record for the event's identity. A missing
// record is not an error.
func (w *webhookUseCase) loadRecord(ctx context.Context, event *domain.Event) (*domain.CustomerRecord, error) {
	var (
		record *domain.CustomerRecord
		err    error
	)
	if event.CustomerID != "" {
		record, err = w.records.Get(ctx, event.CustomerID)
	} else {
		record, err = w.records.GetByEmail(ctx, event.Email)
	}
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// commit marks the event done. A commit failure is logged but does not fail
// the delivery; every pipeline step is repeatable on redelivery.
func (w *webhookUseCase) commit(ctx context.Context, eventID string, outcome Outcome) (Outcome, error) {
	if err := w.locks.Commit(ctx, eventID); err != nil {
		w.logger.Error("failed to mark event done, redelivery will reprocess",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
	}
	return outcome, nil
}

// releaseLock reverts the processing claim. A stuck claim silently blocks
// retries until its TTL lapses, so a release failure is logged loudly.
func (w *webhookUseCase) releaseLock(ctx context.Context, eventID string) {
	if err := w.locks.Abort(ctx, eventID); err != nil {
		w.logger.Error("failed to release event lock, retries blocked until TTL expiry",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
	}
}

func buildSnapshot(event *domain.Event, plan domain.Plan) *domain.OrderSnapshot {
	status := event.SubscriptionStatus
	if status == "" {
		status = event.PaymentStatus
	}
	return &domain.OrderSnapshot{
		EventID:     event.ID,
		EventType:   string(event.Kind),
		CustomerID:  event.CustomerID,
		Email:       event.Email,
		AmountTotal: event.AmountTotal,
		Currency:    event.Currency,
		Status:      status,
		PriceID:     event.PriceID,
		Tier:        plan.Tier,
		PlanKey:     plan.Key,
		PlanName:    plan.Name,
		OccurredAt:  event.OccurredAt,
	}
}

func buildUpdate(event *domain.Event, plan domain.Plan, access domain.AccessState) domain.RecordUpdate {
	return domain.RecordUpdate{
		CustomerID:         event.CustomerID,
		Email:              event.Email,
		SubscriptionID:     event.SubscriptionID,
		SubscriptionStatus: event.SubscriptionStatus,
		PriceID:            event.PriceID,
		Tier:               plan.Tier,
		PlanKey:            plan.Key,
		PlanName:           plan.Name,
		Access:             access,
		EventID:            event.ID,
		EventType:          string(event.Kind),
	}
}
