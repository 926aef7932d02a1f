package usecase

import (
	"context"
	"log/slog"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/fulfillment"
	"github.com/allisson/accessgate/internal/webhook/domain"
)

// onboardingDispatcher performs the exactly-once onboarding side effect. The
// durable marker is only written after the fulfillment calls succeed, so any
// failure leaves onboarding retryable by the next qualifying event.
type onboardingDispatcher struct {
	markers OnboardMarkerRepository
	client  FulfillmentClient
	// twoPhase selects the alias-then-notify flow. When the onboarding
	// secret is not configured the dispatcher falls back to a single call
	// where the fulfillment service sends its own generic notification.
	twoPhase bool
	logger   *slog.Logger
}

// NewOnboardingDispatcher creates an OnboardingDispatcher. Set twoPhase when
// the onboarding secret for the notify phase is configured.
func NewOnboardingDispatcher(
	markers OnboardMarkerRepository,
	client FulfillmentClient,
	twoPhase bool,
	logger *slog.Logger,
) OnboardingDispatcher {
	return &onboardingDispatcher{
		markers:  markers,
		client:   client,
		twoPhase: twoPhase,
		logger:   logger,
	}
}

// EnsureOnboarded onboards the event's customer at most once. No-op unless
// access is active and both identities are known.
func (d *onboardingDispatcher) EnsureOnboarded(
	ctx context.Context,
	event *domain.Event,
	plan domain.Plan,
	access domain.AccessState,
) error {
	if access != domain.AccessActive || event.CustomerID == "" || event.Email == "" {
		return nil
	}

	onboarded, err := d.markers.Exists(ctx, event.CustomerID, event.Email)
	if err != nil {
		return apperrors.Wrap(err, "failed to check onboarding marker")
	}
	if onboarded {
		return nil
	}

	if d.twoPhase {
		alias, err := d.client.CreateAlias(ctx, fulfillment.AliasRequest{
			EventID:    event.ID,
			Email:      event.Email,
			CustomerID: event.CustomerID,
		})
		if err != nil {
			return err
		}

		sent, err := d.client.NotifyOnboarding(ctx, fulfillment.OnboardingNotice{
			EventID:    event.ID,
			CustomerID: event.CustomerID,
			Email:      event.Email,
			Alias:      alias,
			PlanKey:    plan.Key,
			PlanName:   plan.Name,
		})
		if err != nil {
			return err
		}
		if !sent {
			return apperrors.New("onboarding notification was not sent")
		}
	} else {
		if _, err := d.client.CreateAlias(ctx, fulfillment.AliasRequest{
			EventID:    event.ID,
			Email:      event.Email,
			CustomerID: event.CustomerID,
			NotifyUser: true,
		}); err != nil {
			return err
		}
	}

	if err := d.markers.Set(ctx, event.CustomerID, event.Email); err != nil {
		// The customer was notified but the marker write failed; a later
		// event may notify again. Better twice than never.
		return apperrors.Wrap(err, "failed to set onboarding marker")
	}

	d.logger.Info("customer onboarded",
		slog.String("event_id", event.ID),
		slog.String("customer_id", event.CustomerID),
		slog.String("plan_key", plan.Key),
	)
	return nil
}
