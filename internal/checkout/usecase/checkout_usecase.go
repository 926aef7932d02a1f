package usecase

import (
	"context"
	"log/slog"

	"github.com/stripe/stripe-go/v82"

	checkoutDomain "github.com/allisson/accessgate/internal/checkout/domain"
	checkoutService "github.com/allisson/accessgate/internal/checkout/service"
	apperrors "github.com/allisson/accessgate/internal/errors"
	webhookDomain "github.com/allisson/accessgate/internal/webhook/domain"
)

// betaFlameTag marks sessions created during the beta cohort so downstream
// reporting can separate them. Stored under the "tag" metadata key.
const betaFlameTag = "betaFlame"

// checkoutUseCase creates provider checkout sessions. The resolved plan is
// stamped as metadata on both the session and the subscription it creates, so
// later webhook events carry authoritative plan information regardless of
// which object they reference.
type checkoutUseCase struct {
	sessions   checkoutService.SessionCreator
	plans      *webhookDomain.PlanTable
	successURL string
	cancelURL  string
	logger     *slog.Logger
}

// NewCheckoutUseCase creates a CheckoutUseCase.
func NewCheckoutUseCase(
	sessions checkoutService.SessionCreator,
	plans *webhookDomain.PlanTable,
	successURL string,
	cancelURL string,
	logger *slog.Logger,
) CheckoutUseCase {
	return &checkoutUseCase{
		sessions:   sessions,
		plans:      plans,
		successURL: successURL,
		cancelURL:  cancelURL,
		logger:     logger,
	}
}

// CreateSession creates a hosted checkout session for the requested plan.
func (u *checkoutUseCase) CreateSession(
	ctx context.Context,
	input *checkoutDomain.SessionInput,
) (*checkoutDomain.Session, error) {
	planKey := normalizePlanKey(input.PlanKey)
	plan := u.plans.ByPlanKey(planKey)

	priceID := u.plans.PriceIDByPlanKey(planKey)
	if priceID == "" {
		return nil, apperrors.New("no price configured for plan " + planKey)
	}

	metadata := map[string]string{
		webhookDomain.MetadataNameKey:     input.Name,
		webhookDomain.MetadataTierKey:     plan.Tier,
		webhookDomain.MetadataPlanKeyKey:  plan.Key,
		webhookDomain.MetadataPlanNameKey: plan.Name,
		webhookDomain.MetadataTagKey:      betaFlameTag,
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:    stripe.String(u.successURL),
		CancelURL:     stripe.String(u.cancelURL),
		CustomerEmail: stripe.String(input.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Metadata = metadata

	session, err := u.sessions.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	u.logger.Info("checkout session created",
		slog.String("session_id", session.ID),
		slog.String("plan_key", plan.Key),
	)
	return &checkoutDomain.Session{ID: session.ID, URL: session.URL}, nil
}

// normalizePlanKey maps shorthand plan selectors onto full plan keys.
// Anything unrecognized falls back to the pair plan, which keeps requests
// from old clients that predate plan selection working.
func normalizePlanKey(key string) string {
	switch key {
	case "individual", webhookDomain.PlanKeyIndividual:
		return webhookDomain.PlanKeyIndividual
	case "pair", webhookDomain.PlanKeyPair:
		return webhookDomain.PlanKeyPair
	default:
		return webhookDomain.PlanKeyPair
	}
}
