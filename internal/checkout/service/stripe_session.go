package service

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	apperrors "github.com/allisson/accessgate/internal/errors"
)

// stripeSessionCreator implements SessionCreator against the Stripe API.
type stripeSessionCreator struct {
	api     *client.API
	timeout time.Duration
}

// NewStripeSessionCreator creates a SessionCreator backed by the given Stripe
// client. Every call is bounded by timeout.
func NewStripeSessionCreator(api *client.API, timeout time.Duration) SessionCreator {
	return &stripeSessionCreator{api: api, timeout: timeout}
}

// Create creates a hosted checkout session.
func (s *stripeSessionCreator) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	params.Context = ctx

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create checkout session")
	}
	return session, nil
}
