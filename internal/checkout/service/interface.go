// Package service provides the provider-facing session creation service for
// checkout.
package service

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

// SessionCreator creates checkout sessions at the payment provider.
type SessionCreator interface {
	// Create creates a hosted checkout session.
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}
