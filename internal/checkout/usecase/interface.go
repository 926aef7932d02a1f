// Package usecase implements checkout session creation: plan selection,
// metadata stamping and the provider call.
package usecase

import (
	"context"

	checkoutDomain "github.com/allisson/accessgate/internal/checkout/domain"
)

// CheckoutUseCase defines the checkout session creation surface.
type CheckoutUseCase interface {
	// CreateSession creates a hosted checkout session for the requested plan.
	CreateSession(ctx context.Context, input *checkoutDomain.SessionInput) (*checkoutDomain.Session, error)
}
