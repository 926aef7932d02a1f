// Package mocks provides mock implementations of checkout services for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
)

// MockSessionCreator is a mock implementation of SessionCreator for testing.
type MockSessionCreator struct {
	mock.Mock
}

// Create mocks the Create method of SessionCreator.
func (m *MockSessionCreator) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}
