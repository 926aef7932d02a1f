// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	checkoutDomain "github.com/allisson/accessgate/internal/checkout/domain"
)

// MockCheckoutUseCase is a mock implementation of CheckoutUseCase for testing.
type MockCheckoutUseCase struct {
	mock.Mock
}

// CreateSession mocks the CreateSession method of CheckoutUseCase.
func (m *MockCheckoutUseCase) CreateSession(
	ctx context.Context,
	input *checkoutDomain.SessionInput,
) (*checkoutDomain.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkoutDomain.Session), args.Error(1)
}
