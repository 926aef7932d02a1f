// Package mocks provides mock implementations of webhook services for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"

	"github.com/allisson/accessgate/internal/webhook/service"
)

// MockAuthenticator is a mock implementation of Authenticator for testing.
type MockAuthenticator struct {
	mock.Mock
}

// Verify mocks the Verify method of Authenticator.
func (m *MockAuthenticator) Verify(payload []byte, signatureHeader string) (*stripe.Event, error) {
	args := m.Called(payload, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.Event), args.Error(1)
}

// MockProviderDirectory is a mock implementation of ProviderDirectory for testing.
type MockProviderDirectory struct {
	mock.Mock
}

// Subscription mocks the Subscription method of ProviderDirectory.
func (m *MockProviderDirectory) Subscription(ctx context.Context, subscriptionID string) (*service.SubscriptionInfo, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubscriptionInfo), args.Error(1)
}

// CustomerIDByEmail mocks the CustomerIDByEmail method of ProviderDirectory.
func (m *MockProviderDirectory) CustomerIDByEmail(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// SessionPriceID mocks the SessionPriceID method of ProviderDirectory.
func (m *MockProviderDirectory) SessionPriceID(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}
