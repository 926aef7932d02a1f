// Package mocks provides mock implementations of pipeline collaborators for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/accessgate/internal/fulfillment"
	"github.com/allisson/accessgate/internal/webhook/domain"
)

// MockFulfillmentClient is a mock implementation of FulfillmentClient for testing.
type MockFulfillmentClient struct {
	mock.Mock
}

// CreateAlias mocks the CreateAlias method of FulfillmentClient.
func (m *MockFulfillmentClient) CreateAlias(ctx context.Context, req fulfillment.AliasRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// NotifyOnboarding mocks the NotifyOnboarding method of FulfillmentClient.
func (m *MockFulfillmentClient) NotifyOnboarding(ctx context.Context, notice fulfillment.OnboardingNotice) (bool, error) {
	args := m.Called(ctx, notice)
	return args.Bool(0), args.Error(1)
}

// MockLedgerClient is a mock implementation of LedgerClient for testing.
type MockLedgerClient struct {
	mock.Mock
}

// RecordOrder mocks the RecordOrder method of LedgerClient.
func (m *MockLedgerClient) RecordOrder(ctx context.Context, snapshot *domain.OrderSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}
