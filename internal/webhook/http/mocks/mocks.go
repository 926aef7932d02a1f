// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/accessgate/internal/webhook/domain"
	"github.com/allisson/accessgate/internal/webhook/usecase"
)

// MockWebhookUseCase is a mock implementation of WebhookUseCase for testing.
type MockWebhookUseCase struct {
	mock.Mock
}

// Process mocks the Process method of WebhookUseCase.
func (m *MockWebhookUseCase) Process(ctx context.Context, payload []byte, signatureHeader string) (usecase.Outcome, error) {
	args := m.Called(ctx, payload, signatureHeader)
	return args.Get(0).(usecase.Outcome), args.Error(1)
}

// MockCustomerUseCase is a mock implementation of CustomerUseCase for testing.
type MockCustomerUseCase struct {
	mock.Mock
}

// List mocks the List method of CustomerUseCase.
func (m *MockCustomerUseCase) List(ctx context.Context) ([]*domain.CustomerRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CustomerRecord), args.Error(1)
}
