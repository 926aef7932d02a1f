package usecase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/webhook/domain"
	"github.com/allisson/accessgate/internal/webhook/service"
	serviceMocks "github.com/allisson/accessgate/internal/webhook/service/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeEnvelope(id, eventType string, payload any) *stripe.Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return &stripe.Event{
		ID:      id,
		Type:    stripe.EventType(eventType),
		Created: 1735689600,
		Data:    &stripe.EventData{Raw: raw},
	}
}

func TestClassifier_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("CheckoutWithSubscription", func(t *testing.T) {
		directory := &serviceMocks.MockProviderDirectory{}
		directory.On("Subscription", mock.Anything, "sub_1").
			Return(&service.SubscriptionInfo{
				Status:  "active",
				PriceID: "price_pair",
				Metadata: map[string]string{
					domain.MetadataTierKey: "firstflame",
				},
			}, nil).
			Once()

		classifier := NewClassifier(directory, discardLogger())
		event, err := classifier.Classify(ctx, makeEnvelope("evt_1", "checkout.session.completed", map[string]any{
			"id":               "cs_1",
			"customer":         "cus_1",
			"customer_details": map[string]any{"email": "A@X.com"},
			"subscription":     "sub_1",
			"mode":             "subscription",
			"payment_status":   "paid",
			"amount_total":     2900,
			"currency":         "usd",
			"metadata":         map[string]string{domain.MetadataTagKey: "betaFlame"},
		}))
		require.NoError(t, err)

		assert.Equal(t, domain.CheckoutCompleted, event.Kind)
		assert.Equal(t, "cus_1", event.CustomerID)
		assert.Equal(t, "a@x.com", event.Email)
		assert.Equal(t, "sub_1", event.SubscriptionID)
		assert.Equal(t, "active", event.SubscriptionStatus)
		assert.Equal(t, "price_pair", event.PriceID)
		assert.Equal(t, int64(2900), event.AmountTotal)
		// Subscription metadata is merged under the session metadata.
		assert.Equal(t, "betaFlame", event.Metadata[domain.MetadataTagKey])
		assert.Equal(t, "firstflame", event.Metadata[domain.MetadataTierKey])
		directory.AssertExpectations(t)
	})

	t.Run("SubscriptionLookupFailureDegradesToPaymentStatus", func(t *testing.T) {
		directory := &serviceMocks.MockProviderDirectory{}
		directory.On("Subscription", mock.Anything, "sub_1").
			Return(nil, apperrors.New("provider down")).
			Once()

		classifier := NewClassifier(directory, discardLogger())
		event, err := classifier.Classify(ctx, makeEnvelope("evt_1", "checkout.session.completed", map[string]any{
			"id":             "cs_1",
			"customer":       "cus_1",
			"subscription":   "sub_1",
			"mode":           "subscription",
			"payment_status": "paid",
		}))
		require.NoError(t, err)

		assert.Equal(t, "active", event.SubscriptionStatus)
		assert.Empty(t, event.PriceID)
	})

	t.Run("OneTimeCheckoutUsesLineItems", func(t *testing.T) {
		directory := &serviceMocks.MockProviderDirectory{}
		directory.On("SessionPriceID", mock.Anything, "cs_1").
			Return("price_individual", nil).
			Once()

		classifier := NewClassifier(directory, discardLogger())
		event, err := classifier.Classify(ctx, makeEnvelope("evt_1", "checkout.session.completed", map[string]any{
			"id":             "cs_1",
			"customer":       "cus_1",
			"mode":           "payment",
			"payment_status": "paid",
		}))
		require.NoError(t, err)

		assert.Equal(t, "price_individual", event.PriceID)
		assert.True(t, event.OneTime())
	})

	t.Run("MissingCustomerIDResolvedByEmail", func(t *testing.T) {
		directory := &serviceMocks.MockProviderDirectory{}
		directory.On("SessionPriceID", mock.Anything, "cs_1").Return("", nil).Once()
		directory.On("CustomerIDByEmail", mock.Anything, "a@x.com").Return("cus_1", nil).Once()

		classifier := NewClassifier(directory, discardLogger())
		event, err := classifier.Classify(ctx, makeEnvelope("evt_1", "checkout.session.completed", map[string]any{
			"id":             "cs_1",
			"customer_email": "a@x.com",
			"mode":           "payment",
		}))
		require.NoError(t, err)

		assert.Equal(t, "cus_1", event.CustomerID)
	})

	t.Run("EmailLookupFailureDegrades", func(t *testing.T) {
		directory := &serviceMocks.MockProviderDirectory{}
		directory.On("SessionPriceID", mock.Anything, "cs_1").Return("", nil).Once()
		directory.On("CustomerIDByEmail", mock.Anything, "a@x.com").
			Return("", apperrors.New("provider down")).
			Once()

		classifier := NewClassifier(directory, discardLogger())
		event, err := classifier.Classify(ctx, makeEnvelope("evt_1", "checkout.session.completed", map[string]any{
			"id":             "cs_1",
			"customer_email": "a@x.com",
			"mode":           "payment",
		}))
		require.NoError(t, err)

		assert.Empty(t, event.CustomerID)
		assert.Equal(t, "a@x.com", event.Email)
	})

	t.Run("SubscriptionUpdated", func(t *testing.T) {
		classifier := NewClassifier(&serviceMocks.MockProviderDirectory{}, discardLogger())
		event, err := classifier.Classify(ctx, makeEnvelope("evt_2", "customer.subscription.updated", map[string]any{
			"id":       "sub_1",
			"customer": "cus_1",
			"status":   "past_due",
			"items": map[string]any{
				"data": []map[string]any{{"price": map[string]any{"id": "price_pair"}}},
			},
		}))
		require.NoError(t, err)

		assert.Equal(t, domain.SubscriptionUpdated, event.Kind)
		assert.Equal(t, "past_due", event.SubscriptionStatus)
		assert.Equal(t, "price_pair", event.PriceID)
	})

	t.Run("SubscriptionDeleted", func(t *testing.T) {
		classifier := NewClassifier(&serviceMocks.MockProviderDirectory{}, discardLogger())
		event, err := classifier.Classify(ctx, makeEnvelope("evt_2", "customer.subscription.deleted", map[string]any{
			"id":       "sub_1",
			"customer": "cus_1",
			"status":   "canceled",
		}))
		require.NoError(t, err)

		assert.Equal(t, domain.SubscriptionDeleted, event.Kind)
		assert.Equal(t, "canceled", event.SubscriptionStatus)
	})

	t.Run("InvoicePaymentFailed", func(t *testing.T) {
		classifier := NewClassifier(&serviceMocks.MockProviderDirectory{}, discardLogger())
		event, err := classifier.Classify(ctx, makeEnvelope("evt_3", "invoice.payment_failed", map[string]any{
			"customer":       "cus_1",
			"customer_email": "A@X.com",
			"subscription":   "sub_1",
			"amount_due":     2900,
			"currency":       "usd",
		}))
		require.NoError(t, err)

		assert.Equal(t, domain.InvoicePaymentFailed, event.Kind)
		assert.Equal(t, "a@x.com", event.Email)
		assert.Empty(t, event.SubscriptionStatus)
		assert.Equal(t, int64(2900), event.AmountTotal)
	})

	t.Run("UnhandledType", func(t *testing.T) {
		classifier := NewClassifier(&serviceMocks.MockProviderDirectory{}, discardLogger())
		event, err := classifier.Classify(ctx, makeEnvelope("evt_4", "payout.created", map[string]any{}))
		require.NoError(t, err)

		assert.Equal(t, domain.Unhandled, event.Kind)
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		classifier := NewClassifier(&serviceMocks.MockProviderDirectory{}, discardLogger())
		envelope := &stripe.Event{
			ID:   "evt_5",
			Type: "checkout.session.completed",
			Data: &stripe.EventData{Raw: []byte("{not json")},
		}

		_, err := classifier.Classify(ctx, envelope)
		assert.ErrorIs(t, err, domain.ErrMalformedPayload)
	})
}
