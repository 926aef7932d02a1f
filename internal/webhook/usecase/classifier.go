package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/webhook/domain"
	"github.com/allisson/accessgate/internal/webhook/service"
)

// Raw payload shapes decoded from the provider envelope. Only the fields the
// pipeline consumes are declared; everything else in the payload is ignored.
type checkoutSessionPayload struct {
	ID              string `json:"id"`
	Customer        string `json:"customer"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Subscription  string            `json:"subscription"`
	Mode          string            `json:"mode"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type invoicePayload struct {
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customer_email"`
	Subscription  string `json:"subscription"`
	AmountDue     int64  `json:"amount_due"`
	Currency      string `json:"currency"`
}

// classifier normalizes verified provider envelopes into domain events. Every
// payload field is optional: absence flows through as an empty value, and the
// provider API lookups that enrich an event degrade gracefully on failure.
type classifier struct {
	directory service.ProviderDirectory
	logger    *slog.Logger
}

// NewClassifier creates a Classifier backed by directory for the secondary
// provider lookups.
func NewClassifier(directory service.ProviderDirectory, logger *slog.Logger) Classifier {
	return &classifier{directory: directory, logger: logger}
}

// Classify maps event onto the closed variant set. Event types outside the
// set come back with Kind set to Unhandled.
func (c *classifier) Classify(ctx context.Context, event *stripe.Event) (*domain.Event, error) {
	normalized := &domain.Event{
		ID:         event.ID,
		Kind:       domain.Unhandled,
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}

	switch domain.EventKind(event.Type) {
	case domain.CheckoutCompleted:
		return c.classifyCheckout(ctx, normalized, event.Data.Raw)
	case domain.SubscriptionUpdated, domain.SubscriptionDeleted:
		return c.classifySubscription(normalized, domain.EventKind(event.Type), event.Data.Raw)
	case domain.InvoicePaymentFailed:
		return c.classifyInvoice(normalized, event.Data.Raw)
	default:
		return normalized, nil
	}
}

func (c *classifier) classifyCheckout(ctx context.Context, normalized *domain.Event, raw []byte) (*domain.Event, error) {
	var session checkoutSessionPayload
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, apperrors.Wrap(domain.ErrMalformedPayload, err.Error())
	}

	normalized.Kind = domain.CheckoutCompleted
	normalized.CustomerID = session.Customer
	normalized.Email = normalizeEmail(firstNonEmpty(session.CustomerDetails.Email, session.CustomerEmail))
	normalized.SubscriptionID = session.Subscription
	normalized.Mode = session.Mode
	normalized.PaymentStatus = session.PaymentStatus
	normalized.AmountTotal = session.AmountTotal
	normalized.Currency = session.Currency
	normalized.Metadata = session.Metadata

	if session.Subscription != "" {
		info, err := c.directory.Subscription(ctx, session.Subscription)
		if err != nil {
			// The session itself proves payment went through; treat a paid
			// session as active when the live subscription is unreachable.
			c.logger.Warn("subscription lookup failed, degrading to payment status",
				slog.String("event_id", normalized.ID),
				slog.String("subscription_id", session.Subscription),
				slog.String("error", err.Error()),
			)
			if session.PaymentStatus == "paid" {
				normalized.SubscriptionStatus = domain.SubscriptionStatusActive
			}
		} else {
			normalized.SubscriptionStatus = info.Status
			normalized.PriceID = info.PriceID
			normalized.Metadata = mergeMetadata(session.Metadata, info.Metadata)
		}
	} else {
		priceID, err := c.directory.SessionPriceID(ctx, session.ID)
		if err != nil {
			c.logger.Warn("line item lookup failed, proceeding without price",
				slog.String("event_id", normalized.ID),
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		} else {
			normalized.PriceID = priceID
		}
	}

	if normalized.CustomerID == "" && normalized.Email != "" {
		customerID, err := c.directory.CustomerIDByEmail(ctx, normalized.Email)
		if err != nil {
			c.logger.Warn("customer lookup by email failed, proceeding without customer id",
				slog.String("event_id", normalized.ID),
				slog.String("error", err.Error()),
			)
		} else {
			normalized.CustomerID = customerID
		}
	}

	return normalized, nil
}

func (c *classifier) classifySubscription(normalized *domain.Event, kind domain.EventKind, raw []byte) (*domain.Event, error) {
	var subscription subscriptionPayload
	if err := json.Unmarshal(raw, &subscription); err != nil {
		return nil, apperrors.Wrap(domain.ErrMalformedPayload, err.Error())
	}

	normalized.Kind = kind
	normalized.CustomerID = subscription.Customer
	normalized.SubscriptionID = subscription.ID
	normalized.SubscriptionStatus = subscription.Status
	normalized.Metadata = subscription.Metadata
	if len(subscription.Items.Data) > 0 {
		normalized.PriceID = subscription.Items.Data[0].Price.ID
	}

	return normalized, nil
}

func (c *classifier) classifyInvoice(normalized *domain.Event, raw []byte) (*domain.Event, error) {
	var invoice invoicePayload
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return nil, apperrors.Wrap(domain.ErrMalformedPayload, err.Error())
	}

	normalized.Kind = domain.InvoicePaymentFailed
	normalized.CustomerID = invoice.Customer
	normalized.Email = normalizeEmail(invoice.CustomerEmail)
	normalized.SubscriptionID = invoice.Subscription
	normalized.AmountTotal = invoice.AmountDue
	normalized.Currency = invoice.Currency

	return normalized, nil
}

// mergeMetadata overlays secondary under primary; primary keys win.
func mergeMetadata(primary, secondary map[string]string) map[string]string {
	if len(secondary) == 0 {
		return primary
	}
	merged := make(map[string]string, len(primary)+len(secondary))
	for key, value := range secondary {
		merged[key] = value
	}
	for key, value := range primary {
		merged[key] = value
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
