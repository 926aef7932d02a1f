// Package domain defines the core domain models for payment event ingestion:
// normalized provider events, customer access records, plan resolution and the
// access policy. Downstream components only ever see these types, never the
// raw provider payload shapes.
package domain

import "time"

// EventKind is the closed set of provider event variants the engine handles.
type EventKind string

const (
	// CheckoutCompleted signals a finished checkout session (subscription or one-time).
	CheckoutCompleted EventKind = "checkout.session.completed"

	// SubscriptionUpdated signals a subscription state change (renewal, trial transition).
	SubscriptionUpdated EventKind = "customer.subscription.updated"

	// InvoicePaymentFailed signals a failed recurring payment.
	InvoicePaymentFailed EventKind = "invoice.payment_failed"

	// SubscriptionDeleted signals a cancelled subscription.
	SubscriptionDeleted EventKind = "customer.subscription.deleted"

	// Unhandled covers every event type outside the closed set above.
	Unhandled EventKind = "unhandled"
)

// Checkout session modes as delivered by the provider.
const (
	// ModePayment marks a one-time transaction with no subscription attached.
	ModePayment = "payment"

	// ModeSubscription marks a checkout that started a recurring subscription.
	ModeSubscription = "subscription"
)

// Event is the normalized representation of one provider event. Optional
// fields that were absent in the provider payload are empty strings; absence
// never aborts classification.
type Event struct {
	// ID is the provider event identifier, globally unique per delivery.
	ID string
	// Kind is the classified event variant.
	Kind EventKind
	// CustomerID is the provider customer identifier, when known.
	CustomerID string
	// Email is the customer email, lowercased, when known.
	Email string
	// SubscriptionID is the provider subscription identifier, when known.
	SubscriptionID string
	// SubscriptionStatus is the provider-reported subscription status, when known.
	SubscriptionStatus string
	// PriceID identifies the purchased price, when resolvable.
	PriceID string
	// Mode distinguishes one-time payments from subscription checkouts.
	Mode string
	// PaymentStatus is the checkout payment status ("paid", "unpaid").
	PaymentStatus string
	// AmountTotal is the transaction amount in the smallest currency unit.
	AmountTotal int64
	// Currency is the lowercased ISO currency code.
	Currency string
	// Metadata carries plan metadata stamped at transaction-creation time.
	Metadata map[string]string
	// OccurredAt is when the provider created the event.
	OccurredAt time.Time
}

// OneTime reports whether the event is a completed checkout with no
// subscription attached. Such transactions never receive a follow-up
// subscription-status event, so access is granted on completion.
func (e *Event) OneTime() bool {
	return e.Kind == CheckoutCompleted && e.Mode == ModePayment
}
