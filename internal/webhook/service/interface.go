// Package service provides technical services for webhook processing: payload
// signature verification and the provider API lookups the classifier needs.
package service

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

// Authenticator verifies that an inbound event provably originates from the
// payment provider.
type Authenticator interface {
	// Verify checks the signature header against the raw, unparsed payload
	// bytes and returns the decoded event envelope. Parsing before verifying
	// would invalidate the signature, so implementations must operate on the
	// exact bytes received. Returns domain.ErrMissingSignature or
	// domain.ErrInvalidSignature on rejection.
	Verify(payload []byte, signatureHeader string) (*stripe.Event, error)
}

// SubscriptionInfo is the subset of a provider subscription the classifier needs.
type SubscriptionInfo struct {
	// Status is the provider-reported subscription status.
	Status string
	// PriceID is the price of the first subscription item.
	PriceID string
	// Metadata carries plan metadata stamped on the subscription at creation.
	Metadata map[string]string
}

// ProviderDirectory exposes the provider API lookups used to enrich events.
// Every call is a fallible network operation with a bounded timeout; callers
// degrade gracefully when a lookup fails.
type ProviderDirectory interface {
	// Subscription fetches the live subscription state by id.
	Subscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error)

	// CustomerIDByEmail searches the provider's customer directory for the
	// first customer registered under email. Returns an empty string when no
	// customer matches.
	CustomerIDByEmail(ctx context.Context, email string) (string, error)

	// SessionPriceID inspects a checkout session's line items and returns the
	// price id of the first item, for pure checkouts without a subscription.
	SessionPriceID(ctx context.Context, sessionID string) (string, error)
}
