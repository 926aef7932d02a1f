package service

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	apperrors "github.com/allisson/accessgate/internal/errors"
)

// stripeDirectory implements ProviderDirectory against the Stripe API.
type stripeDirectory struct {
	api     *client.API
	timeout time.Duration
}

// NewStripeDirectory creates a ProviderDirectory backed by the given Stripe
// client. Every lookup is bounded by timeout.
func NewStripeDirectory(api *client.API, timeout time.Duration) ProviderDirectory {
	return &stripeDirectory{api: api, timeout: timeout}
}

// Subscription fetches the live subscription state by id.
func (d *stripeDirectory) Subscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	subscription, err := d.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to fetch subscription")
	}

	info := &SubscriptionInfo{
		Status:   string(subscription.Status),
		Metadata: subscription.Metadata,
	}
	if subscription.Items != nil && len(subscription.Items.Data) > 0 {
		if price := subscription.Items.Data[0].Price; price != nil {
			info.PriceID = price.ID
		}
	}
	return info, nil
}

// CustomerIDByEmail searches the customer directory for email.
func (d *stripeDirectory) CustomerIDByEmail(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := d.api.Customers.List(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", apperrors.Wrap(err, "failed to search customers by email")
	}
	return "", nil
}

// SessionPriceID returns the price id of the first line item of a checkout session.
func (d *stripeDirectory) SessionPriceID(ctx context.Context, sessionID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(sessionID)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := d.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		if price := iter.LineItem().Price; price != nil {
			return price.ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", apperrors.Wrap(err, "failed to list session line items")
	}
	return "", nil
}
