// Package domain defines the core domain models for checkout session creation.
package domain

// SessionInput is the normalized request to start a checkout.
type SessionInput struct {
	// Name is the customer's name, stamped into the session metadata so
	// webhook events can carry it forward.
	Name string
	// PlanKey identifies the plan variant to sell. Shorthand forms
	// ("individual", "pair") are accepted; unrecognized keys fall back to
	// the pair plan so requests from old clients still succeed.
	PlanKey string
	// Email prefills the checkout page.
	Email string
}

// Session is a created provider checkout session.
type Session struct {
	// ID is the provider session identifier.
	ID string
	// URL is the hosted checkout page to redirect the customer to.
	URL string
}
