package domain

// AccessState gates whether the customer may use the paid service.
type AccessState string

const (
	// AccessActive grants use of the paid service.
	AccessActive AccessState = "active"

	// AccessLocked denies use of the paid service.
	AccessLocked AccessState = "locked"
)

// Subscription statuses that grant access.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
)

// DeriveAccess derives the access state from the subscription status of the
// most recent event. A one-time completed transaction is active immediately:
// no subsequent subscription-status event will ever arrive to confirm it.
func DeriveAccess(subscriptionStatus string, oneTime bool) AccessState {
	if oneTime {
		return AccessActive
	}
	switch subscriptionStatus {
	case SubscriptionStatusActive, SubscriptionStatusTrialing:
		return AccessActive
	default:
		return AccessLocked
	}
}
