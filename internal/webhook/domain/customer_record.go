package domain

import "time"

// CustomerRecord is the canonical access/billing state for one customer,
// keyed by customer id or, until the id becomes known, by lowercased email.
// Records are created on the first event referencing the customer, mutated by
// every subsequent event via field-level merge, and never deleted.
type CustomerRecord struct {
	CustomerID         string      `json:"customerId,omitempty"`
	Email              string      `json:"email,omitempty"`
	SubscriptionID     string      `json:"subscriptionId,omitempty"`
	SubscriptionStatus string      `json:"subscriptionStatus,omitempty"`
	PriceID            string      `json:"priceId,omitempty"`
	Tier               string      `json:"tier,omitempty"`
	PlanKey            string      `json:"planKey,omitempty"`
	PlanName           string      `json:"planName,omitempty"`
	Access             AccessState `json:"access"`
	UpdatedAt          time.Time   `json:"updatedAt"`
	LastEventID        string      `json:"lastEventId,omitempty"`
	LastEventType      string      `json:"lastEventType,omitempty"`
}

// NewCustomerRecord synthesizes the default record for a customer that has
// never been seen: locked until an event proves otherwise.
func NewCustomerRecord() *CustomerRecord {
	return &CustomerRecord{Access: AccessLocked}
}

// RecordUpdate is the partial update derived from one event. Empty fields are
// absent and retain the prior record values; Access is always applied because
// it is derived from the event's status by the access policy, never carried over.
type RecordUpdate struct {
	CustomerID         string
	Email              string
	SubscriptionID     string
	SubscriptionStatus string
	PriceID            string
	Tier               string
	PlanKey            string
	PlanName           string
	Access             AccessState
	EventID            string
	EventType          string
}

// Merge applies update onto the record with field-level last-writer-wins
// semantics: only fields present in the update overwrite prior values, so an
// event lacking subscription details (e.g. an invoice failure) does not
// clobber previously known tier/plan information.
func (r *CustomerRecord) Merge(update RecordUpdate, now time.Time) {
	if update.CustomerID != "" {
		r.CustomerID = update.CustomerID
	}
	if update.Email != "" {
		r.Email = update.Email
	}
	if update.SubscriptionID != "" {
		r.SubscriptionID = update.SubscriptionID
	}
	if update.SubscriptionStatus != "" {
		r.SubscriptionStatus = update.SubscriptionStatus
	}
	if update.PriceID != "" {
		r.PriceID = update.PriceID
	}
	if update.Tier != "" {
		r.Tier = update.Tier
	}
	if update.PlanKey != "" {
		r.PlanKey = update.PlanKey
	}
	if update.PlanName != "" {
		r.PlanName = update.PlanName
	}

	r.Access = update.Access
	r.UpdatedAt = now.UTC()
	r.LastEventID = update.EventID
	r.LastEventType = update.EventType
}
