package domain

import "time"

// OrderSnapshot is the normalized transaction record forwarded to the
// fulfillment service's durable order ledger. It is keyed by the provider
// event id; the engine only produces and transmits it, never reads it back.
type OrderSnapshot struct {
	EventID     string    `json:"eventId"`
	EventType   string    `json:"eventType"`
	CustomerID  string    `json:"customerId,omitempty"`
	Email       string    `json:"email,omitempty"`
	AmountTotal int64     `json:"amountTotal"`
	Currency    string    `json:"currency,omitempty"`
	Status      string    `json:"status,omitempty"`
	PriceID     string    `json:"priceId,omitempty"`
	Tier        string    `json:"tier,omitempty"`
	PlanKey     string    `json:"planKey,omitempty"`
	PlanName    string    `json:"planName,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}
