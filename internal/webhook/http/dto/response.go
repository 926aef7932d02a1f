// Package dto defines request and response payloads for the webhook HTTP API.
package dto

import (
	"time"

	"github.com/allisson/accessgate/internal/webhook/domain"
)

// WebhookResponse acknowledges an inbound event delivery.
type WebhookResponse struct {
	// Received is true for every acknowledged delivery, including
	// duplicates and unhandled event types.
	Received bool `json:"received"`
	// Status is the terminal pipeline outcome for the delivery.
	Status string `json:"status"`
}

// CustomersExportResponse is the operational dump of all customer records.
type CustomersExportResponse struct {
	OK          bool                     `json:"ok"`
	GeneratedAt time.Time                `json:"generatedAt"`
	Count       int                      `json:"count"`
	Customers   []*domain.CustomerRecord `json:"customers"`
}
