package dto

import checkoutDomain "github.com/allisson/accessgate/internal/checkout/domain"

// CreateSessionResponse returns the created checkout session.
type CreateSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NewCreateSessionResponse converts a domain session to its response form.
func NewCreateSessionResponse(session *checkoutDomain.Session) CreateSessionResponse {
	return CreateSessionResponse{
		ID:  session.ID,
		URL: session.URL,
	}
}
