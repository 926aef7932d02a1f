package service

import (
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/webhook/domain"
)

// signatureAuthenticator implements Authenticator using the provider's signed
// webhook scheme (HMAC over the raw payload with a shared signing secret).
type signatureAuthenticator struct {
	signingSecret string
}

// NewSignatureAuthenticator creates an Authenticator for the given signing secret.
func NewSignatureAuthenticator(signingSecret string) (Authenticator, error) {
	if signingSecret == "" {
		return nil, apperrors.New("signing secret is required")
	}
	return &signatureAuthenticator{signingSecret: signingSecret}, nil
}

// Verify checks the signature header against the raw payload bytes.
func (a *signatureAuthenticator) Verify(payload []byte, signatureHeader string) (*stripe.Event, error) {
	if signatureHeader == "" {
		return nil, domain.ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		a.signingSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, apperrors.Wrap(domain.ErrInvalidSignature, err.Error())
	}

	return &event, nil
}
