package domain

import (
	"github.com/allisson/accessgate/internal/errors"
)

// Webhook-specific error definitions.
var (
	// ErrMissingSignature indicates the signature header was absent from the request.
	ErrMissingSignature = errors.Wrap(errors.ErrUnauthorized, "missing signature header")

	// ErrInvalidSignature indicates the payload could not be verified against the shared secret.
	ErrInvalidSignature = errors.Wrap(errors.ErrUnauthorized, "invalid signature")

	// ErrMalformedPayload indicates the event envelope could not be decoded.
	ErrMalformedPayload = errors.Wrap(errors.ErrInvalidInput, "malformed event payload")

	// ErrLedgerUnavailable indicates the strict order ledger write failed and the
	// whole event must be aborted and redelivered.
	ErrLedgerUnavailable = errors.Wrap(errors.ErrUnavailable, "order ledger unavailable")
)
