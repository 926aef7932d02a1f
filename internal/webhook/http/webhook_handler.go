// Package http provides HTTP handlers for event ingestion and the customer
// export endpoint.
package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/httputil"
	"github.com/allisson/accessgate/internal/webhook/http/dto"
	"github.com/allisson/accessgate/internal/webhook/usecase"
)

// signatureHeader is the provider's signature header on webhook deliveries.
const signatureHeader = "Stripe-Signature"

// maxPayloadBytes caps the raw webhook body. Provider events are small; a
// larger body is either abuse or corruption.
const maxPayloadBytes = 1 << 20

// WebhookHandler handles inbound provider event deliveries.
type WebhookHandler struct {
	webhookUseCase usecase.WebhookUseCase
	logger         *slog.Logger
}

// NewWebhookHandler creates a new webhook handler with required dependencies.
func NewWebhookHandler(webhookUseCase usecase.WebhookUseCase, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookUseCase: webhookUseCase,
		logger:         logger,
	}
}

// EventHandler ingests one provider event delivery.
// POST /v1/webhooks/stripe - authenticated by payload signature.
// Returns 200 on handling or intentional no-op, 400 on signature failure or
// malformed payload, 500 when a strict step failed and the provider must
// redeliver.
func (h *WebhookHandler) EventHandler(c *gin.Context) {
	// The signature covers the exact bytes on the wire, so the body must be
	// read raw and never re-encoded before verification.
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes+1))
	if err != nil {
		httputil.HandleBadRequestGin(c, apperrors.Wrap(err, "failed to read request body"), h.logger)
		return
	}
	if len(payload) > maxPayloadBytes {
		httputil.HandleBadRequestGin(c, apperrors.New("request body too large"), h.logger)
		return
	}

	outcome, err := h.webhookUseCase.Process(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	if err != nil {
		switch outcome {
		case usecase.OutcomeRejected:
			// Signature and payload failures are never retried server-side.
			h.logger.Warn("event rejected", slog.String("error", err.Error()))
			httputil.HandleBadRequestGin(c, err, h.logger)
		default:
			httputil.HandleErrorGin(c, err, h.logger)
		}
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true, Status: string(outcome)})
}
