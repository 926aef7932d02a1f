// Package http provides HTTP handlers for checkout session creation.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutDomain "github.com/allisson/accessgate/internal/checkout/domain"
	"github.com/allisson/accessgate/internal/checkout/http/dto"
	checkoutUseCase "github.com/allisson/accessgate/internal/checkout/usecase"
	"github.com/allisson/accessgate/internal/httputil"
	customValidation "github.com/allisson/accessgate/internal/validation"
)

// CheckoutHandler handles HTTP requests for checkout session creation.
type CheckoutHandler struct {
	checkoutUseCase checkoutUseCase.CheckoutUseCase
	logger          *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler with required dependencies.
func NewCheckoutHandler(useCase checkoutUseCase.CheckoutUseCase, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutUseCase: useCase,
		logger:          logger,
	}
}

// CreateSessionHandler creates a hosted checkout session.
// POST /v1/checkout
// Returns 201 Created with the session id and redirect URL.
func (h *CheckoutHandler) CreateSessionHandler(c *gin.Context) {
	var req dto.CreateSessionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	session, err := h.checkoutUseCase.CreateSession(c.Request.Context(), &checkoutDomain.SessionInput{
		Name:    req.Name,
		PlanKey: req.PlanKey,
		Email:   req.Email,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCreateSessionResponse(session))
}
