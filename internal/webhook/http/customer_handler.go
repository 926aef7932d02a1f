package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/httputil"
	"github.com/allisson/accessgate/internal/webhook/http/dto"
	"github.com/allisson/accessgate/internal/webhook/usecase"
)

// exportKeyHeader authenticates callers of the customer export endpoint.
const exportKeyHeader = "x-export-key"

// CustomerHandler handles the operational customer export endpoint.
type CustomerHandler struct {
	customerUseCase usecase.CustomerUseCase
	exportKey       string
	logger          *slog.Logger
}

// NewCustomerHandler creates a new customer handler. An empty exportKey
// disables the endpoint entirely rather than leaving it open.
func NewCustomerHandler(customerUseCase usecase.CustomerUseCase, exportKey string, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerUseCase: customerUseCase,
		exportKey:       exportKey,
		logger:          logger,
	}
}

// ExportHandler dumps all customer records, newest first.
// GET /v1/customers - requires the x-export-key header.
// Supports optional offset/limit query parameters; by default everything is
// returned.
func (h *CustomerHandler) ExportHandler(c *gin.Context) {
	if h.exportKey == "" {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrForbidden, "customer export is not configured"), h.logger)
		return
	}
	if subtle.ConstantTimeCompare([]byte(c.GetHeader(exportKeyHeader)), []byte(h.exportKey)) != 1 {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParseListWindow(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	records, err := h.customerUseCase.List(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	records = httputil.ApplyListWindow(records, offset, limit)

	c.JSON(http.StatusOK, dto.CustomersExportResponse{
		OK:          true,
		GeneratedAt: time.Now().UTC(),
		Count:       len(records),
		Customers:   records,
	})
}
