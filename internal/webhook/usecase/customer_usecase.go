package usecase

import (
	"context"
	"sort"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/webhook/domain"
)

// customerUseCase exposes the stored customer records for operational export.
type customerUseCase struct {
	records CustomerRecordRepository
}

// NewCustomerUseCase creates a CustomerUseCase.
func NewCustomerUseCase(records CustomerRecordRepository) CustomerUseCase {
	return &customerUseCase{records: records}
}

// List returns all customer records sorted newest first by update time.
func (c *customerUseCase) List(ctx context.Context) ([]*domain.CustomerRecord, error) {
	records, err := c.records.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list customer records")
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}
