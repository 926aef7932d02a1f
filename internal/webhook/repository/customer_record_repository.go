package repository

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/kvstore"
	"github.com/allisson/accessgate/internal/webhook/domain"
)

const (
	customerKeyPrefix = "cust:"
	emailKeyPrefix    = "email:"
)

// CustomerRecordRepository persists customer access records on the keyed
// store. Each record is stored under its customer id; a secondary email key
// maps a normalized address to the owning customer id for pre-identification
// lookups.
type CustomerRecordRepository struct {
	store kvstore.Store
}

// NewCustomerRecordRepository creates a CustomerRecordRepository.
func NewCustomerRecordRepository(store kvstore.Store) *CustomerRecordRepository {
	return &CustomerRecordRepository{store: store}
}

// Get retrieves the record for customerID. Returns apperrors.ErrNotFound when
// no record exists.
func (r *CustomerRecordRepository) Get(ctx context.Context, customerID string) (*domain.CustomerRecord, error) {
	value, err := r.store.Get(ctx, customerKeyPrefix+customerID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get customer record")
	}

	var record domain.CustomerRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal customer record")
	}
	return &record, nil
}

// GetByEmail resolves email through the secondary index and returns the
// owning record. Falls back to an email-keyed record for customers whose
// provider id was never learned.
func (r *CustomerRecordRepository) GetByEmail(ctx context.Context, email string) (*domain.CustomerRecord, error) {
	recordKey, err := r.store.Get(ctx, emailKeyPrefix+normalizeEmail(email))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return r.Get(ctx, normalizeEmail(email))
		}
		return nil, apperrors.Wrap(err, "failed to resolve email index")
	}
	return r.Get(ctx, string(recordKey))
}

// Save writes the record under its customer id, or under its normalized email
// when the id is unknown, and refreshes the email index. Records never expire.
func (r *CustomerRecordRepository) Save(ctx context.Context, record *domain.CustomerRecord) error {
	recordKey := record.CustomerID
	if recordKey == "" {
		recordKey = normalizeEmail(record.Email)
	}
	if recordKey == "" {
		return apperrors.New("customer record has no storage key")
	}

	value, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal customer record")
	}

	if err := r.store.Put(ctx, customerKeyPrefix+recordKey, value, 0); err != nil {
		return apperrors.Wrap(err, "failed to save customer record")
	}

	if record.Email != "" {
		key := emailKeyPrefix + normalizeEmail(record.Email)
		if err := r.store.Put(ctx, key, []byte(recordKey), 0); err != nil {
			return apperrors.Wrap(err, "failed to save email index")
		}
	}
	return nil
}

// List returns every stored customer record that carries a provider customer
// id. Records saved before the id was learned stay reachable through
// GetByEmail but are excluded here, so the listing never shows a stale
// email-keyed duplicate next to the identified record. Entries that fail to
// decode are skipped rather than failing the whole listing.
func (r *CustomerRecordRepository) List(ctx context.Context) ([]*domain.CustomerRecord, error) {
	keys, err := r.store.Keys(ctx, customerKeyPrefix)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list customer keys")
	}

	records := make([]*domain.CustomerRecord, 0, len(keys))
	for _, key := range keys {
		value, err := r.store.Get(ctx, key)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, apperrors.Wrap(err, "failed to read customer record")
		}

		var record domain.CustomerRecord
		if err := json.Unmarshal(value, &record); err != nil {
			continue
		}
		if record.CustomerID == "" {
			continue
		}
		records = append(records, &record)
	}
	return records, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
