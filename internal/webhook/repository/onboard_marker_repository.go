package repository

import (
	"context"
	"time"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/kvstore"
)

const onboardedKeyPrefix = "onboarded:"

// OnboardMarkerRepository records which customers already received their
// onboarding dispatch. Markers are written under both the customer id and the
// normalized email so a returning customer is recognized by either identity.
type OnboardMarkerRepository struct {
	store kvstore.Store
}

// NewOnboardMarkerRepository creates an OnboardMarkerRepository.
func NewOnboardMarkerRepository(store kvstore.Store) *OnboardMarkerRepository {
	return &OnboardMarkerRepository{store: store}
}

// Exists reports whether an onboarding marker is present for either identity.
func (r *OnboardMarkerRepository) Exists(ctx context.Context, customerID, email string) (bool, error) {
	for _, key := range r.keys(customerID, email) {
		_, err := r.store.Get(ctx, key)
		if err == nil {
			return true, nil
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return false, apperrors.Wrap(err, "failed to read onboarding marker")
		}
	}
	return false, nil
}

// Set writes onboarding markers for both identities. Markers never expire.
func (r *OnboardMarkerRepository) Set(ctx context.Context, customerID, email string) error {
	value := []byte(time.Now().UTC().Format(time.RFC3339))
	for _, key := range r.keys(customerID, email) {
		if err := r.store.Put(ctx, key, value, 0); err != nil {
			return apperrors.Wrap(err, "failed to write onboarding marker")
		}
	}
	return nil
}

func (r *OnboardMarkerRepository) keys(customerID, email string) []string {
	var keys []string
	if customerID != "" {
		keys = append(keys, onboardedKeyPrefix+customerID)
	}
	if email != "" {
		keys = append(keys, onboardedKeyPrefix+normalizeEmail(email))
	}
	return keys
}
