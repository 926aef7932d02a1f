// Package repository implements durable state for webhook processing on top
// of the keyed store: event-level locks, customer records and onboarding
// markers.
package repository

import (
	"context"
	"time"

	apperrors "github.com/allisson/accessgate/internal/errors"
	"github.com/allisson/accessgate/internal/kvstore"
)

const (
	eventKeyPrefix = "evt:"

	lockStateProcessing = "processing"
	lockStateDone       = "done"
)

// LockOutcome is the result of attempting to claim an event for processing.
type LockOutcome int

const (
	// LockAcquired means this process owns the event and must process it.
	LockAcquired LockOutcome = iota
	// LockAlreadyDone means the event completed earlier; skip it.
	LockAlreadyDone
	// LockInFlight means another delivery of the event is being processed.
	LockInFlight
)

// EventLockRepository implements the at-most-once event claim on the keyed
// store. A processing claim expires after processingTTL so a crashed worker
// cannot wedge an event forever; a done marker is kept for doneTTL to absorb
// provider redeliveries.
type EventLockRepository struct {
	store         kvstore.Store
	processingTTL time.Duration
	doneTTL       time.Duration
}

// NewEventLockRepository creates an EventLockRepository.
func NewEventLockRepository(store kvstore.Store, processingTTL, doneTTL time.Duration) *EventLockRepository {
	return &EventLockRepository{
		store:         store,
		processingTTL: processingTTL,
		doneTTL:       doneTTL,
	}
}

// Begin attempts to claim eventID for processing.
func (r *EventLockRepository) Begin(ctx context.Context, eventID string) (LockOutcome, error) {
	key := eventKeyPrefix + eventID

	claimed, err := r.store.PutIfAbsent(ctx, key, []byte(lockStateProcessing), r.processingTTL)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to claim event lock")
	}
	if claimed {
		return LockAcquired, nil
	}

	value, err := r.store.Get(ctx, key)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			// The holder expired between our claim and the read; try once more.
			claimed, err = r.store.PutIfAbsent(ctx, key, []byte(lockStateProcessing), r.processingTTL)
			if err != nil {
				return 0, apperrors.Wrap(err, "failed to claim event lock")
			}
			if claimed {
				return LockAcquired, nil
			}
			return LockInFlight, nil
		}
		return 0, apperrors.Wrap(err, "failed to read event lock")
	}

	if string(value) == lockStateDone {
		return LockAlreadyDone, nil
	}
	return LockInFlight, nil
}

// Commit marks eventID as fully processed so redeliveries are deduplicated.
func (r *EventLockRepository) Commit(ctx context.Context, eventID string) error {
	key := eventKeyPrefix + eventID
	if err := r.store.Put(ctx, key, []byte(lockStateDone), r.doneTTL); err != nil {
		return apperrors.Wrap(err, "failed to commit event lock")
	}
	return nil
}

// Abort releases the processing claim so the provider's retry can run the
// event again.
func (r *EventLockRepository) Abort(ctx context.Context, eventID string) error {
	key := eventKeyPrefix + eventID
	if err := r.store.Delete(ctx, key); err != nil {
		return apperrors.Wrap(err, "failed to release event lock")
	}
	return nil
}
