package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/accessgate/internal/testutil"
)

func TestEventLockRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("BeginClaimsFreshEvent", func(t *testing.T) {
		repo := NewEventLockRepository(testutil.NewMemStore(), 15*time.Minute, 720*time.Hour)

		outcome, err := repo.Begin(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, LockAcquired, outcome)
	})

	t.Run("SecondBeginSeesInFlight", func(t *testing.T) {
		repo := NewEventLockRepository(testutil.NewMemStore(), 15*time.Minute, 720*time.Hour)

		_, err := repo.Begin(ctx, "evt_1")
		require.NoError(t, err)

		outcome, err := repo.Begin(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, LockInFlight, outcome)
	})

	t.Run("BeginAfterCommitSeesDone", func(t *testing.T) {
		repo := NewEventLockRepository(testutil.NewMemStore(), 15*time.Minute, 720*time.Hour)

		_, err := repo.Begin(ctx, "evt_1")
		require.NoError(t, err)
		require.NoError(t, repo.Commit(ctx, "evt_1"))

		outcome, err := repo.Begin(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, LockAlreadyDone, outcome)
	})

	t.Run("BeginAfterAbortClaimsAgain", func(t *testing.T) {
		repo := NewEventLockRepository(testutil.NewMemStore(), 15*time.Minute, 720*time.Hour)

		_, err := repo.Begin(ctx, "evt_1")
		require.NoError(t, err)
		require.NoError(t, repo.Abort(ctx, "evt_1"))

		outcome, err := repo.Begin(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, LockAcquired, outcome)
	})

	t.Run("ExpiredProcessingClaimIsReclaimable", func(t *testing.T) {
		store := testutil.NewMemStore()
		repo := NewEventLockRepository(store, 15*time.Minute, 720*time.Hour)

		_, err := repo.Begin(ctx, "evt_1")
		require.NoError(t, err)

		// Simulate a crashed worker whose claim timed out.
		now := time.Now()
		store.Clock = func() time.Time { return now.Add(16 * time.Minute) }

		outcome, err := repo.Begin(ctx, "evt_1")
		require.NoError(t, err)
		assert.Equal(t, LockAcquired, outcome)
	})
}
