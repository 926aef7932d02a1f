// Package kvstore provides the keyed durable store used for event locks,
// customer records and onboarding markers. Keys are namespaced strings
// (e.g. "evt:<id>", "cust:<id>", "email:<addr>", "onboarded:<id>").
package kvstore

import (
	"context"
	"time"
)

// Store defines the narrow keyed store operations shared by all backends.
// Implementations must provide atomic single-key read-modify-write; no
// multi-key transactions are assumed or required.
type Store interface {
	// Get returns the value stored under key. Returns errors.ErrNotFound
	// when the key is absent or its entry has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, overwriting any existing entry.
	// A zero ttl stores the entry without expiration.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// PutIfAbsent atomically stores value under key only when no live entry
	// exists. Returns true when the claim succeeded, false when another live
	// entry already occupies the key.
	PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes the entry under key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all live keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
