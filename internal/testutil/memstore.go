// Package testutil provides shared helpers for tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/allisson/accessgate/internal/errors"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemStore is an in-memory kvstore.Store implementation for tests. It honors
// TTL semantics through an injectable clock so expiry can be simulated
// without sleeping.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]memEntry

	// Clock returns the current time. Tests override it to fast-forward.
	Clock func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		entries: make(map[string]memEntry),
		Clock:   time.Now,
	}
}

// Get returns the value stored under key, or apperrors.ErrNotFound when the
// key is absent or expired.
func (m *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || m.expired(entry) {
		return nil, apperrors.ErrNotFound
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (m *MemStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = m.newEntry(value, ttl)
	return nil
}

// PutIfAbsent stores value only when key is absent or expired. Returns true
// when the write claimed the key.
func (m *MemStore) PutIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[key]; ok && !m.expired(entry) {
		return false, nil
	}
	m.entries[key] = m.newEntry(value, ttl)
	return true, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Keys returns all live keys starting with prefix, sorted for determinism.
func (m *MemStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key, entry := range m.entries {
		if strings.HasPrefix(key, prefix) && !m.expired(entry) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemStore) newEntry(value []byte, ttl time.Duration) memEntry {
	entry := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.Clock().Add(ttl)
	}
	return entry
}

func (m *MemStore) expired(entry memEntry) bool {
	return !entry.expiresAt.IsZero() && !m.Clock().Before(entry.expiresAt)
}
