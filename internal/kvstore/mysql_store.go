package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	apperrors "github.com/allisson/accessgate/internal/errors"
)

// MySQLStore implements Store on a kv_entries table. Expired entries are
// filtered on read and reclaimed lazily on write; no background sweeper runs.
type MySQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewMySQLStore creates a new MySQLStore.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, now: time.Now}
}

// Get returns the value stored under key, ignoring expired entries.
func (s *MySQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT kv_value FROM kv_entries
			  WHERE kv_key = ? AND (expires_at IS NULL OR expires_at > ?)`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key, s.now().UTC()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get key")
	}
	return value, nil
}

// Put stores value under key, overwriting any existing entry.
func (s *MySQLStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `INSERT INTO kv_entries (kv_key, kv_value, expires_at, updated_at)
			  VALUES (?, ?, ?, NOW())
			  ON DUPLICATE KEY UPDATE
			  kv_value = VALUES(kv_value), expires_at = VALUES(expires_at), updated_at = NOW()`

	_, err := s.db.ExecContext(ctx, query, key, value, s.expiresAt(ttl))
	if err != nil {
		return apperrors.Wrap(err, "failed to put key")
	}
	return nil
}

// PutIfAbsent claims key when no live entry exists. An expired entry is removed
// first so the slot can be reclaimed; the insert itself is the atomic claim.
func (s *MySQLStore) PutIfAbsent(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	reclaim := `DELETE FROM kv_entries WHERE kv_key = ? AND expires_at IS NOT NULL AND expires_at <= ?`
	if _, err := s.db.ExecContext(ctx, reclaim, key, s.now().UTC()); err != nil {
		return false, apperrors.Wrap(err, "failed to reclaim expired key")
	}

	insert := `INSERT INTO kv_entries (kv_key, kv_value, expires_at, updated_at) VALUES (?, ?, ?, NOW())`

	_, err := s.db.ExecContext(ctx, insert, key, value, s.expiresAt(ttl))
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return false, nil
		}
		return false, apperrors.Wrap(err, "failed to claim key")
	}
	return true, nil
}

// Delete removes the entry under key.
func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_entries WHERE kv_key = ?`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return apperrors.Wrap(err, "failed to delete key")
	}
	return nil
}

// Keys returns all live keys starting with prefix.
func (s *MySQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT kv_key FROM kv_entries
			  WHERE kv_key LIKE ? AND (expires_at IS NULL OR expires_at > ?)
			  ORDER BY kv_key`

	rows, err := s.db.QueryContext(ctx, query, likePattern(prefix), s.now().UTC())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list keys")
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate keys")
	}
	return keys, nil
}

// expiresAt converts a ttl into an absolute expiration timestamp.
// A zero ttl produces a NULL expiration (no expiry).
func (s *MySQLStore) expiresAt(ttl time.Duration) sql.NullTime {
	if ttl <= 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: s.now().UTC().Add(ttl), Valid: true}
}

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate key violation
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062 (23000): Duplicate entry ..."
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
