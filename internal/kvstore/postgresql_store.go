package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	apperrors "github.com/allisson/accessgate/internal/errors"
)

// PostgreSQLStore implements Store on a kv_entries table. Expired entries are
// filtered on read and reclaimed lazily on write; no background sweeper runs.
type PostgreSQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgreSQLStore creates a new PostgreSQLStore.
func NewPostgreSQLStore(db *sql.DB) *PostgreSQLStore {
	return &PostgreSQLStore{db: db, now: time.Now}
}

// Get returns the value stored under key, ignoring expired entries.
func (s *PostgreSQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT kv_value FROM kv_entries
			  WHERE kv_key = $1 AND (expires_at IS NULL OR expires_at > $2)`

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
func (s *PostgreSQLStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `INSERT INTO kv_entries (kv_key, kv_value, expires_at, updated_at)
			  VALUES ($1, $2, $3, NOW())
			  ON CONFLICT (kv_key) DO UPDATE
			  SET kv_value = EXCLUDED.kv_value, expires_at = EXCLUDED.expires_at, updated_at = NOW()`

	_, err := s.db.ExecContext(ctx, query, key, value, s.expiresAt(ttl))
	if err != nil {
		return apperrors.Wrap(err, "failed to put key")
	}
	return nil
}

// PutIfAbsent claims key when no live entry exists. An expired entry is removed
// first so the slot can be reclaimed; the insert itself is the atomic claim.
func (s *PostgreSQLStore) PutIfAbsent(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	reclaim := `DELETE FROM kv_entries WHERE kv_key = $1 AND expires_at IS NOT NULL AND expires_at <= $2`
	if _, err := s.db.ExecContext(ctx, reclaim, key, s.now().UTC()); err != nil {
		return false, apperrors.Wrap(err, "failed to reclaim expired key")
	}

	insert := `INSERT INTO kv_entries (kv_key, kv_value, expires_at, updated_at)
			   VALUES ($1, $2, $3, NOW())
			   ON CONFLICT (kv_key) DO NOTHING`

	result, err := s.db.ExecContext(ctx, insert, key, value, s.expiresAt(ttl))
	if err != nil {
		return false, apperrors.Wrap(err, "failed to claim key")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check claim result")
	}
	return affected == 1, nil
}

// Delete removes the entry under key.
func (s *PostgreSQLStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_entries WHERE kv_key = $1`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return apperrors.Wrap(err, "failed to delete key")
	}
	return nil
}

// Keys returns all live keys starting with prefix.
func (s *PostgreSQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT kv_key FROM kv_entries
			  WHERE kv_key LIKE $1 AND (expires_at IS NULL OR expires_at > $2)
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
func (s *PostgreSQLStore) expiresAt(ttl time.Duration) sql.NullTime {
	if ttl <= 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: s.now().UTC().Add(ttl), Valid: true}
}

// likePattern escapes LIKE metacharacters in prefix and appends the wildcard.
func likePattern(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}
