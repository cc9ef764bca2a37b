package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SQLiteStore persists values in the kv_store table of the store database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewSQLiteStore wraps a migrated store database.
func NewSQLiteStore(db *sql.DB, log zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:  db,
		now: time.Now,
		log: log.With().Str("repository", "kv_store").Logger(),
	}
}

// Get returns the value for key. A missing key is not an error.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the value for key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	s.log.Debug().Str("key", key).Int("bytes", len(value)).Msg("Value stored")
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (s *SQLiteStore) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM kv_store WHERE key = ?", key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get updated_at for %s: %w", key, err)
	}
	return time.Unix(ts, 0), true, nil
}
