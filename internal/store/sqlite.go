package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at INTEGER,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv(expires_at);
`

// SQLiteStore is a KV backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open kv db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply kv schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Get returns the value for key. Expired rows are treated as missing and
// reaped lazily.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var expires sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv WHERE key = ?`, key).Scan(&value, &expires)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get %s: %w", key, err)
	}
	if expires.Valid && expires.Int64 > 0 && time.Now().Unix() >= expires.Int64 {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
		return "", false, nil
	}
	return value, true, nil
}

// Set stores value under key, replacing any existing row.
func (s *SQLiteStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expires any
	if ttl != 0 {
		expires = time.Now().Add(ttl).Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = CURRENT_TIMESTAMP
	`, key, value, expires)
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

// ListKeysByPrefix returns all unexpired keys starting with prefix, in
// lexicographic order.
func (s *SQLiteStore) ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM kv
		WHERE key >= ? AND key < ? AND (expires_at IS NULL OR expires_at = 0 OR expires_at > ?)
		ORDER BY key
	`, prefix, prefix+"￿", time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("kv list %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("kv list scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
