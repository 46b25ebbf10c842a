// ABOUTME: SQLite implementation of LocalStorage using modernc.org/sqlite
// ABOUTME: Persists per-device key/value pairs with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements LocalStorage using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStore implements LocalStorage.
var _ LocalStorage = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == ":memory:" {
		// Each connection to :memory: is its own database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS local_storage (
			device_id  TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (device_id, key)
		);

		CREATE INDEX IF NOT EXISTS idx_local_storage_updated
			ON local_storage(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// Get returns the stored value for key.
func (s *SQLiteStore) Get(ctx context.Context, deviceID, key string) (string, error) {
	query := `SELECT value FROM local_storage WHERE device_id = ? AND key = ?`

	var value string
	err := s.db.QueryRowContext(ctx, query, deviceID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying local storage: %w", err)
	}
	return value, nil
}

// Set creates or overwrites key.
func (s *SQLiteStore) Set(ctx context.Context, deviceID, key, value string) error {
	return s.SetMany(ctx, deviceID, map[string]string{key: value})
}

// SetMany writes all pairs in a single transaction.
func (s *SQLiteStore) SetMany(ctx context.Context, deviceID string, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
		INSERT INTO local_storage (device_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, query, deviceID, key, value, now); err != nil {
			return fmt.Errorf("writing key %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Remove deletes the given keys for a device.
func (s *SQLiteStore) Remove(ctx context.Context, deviceID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := `DELETE FROM local_storage WHERE device_id = ? AND key IN (` + placeholders + `)`

	args := make([]any, 0, len(keys)+1)
	args = append(args, deviceID)
	for _, k := range keys {
		args = append(args, k)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("removing keys: %w", err)
	}
	return nil
}

// Keys lists a device's keys in ascending order.
func (s *SQLiteStore) Keys(ctx context.Context, deviceID string) ([]string, error) {
	query := `SELECT key FROM local_storage WHERE device_id = ? ORDER BY key ASC`

	rows, err := s.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	return keys, nil
}

// Clear removes every key of a device.
func (s *SQLiteStore) Clear(ctx context.Context, deviceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE device_id = ?`, deviceID); err != nil {
		return fmt.Errorf("clearing device: %w", err)
	}
	return nil
}

// DeleteStaleDevices removes all data of devices not written since cutoff.
// It returns the number of rows deleted.
func (s *SQLiteStore) DeleteStaleDevices(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM local_storage
		WHERE device_id IN (
			SELECT device_id FROM local_storage
			GROUP BY device_id
			HAVING MAX(updated_at) < ?
		)
	`

	res, err := s.db.ExecContext(ctx, query, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("deleting stale devices: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted rows: %w", err)
	}
	if n > 0 {
		s.logger.Info("deleted stale device data", "rows", n)
	}
	return n, nil
}
