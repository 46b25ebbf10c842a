// Package store provides durable per-device key/value storage using SQLite.
//
// # Overview
//
// A browser keeps "remember me" credentials in localStorage. The web front-end
// renders pages server-side, so that storage lives here instead, partitioned
// by the device ID carried in the browser's signed device cookie.
//
// # Implementations
//
//   - SQLiteStore: production store backed by modernc.org/sqlite
//   - MemoryStore: in-memory store for unit tests
//
// Both implement LocalStorage.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA busy_timeout=5000;
//
// Schema:
//
//	local_storage(device_id, key, value, updated_at)  PRIMARY KEY (device_id, key)
//
// DeleteStaleDevices drops every key of devices that have not written
// anything since a cutoff; the server runs it periodically.
//
// # Error Handling
//
// Get returns ErrNotFound for missing keys. Remove and Clear ignore missing
// keys. All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMemoryStore() for unit tests, or NewSQLiteStore(":memory:") for
// tests against real SQLite.
package store
