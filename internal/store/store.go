// ABOUTME: LocalStorage interface for durable per-device key/value data
// ABOUTME: Mirrors what a browser keeps in localStorage, keyed by device ID

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist
var ErrNotFound = errors.New("not found")

// LocalStorage is a durable string key/value store partitioned by device.
// Values are opaque to the store.
type LocalStorage interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, deviceID, key string) (string, error)

	// Set creates or overwrites key.
	Set(ctx context.Context, deviceID, key, value string) error

	// SetMany writes all pairs atomically.
	SetMany(ctx context.Context, deviceID string, values map[string]string) error

	// Remove deletes the given keys. Missing keys are ignored.
	Remove(ctx context.Context, deviceID string, keys ...string) error

	// Keys lists the keys stored for a device in ascending order.
	Keys(ctx context.Context, deviceID string) ([]string, error)

	// Clear removes every key of a device.
	Clear(ctx context.Context, deviceID string) error

	// Close releases any resources held by the store
	Close() error
}
