// ABOUTME: Mirrors remembered credentials into durable per-device storage
// ABOUTME: Written on remembered sign-in, read on page mount, cleared on logout

package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/argent-web/internal/store"
)

// Durable keys, shared with anything that inspects the local storage table.
const (
	KeyToken    = "jwt"
	KeyEmail    = "email"
	KeyPassword = "password"
	KeyRemember = "isRemember"
)

var allKeys = []string{KeyToken, KeyEmail, KeyPassword, KeyRemember}

// Credentials are the values used to prefill the sign-in form.
type Credentials struct {
	Email    string
	Password string
}

// Bridge reads and writes the remembered session of a device.
type Bridge struct {
	storage         store.LocalStorage
	persistPassword bool
	logger          *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithoutPassword stops the bridge from writing the cleartext password.
// A password stored earlier is removed on the device's next remembered
// sign-in, and cleared on logout as before.
func WithoutPassword() Option {
	return func(b *Bridge) { b.persistPassword = false }
}

// New creates a Bridge over storage.
func New(storage store.LocalStorage, opts ...Option) *Bridge {
	b := &Bridge{
		storage:         storage,
		persistPassword: true,
		logger:          slog.Default().With("component", "persist"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PersistsPassword reports whether sign-in writes the password to storage.
func (b *Bridge) PersistsPassword() bool {
	return b.persistPassword
}

// WriteOnRemember stores the token and credentials after a remembered sign-in.
// All keys are written in one transaction.
func (b *Bridge) WriteOnRemember(ctx context.Context, deviceID, token string, creds Credentials) error {
	values := map[string]string{
		KeyToken:    token,
		KeyEmail:    creds.Email,
		KeyRemember: "true",
	}
	if b.persistPassword {
		values[KeyPassword] = creds.Password
	}

	if err := b.storage.SetMany(ctx, deviceID, values); err != nil {
		return fmt.Errorf("writing remembered session: %w", err)
	}
	if !b.persistPassword {
		// Drop a password left over from before persistence was turned off.
		if err := b.storage.Remove(ctx, deviceID, KeyPassword); err != nil {
			return fmt.Errorf("removing stored password: %w", err)
		}
	}
	b.logger.Debug("remembered session written", "device", deviceID)
	return nil
}

// ClearOnLogout removes every remembered key of the device.
func (b *Bridge) ClearOnLogout(ctx context.Context, deviceID string) error {
	if err := b.storage.Remove(ctx, deviceID, allKeys...); err != nil {
		return fmt.Errorf("clearing remembered session: %w", err)
	}
	b.logger.Debug("remembered session cleared", "device", deviceID)
	return nil
}

// ReadCredentials returns the persisted email and password. Missing keys
// come back as empty strings.
func (b *Bridge) ReadCredentials(ctx context.Context, deviceID string) (Credentials, error) {
	email, err := b.get(ctx, deviceID, KeyEmail)
	if err != nil {
		return Credentials{}, err
	}
	password, err := b.get(ctx, deviceID, KeyPassword)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Email: email, Password: password}, nil
}

// ReadToken returns the persisted token, or "" if none.
func (b *Bridge) ReadToken(ctx context.Context, deviceID string) (string, error) {
	return b.get(ctx, deviceID, KeyToken)
}

// HasRememberedSession reports whether both the token and the remember flag
// are present. The flag's value is not inspected.
func (b *Bridge) HasRememberedSession(ctx context.Context, deviceID string) (bool, error) {
	token, err := b.get(ctx, deviceID, KeyToken)
	if err != nil || token == "" {
		return false, err
	}
	_, err = b.storage.Get(ctx, deviceID, KeyRemember)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", KeyRemember, err)
	}
	return true, nil
}

func (b *Bridge) get(ctx context.Context, deviceID, key string) (string, error) {
	v, err := b.storage.Get(ctx, deviceID, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return v, nil
}
