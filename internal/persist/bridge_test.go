// ABOUTME: Tests for the persistence bridge over the in-memory and SQLite stores
// ABOUTME: Covers write-on-remember, clear-on-logout and the read helpers

package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/argent-web/internal/store"
)

func TestWriteOnRemember(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	b := New(mem)

	require.NoError(t, b.WriteOnRemember(ctx, "dev-1", "tok-1", Credentials{Email: "tony@stark.com", Password: "password123"}))

	keys, err := mem.Keys(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, []string{KeyEmail, KeyRemember, KeyToken, KeyPassword}, keys)

	tok, err := b.ReadToken(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	creds, err := b.ReadCredentials(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, Credentials{Email: "tony@stark.com", Password: "password123"}, creds)

	ok, err := b.HasRememberedSession(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriteOnRemember_WithoutPassword(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	b := New(mem, WithoutPassword())
	assert.False(t, b.PersistsPassword())

	require.NoError(t, b.WriteOnRemember(ctx, "dev-1", "tok-1", Credentials{Email: "a@b.c", Password: "secret"}))

	_, err := mem.Get(ctx, "dev-1", KeyPassword)
	assert.ErrorIs(t, err, store.ErrNotFound)

	creds, err := b.ReadCredentials(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", creds.Email)
	assert.Empty(t, creds.Password)
}

func TestWriteOnRemember_WithoutPasswordRemovesOldPassword(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()

	// Written while persistence was still on.
	require.NoError(t, New(mem).WriteOnRemember(ctx, "dev-1", "tok-1", Credentials{Email: "a@b.c", Password: "old-secret"}))

	b := New(mem, WithoutPassword())
	require.NoError(t, b.WriteOnRemember(ctx, "dev-1", "tok-2", Credentials{Email: "a@b.c", Password: "new-secret"}))

	_, err := mem.Get(ctx, "dev-1", KeyPassword)
	assert.ErrorIs(t, err, store.ErrNotFound)

	creds, err := b.ReadCredentials(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, Credentials{Email: "a@b.c"}, creds)

	tok, err := b.ReadToken(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}

func TestClearOnLogout(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	b := New(mem)

	require.NoError(t, b.WriteOnRemember(ctx, "dev-1", "tok-1", Credentials{Email: "e", Password: "p"}))
	require.NoError(t, mem.Set(ctx, "dev-1", "theme", "dark"))
	require.NoError(t, b.WriteOnRemember(ctx, "dev-2", "tok-2", Credentials{Email: "e2", Password: "p2"}))

	require.NoError(t, b.ClearOnLogout(ctx, "dev-1"))

	keys, err := mem.Keys(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"theme"}, keys)

	ok, err := b.HasRememberedSession(ctx, "dev-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClearOnLogout_NothingStored(t *testing.T) {
	b := New(store.NewMemoryStore())
	assert.NoError(t, b.ClearOnLogout(context.Background(), "dev-1"))
}

func TestHasRememberedSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		values map[string]string
		want   bool
	}{
		{name: "empty", values: nil, want: false},
		{name: "token only", values: map[string]string{KeyToken: "t"}, want: false},
		{name: "flag only", values: map[string]string{KeyRemember: "true"}, want: false},
		{name: "both", values: map[string]string{KeyToken: "t", KeyRemember: "true"}, want: true},
		{name: "flag value ignored", values: map[string]string{KeyToken: "t", KeyRemember: "false"}, want: true},
		{name: "empty token", values: map[string]string{KeyToken: "", KeyRemember: "true"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemoryStore()
			if tt.values != nil {
				require.NoError(t, mem.SetMany(ctx, "dev", tt.values))
			}
			got, err := New(mem).HasRememberedSession(ctx, "dev")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadEmptyDevice(t *testing.T) {
	ctx := context.Background()
	b := New(store.NewMemoryStore())

	tok, err := b.ReadToken(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, tok)

	creds, err := b.ReadCredentials(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, creds)
}

func TestBridge_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, New(s).WriteOnRemember(ctx, "dev-1", "tok-1", Credentials{Email: "e", Password: "p"}))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	ok, err := New(s).HasRememberedSession(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, ok)
}
