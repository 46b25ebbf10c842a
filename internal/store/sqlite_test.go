// ABOUTME: Tests for the LocalStorage implementations
// ABOUTME: Runs one behaviour suite against SQLiteStore and MemoryStore

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := s1.Set(ctx, "dev-1", "jwt", "T1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	s1.Close()

	s2, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, "dev-1", "jwt")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got != "T1" {
		t.Errorf("Get after reopen = %q, want %q", got, "T1")
	}
}

func TestSQLiteStore_DeleteStaleDevices(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	if err := store.SetMany(ctx, "old", map[string]string{"jwt": "T1", "email": "a@b.com"}); err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}

	// Nothing is older than an hour ago
	n, err := store.DeleteStaleDevices(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteStaleDevices failed: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted %d rows, want 0", n)
	}

	n, err = store.DeleteStaleDevices(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteStaleDevices failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d rows, want 2", n)
	}
	if _, err := store.Get(ctx, "old", "jwt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after sweep, got %v", err)
	}
}

func TestLocalStorage(t *testing.T) {
	impls := map[string]func(t *testing.T) LocalStorage{
		"sqlite": func(t *testing.T) LocalStorage { return newTestStore(t) },
		"sqlite-memory": func(t *testing.T) LocalStorage {
			s, err := NewSQLiteStore(":memory:")
			if err != nil {
				t.Fatalf("NewSQLiteStore(:memory:) failed: %v", err)
			}
			return s
		},
		"memory": func(t *testing.T) LocalStorage { return NewMemoryStore() },
	}

	for name, newStore := range impls {
		t.Run(name, func(t *testing.T) {
			t.Run("get missing", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()

				_, err := s.Get(context.Background(), "dev", "jwt")
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			})

			t.Run("set get overwrite", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()
				ctx := context.Background()

				if err := s.Set(ctx, "dev", "jwt", "T1"); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
				if err := s.Set(ctx, "dev", "jwt", "T2"); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
				got, err := s.Get(ctx, "dev", "jwt")
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if got != "T2" {
					t.Errorf("Get = %q, want %q", got, "T2")
				}
			})

			t.Run("devices are isolated", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()
				ctx := context.Background()

				if err := s.Set(ctx, "dev-a", "jwt", "A"); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
				if _, err := s.Get(ctx, "dev-b", "jwt"); !errors.Is(err, ErrNotFound) {
					t.Errorf("dev-b saw dev-a's key: %v", err)
				}
			})

			t.Run("set many then keys", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()
				ctx := context.Background()

				err := s.SetMany(ctx, "dev", map[string]string{
					"jwt":        "T1",
					"email":      "a@b.com",
					"password":   "secret",
					"isRemember": "true",
				})
				if err != nil {
					t.Fatalf("SetMany failed: %v", err)
				}

				keys, err := s.Keys(ctx, "dev")
				if err != nil {
					t.Fatalf("Keys failed: %v", err)
				}
				want := []string{"email", "isRemember", "jwt", "password"}
				if len(keys) != len(want) {
					t.Fatalf("Keys = %v, want %v", keys, want)
				}
				for i := range want {
					if keys[i] != want[i] {
						t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
					}
				}
			})

			t.Run("remove", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()
				ctx := context.Background()

				_ = s.SetMany(ctx, "dev", map[string]string{"jwt": "T1", "email": "a@b.com"})

				if err := s.Remove(ctx, "dev", "jwt", "missing"); err != nil {
					t.Fatalf("Remove failed: %v", err)
				}
				if _, err := s.Get(ctx, "dev", "jwt"); !errors.Is(err, ErrNotFound) {
					t.Errorf("jwt still present: %v", err)
				}
				if got, _ := s.Get(ctx, "dev", "email"); got != "a@b.com" {
					t.Errorf("email = %q, want kept", got)
				}
				if err := s.Remove(ctx, "dev"); err != nil {
					t.Errorf("Remove with no keys failed: %v", err)
				}
			})

			t.Run("clear", func(t *testing.T) {
				s := newStore(t)
				defer s.Close()
				ctx := context.Background()

				_ = s.SetMany(ctx, "dev", map[string]string{"jwt": "T1", "email": "a@b.com"})
				_ = s.Set(ctx, "other", "jwt", "T9")

				if err := s.Clear(ctx, "dev"); err != nil {
					t.Fatalf("Clear failed: %v", err)
				}
				keys, _ := s.Keys(ctx, "dev")
				if len(keys) != 0 {
					t.Errorf("Keys after Clear = %v, want none", keys)
				}
				if got, _ := s.Get(ctx, "other", "jwt"); got != "T9" {
					t.Errorf("other device lost data: %q", got)
				}
			})
		})
	}
}

// newTestStore creates a SQLiteStore in a temp directory.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	return store
}
