// ABOUTME: Store holds one browser's Session and applies the four state transitions
// ABOUTME: Registry maps device IDs to Stores and is owned by the composition root

package session

import (
	"log/slog"
	"sync"
)

// Store is the mutable container for a single Session.
// Every transition is applied under the store's lock, so a transition is
// never observed half-done by a concurrent request for the same device.
type Store struct {
	mu       sync.RWMutex
	state    State
	remember bool
	err      string
	logger   *slog.Logger
}

// NewStore creates an anonymous Store.
func NewStore() *Store {
	return &Store{
		state:  Anonymous{},
		logger: slog.Default().With("component", "session"),
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{State: s.state, RememberUser: s.remember, Error: s.err}
}

// StoreToken records a token and marks the user as remembered.
//
// From Anonymous the session becomes AuthenticatedNoProfile. An existing
// profile is kept whatever the token; ClearSession is the only transition
// that removes one.
func (s *Store) StoreToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch st := s.state.(type) {
	case AuthenticatedWithProfile:
		st.Token = token
		s.state = st
	default:
		s.state = AuthenticatedNoProfile{Token: token}
	}
	s.remember = true

	s.logger.Debug("token stored", "state", s.state.Name())
	return nil
}

// ClearSession returns the session to Anonymous. The recorded error is kept.
func (s *Store) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Anonymous{}
	s.remember = false

	s.logger.Debug("session cleared")
}

// SetProfile stores or replaces the profile. It fails with ErrNoToken when
// the session is anonymous and leaves the state untouched.
func (s *Store) SetProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var token string
	switch st := s.state.(type) {
	case AuthenticatedNoProfile:
		token = st.Token
	case AuthenticatedWithProfile:
		token = st.Token
	default:
		return ErrNoToken
	}
	s.state = AuthenticatedWithProfile{Token: token, Profile: p}
	return nil
}

// SetError records msg as the last error. No other transition clears it.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
}

// ClearError removes the recorded error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

// Registry owns one Store per device.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// Get returns the device's Store, creating an anonymous one on first use.
func (r *Registry) Get(deviceID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.stores[deviceID]
	if !ok {
		st = NewStore()
		r.stores[deviceID] = st
	}
	return st
}

// Drop forgets the device's Store. The next Get starts cold.
func (r *Registry) Drop(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, deviceID)
}

// Len returns the number of tracked devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
