// ABOUTME: Test doubles for the bank API used by the flow tests
// ABOUTME: Scripted responses, call counting and an optional blocking gate

package flow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/2389/argent-web/internal/apiclient"
	"github.com/2389/argent-web/internal/dedupe"
	"github.com/2389/argent-web/internal/persist"
	"github.com/2389/argent-web/internal/session"
	"github.com/2389/argent-web/internal/store"
)

type fakeAPI struct {
	mu sync.Mutex

	login      *apiclient.LoginBody
	loginErr   error
	profile    *apiclient.Profile
	profileErr error
	updated    *apiclient.Profile
	updateErr  error

	// gate, when set, blocks every call until closed.
	gate chan struct{}
	// entered receives one value per call that reached the gate.
	entered chan struct{}

	loginCalls  int
	fetchCalls  int
	updateCalls int
	lastCreds   apiclient.Credentials
	lastToken   string
	lastUpdate  apiclient.ProfileUpdate
}

func (f *fakeAPI) wait(ctx context.Context) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
		}
	}
}

func (f *fakeAPI) Authenticate(ctx context.Context, creds apiclient.Credentials) (*apiclient.LoginBody, error) {
	f.mu.Lock()
	f.loginCalls++
	f.lastCreds = creds
	f.mu.Unlock()

	f.wait(ctx)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.login, nil
}

func (f *fakeAPI) FetchProfile(ctx context.Context, token string) (*apiclient.Profile, error) {
	f.mu.Lock()
	f.fetchCalls++
	f.lastToken = token
	f.mu.Unlock()

	f.wait(ctx)
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, token string, upd apiclient.ProfileUpdate) (*apiclient.Profile, error) {
	f.mu.Lock()
	f.updateCalls++
	f.lastToken = token
	f.lastUpdate = upd
	f.mu.Unlock()

	f.wait(ctx)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

func (f *fakeAPI) calls() (login, fetch, update int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.fetchCalls, f.updateCalls
}

type harness struct {
	api     *fakeAPI
	storage *store.MemoryStore
	bridge  *persist.Bridge
	guard   *dedupe.Guard
	store   *session.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	guard := dedupe.New(time.Minute, 100)
	t.Cleanup(guard.Close)

	storage := store.NewMemoryStore()
	return &harness{
		api:     &fakeAPI{},
		storage: storage,
		bridge:  persist.New(storage),
		guard:   guard,
		store:   session.NewStore(),
	}
}

func (h *harness) signIn() *SignIn {
	return NewSignIn(h.api, h.bridge, h.guard)
}

func (h *harness) userPage(p Policy) *UserPage {
	return NewUserPage(h.api, h.bridge, h.guard, p)
}

var loginT1 = apiclient.LoginBody{Token: "T1"}

// failingStorage is a LocalStorage whose writes fail.
type failingStorage struct {
	*store.MemoryStore
	err error
}

func (f failingStorage) SetMany(context.Context, string, map[string]string) error {
	return f.err
}

