// ABOUTME: User page flow: session reconciliation on mount, inline name editing and logout
// ABOUTME: Holds the per-device edit form state between requests

package flow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/argent-web/internal/apiclient"
	"github.com/2389/argent-web/internal/dedupe"
	"github.com/2389/argent-web/internal/persist"
	"github.com/2389/argent-web/internal/session"
)

// maxReconcileSteps bounds one mount: seed token, fetch profile, settle.
const maxReconcileSteps = 4

// minNameLength is the minimum length of a trimmed first or last name.
const minNameLength = 2

// Edit form messages.
const (
	MsgNameTooShort   = "First and last name must be at least 2 characters."
	MsgUpdateInFlight = "Update already in progress. Please wait."
)

// ErrNameTooShort is returned by SubmitEdit when validation fails.
var ErrNameTooShort = errors.New("name too short")

// EditForm is the inline name editor.
type EditForm struct {
	FirstName    string
	LastName     string
	ErrorMessage string
}

// UserView is what the user page renders, unless Navigate is set.
type UserView struct {
	Navigate string
	Session  session.Session
	Editing  bool
	Edit     EditForm
}

// UserPage runs the user page.
type UserPage struct {
	api    ProfileAPI
	bridge *persist.Bridge
	guard  Guard
	policy Policy
	logger *slog.Logger

	mu      sync.Mutex
	editing map[string]EditForm // device ID -> open edit form
}

// NewUserPage creates the user page flow.
func NewUserPage(api ProfileAPI, bridge *persist.Bridge, guard Guard, policy Policy) *UserPage {
	return &UserPage{
		api:     api,
		bridge:  bridge,
		guard:   guard,
		policy:  policy,
		logger:  slog.Default().With("component", "flow.userpage"),
		editing: make(map[string]EditForm),
	}
}

// Mount reconciles the session with durable storage and the bank API:
//
//  1. a persisted token seeds an empty store
//  2. no token anywhere sends the user to sign-in
//  3. a token without a profile fetches it
//
// Each step runs at most once per mount, so a failing fetch does not loop,
// and a session that already has a profile never fetches.
func (f *UserPage) Mount(ctx context.Context, deviceID string, st *session.Store) (UserView, error) {
	seeded, fetched := false, false

	for range maxReconcileSteps {
		snap := st.Snapshot()

		if !snap.HasToken() {
			if seeded {
				break
			}
			token, err := f.bridge.ReadToken(ctx, deviceID)
			if err != nil {
				return UserView{}, err
			}
			if token == "" {
				return UserView{Navigate: PathSignIn}, nil
			}
			if err := st.StoreToken(token); err != nil {
				return UserView{}, err
			}
			seeded = true
			f.logger.Debug("session restored from storage", "device", deviceID)
			continue
		}

		if snap.HasProfile() || fetched {
			break
		}

		fetched = true
		nav, err := f.fetchProfile(ctx, deviceID, st, snap.Token())
		if err != nil || nav != "" {
			return UserView{Navigate: nav}, err
		}
	}

	return f.view(deviceID, st), nil
}

// fetchProfile loads the profile for token and applies the result.
func (f *UserPage) fetchProfile(ctx context.Context, deviceID string, st *session.Store, token string) (string, error) {
	p, err := f.api.FetchProfile(ctx, token)
	if stale(ctx) {
		return "", ctx.Err()
	}
	if st.Snapshot().Token() != token {
		// Signed out or signed in again while the call was running.
		return "", nil
	}

	if err != nil {
		f.logger.Warn("profile fetch failed", "device", deviceID, "error", err)
		st.SetError(err.Error())
		if f.policy.LogoutOnProfileError {
			if err := f.logout(ctx, deviceID, st); err != nil {
				return "", err
			}
			return PathSignIn, nil
		}
		return "", nil
	}

	if err := st.SetProfile(toSessionProfile(p)); err != nil {
		return "", err
	}
	if f.policy.ClearErrorOnSuccess {
		st.ClearError()
	}
	return "", nil
}

// BeginEdit opens the name editor seeded from the current profile.
// Without a profile there is nothing to edit and the view is returned as is.
func (f *UserPage) BeginEdit(deviceID string, st *session.Store) UserView {
	p, ok := st.Snapshot().Profile()
	if ok {
		f.mu.Lock()
		f.editing[deviceID] = EditForm{FirstName: p.FirstName, LastName: p.LastName}
		f.mu.Unlock()
	}
	return f.view(deviceID, st)
}

// CancelEdit closes the name editor without changing anything.
func (f *UserPage) CancelEdit(deviceID string, st *session.Store) UserView {
	f.closeEdit(deviceID)
	return f.view(deviceID, st)
}

// SubmitEdit sends the new names to the bank API and stores the record it
// returns. On failure the error is recorded in the session and the editor
// stays open with the typed values.
func (f *UserPage) SubmitEdit(ctx context.Context, deviceID string, st *session.Store, form EditForm) (UserView, error) {
	snap := st.Snapshot()
	if !snap.HasToken() {
		f.closeEdit(deviceID)
		return UserView{Navigate: PathSignIn}, nil
	}

	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.ErrorMessage = ""

	if len([]rune(form.FirstName)) < minNameLength || len([]rune(form.LastName)) < minNameLength {
		form.ErrorMessage = MsgNameTooShort
		f.openEdit(deviceID, form)
		return f.view(deviceID, st), ErrNameTooShort
	}

	key := dedupe.Key(deviceID, "update-profile")
	ticket, ok := f.guard.TryAcquire(key)
	if !ok {
		form.ErrorMessage = MsgUpdateInFlight
		f.openEdit(deviceID, form)
		return f.view(deviceID, st), ErrSubmitInFlight
	}
	defer f.guard.Release(key, ticket)

	p, err := f.api.UpdateProfile(ctx, snap.Token(), apiclient.ProfileUpdate{
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	if stale(ctx) {
		return UserView{}, ctx.Err()
	}
	if st.Snapshot().Token() != snap.Token() {
		f.closeEdit(deviceID)
		return f.view(deviceID, st), nil
	}

	if err != nil {
		f.logger.Warn("profile update failed", "device", deviceID, "error", err)
		st.SetError(err.Error())
		f.openEdit(deviceID, form)
		return f.view(deviceID, st), nil
	}

	if err := st.SetProfile(toSessionProfile(p)); err != nil {
		return UserView{}, err
	}
	if f.policy.ClearErrorOnSuccess {
		st.ClearError()
	}
	f.closeEdit(deviceID)

	f.logger.Info("profile updated", "device", deviceID)
	return f.view(deviceID, st), nil
}

// Logout clears durable storage and the session, then goes home.
func (f *UserPage) Logout(ctx context.Context, deviceID string, st *session.Store) (UserView, error) {
	if err := f.logout(ctx, deviceID, st); err != nil {
		return UserView{}, err
	}
	return UserView{Navigate: PathHome}, nil
}

func (f *UserPage) logout(ctx context.Context, deviceID string, st *session.Store) error {
	f.closeEdit(deviceID)
	st.ClearSession()
	if err := f.bridge.ClearOnLogout(ctx, deviceID); err != nil {
		return err
	}
	f.logger.Info("signed out", "device", deviceID)
	return nil
}

// Editing reports whether the device has the name editor open.
func (f *UserPage) Editing(deviceID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.editing[deviceID]
	return ok
}

func (f *UserPage) openEdit(deviceID string, form EditForm) {
	f.mu.Lock()
	f.editing[deviceID] = form
	f.mu.Unlock()
}

func (f *UserPage) closeEdit(deviceID string) {
	f.mu.Lock()
	delete(f.editing, deviceID)
	f.mu.Unlock()
}

func (f *UserPage) view(deviceID string, st *session.Store) UserView {
	f.mu.Lock()
	form, editing := f.editing[deviceID]
	f.mu.Unlock()

	return UserView{
		Session: st.Snapshot(),
		Editing: editing,
		Edit:    form,
	}
}
