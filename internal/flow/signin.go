// ABOUTME: Sign-in flow: prefill on mount, authenticate on submit
// ABOUTME: Writes the remembered session on success and reports failures as a local message

package flow

import (
	"context"
	"log/slog"

	"github.com/2389/argent-web/internal/apiclient"
	"github.com/2389/argent-web/internal/dedupe"
	"github.com/2389/argent-web/internal/persist"
	"github.com/2389/argent-web/internal/session"
)

// Sign-in error messages shown under the form.
const (
	MsgAuthFailed   = "Authentication error. Please try again."
	MsgSignInFailed = "An error occurred while signing in. Please try again."
	MsgInFlight     = "Sign-in already in progress. Please wait."
)

// SignInForm is the state of the sign-in form.
type SignInForm struct {
	Email        string
	Password     string
	Remember     bool
	ErrorMessage string
}

// SignInResult is what the page should do next: navigate, or render Form.
type SignInResult struct {
	Navigate string
	Form     SignInForm
}

// SignIn runs the sign-in page.
type SignIn struct {
	api    Authenticator
	bridge *persist.Bridge
	guard  Guard
	logger *slog.Logger
}

// NewSignIn creates the sign-in flow.
func NewSignIn(api Authenticator, bridge *persist.Bridge, guard Guard) *SignIn {
	return &SignIn{
		api:    api,
		bridge: bridge,
		guard:  guard,
		logger: slog.Default().With("component", "flow.signin"),
	}
}

// Mount skips the form when the device has a remembered session, otherwise
// returns the form prefilled from durable storage. Remember always starts
// unchecked.
func (f *SignIn) Mount(ctx context.Context, deviceID string) (SignInResult, error) {
	remembered, err := f.bridge.HasRememberedSession(ctx, deviceID)
	if err != nil {
		return SignInResult{}, err
	}
	if remembered {
		return SignInResult{Navigate: PathUser}, nil
	}

	creds, err := f.bridge.ReadCredentials(ctx, deviceID)
	if err != nil {
		return SignInResult{}, err
	}
	return SignInResult{Form: SignInForm{Email: creds.Email, Password: creds.Password}}, nil
}

// Submit authenticates with the form values.
//
// With a token and Remember set, the session is written to durable storage
// and the token stored; with a token and Remember unset, the session is
// cleared. Both go to the user page. Failures, including a failed durable
// write, leave the store untouched and return the form with an error message.
//
// A second submit for the same device while one is running returns the form
// with MsgInFlight and ErrSubmitInFlight. If ctx ends before the bank API
// answers, ctx.Err() is returned and nothing is applied.
func (f *SignIn) Submit(ctx context.Context, deviceID string, st *session.Store, form SignInForm) (SignInResult, error) {
	form.ErrorMessage = ""

	key := dedupe.Key(deviceID, "sign-in")
	ticket, ok := f.guard.TryAcquire(key)
	if !ok {
		form.ErrorMessage = MsgInFlight
		return SignInResult{Form: form}, ErrSubmitInFlight
	}
	defer f.guard.Release(key, ticket)

	creds := apiclient.Credentials{Email: form.Email, Password: form.Password}
	login, err := f.api.Authenticate(ctx, creds)
	if stale(ctx) {
		return SignInResult{}, ctx.Err()
	}
	if err != nil {
		f.logger.Warn("sign-in failed", "device", deviceID, "error", err)
		form.ErrorMessage = MsgSignInFailed
		return SignInResult{Form: form}, nil
	}
	if login.Token == "" {
		f.logger.Warn("sign-in response had no token", "device", deviceID)
		form.ErrorMessage = MsgAuthFailed
		return SignInResult{Form: form}, nil
	}

	if form.Remember {
		// A remembered session must be durable, so nothing is stored when
		// the write fails.
		if err := f.bridge.WriteOnRemember(ctx, deviceID, login.Token, persist.Credentials(creds)); err != nil {
			f.logger.Error("failed to persist remembered session", "device", deviceID, "error", err)
			form.ErrorMessage = MsgSignInFailed
			return SignInResult{Form: form}, nil
		}
		// A profile loaded for another account must not survive the switch.
		if snap := st.Snapshot(); snap.HasProfile() && snap.Token() != login.Token {
			st.ClearSession()
		}
		if err := st.StoreToken(login.Token); err != nil {
			return SignInResult{}, err
		}
	} else {
		st.ClearSession()
	}

	f.logger.Info("signed in", "device", deviceID, "remember", form.Remember)
	return SignInResult{Navigate: PathUser}, nil
}
