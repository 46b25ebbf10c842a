// ABOUTME: Shared types for the sign-in and user page flows
// ABOUTME: API interfaces, navigation targets, policy toggles and flow sentinels

package flow

import (
	"context"
	"errors"

	"github.com/2389/argent-web/internal/apiclient"
	"github.com/2389/argent-web/internal/dedupe"
	"github.com/2389/argent-web/internal/session"
)

// Page paths a flow can navigate to.
const (
	PathHome   = "/"
	PathSignIn = "/sign-in"
	PathUser   = "/user"
)

// ErrSubmitInFlight is returned when the same device submits a form while
// an earlier submit of that form is still waiting on the bank API.
var ErrSubmitInFlight = errors.New("a request is already in progress")

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Authenticate(ctx context.Context, creds apiclient.Credentials) (*apiclient.LoginBody, error)
}

// ProfileAPI reads and writes the signed-in user's profile.
type ProfileAPI interface {
	FetchProfile(ctx context.Context, token string) (*apiclient.Profile, error)
	UpdateProfile(ctx context.Context, token string, upd apiclient.ProfileUpdate) (*apiclient.Profile, error)
}

// Policy holds optional behaviours of the user page. With the zero value a
// recorded profile error stays on the session until the process restarts.
type Policy struct {
	// ClearErrorOnSuccess clears the session error after a successful
	// profile fetch or update.
	ClearErrorOnSuccess bool

	// LogoutOnProfileError signs the user out and sends them to the sign-in
	// page when the profile cannot be fetched.
	LogoutOnProfileError bool
}

// Guard de-duplicates concurrent submits. Satisfied by *dedupe.Guard.
type Guard interface {
	TryAcquire(key string) (dedupe.Ticket, bool)
	Release(key string, t dedupe.Ticket)
}

// toSessionProfile keeps the three fields the pages render.
func toSessionProfile(p *apiclient.Profile) session.Profile {
	return session.Profile{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
	}
}

// stale reports whether the request that started a call is gone, in which
// case the call's result must not be applied.
func stale(ctx context.Context) bool {
	return ctx.Err() != nil
}
