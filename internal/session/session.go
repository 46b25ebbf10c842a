// ABOUTME: Session state for one browser: token, remember flag, profile and last error
// ABOUTME: Models the authentication state as a sealed variant so a profile cannot exist without a token

package session

import "errors"

var (
	// ErrNoToken is returned when a profile is set on an anonymous session.
	ErrNoToken = errors.New("session has no token")

	// ErrEmptyToken is returned when StoreToken is called with an empty token.
	ErrEmptyToken = errors.New("empty token")
)

// Profile is the user record shown on the profile page.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
}

// FullName joins first and last name with a single space.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// State is one of Anonymous, AuthenticatedNoProfile or AuthenticatedWithProfile.
type State interface {
	isState()
	// Name is a short label used in logs.
	Name() string
}

// Anonymous has no token.
type Anonymous struct{}

// AuthenticatedNoProfile has a token but the profile has not been fetched yet.
type AuthenticatedNoProfile struct {
	Token string
}

// AuthenticatedWithProfile has both a token and the profile fetched with it.
type AuthenticatedWithProfile struct {
	Token   string
	Profile Profile
}

func (Anonymous) isState()                {}
func (AuthenticatedNoProfile) isState()   {}
func (AuthenticatedWithProfile) isState() {}

func (Anonymous) Name() string                { return "anonymous" }
func (AuthenticatedNoProfile) Name() string   { return "authenticated_no_profile" }
func (AuthenticatedWithProfile) Name() string { return "authenticated_with_profile" }

// Session is an immutable snapshot of a Store.
type Session struct {
	State        State
	RememberUser bool
	// Error is the last recorded error message, empty when none.
	Error string
}

// Token returns the bearer token, or "" when anonymous.
func (s Session) Token() string {
	switch st := s.State.(type) {
	case AuthenticatedNoProfile:
		return st.Token
	case AuthenticatedWithProfile:
		return st.Token
	}
	return ""
}

// Profile returns the profile and whether one is present.
func (s Session) Profile() (Profile, bool) {
	if st, ok := s.State.(AuthenticatedWithProfile); ok {
		return st.Profile, true
	}
	return Profile{}, false
}

// HasToken reports whether the session is authenticated.
func (s Session) HasToken() bool {
	return s.Token() != ""
}

// HasProfile reports whether a profile is loaded.
func (s Session) HasProfile() bool {
	_, ok := s.Profile()
	return ok
}
