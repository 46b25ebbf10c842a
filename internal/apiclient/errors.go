// ABOUTME: Error taxonomy for bank API calls
// ABOUTME: AuthError, ProfileFetchError and ProfileUpdateError wrap status, message and cause

package apiclient

import (
	"errors"
	"fmt"
)

// ErrUnavailable is wrapped by every error caused by a transport failure
// (connection refused, DNS, timeout, canceled context).
var ErrUnavailable = errors.New("bank API unavailable")

// ErrBadStatus is wrapped when the server answered with a non-2xx status.
var ErrBadStatus = errors.New("unexpected status")

// callError carries the details shared by all API errors.
type callError struct {
	Op      string // "login", "fetch profile", "update profile"
	Status  int    // HTTP status, 0 when no response was received
	Message string // envelope message, if the server sent one
	Err     error
}

func (e *callError) Error() string {
	var s string
	switch {
	case e.Status == 0:
		s = fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		s = fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	default:
		s = fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return s
}

func (e *callError) Unwrap() error { return e.Err }

// AuthError is returned by Authenticate for bad credentials or transport failure.
type AuthError struct{ callError }

// ProfileFetchError is returned by FetchProfile.
type ProfileFetchError struct{ callError }

// ProfileUpdateError is returned by UpdateProfile.
type ProfileUpdateError struct{ callError }
