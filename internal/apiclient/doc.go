// Package apiclient is the HTTP client for the bank API.
//
// # Endpoints
//
//	Authenticate   POST /user/login    no auth          {email,password}
//	FetchProfile   POST /user/profile  Bearer <token>   {}
//	UpdateProfile  PUT  /user/profile  Bearer <token>   {firstName,lastName}
//
// Every response is wrapped in an envelope:
//
//	{"status": 200, "message": "...", "body": {...}}
//
// # Error Handling
//
// Any non-2xx status is a failure; there is no per-status branching and no
// retry. Each operation has its own error type so callers can tell them apart
// with errors.As:
//
//   - *AuthError
//   - *ProfileFetchError
//   - *ProfileUpdateError
//
// All three carry Status (0 when no response arrived) and the envelope
// Message, and unwrap to ErrUnavailable for transport failures or
// ErrBadStatus for rejected requests.
//
// # Usage
//
//	c := apiclient.New("http://localhost:3001/api/v1", apiclient.WithTimeout(10*time.Second))
//	login, err := c.Authenticate(ctx, apiclient.Credentials{Email: email, Password: pw})
package apiclient
