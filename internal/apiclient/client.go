// ABOUTME: HTTP client for the bank API: login, fetch profile and update profile
// ABOUTME: One JSON round trip per call, no retries, errors mapped to typed API errors

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is where the bank API listens in local development.
const DefaultBaseURL = "http://localhost:3001/api/v1"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

// Credentials are the sign-in form values.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginBody is the body of a successful login response.
type LoginBody struct {
	Token string `json:"token"`
}

// Profile is the server's user record.
type Profile struct {
	ID        string    `json:"id,omitempty"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// ProfileUpdate is the body of an update request.
type ProfileUpdate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// envelope is the JSON wrapper around every bank API response.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// Client calls the bank API. It holds no session state; callers translate
// results into session transitions. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default().With("component", "apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticate exchanges credentials for a token via POST /user/login.
// A successful response without a token is returned as-is.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*LoginBody, error) {
	var body LoginBody
	status, msg, err := c.do(ctx, http.MethodPost, "/user/login", "", creds, &body)
	if err != nil {
		return nil, &AuthError{callError{Op: "login", Status: status, Message: msg, Err: err}}
	}
	return &body, nil
}

// FetchProfile loads the profile of the token's owner via POST /user/profile.
func (c *Client) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	var body Profile
	status, msg, err := c.do(ctx, http.MethodPost, "/user/profile", token, struct{}{}, &body)
	if err != nil {
		return nil, &ProfileFetchError{callError{Op: "fetch profile", Status: status, Message: msg, Err: err}}
	}
	return &body, nil
}

// UpdateProfile changes the user's names via PUT /user/profile and returns
// the record as stored by the server.
func (c *Client) UpdateProfile(ctx context.Context, token string, upd ProfileUpdate) (*Profile, error) {
	var body Profile
	status, msg, err := c.do(ctx, http.MethodPut, "/user/profile", token, upd, &body)
	if err != nil {
		return nil, &ProfileUpdateError{callError{Op: "update profile", Status: status, Message: msg, Err: err}}
	}
	return &body, nil
}

// do performs one request and decodes the envelope body into out.
// It returns the HTTP status (0 on transport failure) and the envelope message.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) (int, string, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("bank API unreachable", "method", method, "path", path, "error", err)
		return 0, "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	c.logger.Debug("bank API call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, env.Message, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	if decodeErr != nil {
		return resp.StatusCode, "", fmt.Errorf("decoding response: %w", decodeErr)
	}

	if out != nil && len(env.Body) > 0 && string(env.Body) != "null" {
		if err := json.Unmarshal(env.Body, out); err != nil {
			return resp.StatusCode, env.Message, fmt.Errorf("decoding response body: %w", err)
		}
	}
	return resp.StatusCode, env.Message, nil
}
