// ABOUTME: Signed device cookie and double-submit CSRF cookie
// ABOUTME: Both are encoded with gorilla/securecookie so clients cannot forge them

package web

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const (
	// DeviceCookieName identifies the browser across requests and restarts.
	DeviceCookieName = "argent_device"

	// CSRFCookieName holds the CSRF token for the double-submit check.
	CSRFCookieName = "argent_csrf"

	// DeviceCookieMaxAge keeps a device for a year of inactivity.
	DeviceCookieMaxAge = 365 * 24 * time.Hour

	csrfTokenLength  = 32
	csrfCookieMaxAge = 12 * time.Hour
)

var errNoCSRFCookie = errors.New("no CSRF cookie")

// cookieCodec signs and verifies the app's cookies.
type cookieCodec struct {
	device *securecookie.SecureCookie
	csrf   *securecookie.SecureCookie
	secure bool
}

// newCookieCodec creates a codec from hashKey. An empty key means a random
// key, so devices do not survive a restart.
func newCookieCodec(hashKey []byte, secure bool) *cookieCodec {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
	}

	device := securecookie.New(hashKey, nil)
	device.SetSerializer(securecookie.JSONEncoder{})
	device.MaxAge(int(DeviceCookieMaxAge.Seconds()))

	csrf := securecookie.New(hashKey, nil)
	csrf.SetSerializer(securecookie.JSONEncoder{})
	csrf.MaxAge(int(csrfCookieMaxAge.Seconds()))

	return &cookieCodec{device: device, csrf: csrf, secure: secure}
}

// deviceID returns the device ID from the request cookie. ok is false when
// the cookie is missing, tampered with, expired or not a UUID.
func (c *cookieCodec) deviceID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(DeviceCookieName)
	if err != nil {
		return "", false
	}

	var id string
	if err := c.device.Decode(DeviceCookieName, cookie.Value, &id); err != nil {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// setDevice writes the signed device cookie.
func (c *cookieCodec) setDevice(w http.ResponseWriter, id string) error {
	encoded, err := c.device.Encode(DeviceCookieName, id)
	if err != nil {
		return fmt.Errorf("encoding device cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(DeviceCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// csrfFromCookie returns the CSRF token carried by the request cookie.
func (c *cookieCodec) csrfFromCookie(r *http.Request) ([]byte, error) {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return nil, errNoCSRFCookie
	}

	var token []byte
	if err := c.csrf.Decode(CSRFCookieName, cookie.Value, &token); err != nil {
		return nil, err
	}
	if len(token) != csrfTokenLength {
		return nil, fmt.Errorf("unexpected CSRF token length %d", len(token))
	}
	return token, nil
}

// ensureCSRF returns the request's CSRF token for embedding in forms,
// setting a new cookie when the request has none or a bad one.
func (c *cookieCodec) ensureCSRF(w http.ResponseWriter, r *http.Request) (string, error) {
	token, err := c.csrfFromCookie(r)
	if err != nil {
		token = make([]byte, csrfTokenLength)
		rand.Read(token) //nolint:errcheck // never fails since Go 1.24

		encoded, err := c.csrf.Encode(CSRFCookieName, token)
		if err != nil {
			return "", fmt.Errorf("encoding CSRF cookie: %w", err)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     CSRFCookieName,
			Value:    encoded,
			Path:     "/",
			MaxAge:   int(csrfCookieMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
	return base64.RawURLEncoding.EncodeToString(token), nil
}

// validateCSRF checks the csrf_token form field (or X-CSRF-Token header)
// against the cookie.
func (c *cookieCodec) validateCSRF(r *http.Request) bool {
	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}
	if formToken == "" {
		return false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(formToken)
	if err != nil {
		return false
	}
	token, err := c.csrfFromCookie(r)
	if err != nil {
		return false
	}
	return bytes.Equal(token, decoded)
}
