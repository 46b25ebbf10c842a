// ABOUTME: Server-rendered front end for the bank demo
// ABOUTME: Routes pages and form actions to the sign-in and user page flows

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2389/argent-web/internal/flow"
	"github.com/2389/argent-web/internal/session"
)

// Config holds web front end configuration.
type Config struct {
	// CookieHashKey signs the device and CSRF cookies. Empty means a random
	// key per process.
	CookieHashKey []byte

	// SecureCookies marks cookies Secure. Enable behind HTTPS.
	SecureCookies bool
}

// App serves the pages. One session.Store per device lives in the registry.
type App struct {
	sessions *session.Registry
	signIn   *flow.SignIn
	userPage *flow.UserPage
	cookies  *cookieCodec
	pages    *pages
	started  time.Time
	logger   *slog.Logger
}

// New creates the front end.
func New(sessions *session.Registry, signIn *flow.SignIn, userPage *flow.UserPage, cfg Config) (*App, error) {
	p, err := loadPages()
	if err != nil {
		return nil, fmt.Errorf("loading pages: %w", err)
	}

	return &App{
		sessions: sessions,
		signIn:   signIn,
		userPage: userPage,
		cookies:  newCookieCodec(cfg.CookieHashKey, cfg.SecureCookies),
		pages:    p,
		started:  time.Now(),
		logger:   slog.Default().With("component", "web"),
	}, nil
}

// RegisterRoutes registers all routes on the given mux.
func (a *App) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.withDevice(a.handleHome))
	mux.HandleFunc("GET /sign-in", a.withDevice(a.handleSignInPage))
	mux.HandleFunc("POST /sign-in", a.withDevice(a.requireCSRF(a.handleSignIn)))
	mux.HandleFunc("GET /user", a.withDevice(a.handleUserPage))
	mux.HandleFunc("POST /user/edit", a.withDevice(a.requireCSRF(a.handleBeginEdit)))
	mux.HandleFunc("POST /user/edit/cancel", a.withDevice(a.requireCSRF(a.handleCancelEdit)))
	mux.HandleFunc("POST /user/profile", a.withDevice(a.requireCSRF(a.handleSubmitEdit)))
	mux.HandleFunc("POST /logout", a.withDevice(a.handleLogout))
	mux.HandleFunc("GET /logout", a.withDevice(a.handleLogout))
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.Handle("GET /static/", http.FileServerFS(staticFS))

	a.logger.Info("web routes registered")
}

// Handler returns a mux with all routes registered.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)
	return mux
}

// request carries what every page handler needs about the caller.
type request struct {
	device string
	store  *session.Store
	csrf   string
	logger *slog.Logger
}

type deviceHandler func(w http.ResponseWriter, r *http.Request, req *request)

// withDevice resolves the device cookie, issuing a new device when it is
// missing or invalid, and attaches the device's store and a CSRF token.
func (a *App) withDevice(next deviceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := a.cookies.deviceID(r)
		if !ok {
			id = uuid.NewString()
			if err := a.cookies.setDevice(w, id); err != nil {
				a.logger.Error("failed to set device cookie", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			a.logger.Debug("new device", "device", id)
		}

		csrf, err := a.cookies.ensureCSRF(w, r)
		if err != nil {
			a.logger.Error("failed to set CSRF cookie", "device", id, "error", err)
		}

		next(w, r, &request{
			device: id,
			store:  a.sessions.Get(id),
			csrf:   csrf,
			logger: a.logger.With("device", id),
		})
	}
}

// requireCSRF rejects form posts whose token does not match the cookie.
func (a *App) requireCSRF(next deviceHandler) deviceHandler {
	return func(w http.ResponseWriter, r *http.Request, req *request) {
		if !a.cookies.validateCSRF(r) {
			req.logger.Warn("rejected request with invalid CSRF token", "path", r.URL.Path)
			http.Error(w, "Invalid request, please try again", http.StatusForbidden)
			return
		}
		next(w, r, req)
	}
}

// handleFlowError maps an error a flow could not turn into a page.
func (a *App) handleFlowError(w http.ResponseWriter, r *http.Request, req *request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// The client went away; nobody reads this response.
		req.logger.Debug("request abandoned", "path", r.URL.Path)
		return
	}
	req.logger.Error("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // best effort
		"status":  "ok",
		"uptime":  time.Since(a.started).Round(time.Second).String(),
		"devices": a.sessions.Len(),
	})
}
