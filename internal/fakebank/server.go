// ABOUTME: In-memory bank API used for local development and end-to-end tests
// ABOUTME: Serves /user/login, /user/signup and /user/profile with the JSON envelope

package fakebank

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmailExists is returned when signing up with an email already in use.
var ErrEmailExists = errors.New("email already exists")

// User is an account held by the fake bank.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SeedUser describes an account created at startup.
type SeedUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// DemoUsers are the seeded demo accounts.
var DemoUsers = []SeedUser{
	{Email: "tony@stark.com", Password: "password123", FirstName: "Tony", LastName: "Stark"},
	{Email: "steve@rogers.com", Password: "password456", FirstName: "Steve", LastName: "Rogers"},
}

// Server is the fake bank API.
type Server struct {
	mu      sync.RWMutex
	byEmail map[string]*User
	byID    map[string]*User
	tokens  *TokenIssuer
	cost    int
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

// New creates a fake bank signing tokens with the given issuer.
func New(tokens *TokenIssuer, opts ...Option) *Server {
	s := &Server{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
		tokens:  tokens,
		cost:    bcrypt.DefaultCost,
		logger:  slog.Default().With("component", "fakebank"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser adds an account.
func (s *Server) CreateUser(seed SeedUser) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(seed.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, ErrEmailExists
	}

	now := time.Now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    seed.FirstName,
		LastName:     seed.LastName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byEmail[email] = u
	s.byID[u.ID] = u

	s.logger.Info("created user", "id", u.ID, "email", email)
	return u, nil
}

// Seed creates every given account, stopping at the first error.
func (s *Server) Seed(users []SeedUser) error {
	for _, u := range users {
		if _, err := s.CreateUser(u); err != nil {
			return err
		}
	}
	return nil
}

// Handler returns the API routes mounted under /api/v1.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/user/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/user/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/user/profile", s.requireToken(s.handleGetProfile))
	mux.HandleFunc("PUT /api/v1/user/profile", s.requireToken(s.handleUpdateProfile))
	return mux
}

// requireToken rejects requests without a valid bearer token.
func (s *Server) requireToken(next func(http.ResponseWriter, *http.Request, *User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || strings.TrimPrefix(authHeader, "Bearer ") == "" {
			writeEnvelope(w, http.StatusUnauthorized, "Token is missing from header", nil)
			return
		}

		userID, err := s.tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			writeEnvelope(w, http.StatusUnauthorized, "Invalid token", nil)
			return
		}

		s.mu.RLock()
		u, ok := s.byID[userID]
		s.mu.RUnlock()
		if !ok {
			writeEnvelope(w, http.StatusUnauthorized, "Invalid token", nil)
			return
		}

		next(w, r, u)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	s.mu.RLock()
	u, ok := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.RUnlock()
	if !ok {
		writeEnvelope(w, http.StatusBadRequest, "Error: User not found!", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "Error: Password is invalid", nil)
		return
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, "Internal Server Error", nil)
		return
	}

	s.logger.Info("user logged in", "email", u.Email)
	writeEnvelope(w, http.StatusOK, "User successfully logged in", map[string]string{"token": token})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeEnvelope(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	u, err := s.CreateUser(SeedUser(req))
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			writeEnvelope(w, http.StatusBadRequest, "Error: Email already exists", nil)
			return
		}
		s.logger.Error("failed to create user", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, "Internal Server Error", nil)
		return
	}

	writeEnvelope(w, http.StatusOK, "User successfully created", u)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, u *User) {
	s.mu.RLock()
	snapshot := *u
	s.mu.RUnlock()

	writeEnvelope(w, http.StatusOK, "Successfully got user profile data", snapshot)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, u *User) {
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	s.mu.Lock()
	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	u.UpdatedAt = time.Now().UTC()
	snapshot := *u
	s.mu.Unlock()

	s.logger.Info("profile updated", "id", u.ID)
	writeEnvelope(w, http.StatusOK, "Successfully updated user profile data", snapshot)
}

// writeEnvelope writes {status, message, body} as JSON.
func writeEnvelope(w http.ResponseWriter, status int, message string, body any) {
	resp := map[string]any{
		"status":  status,
		"message": message,
	}
	if body != nil {
		resp["body"] = body
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp) //nolint:errcheck // client went away
}
