// ABOUTME: Unit tests for fake bank token issuing and verification
// ABOUTME: Tests valid, tampered, foreign and expired tokens

package fakebank

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret"), time.Hour)

	token, err := ti.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != "user-1" {
		t.Errorf("Verify() = %q, want %q", got, "user-1")
	}
}

func TestTokenIssuer_Invalid(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret"), time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{
			name: "other secret",
			token: func() string {
				tok, _ := NewTokenIssuer([]byte("other"), time.Hour).Issue("user-1")
				return tok
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ti.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret"), -time.Minute)

	token, err := ti.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := ti.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
	}
}
