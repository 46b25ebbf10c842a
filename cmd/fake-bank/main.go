// ABOUTME: Development bank API serving the demo accounts over HTTP
// ABOUTME: Lets argent-web run end to end without the real backend

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/argent-web/internal/fakebank"
)

func main() {
	addr := flag.String("addr", "localhost:3001", "listen address")
	secret := flag.String("secret", os.Getenv("FAKEBANK_JWT_SECRET"), "JWT signing secret (random when empty)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of issued tokens")
	noSeed := flag.Bool("no-seed", false, "start without the demo accounts")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *addr, *secret, *tokenTTL, !*noSeed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, secret string, ttl time.Duration, seed bool) error {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("generating secret: %w", err)
		}
	}

	bank := fakebank.New(fakebank.NewTokenIssuer(key, ttl))
	if seed {
		if err := bank.Seed(fakebank.DemoUsers); err != nil {
			return fmt.Errorf("seeding users: %w", err)
		}
	}

	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	color.New(color.FgCyan, color.Bold).Println("fake-bank")
	green.Print("  ▶ ")
	fmt.Printf("API:   http://%s/api/v1\n", addr)
	if seed {
		for _, u := range fakebank.DemoUsers {
			green.Print("  ▶ ")
			fmt.Printf("User:  %s ", u.Email)
			gray.Printf("(%s)\n", u.Password)
		}
	}
	fmt.Println()

	srv := &http.Server{
		Addr:              addr,
		Handler:           bank.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
