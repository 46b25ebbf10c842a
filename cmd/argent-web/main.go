// ABOUTME: Entry point for argent-web, the server-rendered bank front end
// ABOUTME: Provides serve, init and health subcommands

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/argent-web/internal/apiclient"
	"github.com/2389/argent-web/internal/config"
	"github.com/2389/argent-web/internal/dedupe"
	"github.com/2389/argent-web/internal/flow"
	"github.com/2389/argent-web/internal/persist"
	"github.com/2389/argent-web/internal/session"
	"github.com/2389/argent-web/internal/store"
	"github.com/2389/argent-web/internal/web"
)

// version is set at build time.
var version = "dev"

const banner = `
                             _                      _
  __ _ _ __ __ _  ___ _ __ | |_    __      _____| |__
 / _' | '__/ _' |/ _ \ '_ \| __|___\ \ /\ / / _ \ '_ \
| (_| | | | (_| |  __/ | | | ||_____\ V  V /  __/ |_) |
 \__,_|_|  \__, |\___|_| |_|\__|     \_/\_/ \___|_.__/
           |___/
`

const (
	// guardTTL bounds how long a lost in-flight marker blocks a form.
	guardTTL     = 2 * time.Minute
	guardMaxSize = 10_000

	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Hour
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: argent-web <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the web server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  health   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := config.Path()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, found, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	if found {
		fmt.Printf("Config:    %s\n", configPath)
	} else {
		fmt.Printf("Config:    ")
		gray.Println("(defaults)")
	}
	green.Print("    ▶ ")
	fmt.Printf("Listen:    %s\n", cfg.ListenURL())
	green.Print("    ▶ ")
	fmt.Printf("Bank API:  %s\n", cfg.API.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	if cfg.Remember.PersistPassword {
		yellow.Print("    ! ")
		fmt.Println("remember.persist_password is on: passwords are stored in cleartext")
	}
	if cfg.Session.CookieHashKey == "" {
		yellow.Print("    ! ")
		fmt.Println("session.cookie_hash_key is empty: devices are forgotten on restart")
	}
	fmt.Println()

	if cfg.Remember.PersistPassword {
		logger.Warn("remembered passwords are stored in cleartext; set remember.persist_password: false to disable")
	}

	logger.Info("starting argent-web",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"api", cfg.API.BaseURL,
	)

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var bridgeOpts []persist.Option
	if !cfg.Remember.PersistPassword {
		bridgeOpts = append(bridgeOpts, persist.WithoutPassword())
	}
	bridge := persist.New(db, bridgeOpts...)

	api := apiclient.New(cfg.API.BaseURL, apiclient.WithTimeout(cfg.API.Timeout))

	guard := dedupe.New(guardTTL, guardMaxSize)
	defer guard.Close()

	sessions := session.NewRegistry()
	policy := flow.Policy{
		ClearErrorOnSuccess:  cfg.Policy.ClearErrorOnSuccess,
		LogoutOnProfileError: cfg.Policy.LogoutOnProfileError,
	}

	app, err := web.New(sessions,
		flow.NewSignIn(api, bridge, guard),
		flow.NewUserPage(api, bridge, guard, policy),
		web.Config{
			CookieHashKey: []byte(cfg.Session.CookieHashKey),
			SecureCookies: cfg.Session.SecureCookies,
		},
	)
	if err != nil {
		return fmt.Errorf("creating web app: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Database.DeviceRetention > 0 {
		go sweepStaleDevices(ctx, db, cfg.Database.DeviceRetention)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// sweepStaleDevices periodically deletes stored data of idle devices.
func sweepStaleDevices(ctx context.Context, db *store.SQLiteStore, retention time.Duration) {
	logger := slog.Default().With("component", "sweeper")
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		if _, err := db.DeleteStaleDevices(ctx, time.Now().Add(-retention)); err != nil && ctx.Err() == nil {
			logger.Error("failed to delete stale devices", "error", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func runHealth(ctx context.Context) error {
	cfg, _, err := config.LoadOrDefault(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("argent-web configuration setup")
	fmt.Println("==============================")
	fmt.Println()

	def := config.Defaults()

	outputFile := prompt(reader, "Config file path", config.Path())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", def.Server.HTTPAddr)
	secure := isYes(prompt(reader, "Served over HTTPS (secure cookies)?", "no"))

	fmt.Println("\n--- Bank API ---")
	apiURL := prompt(reader, "Bank API base URL", def.API.BaseURL)
	apiTimeout := prompt(reader, "Request timeout", "10s")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", def.Database.Path)

	fmt.Println("\n--- Remember Me ---")
	persistPassword := isYes(prompt(reader, "Store passwords in cleartext for prefill?", "no"))

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", def.Logging.Level)
	logFormat := prompt(reader, "Log format (text/json)", def.Logging.Format)

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return fmt.Errorf("generating cookie key: %w", err)
	}
	cookieKey := base64.StdEncoding.EncodeToString(keyBytes)

	var cfg strings.Builder
	cfg.WriteString("# argent-web configuration\n")
	cfg.WriteString("# Generated by argent-web init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("api:\n")
	cfg.WriteString(fmt.Sprintf("  base_url: %q\n", apiURL))
	cfg.WriteString(fmt.Sprintf("  timeout: %q\n", apiTimeout))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", dbPath))
	cfg.WriteString("  device_retention: \"2160h\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("session:\n")
	cfg.WriteString(fmt.Sprintf("  cookie_hash_key: %q\n", cookieKey))
	cfg.WriteString(fmt.Sprintf("  secure_cookies: %t\n", secure))
	cfg.WriteString("\n")

	cfg.WriteString("remember:\n")
	cfg.WriteString(fmt.Sprintf("  persist_password: %t\n", persistPassword))
	cfg.WriteString("\n")

	cfg.WriteString("policy:\n")
	cfg.WriteString("  clear_error_on_success: false\n")
	cfg.WriteString("  logout_on_profile_error: false\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// 0600: the file holds the cookie signing key
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  argent-web serve\n")

	return nil
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
