// ABOUTME: Configuration loading and parsing for argent-web
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultAPIBaseURL is the bank API the demo talks to out of the box.
const DefaultAPIBaseURL = "http://localhost:3001/api/v1"

// MinCookieHashKeyLength is the shortest accepted session.cookie_hash_key.
const MinCookieHashKeyLength = 32

// Config represents the complete argent-web configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	API      APIConfig      `yaml:"api" toml:"api"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Session  SessionConfig  `yaml:"session" toml:"session"`
	Remember RememberConfig `yaml:"remember" toml:"remember"`
	Policy   PolicyConfig   `yaml:"policy" toml:"policy"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	// BaseURL is the external URL of the site, shown at startup.
	// Defaults to http://<http_addr>.
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// APIConfig holds the bank API client configuration
type APIConfig struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// DatabaseConfig holds durable storage configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`

	// DeviceRetention removes stored data of devices idle for longer than
	// this. Zero keeps everything.
	DeviceRetention    time.Duration `yaml:"-" toml:"-"`
	DeviceRetentionRaw string        `yaml:"device_retention" toml:"device_retention"`
}

// SessionConfig holds cookie configuration
type SessionConfig struct {
	// CookieHashKey signs device and CSRF cookies. When empty a random key
	// is generated at startup and devices are forgotten on restart.
	CookieHashKey string `yaml:"cookie_hash_key" toml:"cookie_hash_key"`
	SecureCookies bool   `yaml:"secure_cookies" toml:"secure_cookies"`
}

// RememberConfig controls what "Remember me" writes to durable storage
type RememberConfig struct {
	// PersistPassword stores the password in cleartext for form prefill.
	PersistPassword bool `yaml:"persist_password" toml:"persist_password"`
}

// PolicyConfig holds the optional behaviour changes of the user page
type PolicyConfig struct {
	ClearErrorOnSuccess  bool `yaml:"clear_error_on_success" toml:"clear_error_on_success"`
	LogoutOnProfileError bool `yaml:"logout_on_profile_error" toml:"logout_on_profile_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Defaults returns a configuration that runs without a config file.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddr: "localhost:3000",
		},
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(DataDir(), "web.db"),
		},
		Remember: RememberConfig{
			PersistPassword: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Path returns the path to the config file.
// Priority: ARGENT_CONFIG env var > XDG_CONFIG_HOME/argent/web.yaml > ~/.config/argent/web.yaml
func Path() string {
	if envPath := os.Getenv("ARGENT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "web.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "argent", "web.yaml")
}

// DataDir returns the argent data directory.
// Priority: XDG_DATA_HOME/argent > ~/.local/share/argent
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "argent")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, anything else as YAML. Keys
// missing from the file keep their Defaults value.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	cfg := Defaults()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads path when it exists and returns Defaults otherwise.
// The returned bool reports whether a file was read.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Defaults()
		return &cfg, false, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Server.BaseURL != "" {
		if err := validateHTTPURL(c.Server.BaseURL); err != nil {
			return fmt.Errorf("server.base_url %w", err)
		}
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if err := validateHTTPURL(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url %w", err)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.DeviceRetention < 0 {
		return fmt.Errorf("database.device_retention must not be negative")
	}

	if key := c.Session.CookieHashKey; key != "" && len(key) < MinCookieHashKeyLength {
		return fmt.Errorf("session.cookie_hash_key must be at least %d bytes", MinCookieHashKeyLength)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// ListenURL returns server.base_url, or one derived from server.http_addr.
func (c *Config) ListenURL() string {
	if c.Server.BaseURL != "" {
		return strings.TrimRight(c.Server.BaseURL, "/")
	}
	return "http://" + c.Server.HTTPAddr
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.API.TimeoutRaw != "" {
		cfg.API.Timeout, err = time.ParseDuration(cfg.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing api.timeout %q: %w", cfg.API.TimeoutRaw, err)
		}
	}

	if cfg.Database.DeviceRetentionRaw != "" {
		cfg.Database.DeviceRetention, err = time.ParseDuration(cfg.Database.DeviceRetentionRaw)
		if err != nil {
			return fmt.Errorf("parsing database.device_retention %q: %w", cfg.Database.DeviceRetentionRaw, err)
		}
	}

	return nil
}
