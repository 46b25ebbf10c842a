// Package config handles configuration loading for argent-web.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Every key has a default, so the server also runs with no file.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from ARGENT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/argent/web.yaml
//  3. ~/.config/argent/web.yaml
//
// A path ending in .toml is decoded as TOML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	session:
//	  cookie_hash_key: "${ARGENT_COOKIE_KEY}"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	api:
//	  timeout: "10s"
//	database:
//	  device_retention: "2160h"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "localhost:3000"
//	  base_url: "https://bank.example.com"
//	api:
//	  base_url: "http://localhost:3001/api/v1"
//	  timeout: "10s"
//	database:
//	  path: "~/.local/share/argent/web.db"
//	  device_retention: "0s"
//	session:
//	  cookie_hash_key: ""        # random per process when empty
//	  secure_cookies: false
//	remember:
//	  persist_password: true     # cleartext, for sign-in prefill
//	policy:
//	  clear_error_on_success: false
//	  logout_on_profile_error: false
//	logging:
//	  level: "info"              # debug, info, warn, error
//	  format: "text"             # text, json
package config
