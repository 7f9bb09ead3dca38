// Package config loads runtime settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	// HTTP Server
	Port string `envconfig:"PORT" default:"8080"`

	// Remote API
	APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:5000"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"20s"`

	// Sessions
	SessionBackend string        `envconfig:"SESSION_BACKEND" default:"memory"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	SessionSecret  string        `envconfig:"SESSION_SECRET"`
	CookieSecure   bool          `envconfig:"COOKIE_SECURE" default:"false"`

	// Database
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./data/sgfcp.db"`

	// Redis
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// AMQP
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"sgfcp"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"sgfcp_dashboard_changes"`

	// Dashboard
	MaintenanceWindow time.Duration `envconfig:"MAINTENANCE_WINDOW" default:"720h"`
	StateCacheSize    int           `envconfig:"STATE_CACHE_SIZE" default:"500"`
	StateCacheTTL     time.Duration `envconfig:"STATE_CACHE_TTL" default:"2h"`
	LoginRateLimit    int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Google Sheets report
	GoogleSpreadsheetID      string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleReportSheet        string `envconfig:"GOOGLE_REPORT_SHEET" default:"Resumen"`
}

// Load reads the environment. Outside production a missing session secret
// is replaced by a random one, which invalidates CSRF tokens on restart.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = hex.EncodeToString(buf)
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// SheetsEnabled reports whether a report spreadsheet is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validEnvs := []string{"development", "production", "test"}
	if !slices.Contains(validEnvs, c.AppEnv) {
		errors = append(errors, fmt.Sprintf("invalid app env '%s': must be one of %v", c.AppEnv, validEnvs))
	}

	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http or https URL", c.APIBaseURL))
	}
	if c.APITimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must not be negative", c.APITimeout))
	}

	validBackends := []string{"memory", "sqlite", "redis"}
	if !slices.Contains(validBackends, c.SessionBackend) {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validBackends))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.SessionSecret == "" {
		errors = append(errors, "SESSION_SECRET is required in production")
	} else if c.IsProduction() && len(c.SessionSecret) < 32 {
		errors = append(errors, "SESSION_SECRET must be at least 32 characters in production")
	}

	if c.SessionBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SessionBackend == "redis" {
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis backend")
		}
		if c.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("invalid Redis DB %d: must be non-negative", c.RedisDB))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MaintenanceWindow <= 0 {
		errors = append(errors, fmt.Sprintf("invalid maintenance window %v: must be positive", c.MaintenanceWindow))
	}
	if c.StateCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid state cache size %d: must be at least 1", c.StateCacheSize))
	}
	if c.StateCacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid state cache TTL %v: must be at least 1 minute", c.StateCacheTTL))
	}
	if c.LoginRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid login rate limit %d: must be at least 1", c.LoginRateLimit))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.GoogleSpreadsheetID != "" {
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided with GOOGLE_SPREADSHEET_ID")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.GoogleReportSheet == "" {
			errors = append(errors, "Google report sheet name cannot be empty")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
