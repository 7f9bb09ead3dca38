// Package cli wires configuration, logging and the subcommands of the
// sgfcp binary.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sgfcp/internal/api"
	"sgfcp/internal/config"
	applog "sgfcp/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and makes it the default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "value", cfg.LogLevel)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// newAPIFactory returns a constructor for API clients sharing one
// transport and timeout.
func newAPIFactory(cfg *config.Config, logger *applog.Logger, observe api.ObserveFunc) func(baseURL, token string) *api.Client {
	hc := &http.Client{Timeout: cfg.APITimeout}
	return func(baseURL, token string) *api.Client {
		opts := []api.Option{api.WithHTTPClient(hc), api.WithLogger(logger)}
		if observe != nil {
			opts = append(opts, api.WithObserver(observe))
		}
		return api.New(baseURL, token, opts...)
	}
}

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 30 * time.Second
