package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sgfcp/internal/amqp"
	"sgfcp/internal/auth"
	"sgfcp/internal/backend"
	"sgfcp/internal/cache"
	"sgfcp/internal/config"
	"sgfcp/internal/dashboard"
	apphttp "sgfcp/internal/http"
	applog "sgfcp/internal/log"
	"sgfcp/internal/metrics"
	"sgfcp/internal/session"
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Port = port
			}
			ctx, stop := SignalContext(cmd.Context())
			defer stop()
			return runServe(ctx, cfg, SetupLogger(cfg))
		},
	}
	cmd.Flags().String("port", "", "Port to listen on (overrides PORT)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	var changes changeSource
	if cfg.AMQPURL != "" {
		consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// The dashboard works without change notifications.
			logger.Warn("AMQP unavailable, change notifications disabled", applog.FieldError, err)
		} else {
			defer consumer.Close()
			changes = consumer
		}
	}
	return serve(ctx, cfg, logger, changes)
}

// serve runs the dashboard until ctx ends. changes may be nil.
func serve(ctx context.Context, cfg *config.Config, logger *applog.Logger, changes changeSource) error {
	m := metrics.New()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	if store.Cleanup != nil {
		defer func() {
			if err := store.Cleanup(); err != nil {
				logger.Error("Session backend cleanup failed", applog.FieldError, err)
			}
		}()
	}

	sessions := session.NewManager(store.Backend, session.Config{
		TTL:            cfg.SessionTTL,
		Secure:         cfg.CookieSecure || cfg.IsProduction(),
		Secret:         cfg.SessionSecret,
		DefaultBaseURL: cfg.APIBaseURL,
	}, logger)

	newClient := newAPIFactory(cfg, logger, m.ObserveAPI)
	guard := auth.NewGuard(func(baseURL, token string) auth.Backend {
		return newClient(baseURL, token)
	}, logger, auth.WithLoginObserver(m.ObserveLogin))

	registry := dashboard.NewRegistry(cfg.StateCacheSize, cfg.StateCacheTTL, logger, m.ObserveLoad)

	caches := cache.NewManager(logger)
	caches.Register(cache.CleanerFunc(func() int {
		n := registry.CleanExpired()
		m.SetDashboards(registry.Size())
		return n
	}))
	if store.Expirer != nil {
		caches.Register(store.Expirer)
	}
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	requestTimeout := time.Duration(0)
	if cfg.APITimeout > 0 {
		requestTimeout = cfg.APITimeout + 5*time.Second
	}
	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:              cfg.Addr(),
		Production:        cfg.IsProduction(),
		LoginRateLimit:    cfg.LoginRateLimit,
		MaintenanceWindow: cfg.MaintenanceWindow,
		RequestTimeout:    requestTimeout,
	}, apphttp.Deps{
		Sessions:   sessions,
		Guard:      guard,
		Dashboards: registry,
		API:        newClient,
		Metrics:    m,
		Logger:     logger,
		Ready:      store.Backend.Ping,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting sgfcp server",
			"addr", cfg.Addr(), "env", cfg.AppEnv, "session_backend", cfg.SessionBackend, applog.FieldBaseURL, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if changes != nil {
		g.Go(func() error {
			followChanges(gctx, changes, func(msg *amqp.DataChangedMessage) error {
				n := registry.MarkAllStale()
				m.AddStale(n)
				logger.Info("Backend data changed",
					"source", msg.Source, "resources", msg.Resources, "dashboards", n)
				return nil
			}, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
