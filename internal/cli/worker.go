package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sgfcp/internal/amqp"
	"sgfcp/internal/config"
	"sgfcp/internal/export"
	applog "sgfcp/internal/log"
	"sgfcp/internal/worker"
)

// workerOptions are the flags of the worker command.
type workerOptions struct {
	Queue       string
	Interval    time.Duration
	Debounce    time.Duration
	MonthToDate bool
}

func workerCommand() *cobra.Command {
	var opts workerOptions
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Keep the spreadsheet report up to date",
		Long: `Rebuilds the Google Sheets summary at startup, on every data change
notification and on a fixed interval. Reads the API token from SGFCP_TOKEN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			ctx, stop := SignalContext(cmd.Context())
			defer stop()
			return runWorker(ctx, cfg, SetupLogger(cfg), os.Getenv("SGFCP_TOKEN"), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Queue, "queue", "sgfcp_report_sync", "AMQP queue for this worker")
	f.DurationVar(&opts.Interval, "interval", time.Hour, "Rebuild interval without notifications")
	f.DurationVar(&opts.Debounce, "debounce", 5*time.Second, "Quiet period after a notification before rebuilding")
	f.BoolVar(&opts.MonthToDate, "month-to-date", false, "Summarise the current month only")
	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config, logger *applog.Logger, token string, opts workerOptions) error {
	if !cfg.SheetsEnabled() {
		return errors.New("GOOGLE_SPREADSHEET_ID is not set")
	}
	if token == "" {
		return errors.New("SGFCP_TOKEN is not set")
	}

	writer, err := export.NewSheetsWriter(ctx, export.SheetsConfig{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		Sheet:           cfg.GoogleReportSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return err
	}

	wcfg := worker.Config{Interval: opts.Interval, Debounce: opts.Debounce}
	if opts.MonthToDate {
		wcfg.Range = worker.MonthToDate
	}
	source := newAPIFactory(cfg, logger, nil)(cfg.APIBaseURL, token)
	w := worker.New(source, writer, wcfg, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })

	if cfg.AMQPURL != "" {
		consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, opts.Queue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, rebuilding on interval only", applog.FieldError, err)
		} else {
			defer consumer.Close()
			g.Go(func() error {
				followChanges(gctx, consumer, w.HandleDataChanged, logger)
				return nil
			})
		}
	}

	logger.Info("Report worker started",
		"sheet", cfg.GoogleReportSheet, "interval", opts.Interval.String(), "queue", opts.Queue)
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	stats := w.Stats()
	logger.Info("Report worker stopped", "syncs", stats.Syncs, "failures", stats.Failures)
	return err
}
