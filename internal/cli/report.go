package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sgfcp/internal/config"
	"sgfcp/internal/core"
	"sgfcp/internal/export"
	applog "sgfcp/internal/log"
)

// reportOptions are the flags of the report command.
type reportOptions struct {
	BaseURL  string
	Token    string
	Email    string
	Password string
	From     string
	To       string
	Dataset  string
	CSVPath  string
	Sheets   bool
}

func reportCommand() *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard summary for a date range",
		Long: `Loads a snapshot from the backend and prints the KPIs and monthly series.
Optionally writes one filtered collection as CSV and pushes the summary to Google Sheets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg).WithComponent(applog.ComponentCLI)
			if opts.Token == "" {
				opts.Token = os.Getenv("SGFCP_TOKEN")
			}
			if opts.Password == "" {
				opts.Password = os.Getenv("SGFCP_PASSWORD")
			}
			return runReport(cmd.Context(), cfg, logger, opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.BaseURL, "base-url", "", "API base URL (defaults to API_BASE_URL)")
	f.StringVar(&opts.Token, "token", "", "Bearer token (or SGFCP_TOKEN)")
	f.StringVar(&opts.Email, "email", "", "Admin email, used when no token is given")
	f.StringVar(&opts.Password, "password", "", "Admin password (or SGFCP_PASSWORD)")
	f.StringVar(&opts.From, "from", "", "Start date, YYYY-MM-DD")
	f.StringVar(&opts.To, "to", "", "End date, YYYY-MM-DD")
	f.StringVar(&opts.Dataset, "dataset", "trips", "Collection for --csv: trips, expenses or advances")
	f.StringVar(&opts.CSVPath, "csv", "", "Write the filtered dataset to this file")
	f.BoolVar(&opts.Sheets, "sheets", false, "Push the summary to the configured spreadsheet")
	return cmd
}

func runReport(ctx context.Context, cfg *config.Config, logger *applog.Logger, opts reportOptions, out io.Writer) error {
	r, err := parseRange(opts.From, opts.To)
	if err != nil {
		return err
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = cfg.APIBaseURL
	}
	newClient := newAPIFactory(cfg, logger, nil)

	token := strings.TrimSpace(opts.Token)
	if token == "" {
		if opts.Email == "" {
			return errors.New("either --token or --email is required")
		}
		res, err := newClient(baseURL, "").Login(ctx, opts.Email, opts.Password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if res.User == nil || !res.User.IsAdmin {
			return errors.New("login: admin access required")
		}
		token = res.AccessToken
	}

	snap, err := newClient(baseURL, token).LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	report := export.BuildReport(snap, r, time.Now())
	if err := report.WriteText(out); err != nil {
		return err
	}

	if opts.CSVPath != "" {
		if err := writeCSVFile(opts.CSVPath, opts.Dataset, snap, r); err != nil {
			return err
		}
		logger.Info("CSV written", "path", opts.CSVPath, "dataset", opts.Dataset, applog.FieldOperation, applog.OpExport)
	}

	if opts.Sheets {
		if !cfg.SheetsEnabled() {
			return errors.New("GOOGLE_SPREADSHEET_ID is not set")
		}
		w, err := export.NewSheetsWriter(ctx, export.SheetsConfig{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			Sheet:           cfg.GoogleReportSheet,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			return err
		}
		rng, err := w.WriteReport(ctx, report)
		if err != nil {
			return fmt.Errorf("write sheet: %w", err)
		}
		fmt.Fprintf(out, "\nReport written to %s\n", rng)
	}
	return nil
}

// parseRange accepts empty bounds but rejects malformed or inverted ones.
func parseRange(from, to string) (core.DateRange, error) {
	var r core.DateRange
	if strings.TrimSpace(from) != "" {
		d, err := core.ParseDateStrict(from)
		if err != nil {
			return r, fmt.Errorf("--from: %w", err)
		}
		r.From = d
	}
	if strings.TrimSpace(to) != "" {
		d, err := core.ParseDateStrict(to)
		if err != nil {
			return r, fmt.Errorf("--to: %w", err)
		}
		r.To = d
	}
	if r.Inverted() {
		return r, errors.New("--from is after --to")
	}
	return r, nil
}

func writeCSVFile(path, dataset string, snap core.Snapshot, r core.DateRange) (err error) {
	ds, err := export.ParseDataset(dataset)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteCSV(f, ds, snap.Filter(r), snap.Index)
}
