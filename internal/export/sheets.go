package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	applog "sgfcp/internal/log"
)

// DefaultReportSheet is the tab the report is written to.
const DefaultReportSheet = "Resumen"

// SheetsConfig selects the spreadsheet and the service account.
type SheetsConfig struct {
	SpreadsheetID   string
	Sheet           string
	CredentialsJSON string
	CredentialsFile string
}

// SheetsWriter pushes reports to one tab of a spreadsheet.
type SheetsWriter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *applog.Logger
}

// NewSheetsWriter authenticates with the configured service account.
func NewSheetsWriter(ctx context.Context, cfg SheetsConfig, logger *applog.Logger) (*SheetsWriter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := serviceAccountJSON(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewSheetsWriterWithService(svc, cfg.SpreadsheetID, cfg.Sheet, logger), nil
}

// NewSheetsWriterWithService wraps an existing service.
func NewSheetsWriterWithService(svc *gsheet.Service, spreadsheetID, sheet string, logger *applog.Logger) *SheetsWriter {
	if logger == nil {
		logger = applog.Discard()
	}
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultReportSheet
	}
	return &SheetsWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		logger:        logger.WithComponent(applog.ComponentExport),
	}
}

func serviceAccountJSON(cfg SheetsConfig) ([]byte, error) {
	if js := strings.TrimSpace(cfg.CredentialsJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// WriteReport replaces the content of the report tab with r and returns
// the updated range.
func (s *SheetsWriter) WriteReport(ctx context.Context, r Report) (string, error) {
	if s.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	clearRange := s.sheet + "!A:Z"
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := r.Rows()
	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}

	rng := s.sheet + "!A1"
	resp, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	updated := rng
	if resp != nil && resp.UpdatedRange != "" {
		updated = resp.UpdatedRange
	}
	s.logger.InfoContext(ctx, "Report written to Google Sheets",
		applog.FieldOperation, applog.OpExport, "range", updated, "rows", len(values))
	return updated, nil
}
