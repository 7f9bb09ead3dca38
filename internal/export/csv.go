// Package export turns a filtered snapshot into CSV files and the summary
// report pushed to Google Sheets.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"sgfcp/internal/analytics"
	"sgfcp/internal/core"
)

// Dataset names one exportable collection.
type Dataset string

const (
	DatasetTrips    Dataset = "trips"
	DatasetExpenses Dataset = "expenses"
	DatasetAdvances Dataset = "advances"
)

// Datasets lists every exportable collection.
var Datasets = []Dataset{DatasetTrips, DatasetExpenses, DatasetAdvances}

// ErrUnknownDataset is returned for names outside Datasets.
var ErrUnknownDataset = errors.New("unknown dataset")

// ParseDataset accepts a dataset name in any case; empty means trips.
func ParseDataset(s string) (Dataset, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DatasetTrips, nil
	}
	for _, d := range Datasets {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDataset, s)
}

// Filename is the attachment name for d over r.
func Filename(d Dataset, r core.DateRange) string {
	name := "sgfcp-" + string(d)
	if from := r.From.ISO(); from != "" {
		name += "-desde-" + from
	}
	if to := r.To.ISO(); to != "" {
		name += "-hasta-" + to
	}
	return name + ".csv"
}

// WriteCSV writes dataset d of f with a header row. Rows keep snapshot
// order; names are resolved through ix.
func WriteCSV(w io.Writer, d Dataset, f core.Filtered, ix *core.Index) error {
	cw := csv.NewWriter(w)
	var rows [][]string

	switch d {
	case DatasetTrips:
		rows = append(rows, []string{"id", "fecha", "cliente", "chofer", "origen", "destino", "estado", "km", "por_km", "ingreso"})
		for _, t := range f.Trips {
			rows = append(rows, []string{
				strconv.FormatInt(t.ID, 10),
				t.Start().ISO(),
				ix.ClientName(t),
				ix.DriverName(t.DriverID),
				t.Origin,
				t.Destination,
				t.StateID.String(),
				t.EstimatedKms.String(),
				strconv.FormatBool(t.CalculatedPerKm),
				money(analytics.Revenue(t)),
			})
		}
	case DatasetExpenses:
		rows = append(rows, []string{"id", "fecha", "tipo", "chofer", "viaje", "monto"})
		for _, e := range f.Expenses {
			rows = append(rows, []string{
				strconv.FormatInt(e.ID, 10),
				e.When().ISO(),
				e.ExpenseType.String(),
				ix.DriverName(e.DriverID),
				optionalID(e.TripID),
				money(e.Amount),
			})
		}
	case DatasetAdvances:
		rows = append(rows, []string{"id", "fecha", "chofer", "monto"})
		for _, a := range f.Advances {
			rows = append(rows, []string{
				strconv.FormatInt(a.ID, 10),
				a.When().ISO(),
				ix.DriverName(a.DriverID),
				money(a.Amount),
			})
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDataset, d)
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s csv: %w", d, err)
	}
	return nil
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
