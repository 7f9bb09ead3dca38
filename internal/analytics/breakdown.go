package analytics

import (
	"strings"

	"github.com/shopspring/decimal"

	"sgfcp/internal/core"
)

// NoStateLabel buckets trips without a state.
const NoStateLabel = "Sin estado"

// Bucket is a labelled total.
type Bucket struct {
	Label string
	Total decimal.Decimal
}

// Count is a labelled tally.
type Count struct {
	Label string
	Count int
}

// ExpenseTypeExcluded reports whether an expense type carries no usable
// category: empty, or the literal "undefined"/"none" in any case.
func ExpenseTypeExcluded(kind string) bool {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return true
	}
	switch strings.ToLower(kind) {
	case "undefined", "none":
		return true
	}
	return false
}

// ExpensesByType groups amounts by trimmed expense type in order of first
// appearance.
func ExpensesByType(expenses []core.Expense) []Bucket {
	var out []Bucket
	pos := make(map[string]int)
	for _, e := range expenses {
		kind := e.ExpenseType.String()
		if ExpenseTypeExcluded(kind) {
			continue
		}
		i, ok := pos[kind]
		if !ok {
			i = len(out)
			pos[kind] = i
			out = append(out, Bucket{Label: kind, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}

// TripsByState counts trips per state_id in order of first appearance.
func TripsByState(trips []core.Trip) []Count {
	var out []Count
	pos := make(map[string]int)
	for _, t := range trips {
		state := t.StateID.String()
		if state == "" {
			state = NoStateLabel
		}
		i, ok := pos[state]
		if !ok {
			i = len(out)
			pos[state] = i
			out = append(out, Count{Label: state})
		}
		out[i].Count++
	}
	return out
}
