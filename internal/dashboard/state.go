// Package dashboard owns the per-session dashboard state and turns it into
// a renderable view. State changes only through Update.
package dashboard

import (
	"sgfcp/internal/core"
)

// Tone colours the status line.
type Tone string

const (
	ToneInfo  Tone = "info"
	ToneOK    Tone = "ok"
	ToneWarn  Tone = "warn"
	ToneError Tone = "error"
)

// Status messages.
const (
	MsgValidating   = "Validando sesion..."
	MsgLoading      = "Cargando datos..."
	MsgLoaded       = "Datos cargados"
	MsgLoadFailed   = "No se pudo cargar data. Revisa token y backend"
	MsgInvalidRange = "Rango de fechas invalido: desde es posterior a hasta"
	MsgStale        = "Hay datos nuevos disponibles. Recarga para verlos."
)

// Status is the single status line of the dashboard.
type Status struct {
	Message string
	Tone    Tone
}

// ChartID names one of the five dashboard charts.
type ChartID string

const (
	ChartRevenue   ChartID = "revenue"
	ChartExpenses  ChartID = "expenses"
	ChartTripState ChartID = "trip-state"
	ChartClients   ChartID = "clients"
	ChartAdvances  ChartID = "advances"
)

// ChartIDs lists the charts in layout order.
var ChartIDs = []ChartID{ChartRevenue, ChartExpenses, ChartTripState, ChartClients, ChartAdvances}

// ParseChartID reports whether s names a chart.
func ParseChartID(s string) (ChartID, bool) {
	for _, id := range ChartIDs {
		if string(id) == s {
			return id, true
		}
	}
	return "", false
}

// State is everything the dashboard shows for one session. The filtered
// collections are not stored; they are derived from Snapshot and Filter
// whenever the view is built.
type State struct {
	Snapshot core.Snapshot
	Loaded   bool
	Loading  bool

	Filter     core.DateRange
	FilterFrom string
	FilterTo   string

	// Expanded is the chart shown in the modal, "" when closed.
	Expanded ChartID

	Status Status
	// Stale is set when the backend announced changes after the last load.
	Stale bool

	// IssuedSeq is the sequence number of the newest load started.
	IssuedSeq uint64
	// AppliedSeq is the sequence number of the snapshot on display.
	AppliedSeq uint64
}

// Filtered applies the current date range to the snapshot.
func (s State) Filtered() core.Filtered {
	return s.Snapshot.Filter(s.Filter)
}

// Msg is an input to Update.
type Msg interface{ isMsg() }

type (
	// Authorized records the greeting after the session guard passed.
	Authorized struct{ Name string }

	// LoadStarted issues a new load sequence number.
	LoadStarted struct{}

	// SnapshotLoaded delivers the result of load Seq.
	SnapshotLoaded struct {
		Seq      uint64
		Snapshot core.Snapshot
	}

	// LoadFailed reports that load Seq failed.
	LoadFailed struct {
		Seq uint64
		Err error
	}

	// FilterApplied sets the date range from the raw form inputs.
	FilterApplied struct{ From, To string }

	// FilterReset clears the date range.
	FilterReset struct{}

	// ChartExpanded opens chart ID in the modal.
	ChartExpanded struct{ ID ChartID }

	// ChartClosed closes the modal.
	ChartClosed struct{}

	// DataChanged marks the loaded snapshot as outdated.
	DataChanged struct{}
)

func (Authorized) isMsg()     {}
func (LoadStarted) isMsg()    {}
func (SnapshotLoaded) isMsg() {}
func (LoadFailed) isMsg()     {}
func (FilterApplied) isMsg()  {}
func (FilterReset) isMsg()    {}
func (ChartExpanded) isMsg()  {}
func (ChartClosed) isMsg()    {}
func (DataChanged) isMsg()    {}

// Update returns the state that results from applying msg to s. Results of
// loads other than the latest issued one are dropped, so overlapping
// reloads resolve to the newest request regardless of arrival order. A
// failed load leaves the previous snapshot in place.
func Update(s State, msg Msg) State {
	switch m := msg.(type) {
	case Authorized:
		name := m.Name
		if name == "" {
			name = "admin"
		}
		s.Status = Status{Message: "Sesion activa. Hola " + name, Tone: ToneOK}

	case LoadStarted:
		s.IssuedSeq++
		s.Loading = true
		s.Status = Status{Message: MsgLoading, Tone: ToneInfo}

	case SnapshotLoaded:
		if m.Seq != s.IssuedSeq {
			return s
		}
		s.Snapshot = m.Snapshot
		s.Loaded = true
		s.Loading = false
		s.Stale = false
		s.AppliedSeq = m.Seq
		s.Status = Status{Message: MsgLoaded, Tone: ToneOK}

	case LoadFailed:
		if m.Seq != s.IssuedSeq {
			return s
		}
		s.Loading = false
		s.Status = Status{Message: MsgLoadFailed, Tone: ToneError}

	case FilterApplied:
		r := core.NewDateRange(m.From, m.To)
		if r.Inverted() {
			s.Status = Status{Message: MsgInvalidRange, Tone: ToneWarn}
			return s
		}
		s.Filter = r
		s.FilterFrom = isoOrEmpty(r.From)
		s.FilterTo = isoOrEmpty(r.To)

	case FilterReset:
		s.Filter = core.DateRange{}
		s.FilterFrom, s.FilterTo = "", ""

	case ChartExpanded:
		if _, ok := ParseChartID(string(m.ID)); ok {
			s.Expanded = m.ID
		}

	case ChartClosed:
		s.Expanded = ""

	case DataChanged:
		if s.Loaded {
			s.Stale = true
		}
	}
	return s
}

func isoOrEmpty(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.ISO()
}
