// Package worker keeps the spreadsheet report in step with the backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sgfcp/internal/amqp"
	"sgfcp/internal/core"
	"sgfcp/internal/export"
	applog "sgfcp/internal/log"
)

// SnapshotSource loads the data to summarise.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (core.Snapshot, error)
}

// ReportWriter publishes a report and returns where it landed.
type ReportWriter interface {
	WriteReport(ctx context.Context, r export.Report) (string, error)
}

// Config holds configuration for the report worker
type Config struct {
	// Interval is how often the report is rebuilt without notifications (default: 1h)
	Interval time.Duration

	// Debounce collapses bursts of notifications into one sync (default: 5s)
	Debounce time.Duration

	// Range picks the date range for a sync. Nil means everything.
	Range func(now time.Time) core.DateRange
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval: time.Hour,
		Debounce: 5 * time.Second,
	}
}

// Stats summarises the worker's activity.
type Stats struct {
	Syncs    int
	Failures int
	LastSync time.Time
	LastCell string
}

// ReportWorker rebuilds the report on data change notifications and on a
// fixed interval.
type ReportWorker struct {
	source SnapshotSource
	writer ReportWriter
	config Config
	logger *applog.Logger
	now    func() time.Time

	trigger chan struct{}

	mu      sync.Mutex
	running bool
	stats   Stats
}

// New creates a report worker.
func New(source SnapshotSource, writer ReportWriter, config Config, logger *applog.Logger) *ReportWorker {
	defaults := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Debounce <= 0 {
		config.Debounce = defaults.Debounce
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &ReportWorker{
		source:  source,
		writer:  writer,
		config:  config,
		logger:  logger.WithComponent(applog.ComponentExport),
		now:     time.Now,
		trigger: make(chan struct{}, 1),
	}
}

// HandleDataChanged is the AMQP handler. It never blocks and never fails,
// so deliveries are acked even while a sync is in progress.
func (w *ReportWorker) HandleDataChanged(msg *amqp.DataChangedMessage) error {
	w.logger.Debug("Data change received", "source", msg.Source, "resources", msg.Resources)
	w.Notify()
	return nil
}

// Notify schedules a sync.
func (w *ReportWorker) Notify() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Stats returns a copy of the activity counters.
func (w *ReportWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// SyncNow loads a snapshot and writes the report once.
func (w *ReportWorker) SyncNow(ctx context.Context) error {
	start := w.now()
	snap, err := w.source.LoadSnapshot(ctx)
	if err != nil {
		w.recordFailure()
		return fmt.Errorf("load snapshot: %w", err)
	}

	var r core.DateRange
	if w.config.Range != nil {
		r = w.config.Range(start)
	}
	cell, err := w.writer.WriteReport(ctx, export.BuildReport(snap, r, start))
	if err != nil {
		w.recordFailure()
		return fmt.Errorf("write report: %w", err)
	}

	w.mu.Lock()
	w.stats.Syncs++
	w.stats.LastSync = start
	w.stats.LastCell = cell
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Report synced",
		"sheet_range", cell, applog.FieldDuration, w.now().Sub(start).Milliseconds(),
		"trips", len(snap.Trips), "expenses", len(snap.Expenses))
	return nil
}

func (w *ReportWorker) recordFailure() {
	w.mu.Lock()
	w.stats.Failures++
	w.mu.Unlock()
}

// Run syncs once, then on every debounced notification and every Interval
// until ctx ends. Failed syncs are logged and retried on the next trigger.
func (w *ReportWorker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("report worker is already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.syncLogged(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.trigger:
			if debounce == nil {
				debounce = time.After(w.config.Debounce)
			}
		case <-debounce:
			debounce = nil
			w.syncLogged(ctx)
		case <-ticker.C:
			w.syncLogged(ctx)
		}
	}
}

func (w *ReportWorker) syncLogged(ctx context.Context) {
	if err := w.SyncNow(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Report sync failed", applog.FieldError, err)
	}
}

// MonthToDate is a Range that covers the current calendar month.
func MonthToDate(now time.Time) core.DateRange {
	now = now.UTC()
	return core.DateRange{
		From: core.NewDate(now.Year(), now.Month(), 1),
		To:   core.NewDate(now.Year(), now.Month(), now.Day()),
	}
}
