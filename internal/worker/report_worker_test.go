package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgfcp/internal/amqp"
	"sgfcp/internal/core"
	"sgfcp/internal/export"
)

type fakeSource struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSource) LoadSnapshot(context.Context) (core.Snapshot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return core.Snapshot{}, f.err
	}
	return core.NewSnapshot(core.Collections{
		Trips: []core.Trip{
			{ID: 1, StartDate: "2024-03-02", Rate: decimal.NewFromInt(1000)},
			{ID: 2, StartDate: "2024-02-10", Rate: decimal.NewFromInt(500)},
		},
	}, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)), nil
}

type fakeWriter struct {
	mu      sync.Mutex
	reports []export.Report
	err     error
}

func (f *fakeWriter) WriteReport(_ context.Context, r export.Report) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.reports = append(f.reports, r)
	return "Resumen!A1:C20", nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func TestSyncNow(t *testing.T) {
	src := &fakeSource{}
	out := &fakeWriter{}
	w := New(src, out, Config{Range: MonthToDate}, nil)
	w.now = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, w.SyncNow(context.Background()))
	require.Len(t, out.reports, 1)

	r := out.reports[0]
	assert.Equal(t, "2024-03-01", r.Range.From.ISO())
	assert.Equal(t, "2024-03-05", r.Range.To.ISO())
	assert.Equal(t, 1, r.KPIs.TripCount, "only March trips are summarised")

	stats := w.Stats()
	assert.Equal(t, 1, stats.Syncs)
	assert.Equal(t, "Resumen!A1:C20", stats.LastCell)
}

func TestSyncNowFailures(t *testing.T) {
	w := New(&fakeSource{err: errors.New("backend down")}, &fakeWriter{}, Config{}, nil)
	assert.ErrorContains(t, w.SyncNow(context.Background()), "load snapshot")

	w = New(&fakeSource{}, &fakeWriter{err: errors.New("quota")}, Config{}, nil)
	assert.ErrorContains(t, w.SyncNow(context.Background()), "write report")
	assert.Equal(t, 1, w.Stats().Failures)
}

func TestRunDebouncesNotifications(t *testing.T) {
	src := &fakeSource{}
	out := &fakeWriter{}
	w := New(src, out, Config{Interval: time.Hour, Debounce: 20 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return out.count() == 1 }, time.Second, 5*time.Millisecond, "startup sync")

	msg := amqp.NewDataChangedMessage("test", "trips")
	for i := 0; i < 5; i++ {
		require.NoError(t, w.HandleDataChanged(msg))
	}
	require.Eventually(t, func() bool { return out.count() == 2 }, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 2, out.count(), "a burst produces a single sync")

	assert.Error(t, w.Run(ctx), "second Run while running")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMonthToDate(t *testing.T) {
	r := MonthToDate(time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", r.From.ISO())
	assert.Equal(t, "2024-02-29", r.To.ISO())
}
