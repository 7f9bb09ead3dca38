package dashboard

import (
	"context"
	"sync"
	"time"

	"sgfcp/internal/core"
	applog "sgfcp/internal/log"
)

// Loader fetches a complete snapshot.
type Loader interface {
	LoadSnapshot(ctx context.Context) (core.Snapshot, error)
}

// LoadObserver receives the outcome of every load: "ok", "error" or
// "superseded".
type LoadObserver func(result string, elapsed time.Duration)

// Controller serialises updates to one session's State.
type Controller struct {
	mu      sync.Mutex
	state   State
	logger  *applog.Logger
	observe LoadObserver
}

// NewController returns a controller holding the empty initial state.
func NewController(logger *applog.Logger, observe LoadObserver) *Controller {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Controller{logger: logger, observe: observe}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies msg and returns the resulting state.
func (c *Controller) Dispatch(msg Msg) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Update(c.state, msg)
	return c.state
}

// Reload runs one full load. The lock is not held while fetching, so a
// newer Reload may start and win.
func (c *Controller) Reload(ctx context.Context, loader Loader) State {
	seq := c.Dispatch(LoadStarted{}).IssuedSeq
	start := time.Now()

	snap, err := loader.LoadSnapshot(ctx)

	var next State
	if err != nil {
		next = c.Dispatch(LoadFailed{Seq: seq, Err: err})
	} else {
		next = c.Dispatch(SnapshotLoaded{Seq: seq, Snapshot: snap})
	}

	result := "ok"
	switch {
	case next.IssuedSeq != seq:
		result = "superseded"
	case err != nil:
		result = "error"
	}
	elapsed := time.Since(start)
	if c.observe != nil {
		c.observe(result, elapsed)
	}

	if err != nil {
		c.logger.WarnContext(ctx, "Snapshot load failed",
			applog.FieldLoadSeq, seq, applog.FieldError, err, applog.FieldDuration, elapsed.Milliseconds())
	} else {
		c.logger.InfoContext(ctx, "Snapshot load finished",
			applog.FieldLoadSeq, seq, "result", result, applog.FieldDuration, elapsed.Milliseconds())
	}
	return next
}
