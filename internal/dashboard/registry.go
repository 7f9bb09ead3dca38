package dashboard

import (
	"sync"
	"time"

	"sgfcp/internal/cache"
	applog "sgfcp/internal/log"
)

// Registry keeps one Controller per session in an LRU with idle expiry.
type Registry struct {
	mu      sync.Mutex
	entries *cache.LRUCache[*Controller]
	logger  *applog.Logger
	observe LoadObserver
}

// NewRegistry holds up to size controllers, dropping those idle for ttl.
func NewRegistry(size int, ttl time.Duration, logger *applog.Logger, observe LoadObserver) *Registry {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Registry{
		entries: cache.NewLRUCache[*Controller](size, ttl),
		logger:  logger.WithComponent(applog.ComponentDashboard),
		observe: observe,
	}
}

// Get returns the controller for sessionID, creating it when missing.
func (r *Registry) Get(sessionID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.entries.Get(sessionID); ok {
		return c
	}
	c := NewController(r.logger.With(applog.FieldSessionID, sessionID), r.observe)
	r.entries.Set(sessionID, c)
	return c
}

// Forget drops the state of sessionID, used on logout.
func (r *Registry) Forget(sessionID string) {
	r.entries.Delete(sessionID)
}

// MarkAllStale flags every loaded dashboard as outdated and returns how
// many were affected.
func (r *Registry) MarkAllStale() int {
	var controllers []*Controller
	r.entries.Each(func(_ string, c *Controller) { controllers = append(controllers, c) })

	n := 0
	for _, c := range controllers {
		if c.Dispatch(DataChanged{}).Stale {
			n++
		}
	}
	return n
}

// Size is the number of tracked sessions.
func (r *Registry) Size() int { return r.entries.Size() }

// CleanExpired implements cache.Cleaner.
func (r *Registry) CleanExpired() int { return r.entries.CleanExpired() }
