package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(10, time.Hour, nil, nil)

	a := r.Get("a")
	assert.Same(t, a, r.Get("a"))
	b := r.Get("b")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.Size())

	a.Dispatch(LoadStarted{})
	a.Dispatch(SnapshotLoaded{Seq: 1, Snapshot: snapshotWith()})

	assert.Equal(t, 1, r.MarkAllStale(), "only loaded dashboards become stale")
	assert.True(t, r.Get("a").State().Stale)
	assert.False(t, r.Get("b").State().Stale)

	r.Forget("a")
	assert.False(t, r.Get("a").State().Loaded)
	assert.Equal(t, 0, r.CleanExpired())
}
