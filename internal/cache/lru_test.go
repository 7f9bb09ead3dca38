package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := NewLRUCache[int](2, time.Hour, WithEvictCallback(func(key string, _ int) {
		evicted = append(evicted, key)
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute, WithClock[string](clock.Now))

	c.Set("a", "x")
	c.Set("b", "y")
	clock.Advance(45 * time.Second)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, c.CleanExpired(), "b expired, a was refreshed by Get")
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRUEach(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	sum := 0
	c.Each(func(_ string, v int) { sum += v })
	assert.Equal(t, 3, sum)

	c.Delete("a")
	sum = 0
	c.Each(func(_ string, v int) { sum += v })
	assert.Equal(t, 2, sum)
}

func TestManagerCleanNow(t *testing.T) {
	m := NewManager(nil)
	m.Register(CleanerFunc(func() int { return 2 }))
	m.Register(CleanerFunc(func() int { return 3 }))
	assert.Equal(t, 5, m.CleanNow())

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
