package session

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"
)

// ErrNotFound is returned by a Store when the session does not exist or has
// expired.
var ErrNotFound = errors.New("session not found")

// Values is the persisted key/value state of one session.
type Values map[string]string

// Store persists session values by ID.
type Store interface {
	Load(ctx context.Context, id string) (Values, error)
	Save(ctx context.Context, id string, values Values, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	// Touch extends the lifetime of an unchanged session.
	Touch(ctx context.Context, id string, ttl time.Duration) error
}

type memoryEntry struct {
	values    Values
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, id)
		return nil, ErrNotFound
	}
	return maps.Clone(e.values), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, values Values, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{values: maps.Clone(values)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[id] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || ttl <= 0 {
		return nil
	}
	e.expiresAt = s.now().Add(ttl)
	s.entries[id] = e
	return nil
}

// CleanExpired drops expired sessions and returns how many were removed.
func (s *MemoryStore) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, e := range s.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}
