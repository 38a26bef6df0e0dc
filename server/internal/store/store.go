package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cazuela/gasmonitor/pkg/types"
)

// Entry is one uploaded dataset session.
type Entry struct {
	ID      string
	Name    string
	Dataset types.Dataset

	// Alert is the operator's alert threshold for this session.
	Alert float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory session store, keyed by session ID.
// A background goroutine (Run) periodically evicts sessions that have not
// been used within the configured TTL.
//
// Datasets are immutable once stored: callers get copies of the Entry but
// share the underlying readings and must not modify them.
type Store struct {
	mu    sync.RWMutex
	data  map[string]*Entry
	ttl   time.Duration
	now   func() time.Time // injectable for deterministic tests
	newID func() string

	onEvict func(ids []string)
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data:  make(map[string]*Entry),
		ttl:   ttl,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Put stores ds as a new session and returns a copy of its Entry.
func (s *Store) Put(name string, ds types.Dataset, alert float64) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e := &Entry{
		ID:        s.newID(),
		Name:      name,
		Dataset:   ds,
		Alert:     alert,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.data[e.ID] = e
	cp := *e
	return &cp
}

// Get returns a copy of the session and refreshes its last-use time.
// Sessions past their TTL are reported as missing even before eviction.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[id]
	if !ok || s.stale(e, s.now()) {
		return nil, false
	}
	e.UpdatedAt = s.now()
	cp := *e
	return &cp, true
}

// SetAlert changes the session's alert threshold.
func (s *Store) SetAlert(id string, alert float64) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[id]
	if !ok || s.stale(e, s.now()) {
		return nil, false
	}
	e.Alert = alert
	e.UpdatedAt = s.now()
	cp := *e
	return &cp, true
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[id]
	delete(s.data, id)
	return ok
}

// List returns copies of all sessions whose UpdatedAt is within the TTL,
// oldest upload first. Stale sessions that have not yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if !s.stale(e, now) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the total number of sessions currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// OnEvict registers fn to be called with the IDs of sessions removed by
// Evict. It must be set before Run starts.
func (s *Store) OnEvict(fn func(ids []string)) { s.onEvict = fn }

// Evict removes sessions whose UpdatedAt is older than now minus TTL.
// It returns the number of sessions removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	var removed []string
	for id, e := range s.data {
		if s.stale(e, now) {
			delete(s.data, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	if len(removed) > 0 && s.onEvict != nil {
		s.onEvict(removed)
	}
	return len(removed)
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second) so sessions are evicted promptly. Run blocks until ctx is
// cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale sessions", "count", n)
			}
		}
	}
}

func (s *Store) stale(e *Entry, now time.Time) bool {
	return !e.UpdatedAt.After(now.Add(-s.ttl))
}
