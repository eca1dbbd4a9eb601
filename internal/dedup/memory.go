package dedup

import (
	"sync"
	"time"
)

// MemoryStore is the in-memory Store used in single-instance deployments
// and tests. Entries expire after the configured window; an internal
// janitor goroutine sweeps expired entries so the map does not grow
// without bound under sustained traffic.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	window  time.Duration

	done chan struct{}
	once sync.Once

	// now is swappable for deterministic expiry tests.
	now func() time.Time
}

// NewMemoryStore creates a store whose entries live for the given window.
// A non-positive window falls back to one minute.
func NewMemoryStore(window time.Duration) *MemoryStore {
	if window <= 0 {
		window = time.Minute
	}
	s := &MemoryStore{
		entries: make(map[string]Entry),
		window:  window,
		done:    make(chan struct{}),
		now:     func() time.Time { return time.Now().UTC() },
	}
	go s.sweep()
	return s
}

func (s *MemoryStore) Lookup(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.Failed {
		return Entry{}, false
	}
	if s.now().Sub(e.CreatedAt) > s.window {
		delete(s.entries, key)
		return Entry{}, false
	}
	return e, true
}

func (s *MemoryStore) Record(key, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Key: key, JobID: jobID, CreatedAt: s.now()}
}

func (s *MemoryStore) MarkFailed(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.Failed = true
		s.entries[key] = e
	}
}

func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

// Len reports the number of tracked entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.window)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			cutoff := s.now().Add(-s.window)
			s.mu.Lock()
			for key, e := range s.entries {
				if e.CreatedAt.Before(cutoff) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// compile-time check that MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
