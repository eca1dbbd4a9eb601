package dedup

import (
	"testing"
	"time"
)

func newTestStore(window time.Duration) (*MemoryStore, *time.Time) {
	s := NewMemoryStore(window)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }
	return s, &current
}

func TestMemoryStore_RecordAndLookup(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	defer s.Close()

	if _, ok := s.Lookup("k1"); ok {
		t.Fatal("lookup on empty store must miss")
	}

	s.Record("k1", "job-1")
	e, ok := s.Lookup("k1")
	if !ok {
		t.Fatal("expected a hit after Record")
	}
	if e.JobID != "job-1" {
		t.Fatalf("expected job-1, got %s", e.JobID)
	}
}

func TestMemoryStore_WindowExpiry(t *testing.T) {
	s, current := newTestStore(time.Minute)
	defer s.Close()

	s.Record("k1", "job-1")

	*current = current.Add(59 * time.Second)
	if _, ok := s.Lookup("k1"); !ok {
		t.Fatal("entry inside the window must still hit")
	}

	*current = current.Add(2 * time.Second)
	if _, ok := s.Lookup("k1"); ok {
		t.Fatal("entry past the window must miss")
	}
}

func TestMemoryStore_FailedEntryDoesNotSuppress(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	defer s.Close()

	s.Record("k1", "job-1")
	s.MarkFailed("k1")

	if _, ok := s.Lookup("k1"); ok {
		t.Fatal("a terminally failed job must not block a fresh publish")
	}
}

func TestMemoryStore_LookupDropsExpired(t *testing.T) {
	s, current := newTestStore(time.Minute)
	defer s.Close()

	s.Record("k1", "job-1")
	*current = current.Add(2 * time.Minute)

	s.Lookup("k1")
	if s.Len() != 0 {
		t.Fatalf("expired entry should be dropped on lookup, have %d entries", s.Len())
	}
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	s.Close()
	s.Close() // must not panic
}
