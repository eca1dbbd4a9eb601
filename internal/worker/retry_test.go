package worker_test

import (
	"testing"
	"time"

	"github.com/thuanthe81/ecommerce-mailer/internal/worker"
)

func TestNextRetryDelay_Schedule(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Minute},        // 60 000 ms
		{2, 5 * time.Minute},    // 300 000 ms
		{3, 25 * time.Minute},   // 1 500 000 ms
		{4, 125 * time.Minute},  // still under the cap
		{5, 4 * time.Hour},      // 625 m capped
		{100, 4 * time.Hour},
		{0, time.Minute}, // clamped to attempt 1
	}

	for _, tc := range tests {
		if got := worker.NextRetryDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: got %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestRetrySchedule_CoversEveryDelay(t *testing.T) {
	sched := worker.RetrySchedule()

	want := []time.Duration{
		time.Minute,
		5 * time.Minute,
		25 * time.Minute,
		125 * time.Minute,
		4 * time.Hour,
	}
	if len(sched) != len(want) {
		t.Fatalf("schedule has %d tiers, want %d: %v", len(sched), len(want), sched)
	}
	for i := range want {
		if sched[i] != want[i] {
			t.Fatalf("tier %d: got %v, want %v", i, sched[i], want[i])
		}
	}

	// Every delay NextRetryDelay can hand out must be a declared tier,
	// otherwise a retry would land in a queue that does not exist.
	tiers := make(map[time.Duration]bool, len(sched))
	for _, d := range sched {
		tiers[d] = true
	}
	for attempt := 1; attempt <= 64; attempt++ {
		if d := worker.NextRetryDelay(attempt); !tiers[d] {
			t.Fatalf("attempt %d produced undeclared delay %v", attempt, d)
		}
	}
}

func TestNextRetryDelay_NonDecreasingAndCapped(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 1; attempt <= 128; attempt++ {
		d := worker.NextRetryDelay(attempt)
		if d < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		if d > 4*time.Hour {
			t.Fatalf("delay exceeds cap at attempt %d: %v", attempt, d)
		}
		prev = d
	}
}
