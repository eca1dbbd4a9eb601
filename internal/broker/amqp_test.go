package broker

import (
	"testing"
	"time"
)

func TestRetryTierSelection(t *testing.T) {
	b := &AMQP{retryDelays: []time.Duration{
		time.Minute,
		5 * time.Minute,
		25 * time.Minute,
		125 * time.Minute,
		4 * time.Hour,
	}}

	cases := []struct {
		name  string
		delay time.Duration
		want  time.Duration
	}{
		{"exact match picks its own tier", 5 * time.Minute, 5 * time.Minute},
		{"between tiers rounds up", 90 * time.Second, 5 * time.Minute},
		{"below the smallest tier picks the smallest", 10 * time.Second, time.Minute},
		{"beyond the schedule picks the largest", 9 * time.Hour, 4 * time.Hour},
		{"largest tier exact", 4 * time.Hour, 4 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.retryTier(tc.delay); got != tc.want {
				t.Fatalf("retryTier(%v) = %v, want %v", tc.delay, got, tc.want)
			}
		})
	}
}

func TestRetryQueueNamesAreDistinctPerTier(t *testing.T) {
	delays := []time.Duration{time.Minute, 5 * time.Minute, 4 * time.Hour}

	seen := make(map[string]bool)
	for _, d := range delays {
		name := retryQueueName("email_jobs", d)
		if seen[name] {
			t.Fatalf("duplicate retry queue name %q for delay %v", name, d)
		}
		seen[name] = true
	}

	if got, want := retryQueueName("email_jobs", time.Minute), "email_jobs.retry.1m0s"; got != want {
		t.Fatalf("retryQueueName = %q, want %q", got, want)
	}
}
