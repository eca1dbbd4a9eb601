package worker

import "time"

// Retry schedule: 1 minute after the first failed attempt, then ×5 per
// attempt (5 m, 25 m, 125 m, ...), capped at 4 hours.
const (
	retryBase   = time.Minute
	retryFactor = 5
	retryMax    = 4 * time.Hour
)

// RetrySchedule returns every distinct delay NextRetryDelay can
// produce, ascending. The broker declares one delay queue per entry so
// retries with different delays expire independently.
func RetrySchedule() []time.Duration {
	out := []time.Duration{retryBase}
	d := retryBase
	for d < retryMax {
		d *= retryFactor
		if d > retryMax {
			d = retryMax
		}
		out = append(out, d)
	}
	return out
}

// NextRetryDelay returns the backoff before re-attempting a job that
// has failed `attempt` times (1-based). Non-decreasing and capped.
func NextRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := retryBase
	for i := 1; i < attempt; i++ {
		d *= retryFactor
		if d >= retryMax {
			return retryMax
		}
	}
	if d > retryMax {
		return retryMax
	}
	return d
}
