// Package dedup tracks recently published job keys so repeated publish
// attempts for the same business event collapse onto the existing job.
//
// The store is best-effort by design: it backs up, but does not replace,
// the broker's own per-message-id dedup. A single-instance deployment
// uses the in-memory implementation; multi-instance deployments can
// substitute a shared store without touching publisher or worker code.
package dedup

import "time"

// Entry is what the store remembers about a published job.
type Entry struct {
	Key       string
	JobID     string
	CreatedAt time.Time
	// Failed marks a job that terminally failed. A failed entry no longer
	// suppresses publishing: the business event deserves a fresh job.
	Failed bool
}

// Store is the dedup window consulted by the publisher before enqueuing.
type Store interface {
	// Lookup returns the live entry for key, if one exists within the
	// window and has not terminally failed.
	Lookup(key string) (Entry, bool)
	// Record remembers that a job with the given id was enqueued for key.
	Record(key, jobID string)
	// MarkFailed flags the entry for key as terminally failed.
	MarkFailed(key string)
	// Close releases any background resources.
	Close()
}
