package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobState tracks the lifecycle of an email job.
type JobState string

const (
	JobStatePending    JobState = "pending"
	JobStateProcessing JobState = "processing"
	JobStateSent       JobState = "sent"
	JobStateFailedTemp JobState = "failed_temp" // requeued with a retry delay
	JobStateFailedPerm JobState = "failed_perm" // terminal, dead-lettered
)

// Job is the envelope persisted and transported by the broker.
// ID is the event's dedup key, which doubles as the broker message id
// so the broker's own per-id dedup backs up the publisher's window.
type Job struct {
	ID          string     `json:"id"`
	Event       EmailEvent `json:"-"`
	Attempts    int        `json:"attempts"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
	State       JobState   `json:"state"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
}

// NewJob wraps an event into a fresh job at attempt zero.
func NewJob(e EmailEvent) Job {
	return Job{
		ID:         DedupKey(e),
		Event:      e,
		State:      JobStatePending,
		EnqueuedAt: time.Now().UTC(),
	}
}

// jobEnvelope is the wire form. The event payload is carried as raw JSON
// next to its kind tag so DecodeJob can pick the concrete variant.
type jobEnvelope struct {
	ID          string          `json:"id"`
	Kind        EventKind       `json:"kind"`
	Event       json.RawMessage `json:"event"`
	Attempts    int             `json:"attempts"`
	NextRetryAt *time.Time      `json:"next_retry_at,omitempty"`
	State       JobState        `json:"state"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
}

// EncodeJob serializes a job for the broker.
func EncodeJob(j Job) ([]byte, error) {
	if j.Event == nil {
		return nil, fmt.Errorf("encode job %s: %w", j.ID, ErrUnknownEventKind)
	}
	raw, err := json.Marshal(j.Event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return json.Marshal(jobEnvelope{
		ID:          j.ID,
		Kind:        j.Event.Kind(),
		Event:       raw,
		Attempts:    j.Attempts,
		NextRetryAt: j.NextRetryAt,
		State:       j.State,
		EnqueuedAt:  j.EnqueuedAt,
	})
}

// DecodeJob deserializes a broker payload back into a Job, restoring the
// concrete event variant from the kind tag.
func DecodeJob(data []byte) (Job, error) {
	var env jobEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Job{}, fmt.Errorf("unmarshal job envelope: %w", err)
	}

	event, err := decodeEvent(env.Kind, env.Event)
	if err != nil {
		return Job{}, err
	}

	return Job{
		ID:          env.ID,
		Event:       event,
		Attempts:    env.Attempts,
		NextRetryAt: env.NextRetryAt,
		State:       env.State,
		EnqueuedAt:  env.EnqueuedAt,
	}, nil
}

func decodeEvent(kind EventKind, raw json.RawMessage) (EmailEvent, error) {
	switch kind {
	case KindOrderConfirmation:
		var e OrderConfirmation
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return e, nil
	case KindOrderStatusChanged:
		var e OrderStatusChanged
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return e, nil
	case KindOrderCancelled:
		var e OrderCancelled
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return e, nil
	case KindAdminNotification:
		var e AdminNotification
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return e, nil
	case KindInvoiceResend:
		var e InvoiceResend
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return e, nil
	case KindAdminInvoice:
		var e AdminInvoice
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, kind)
	}
}
