package broker

import (
	"context"
	"sync"
	"time"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// Memory is the in-process Broker. It mirrors the transport guarantees
// the worker relies on: per-id dedup while a job is unsettled, and
// delayed redelivery via a ticker-driven sweep instead of sleeping.
type Memory struct {
	mu      sync.Mutex
	queue   chan Delivery
	pending map[string]struct{}
	delayed []delayedJob
	closed  bool

	done      chan struct{}
	closeOnce sync.Once

	sweepEvery time.Duration
	now        func() time.Time
}

type delayedJob struct {
	job   domain.Job
	dueAt time.Time
}

// NewMemory creates an in-memory broker holding at most capacity
// ready-to-consume jobs.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1024
	}
	m := &Memory{
		queue:      make(chan Delivery, capacity),
		pending:    make(map[string]struct{}),
		done:       make(chan struct{}),
		sweepEvery: 20 * time.Millisecond,
		now:        func() time.Time { return time.Now().UTC() },
	}
	go m.sweep()
	return m
}

func (m *Memory) Enqueue(_ context.Context, job domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, dup := m.pending[job.ID]; dup {
		// Same id already queued or in flight; the transport-level
		// dedup swallows the duplicate silently.
		return nil
	}

	select {
	case m.queue <- m.delivery(job):
		m.pending[job.ID] = struct{}{}
		return nil
	default:
		return ErrQueueFull
	}
}

func (m *Memory) EnqueueDelayed(_ context.Context, job domain.Job, delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.delayed = append(m.delayed, delayedJob{job: job, dueAt: m.now().Add(delay)})
	return nil
}

func (m *Memory) Consume(ctx context.Context) (<-chan Delivery, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.mu.Unlock()

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.done:
				return
			case d := <-m.queue:
				select {
				case out <- d:
				case <-ctx.Done():
					return
				case <-m.done:
					return
				}
			}
		}
	}()
	return out, nil
}

// Reconnect is a no-op: an in-process broker cannot lose its link.
func (m *Memory) Reconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

// Depth reports ready plus delayed jobs, for the queue snapshot endpoint.
func (m *Memory) Depth() (ready, delayed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue), len(m.delayed)
}

func (m *Memory) delivery(job domain.Job) Delivery {
	settle := func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.pending, job.ID)
		return nil
	}
	return Delivery{
		Job: job,
		ack: settle,
		nack: func() error {
			m.mu.Lock()
			delete(m.pending, job.ID)
			m.mu.Unlock()
			// Redeliver on a fresh context; Enqueue never blocks.
			return m.Enqueue(context.Background(), job)
		},
	}
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.redeliverDue()
		}
	}
}

// redeliverDue moves every delayed job whose time has come onto the
// ready queue. Jobs that do not fit (full buffer or duplicate id) stay
// delayed and are retried on the next tick.
func (m *Memory) redeliverDue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	now := m.now()
	remaining := m.delayed[:0]
	for _, d := range m.delayed {
		if d.dueAt.After(now) {
			remaining = append(remaining, d)
			continue
		}
		if _, dup := m.pending[d.job.ID]; dup {
			remaining = append(remaining, d)
			continue
		}
		select {
		case m.queue <- m.delivery(d.job):
			m.pending[d.job.ID] = struct{}{}
		default:
			remaining = append(remaining, d)
		}
	}
	m.delayed = remaining
}

// compile-time check that Memory implements Broker
var _ Broker = (*Memory)(nil)
