// Package publisher validates business events, deduplicates them, and
// hands them to the broker. A publish failure is never fatal to the
// business transaction that triggered it: callers log and proceed.
package publisher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/thuanthe81/ecommerce-mailer/internal/broker"
	"github.com/thuanthe81/ecommerce-mailer/internal/dedup"
	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
	"github.com/thuanthe81/ecommerce-mailer/internal/resilience"
)

// Hooks carries optional metric callbacks, injected by main.
type Hooks struct {
	OnPublished func(kind domain.EventKind)
	OnDeduped   func(kind domain.EventKind)
	OnReconnect func()
}

// Publisher owns one broker connection and its resilience state.
type Publisher struct {
	broker broker.Broker
	store  dedup.Store
	res    *resilience.State
	logger *zap.Logger
	hooks  Hooks

	// mu serializes the shutdown flag with the in-flight counter so no
	// Publish can add itself after the drain's Wait has started.
	mu       sync.Mutex
	inFlight sync.WaitGroup

	// reconnecting collapses concurrent publish failures into a single
	// backoff chain.
	reconnecting atomic.Bool
}

func New(b broker.Broker, store dedup.Store, res *resilience.State, logger *zap.Logger, hooks Hooks) *Publisher {
	if hooks.OnPublished == nil {
		hooks.OnPublished = func(domain.EventKind) {}
	}
	if hooks.OnDeduped == nil {
		hooks.OnDeduped = func(domain.EventKind) {}
	}
	if hooks.OnReconnect == nil {
		hooks.OnReconnect = func() {}
	}
	return &Publisher{broker: b, store: store, res: res, logger: logger, hooks: hooks}
}

// Publish validates the event, collapses duplicates onto the existing
// job, and enqueues a fresh job otherwise. The returned job id is the
// event's dedup key.
//
// Errors are advisory: a failed publish must never abort the business
// operation that produced the event. Callers log the error and continue.
func (p *Publisher) Publish(ctx context.Context, event domain.EmailEvent) (string, error) {
	p.mu.Lock()
	if p.res.IsShuttingDown() {
		p.mu.Unlock()
		return "", domain.ErrShuttingDown
	}
	p.inFlight.Add(1)
	p.mu.Unlock()
	defer p.inFlight.Done()

	if err := event.Validate(); err != nil {
		return "", fmt.Errorf("validate %s event: %w", event.Kind(), err)
	}

	key := domain.DedupKey(event)
	if existing, ok := p.store.Lookup(key); ok {
		p.logger.Debug("duplicate publish collapsed onto existing job",
			zap.String("job_id", existing.JobID),
			zap.String("kind", string(event.Kind())),
		)
		p.hooks.OnDeduped(event.Kind())
		return existing.JobID, nil
	}

	job := domain.NewJob(event)
	if err := p.broker.Enqueue(ctx, job); err != nil {
		if broker.IsConnectionError(err) {
			p.res.MarkDisconnected()
			p.scheduleReconnect()
		}
		return "", fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}

	p.store.Record(key, job.ID)
	p.hooks.OnPublished(event.Kind())

	orderID, orderNumber := domain.OrderRef(event)
	p.logger.Info("email job published",
		zap.String("job_id", job.ID),
		zap.String("kind", string(event.Kind())),
		zap.String("order_id", orderID),
		zap.String("order_number", orderNumber),
	)
	return job.ID, nil
}

// scheduleReconnect starts (or continues) the backoff chain. Only one
// chain runs at a time; shutdown stops it.
func (p *Publisher) scheduleReconnect() {
	if !p.reconnecting.CompareAndSwap(false, true) {
		return
	}
	p.continueReconnect()
}

func (p *Publisher) continueReconnect() {
	attempt, delay, ok := p.res.BeginReconnect()
	if !ok {
		p.reconnecting.Store(false)
		return
	}

	p.logger.Warn("broker disconnected, scheduling reconnect",
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
	)

	time.AfterFunc(delay, func() {
		if p.res.IsShuttingDown() {
			p.reconnecting.Store(false)
			return
		}
		if err := p.broker.Reconnect(); err != nil {
			p.logger.Warn("reconnect attempt failed",
				zap.Int("attempt", attempt), zap.Error(err))
			p.continueReconnect()
			return
		}
		p.res.MarkConnected()
		p.reconnecting.Store(false)
		p.hooks.OnReconnect()
		p.logger.Info("broker reconnected", zap.Int("attempts", attempt))
	})
}

// ManualReconnect is the operator-triggered reconnect. Refused while
// shutting down; a no-op success while connected.
func (p *Publisher) ManualReconnect() resilience.ReconnectResult {
	res := p.res.ManualReconnect(p.broker.Reconnect)
	if res.Success {
		p.hooks.OnReconnect()
	}
	return res
}

// Snapshot exposes the publisher's resilience state for the health endpoint.
func (p *Publisher) Snapshot() resilience.Snapshot {
	return p.res.Snapshot()
}

// Shutdown stops new publishes and reconnection attempts, waits for
// in-flight publishes up to the ctx deadline, then releases the broker
// connection. A drain timeout is logged and returned, never swallowed.
func (p *Publisher) Shutdown(ctx context.Context) error {
	// Taking mu here orders the flag flip against every Publish: once we
	// release it, any Publish either saw the flag or already counted
	// itself in before the drain starts waiting.
	p.mu.Lock()
	p.res.BeginShutdown()
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.inFlight.Wait()
		close(drained)
	}()

	var drainErr error
	select {
	case <-drained:
	case <-ctx.Done():
		p.logger.Warn("publisher shutdown timed out waiting for in-flight publishes")
		drainErr = ctx.Err()
	}

	if err := p.broker.Close(); err != nil {
		p.logger.Error("broker close failed", zap.Error(err))
		if drainErr == nil {
			drainErr = err
		}
	}
	return drainErr
}
