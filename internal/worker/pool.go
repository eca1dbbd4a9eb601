package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/thuanthe81/ecommerce-mailer/internal/broker"
	"github.com/thuanthe81/ecommerce-mailer/internal/dedup"
	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
	"github.com/thuanthe81/ecommerce-mailer/internal/orderstore"
	"github.com/thuanthe81/ecommerce-mailer/internal/resilience"
)

// Hooks carries the metric callbacks injected by main. Using a struct
// keeps the pool constructor signature clean.
type Hooks struct {
	OnSent           func(kind domain.EventKind, latency time.Duration)
	OnRetryScheduled func(kind domain.EventKind)
	OnDeadLettered   func(kind domain.EventKind)
}

func (h *Hooks) fillNops() {
	if h.OnSent == nil {
		h.OnSent = func(domain.EventKind, time.Duration) {}
	}
	if h.OnRetryScheduled == nil {
		h.OnRetryScheduled = func(domain.EventKind) {}
	}
	if h.OnDeadLettered == nil {
		h.OnDeadLettered = func(domain.EventKind) {}
	}
}

// Pool owns the worker-side broker connection: it consumes deliveries,
// fans them out to a bounded number of goroutines, schedules retries as
// delayed re-enqueues, and dead-letters terminal failures. It tracks
// its own resilience state independently of the publisher's.
type Pool struct {
	broker      broker.Broker
	worker      *Worker
	store       orderstore.Store
	dedupStore  dedup.Store
	res         *resilience.State
	concurrency int
	maxAttempts int
	logger      *zap.Logger
	hooks       Hooks

	inFlight atomic.Int64
	wg       sync.WaitGroup
}

func NewPool(
	b broker.Broker,
	w *Worker,
	store orderstore.Store,
	dedupStore dedup.Store,
	res *resilience.State,
	concurrency int,
	maxAttempts int,
	logger *zap.Logger,
	hooks Hooks,
) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	hooks.fillNops()
	return &Pool{
		broker:      b,
		worker:      w,
		store:       store,
		dedupStore:  dedupStore,
		res:         res,
		concurrency: concurrency,
		maxAttempts: maxAttempts,
		logger:      logger,
		hooks:       hooks,
	}
}

// Start launches the consume/supervise loop. Cancelling ctx triggers a
// cooperative shutdown; call Wait afterwards to drain in-flight jobs.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.supervise(ctx)
}

// Wait blocks until every worker goroutine has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// InFlight reports the number of jobs currently being processed, for
// the health snapshot.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Snapshot exposes the worker-side resilience state.
func (p *Pool) Snapshot() resilience.Snapshot {
	return p.res.Snapshot()
}

// ManualReconnect is the operator-triggered reconnect of the consume
// connection. Refused while shutting down.
func (p *Pool) ManualReconnect() resilience.ReconnectResult {
	return p.res.ManualReconnect(p.broker.Reconnect)
}

// supervise keeps a consume stream alive until shutdown. When the
// stream ends without ctx being cancelled, the connection was lost:
// flip the resilience state and redial with backoff.
func (p *Pool) supervise(ctx context.Context) {
	defer p.wg.Done()

	for {
		deliveries, err := p.broker.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.res.MarkDisconnected()
			if !p.backoffReconnect(ctx) {
				return
			}
			continue
		}

		p.res.MarkConnected()
		p.logger.Info("worker pool consuming", zap.Int("concurrency", p.concurrency))

		var workers sync.WaitGroup
		for i := 0; i < p.concurrency; i++ {
			workers.Add(1)
			go func(id int) {
				defer workers.Done()
				p.run(ctx, id, deliveries)
			}(i)
		}
		workers.Wait()

		if ctx.Err() != nil {
			p.logger.Info("worker pool stopping")
			return
		}

		// Delivery stream ended outside shutdown: connection lost.
		p.res.MarkDisconnected()
		if !p.backoffReconnect(ctx) {
			return
		}
	}
}

// backoffReconnect waits out the resilience backoff and redials.
// Returns false when shutdown began while waiting.
func (p *Pool) backoffReconnect(ctx context.Context) bool {
	attempt, delay, ok := p.res.BeginReconnect()
	if !ok {
		return false
	}
	p.logger.Warn("consume connection lost, reconnecting",
		zap.Int("attempt", attempt), zap.Duration("delay", delay))

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
	}

	if err := p.broker.Reconnect(); err != nil {
		p.logger.Warn("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	return true
}

func (p *Pool) run(ctx context.Context, id int, deliveries <-chan broker.Delivery) {
	p.logger.Info("worker started", zap.Int("id", id))
	for d := range deliveries {
		p.inFlight.Add(1)
		p.handle(ctx, d)
		p.inFlight.Add(-1)
	}
	p.logger.Info("worker stopping", zap.Int("id", id))
}

func (p *Pool) handle(ctx context.Context, d broker.Delivery) {
	job := d.Job
	start := time.Now()
	orderID, _ := domain.OrderRef(job.Event)
	log := p.logger.With(
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Event.Kind())),
		zap.String("order_id", orderID),
	)

	job.State = domain.JobStateProcessing
	outcome, procErr := p.worker.Process(ctx, job)
	job.State = outcome.JobState()

	switch outcome {
	case OutcomeSuccess:
		p.hooks.OnSent(job.Event.Kind(), time.Since(start))
		log.Info("email sent", zap.Int("attempts", job.Attempts), zap.Duration("latency", time.Since(start)))
		p.ack(d, log)

	case OutcomePermanentFailure:
		log.Error("permanent failure, dead-lettering job", zap.Error(procErr))
		p.deadLetter(ctx, job, procErr)
		p.ack(d, log)

	case OutcomeTemporaryFailure:
		if err := p.scheduleRetry(ctx, job, procErr, log); err != nil {
			// Could not place the retry; hand the message back to the
			// broker so it is not lost.
			log.Error("retry scheduling failed, returning delivery to broker", zap.Error(err))
			if broker.IsConnectionError(err) {
				p.res.MarkDisconnected()
			}
			if nackErr := d.Nack(); nackErr != nil {
				log.Error("nack failed", zap.Error(nackErr))
			}
			return
		}
		p.ack(d, log)
	}
}

func (p *Pool) ack(d broker.Delivery, log *zap.Logger) {
	if err := d.Ack(); err != nil {
		log.Error("ack failed", zap.Error(err))
	}
}

// scheduleRetry re-enqueues the job with the next backoff delay, or
// dead-letters it once the attempt ceiling is crossed.
func (p *Pool) scheduleRetry(ctx context.Context, job domain.Job, procErr error, log *zap.Logger) error {
	retry := job
	retry.Attempts = job.Attempts + 1

	if retry.Attempts > p.maxAttempts {
		log.Error("retries exhausted, dead-lettering job",
			zap.Int("attempts", job.Attempts), zap.Error(procErr))
		p.deadLetter(ctx, retry, procErr)
		return nil
	}

	delay := NextRetryDelay(retry.Attempts)
	nextAt := time.Now().UTC().Add(delay)
	retry.NextRetryAt = &nextAt
	retry.State = domain.JobStateFailedTemp

	if err := p.broker.EnqueueDelayed(ctx, retry, delay); err != nil {
		return err
	}

	p.hooks.OnRetryScheduled(job.Event.Kind())
	log.Warn("temporary failure, retry scheduled",
		zap.Int("attempt", retry.Attempts),
		zap.Duration("delay", delay),
		zap.Error(procErr),
	)
	return nil
}

// deadLetter persists the terminal failure for manual remediation and
// releases the dedup entry so a fresh publish is possible. A failed
// dead-letter write is loudly logged; the job context must never vanish
// silently.
func (p *Pool) deadLetter(ctx context.Context, job domain.Job, procErr error) {
	orderID, _ := domain.OrderRef(job.Event)
	errMsg := ""
	if procErr != nil {
		errMsg = procErr.Error()
	}

	dl := &domain.DeadLetter{
		JobID:        job.ID,
		EventKind:    job.Event.Kind(),
		OrderID:      orderID,
		Attempts:     job.Attempts,
		ErrorMessage: errMsg,
		FailedAt:     time.Now().UTC(),
	}
	if err := p.store.RecordDeadLetter(ctx, dl); err != nil {
		p.logger.Error("failed to persist dead letter",
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Event.Kind())),
			zap.String("order_id", orderID),
			zap.String("original_error", errMsg),
			zap.Error(err),
		)
	}

	if p.dedupStore != nil {
		p.dedupStore.MarkFailed(job.ID)
	}
	p.hooks.OnDeadLettered(job.Event.Kind())
}
