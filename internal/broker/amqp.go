package broker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// AMQP is the RabbitMQ-backed Broker.
//
// Topology: a durable main queue plus one delay queue per retry tier,
// each with a queue-level TTL and a dead-letter target of the main
// queue. EnqueueDelayed publishes into the tier whose TTL covers the
// requested delay; when the TTL expires RabbitMQ dead-letters the
// message back onto the main queue, which is where the consumer
// listens. One queue per tier matters: RabbitMQ only expires messages
// at the head of a queue, so mixing TTLs in a single queue would let a
// long delay block a short one. No blocking sleeps anywhere.
type AMQP struct {
	url         string
	queueName   string
	prefetch    int
	retryDelays []time.Duration
	logger      *zap.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	// onDisconnect is invoked once per connection loss so the owning
	// component can flip its resilience state.
	onDisconnect func(error)
}

// NewAMQP dials the broker and declares the queue topology. retryDelays
// lists the delay tiers to declare (one queue each); it must not be
// empty and is sorted ascending internally.
func NewAMQP(url, queueName string, prefetch int, retryDelays []time.Duration, logger *zap.Logger, onDisconnect func(error)) (*AMQP, error) {
	if len(retryDelays) == 0 {
		return nil, fmt.Errorf("create AMQP broker: at least one retry delay tier is required")
	}
	if onDisconnect == nil {
		onDisconnect = func(error) {}
	}
	delays := append([]time.Duration(nil), retryDelays...)
	sort.Slice(delays, func(i, j int) bool { return delays[i] < delays[j] })

	b := &AMQP{
		url:          url,
		queueName:    queueName,
		prefetch:     prefetch,
		retryDelays:  delays,
		logger:       logger,
		onDisconnect: onDisconnect,
	}
	if err := b.connect(); err != nil {
		return nil, fmt.Errorf("create AMQP broker: %w", err)
	}
	return b, nil
}

func (b *AMQP) connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("%w: dial: %v", ErrClosed, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: open channel: %v", ErrClosed, err)
	}

	if err := declareTopology(ch, b.queueName, b.retryDelays); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	b.conn = conn
	b.channel = ch

	go b.watchClose(conn)

	b.logger.Info("broker connected", zap.String("queue", b.queueName))
	return nil
}

func declareTopology(ch *amqp.Channel, queueName string, retryDelays []time.Duration) error {
	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	// One delay queue per tier, each with a queue-level TTL. Expired
	// messages fall back onto the main queue via the default exchange,
	// keyed by the main queue's name.
	for _, d := range retryDelays {
		name := retryQueueName(queueName, d)
		if _, err := ch.QueueDeclare(
			name,
			true, false, false, false,
			amqp.Table{
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": queueName,
				"x-message-ttl":             d.Milliseconds(),
			},
		); err != nil {
			return fmt.Errorf("declare retry queue %s: %w", name, err)
		}
	}
	return nil
}

func retryQueueName(queueName string, delay time.Duration) string {
	return fmt.Sprintf("%s.retry.%s", queueName, delay)
}

// retryTier maps an arbitrary delay onto the smallest declared tier
// that waits at least that long, falling back to the largest tier for
// delays beyond the schedule. retryDelays is sorted ascending.
func (b *AMQP) retryTier(delay time.Duration) time.Duration {
	for _, d := range b.retryDelays {
		if d >= delay {
			return d
		}
	}
	return b.retryDelays[len(b.retryDelays)-1]
}

func (b *AMQP) watchClose(conn *amqp.Connection) {
	closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if closeErr == nil {
		return // clean Close()
	}
	b.logger.Error("broker connection lost", zap.Error(closeErr))
	b.onDisconnect(closeErr)
}

func (b *AMQP) Enqueue(ctx context.Context, job domain.Job) error {
	return b.publish(ctx, b.queueName, job)
}

func (b *AMQP) EnqueueDelayed(ctx context.Context, job domain.Job, delay time.Duration) error {
	return b.publish(ctx, retryQueueName(b.queueName, b.retryTier(delay)), job)
}

func (b *AMQP) publish(ctx context.Context, routingKey string, job domain.Job) error {
	body, err := domain.EncodeJob(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    time.Now(),
	}

	b.mu.RLock()
	ch := b.channel
	b.mu.RUnlock()
	if ch == nil || ch.IsClosed() {
		return fmt.Errorf("%w: publish %s", ErrClosed, job.ID)
	}

	if err := ch.PublishWithContext(ctx, "", routingKey, false, false, pub); err != nil {
		return fmt.Errorf("%w: publish to %s: %v", ErrClosed, routingKey, err)
	}

	b.logger.Debug("job published",
		zap.String("job_id", job.ID),
		zap.String("routing_key", routingKey),
	)
	return nil
}

func (b *AMQP) Consume(ctx context.Context) (<-chan Delivery, error) {
	b.mu.RLock()
	ch := b.channel
	b.mu.RUnlock()
	if ch == nil || ch.IsClosed() {
		return nil, fmt.Errorf("%w: consume", ErrClosed)
	}

	if err := ch.Qos(b.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		b.queueName,
		"",    // consumer tag (auto-generated)
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: register consumer: %v", ErrClosed, err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				job, err := domain.DecodeJob(msg.Body)
				if err != nil {
					// Poison message: settle it so it does not loop forever.
					b.logger.Error("dropping undecodable message",
						zap.String("message_id", msg.MessageId), zap.Error(err))
					_ = msg.Ack(false)
					continue
				}
				d := Delivery{
					Job:  job,
					ack:  func() error { return msg.Ack(false) },
					nack: func() error { return msg.Nack(false, true) },
				}
				select {
				case out <- d:
				case <-ctx.Done():
					_ = msg.Nack(false, true)
					return
				}
			}
		}
	}()

	return out, nil
}

// Reconnect closes any half-dead connection and dials again.
func (b *AMQP) Reconnect() error {
	b.mu.Lock()
	if b.conn != nil && !b.conn.IsClosed() {
		b.conn.Close()
	}
	b.mu.Unlock()
	return b.connect()
}

func (b *AMQP) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.channel != nil && !b.channel.IsClosed() {
		if err := b.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if b.conn != nil && !b.conn.IsClosed() {
		if err := b.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("broker close: %v", errs)
	}
	b.logger.Info("broker closed")
	return nil
}

// compile-time check that AMQP implements Broker
var _ Broker = (*AMQP)(nil)
