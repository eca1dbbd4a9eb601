// Package broker abstracts the durable job queue between the publisher
// and the worker. Production runs on RabbitMQ (amqp.go); tests and
// single-process deployments can use the in-memory broker (memory.go).
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

var (
	// ErrClosed is returned (or wrapped) whenever the broker connection
	// is unusable. The publisher treats it as a connection-class failure
	// and starts backoff reconnection.
	ErrClosed = errors.New("broker: connection closed")

	// ErrQueueFull is returned by the in-memory broker when the buffer
	// is at capacity. Enqueue never blocks the caller.
	ErrQueueFull = errors.New("broker: queue is at capacity")
)

// Delivery is one job handed to the worker. Ack and Nack settle the
// underlying transport message; exactly one of them must be called.
type Delivery struct {
	Job domain.Job

	ack  func() error
	nack func() error
}

// Ack marks the delivery as handled. Retries are separate enqueues, so
// the worker acks even when it schedules a retry.
func (d Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

// Nack returns the delivery to the queue for redelivery.
func (d Delivery) Nack() error {
	if d.nack == nil {
		return nil
	}
	return d.nack()
}

// Broker is the durable queue port shared by publisher and worker.
type Broker interface {
	// Enqueue makes the job available for immediate consumption.
	// The job id doubles as the transport message id.
	Enqueue(ctx context.Context, job domain.Job) error

	// EnqueueDelayed makes the job available after the given delay.
	// Used exclusively for retry scheduling; never a blocking sleep.
	EnqueueDelayed(ctx context.Context, job domain.Job, delay time.Duration) error

	// Consume returns the stream of deliveries. The channel closes when
	// the connection drops or ctx is cancelled.
	Consume(ctx context.Context) (<-chan Delivery, error)

	// Reconnect re-establishes a dropped connection. Safe to call while
	// connected.
	Reconnect() error

	Close() error
}

// IsConnectionError reports whether err indicates the broker link is
// down (as opposed to a bad payload or a full queue).
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrClosed)
}
