package broker_test

import (
	"context"
	"testing"
	"time"

	"github.com/thuanthe81/ecommerce-mailer/internal/broker"
	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

func testJob(orderID string) domain.Job {
	return domain.NewJob(domain.OrderConfirmation{
		OrderID:       orderID,
		OrderNumber:   "1001",
		CustomerEmail: "customer@example.com",
		CustomerName:  "Nguyen Van A",
		Locale:        domain.LocaleEN,
		CreatedAt:     time.Now().UTC(),
	})
}

func TestMemory_EnqueueConsume(t *testing.T) {
	b := broker.NewMemory(10)
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := testJob("o-1")
	if err := b.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deliveries, err := b.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	select {
	case d := <-deliveries:
		if d.Job.ID != job.ID {
			t.Fatalf("expected job %s, got %s", job.ID, d.Job.ID)
		}
		if err := d.Ack(); err != nil {
			t.Fatalf("ack: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestMemory_PerIDDedup(t *testing.T) {
	b := broker.NewMemory(10)
	defer b.Close()
	ctx := context.Background()

	job := testJob("o-1")
	if err := b.Enqueue(ctx, job); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	// Same id again: swallowed, not an error.
	if err := b.Enqueue(ctx, job); err != nil {
		t.Fatalf("duplicate enqueue: %v", err)
	}

	ready, _ := b.Depth()
	if ready != 1 {
		t.Fatalf("expected 1 ready job, got %d", ready)
	}
}

func TestMemory_ReEnqueueAfterAck(t *testing.T) {
	b := broker.NewMemory(10)
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := testJob("o-1")
	_ = b.Enqueue(ctx, job)

	deliveries, _ := b.Consume(ctx)
	d := <-deliveries
	_ = d.Ack()

	// Settled id may be enqueued again (this is how retries work).
	if err := b.Enqueue(ctx, job); err != nil {
		t.Fatalf("re-enqueue after ack: %v", err)
	}
	select {
	case d2 := <-deliveries:
		if d2.Job.ID != job.ID {
			t.Fatalf("unexpected job %s", d2.Job.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for redelivery")
	}
}

func TestMemory_DelayedRedelivery(t *testing.T) {
	b := broker.NewMemory(10)
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := testJob("o-1")
	if err := b.EnqueueDelayed(ctx, job, 80*time.Millisecond); err != nil {
		t.Fatalf("enqueue delayed: %v", err)
	}

	deliveries, _ := b.Consume(ctx)

	select {
	case <-deliveries:
		t.Fatal("delayed job delivered before its due time")
	case <-time.After(30 * time.Millisecond):
	}

	select {
	case d := <-deliveries:
		if d.Job.ID != job.ID {
			t.Fatalf("unexpected job %s", d.Job.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delayed job never delivered")
	}
}

func TestMemory_QueueFull(t *testing.T) {
	b := broker.NewMemory(1)
	defer b.Close()
	ctx := context.Background()

	if err := b.Enqueue(ctx, testJob("o-1")); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := b.Enqueue(ctx, testJob("o-2")); err != broker.ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestMemory_ClosedBrokerRefuses(t *testing.T) {
	b := broker.NewMemory(10)
	b.Close()

	err := b.Enqueue(context.Background(), testJob("o-1"))
	if !broker.IsConnectionError(err) {
		t.Fatalf("expected a connection-class error, got %v", err)
	}
}

func TestMemory_ConsumeStopsOnContextCancel(t *testing.T) {
	b := broker.NewMemory(10)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	deliveries, _ := b.Consume(ctx)
	cancel()

	select {
	case _, open := <-deliveries:
		if open {
			t.Fatal("expected channel to close after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("delivery channel did not close")
	}
}
