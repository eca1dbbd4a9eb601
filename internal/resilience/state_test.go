package resilience_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/thuanthe81/ecommerce-mailer/internal/resilience"
)

func TestReconnectDelay(t *testing.T) {
	base := 2 * time.Second
	max := 30 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, base},
		{2, 2 * base},
		{3, 4 * base},
		{4, 8 * base},
		{5, max}, // 32 s capped
		{50, max},
		{0, base}, // clamped to attempt 1
	}

	for _, tc := range tests {
		if got := resilience.ReconnectDelay(tc.attempt, base, max); got != tc.want {
			t.Fatalf("attempt %d: got %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestReconnectDelay_NonDecreasing(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 1; attempt <= 64; attempt++ {
		d := resilience.ReconnectDelay(attempt, time.Second, time.Minute)
		if d < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestState_Transitions(t *testing.T) {
	s := resilience.NewState(time.Second, time.Minute)

	if snap := s.Snapshot(); snap.ConnState != resilience.Connected {
		t.Fatalf("expected to start connected, got %s", snap.ConnState)
	}

	s.MarkDisconnected()
	if snap := s.Snapshot(); snap.ConnState != resilience.Disconnected {
		t.Fatalf("expected disconnected, got %s", snap.ConnState)
	}

	attempt, delay, ok := s.BeginReconnect()
	if !ok || attempt != 1 || delay != time.Second {
		t.Fatalf("first reconnect: attempt=%d delay=%v ok=%v", attempt, delay, ok)
	}
	if snap := s.Snapshot(); snap.ConnState != resilience.Reconnecting {
		t.Fatalf("expected reconnecting, got %s", snap.ConnState)
	}

	attempt, delay, _ = s.BeginReconnect()
	if attempt != 2 || delay != 2*time.Second {
		t.Fatalf("second reconnect: attempt=%d delay=%v", attempt, delay)
	}

	s.MarkConnected()
	snap := s.Snapshot()
	if snap.ConnState != resilience.Connected || snap.ReconnectAttempts != 0 {
		t.Fatalf("reconnect success must reset attempts: %+v", snap)
	}
}

func TestState_NoReconnectDuringShutdown(t *testing.T) {
	s := resilience.NewState(time.Second, time.Minute)
	s.MarkDisconnected()
	s.BeginShutdown()

	if _, _, ok := s.BeginReconnect(); ok {
		t.Fatal("BeginReconnect must refuse while shutting down")
	}
}

func TestState_ManualReconnect(t *testing.T) {
	t.Run("refused while shutting down", func(t *testing.T) {
		s := resilience.NewState(time.Second, time.Minute)
		s.BeginShutdown()

		res := s.ManualReconnect(func() error { return nil })
		if res.Success {
			t.Fatal("expected failure during shutdown")
		}
		if !strings.Contains(res.Message, "shutting down") {
			t.Fatalf("message must indicate shutdown, got %q", res.Message)
		}
	})

	t.Run("idempotent when connected", func(t *testing.T) {
		s := resilience.NewState(time.Second, time.Minute)
		called := false

		res := s.ManualReconnect(func() error { called = true; return nil })
		if !res.Success {
			t.Fatalf("expected success, got %+v", res)
		}
		if called {
			t.Fatal("reconnect function must not run while connected")
		}
	})

	t.Run("reconnects when disconnected", func(t *testing.T) {
		s := resilience.NewState(time.Second, time.Minute)
		s.MarkDisconnected()

		res := s.ManualReconnect(func() error { return nil })
		if !res.Success {
			t.Fatalf("expected success, got %+v", res)
		}
		if snap := s.Snapshot(); snap.ConnState != resilience.Connected {
			t.Fatalf("expected connected, got %s", snap.ConnState)
		}
	})

	t.Run("reports failure", func(t *testing.T) {
		s := resilience.NewState(time.Second, time.Minute)
		s.MarkDisconnected()

		res := s.ManualReconnect(func() error { return errors.New("dial tcp: refused") })
		if res.Success {
			t.Fatal("expected failure")
		}
		if snap := s.Snapshot(); snap.ConnState != resilience.Disconnected {
			t.Fatalf("failed manual reconnect must leave state disconnected, got %s", snap.ConnState)
		}
	})
}
