// Package resilience tracks the broker-connection health of a single
// component. The publisher and the worker each own one State for their
// respective connections; nothing else mutates it except through the
// explicit manual-reconnect and shutdown operations.
package resilience

import (
	"fmt"
	"sync"
	"time"
)

// ConnState is the connection phase of the owning component.
type ConnState string

const (
	Connected    ConnState = "connected"
	Disconnected ConnState = "disconnected"
	Reconnecting ConnState = "reconnecting"
)

// Snapshot is the read-only health projection exposed over HTTP.
type Snapshot struct {
	ConnState         ConnState `json:"connection_state"`
	IsShuttingDown    bool      `json:"is_shutting_down"`
	ReconnectAttempts int       `json:"reconnect_attempts"`
}

// ReconnectResult is the response of a manual reconnect request.
type ReconnectResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// State is the connection state machine:
//
//	Connected --(I/O error)--> Disconnected --(schedule)--> Reconnecting
//	Reconnecting --(success)--> Connected
//	Reconnecting --(failure)--> Reconnecting (attempt+1, recomputed delay)
type State struct {
	mu           sync.Mutex
	conn         ConnState
	shuttingDown bool
	attempts     int

	baseDelay time.Duration
	maxDelay  time.Duration
}

// NewState starts in Connected with the given backoff bounds.
func NewState(baseDelay, maxDelay time.Duration) *State {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	return &State{conn: Connected, baseDelay: baseDelay, maxDelay: maxDelay}
}

// ReconnectDelay computes the backoff before the given attempt (1-based):
// base doubles per attempt, capped at max.
func ReconnectDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// MarkDisconnected records a connection-class failure.
func (s *State) MarkDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = Disconnected
}

// MarkConnected records a successful (re)connection and resets the
// attempt counter.
func (s *State) MarkConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = Connected
	s.attempts = 0
}

// BeginReconnect transitions to Reconnecting, increments the attempt
// counter, and returns the attempt number with its backoff delay.
// It refuses (ok=false) while shutting down: no new reconnection work
// may start once shutdown has begun.
func (s *State) BeginReconnect() (attempt int, delay time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shuttingDown {
		return 0, 0, false
	}
	s.conn = Reconnecting
	s.attempts++
	return s.attempts, ReconnectDelay(s.attempts, s.baseDelay, s.maxDelay), true
}

// BeginShutdown flips the shutdown flag; from here on BeginReconnect and
// ManualReconnect refuse.
func (s *State) BeginShutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
}

// IsShuttingDown reports whether shutdown has begun.
func (s *State) IsShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

// ManualReconnect runs the supplied reconnect function unless the
// component is shutting down. It is idempotent: reconnecting while
// already connected succeeds with a no-op message.
func (s *State) ManualReconnect(reconnect func() error) ReconnectResult {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return ReconnectResult{Success: false, Message: "reconnect refused: shutting down"}
	}
	if s.conn == Connected {
		s.mu.Unlock()
		return ReconnectResult{Success: true, Message: "already connected"}
	}
	s.mu.Unlock()

	if err := reconnect(); err != nil {
		s.MarkDisconnected()
		return ReconnectResult{Success: false, Message: fmt.Sprintf("reconnect failed: %v", err)}
	}
	s.MarkConnected()
	return ReconnectResult{Success: true, Message: "reconnected"}
}

// Snapshot returns the current read-only projection.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ConnState:         s.conn,
		IsShuttingDown:    s.shuttingDown,
		ReconnectAttempts: s.attempts,
	}
}
