package handler

import (
	"net/http"

	"github.com/thuanthe81/ecommerce-mailer/internal/resilience"
)

// HealthSource exposes the read-only state the health endpoint reports.
// Publisher and worker satisfy it independently; each owns its own
// broker connection.
type HealthSource interface {
	Snapshot() resilience.Snapshot
}

// InFlightCounter reports jobs currently being processed.
type InFlightCounter interface {
	InFlight() int
}

// HealthHandler serves the liveness and readiness probe endpoint.
type HealthHandler struct {
	publisher HealthSource
	worker    HealthSource
	inFlight  InFlightCounter
}

func NewHealthHandler(pub, wrk HealthSource, inFlight InFlightCounter) *HealthHandler {
	return &HealthHandler{publisher: pub, worker: wrk, inFlight: inFlight}
}

// resilienceBody is the per-component resilience block of the health
// payload. ProcessingJobs only appears on the worker side.
type resilienceBody struct {
	IsShuttingDown    bool `json:"isShuttingDown"`
	ReconnectAttempts int  `json:"reconnectAttempts"`
	ProcessingJobs    *int `json:"processingJobs,omitempty"`
}

type componentHealth struct {
	ConnectionState resilience.ConnState `json:"connectionState"`
	Resilience      resilienceBody       `json:"resilience"`
}

func componentBody(snap resilience.Snapshot, processing *int) componentHealth {
	return componentHealth{
		ConnectionState: snap.ConnState,
		Resilience: resilienceBody{
			IsShuttingDown:    snap.IsShuttingDown,
			ReconnectAttempts: snap.ReconnectAttempts,
			ProcessingJobs:    processing,
		},
	}
}

// Health handles GET /health. The service reports "degraded" while either
// connection is down or shutdown has begun; orchestrators keep routing
// probes but operators see the state change immediately.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	pub := h.publisher.Snapshot()
	wrk := h.worker.Snapshot()

	status := "ok"
	if pub.ConnState != resilience.Connected ||
		wrk.ConnState != resilience.Connected ||
		pub.IsShuttingDown || wrk.IsShuttingDown {
		status = "degraded"
	}

	processing := h.inFlight.InFlight()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"publisher": componentBody(pub, nil),
		"worker":    componentBody(wrk, &processing),
	})
}
