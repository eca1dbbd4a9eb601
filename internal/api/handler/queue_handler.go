package handler

import "net/http"

// DepthReporter reports queue depth. Only the in-memory broker can
// answer this cheaply; with AMQP the handler is wired with nil and the
// endpoint reports unavailability.
type DepthReporter interface {
	Depth() (ready, delayed int)
}

// QueueHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics are available at /metrics via promhttp and are
// separate from this endpoint.
type QueueHandler struct {
	depths DepthReporter
}

func NewQueueHandler(depths DepthReporter) *QueueHandler {
	return &QueueHandler{depths: depths}
}

// GetQueue handles GET /api/v1/queue
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	if h.depths == nil {
		respondError(w, http.StatusNotImplemented, "queue snapshot not available for this broker")
		return
	}
	ready, delayed := h.depths.Depth()
	respondJSON(w, http.StatusOK, map[string]any{
		"queue_depth": map[string]int{
			"ready":   ready,
			"delayed": delayed,
			"total":   ready + delayed,
		},
	})
}
