package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/thuanthe81/ecommerce-mailer/internal/resilience"
)

// Reconnector is the operator-facing manual reconnect, satisfied by the
// publisher and the worker pool.
type Reconnector interface {
	ManualReconnect() resilience.ReconnectResult
}

// ReconnectHandler serves the manual reconnect endpoint used when an
// operator wants to force a redial instead of waiting out the backoff.
type ReconnectHandler struct {
	publisher Reconnector
	worker    Reconnector
	logger    *zap.Logger
}

func NewReconnectHandler(pub, wrk Reconnector, logger *zap.Logger) *ReconnectHandler {
	return &ReconnectHandler{publisher: pub, worker: wrk, logger: logger}
}

// Reconnect handles POST /admin/reconnect. Both connections are redialed;
// each reports its own result. The call is refused per-connection while
// that side is shutting down.
func (h *ReconnectHandler) Reconnect(w http.ResponseWriter, r *http.Request) {
	pub := h.publisher.ManualReconnect()
	wrk := h.worker.ManualReconnect()

	h.logger.Info("manual reconnect requested",
		zap.Bool("publisher_success", pub.Success),
		zap.Bool("worker_success", wrk.Success),
	)

	status := http.StatusOK
	if !pub.Success || !wrk.Success {
		status = http.StatusConflict
	}
	respondJSON(w, status, map[string]resilience.ReconnectResult{
		"publisher": pub,
		"worker":    wrk,
	})
}
