package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/thuanthe81/ecommerce-mailer/internal/api/handler"
	apimw "github.com/thuanthe81/ecommerce-mailer/internal/api/middleware"
	"github.com/thuanthe81/ecommerce-mailer/internal/publisher"
	"github.com/thuanthe81/ecommerce-mailer/internal/worker"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
// depths is nil when the broker cannot report queue depth (AMQP).
func NewRouter(
	pub *publisher.Publisher,
	pool *worker.Pool,
	depths handler.DepthReporter,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)
	r.Use(apimw.RequestLogger(logger))

	hh := handler.NewHealthHandler(pub, pool, pool)
	rh := handler.NewReconnectHandler(pub, pool, logger)
	qh := handler.NewQueueHandler(depths)

	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Post("/admin/reconnect", rh.Reconnect)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/queue", qh.GetQueue)
	})

	return r
}
