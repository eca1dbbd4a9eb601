package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/thuanthe81/ecommerce-mailer/internal/api"
	"github.com/thuanthe81/ecommerce-mailer/internal/api/handler"
	"github.com/thuanthe81/ecommerce-mailer/internal/broker"
	"github.com/thuanthe81/ecommerce-mailer/internal/config"
	"github.com/thuanthe81/ecommerce-mailer/internal/db"
	"github.com/thuanthe81/ecommerce-mailer/internal/dedup"
	"github.com/thuanthe81/ecommerce-mailer/internal/mailer"
	"github.com/thuanthe81/ecommerce-mailer/internal/metrics"
	"github.com/thuanthe81/ecommerce-mailer/internal/orderstore"
	"github.com/thuanthe81/ecommerce-mailer/internal/publisher"
	"github.com/thuanthe81/ecommerce-mailer/internal/ratelimiter"
	"github.com/thuanthe81/ecommerce-mailer/internal/resilience"
	"github.com/thuanthe81/ecommerce-mailer/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := orderstore.NewPgStore(pool)
	dedupStore := dedup.NewMemoryStore(cfg.DedupWindow)
	defer dedupStore.Close()

	pubRes := resilience.NewState(cfg.ReconnectBaseDelay, cfg.ReconnectMaxDelay)
	wrkRes := resilience.NewState(cfg.ReconnectBaseDelay, cfg.ReconnectMaxDelay)

	// The publisher and the worker each own a broker connection so one
	// side's outage never silently degrades the other. With no AMQP_URL
	// configured both sides share a single in-process queue.
	var (
		pubBroker broker.Broker
		wrkBroker broker.Broker
		depths    handler.DepthReporter
	)
	if cfg.AMQPURL != "" {
		pb, err := broker.NewAMQP(cfg.AMQPURL, cfg.QueueName, cfg.Prefetch, worker.RetrySchedule(), logger, func(error) {
			pubRes.MarkDisconnected()
		})
		if err != nil {
			logger.Fatal("failed to connect publisher broker", zap.Error(err))
		}
		wb, err := broker.NewAMQP(cfg.AMQPURL, cfg.QueueName, cfg.Prefetch, worker.RetrySchedule(), logger, func(error) {
			wrkRes.MarkDisconnected()
		})
		if err != nil {
			logger.Fatal("failed to connect worker broker", zap.Error(err))
		}
		pubBroker, wrkBroker = pb, wb
	} else {
		mem := broker.NewMemory(cfg.QueueCapacity)
		pubBroker, wrkBroker = mem, mem
		depths = mem
		logger.Info("no AMQP_URL configured, using in-process queue")
	}

	pub := publisher.New(pubBroker, dedupStore, pubRes, logger, m.PublisherHooks())

	// Letterhead for generated invoices; a missing row only degrades the
	// header, delivery still works.
	business, err := store.GetBusinessInfo(ctx)
	if err != nil {
		logger.Warn("business info unavailable, invoices rendered without letterhead", zap.Error(err))
	}

	mail := mailer.NewHTTPMailer(cfg.MailGatewayURL, cfg.MailGatewayTimeout)
	renderer := mailer.NewPDFRenderer(business)
	limiter := ratelimiter.New(cfg.RateLimit)
	wrk := worker.New(store, mail, renderer, limiter, logger)

	// ---- worker pool ----
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	wpool := worker.NewPool(wrkBroker, wrk, store, dedupStore, wrkRes,
		cfg.WorkerConcurrency, cfg.MaxAttempts, logger, m.WorkerHooks())
	wpool.Start(workerCtx)

	if depths != nil {
		go sampleQueueDepth(workerCtx, depths, m)
	}

	// ---- HTTP server ----
	router := api.NewRouter(pub, wpool, depths, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	// 1. Stop accepting new HTTP requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop consuming and let in-flight jobs finish. No new reconnect
	// work may start from here.
	wrkRes.BeginShutdown()
	cancelWorkers()
	poolDone := make(chan struct{})
	go func() {
		wpool.Wait()
		close(poolDone)
	}()
	select {
	case <-poolDone:
	case <-shutdownCtx.Done():
		logger.Warn("worker pool drain timed out, abandoning in-flight jobs",
			zap.Int("in_flight", wpool.InFlight()))
	}

	// 3. Drain in-flight publishes and release the publish connection.
	// With the in-process queue this also closes the shared broker, which
	// is safe: the workers already stopped.
	if err := pub.Shutdown(shutdownCtx); err != nil {
		logger.Error("publisher shutdown error", zap.Error(err))
	}

	if cfg.AMQPURL != "" {
		if err := wrkBroker.Close(); err != nil {
			logger.Error("worker broker close error", zap.Error(err))
		}
	}

	logger.Info("server stopped cleanly")
}

// sampleQueueDepth refreshes the queue gauges every few seconds. Only
// wired for the in-process broker; AMQP depth lives on the server side.
func sampleQueueDepth(ctx context.Context, depths handler.DepthReporter, m *metrics.Metrics) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ready, delayed := depths.Depth()
			m.ObserveQueueDepth(ready, delayed)
		}
	}
}
