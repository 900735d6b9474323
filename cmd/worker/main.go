package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/homestay-faq-assistant/internal/bootstrap"
	"github.com/kirillkom/homestay-faq-assistant/internal/config"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/observability/logging"
	"github.com/kirillkom/homestay-faq-assistant/internal/observability/metrics"
)

const (
	serviceName  = "worker"
	workerGroup  = "workers"
	indexTimeout = 2 * time.Minute
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: serviceName, Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSFAQSubject, "group", workerGroup)
	err = app.Queue.SubscribeFAQChanged(ctx, workerGroup, func(handlerCtx context.Context, faqID string) error {
		indexCtx, cancel := context.WithTimeout(handlerCtx, indexTimeout)
		defer cancel()

		workerMetrics.StartIndex()
		started := time.Now()
		err := app.IndexUC.IndexByID(indexCtx, faqID)
		workerMetrics.FinishIndex(serviceName, time.Since(started), err)

		switch {
		case err == nil:
			logger.Info("faq_embedding_indexed", "faq_id", faqID, "duration_ms", time.Since(started).Milliseconds())
		case domain.IsKind(err, domain.ErrMalformedFAQ):
			logger.Warn("faq_embedding_cleared", "faq_id", faqID, "error", err)
			return nil
		}
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
