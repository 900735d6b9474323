package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/homestay-faq-assistant/internal/adapters/http"
	"github.com/kirillkom/homestay-faq-assistant/internal/bootstrap"
	"github.com/kirillkom/homestay-faq-assistant/internal/config"
	"github.com/kirillkom/homestay-faq-assistant/internal/observability/logging"
	"github.com/kirillkom/homestay-faq-assistant/internal/observability/metrics"
)

const serviceName = "api"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:         serviceName,
		Logger:          logger,
		BreakerObserver: httpMetrics.BreakerObserver(serviceName),
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Every API replica listens without a queue group so all caches are invalidated.
	go func() {
		err := app.Queue.SubscribeFAQChanged(ctx, "", func(_ context.Context, faqID string) error {
			app.Snapshot.Invalidate()
			logger.Debug("snapshot_invalidated", "faq_id", faqID)
			return nil
		})
		if err != nil {
			logger.Error("faq_event_subscribe_failed", "error", err)
		}
	}()

	router := httpadapter.NewRouter(app.ResponderUC, app.SearchUC, httpadapter.Options{
		Service:        serviceName,
		Logger:         logger,
		Metrics:        httpMetrics,
		MessageLog:     app.MessageLog,
		AdminAPIKey:    cfg.AdminAPIKey,
		RateLimitRPS:   cfg.APIRateLimitRPS,
		RateLimitBurst: cfg.APIRateLimitBurst,
		MaxInFlight:    cfg.APIMaxInFlight,
	}).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
