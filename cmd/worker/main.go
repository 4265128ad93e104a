package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/symptom-triage/internal/bootstrap"
	"github.com/kirillkom/symptom-triage/internal/config"
	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup("triage-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer worker.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           worker.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = worker.Subscriber.SubscribeAppointmentBooked(ctx, func(handlerCtx context.Context, event domain.AppointmentBooked) error {
		worker.Metrics.ObserveQueueLag("worker", time.Since(event.BookedAt))
		worker.Metrics.StartEmail()
		started := time.Now()

		sendCtx, cancel := context.WithTimeout(handlerCtx, time.Minute)
		defer cancel()
		err := worker.Dispatcher.Dispatch(sendCtx, event)
		worker.Metrics.FinishEmail("worker", time.Since(started), err)
		return err
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
	}
}
