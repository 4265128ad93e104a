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

	httpadapter "github.com/kirillkom/symptom-triage/internal/adapters/http"
	"github.com/kirillkom/symptom-triage/internal/bootstrap"
	"github.com/kirillkom/symptom-triage/internal/config"
	"github.com/kirillkom/symptom-triage/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup("triage-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := httpadapter.LoadOpenAPI(ctx)
	if err != nil {
		slog.Error("openapi_invalid", "error", err)
		os.Exit(1)
	}
	slog.Info("openapi_loaded", "version", doc.Info.Version)

	if cfg.AuthJWTSecret == "" {
		slog.Warn("auth_secret_missing", "detail", "all authenticated routes will answer 401")
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.Sessions.Run(ctx, time.Minute)

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Sessions:     app.Sessions,
		Classifier:   app.Classifier,
		Appointments: app.Appointments,
		History:      app.History,
		Metrics:      app.HTTPMetrics,
	}).Handler()
	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
