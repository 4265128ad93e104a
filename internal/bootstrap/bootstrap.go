package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/symptom-triage/internal/config"
	"github.com/kirillkom/symptom-triage/internal/core/ports"
	"github.com/kirillkom/symptom-triage/internal/core/usecase"
	"github.com/kirillkom/symptom-triage/internal/infrastructure/email/resend"
	"github.com/kirillkom/symptom-triage/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/symptom-triage/internal/infrastructure/llm/gateway"
	"github.com/kirillkom/symptom-triage/internal/infrastructure/queue/nats"
	"github.com/kirillkom/symptom-triage/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/symptom-triage/internal/infrastructure/resilience"
	"github.com/kirillkom/symptom-triage/internal/infrastructure/seed"
	"github.com/kirillkom/symptom-triage/internal/observability/metrics"
)

// App is the API process: live triage sessions plus the read and booking
// services behind the HTTP router.
type App struct {
	Config config.Config

	HTTPMetrics  *metrics.HTTPServerMetrics
	Sessions     *usecase.SessionRegistry
	Classifier   ports.SymptomClassifier
	Appointments *usecase.AppointmentService
	History      *usecase.HistoryService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	httpMetrics := metrics.NewHTTPServerMetrics("api")
	triageMetrics := metrics.NewTriageMetrics("api", httpMetrics.Registry())

	executor := newExecutor(cfg).WithStateListener(triageMetrics.ObserveBreaker)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	doctors := postgres.NewDoctorRepository(db)
	if err := seedDoctors(ctx, cfg.DoctorsSeedPath, doctors); err != nil {
		_ = db.Close()
		return nil, err
	}
	sessionsRepo := postgres.NewSessionRepository(db)
	appointmentsRepo := postgres.NewAppointmentRepository(db)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	if strings.TrimSpace(cfg.LLMGatewayAPIKey) == "" {
		slog.Warn("llm_gateway_key_missing", "detail", "every analysis will use the fallback verdict")
	}
	classifier := gateway.NewClassifier(gateway.New(cfg.LLMGatewayURL, gateway.Options{
		APIKey:             cfg.LLMGatewayAPIKey,
		Model:              cfg.LLMModel,
		Timeout:            cfg.LLMTimeout,
		ResilienceExecutor: executor,
	}))

	appointments := usecase.NewAppointmentService(doctors, appointmentsRepo, queue, triageMetrics)
	registry := usecase.NewSessionRegistry(usecase.TriageDeps{
		Classifier: classifier,
		Sessions:   sessionsRepo,
		Booker:     appointments,
		Observer:   triageMetrics,
	}, cfg.SessionIdleTTL)
	history := usecase.NewHistoryService(sessionsRepo, xlsx.NewExporter())

	return &App{
		Config:       cfg,
		HTTPMetrics:  httpMetrics,
		Sessions:     registry,
		Classifier:   classifier,
		Appointments: appointments,
		History:      history,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker is the confirmation-email process.
type Worker struct {
	Config config.Config

	Metrics    *metrics.WorkerMetrics
	Subscriber ports.BookingEventSubscriber
	Dispatcher ports.ConfirmationDispatcher

	closeFn func()
}

func NewWorker(_ context.Context, cfg config.Config) (*Worker, error) {
	executor := newExecutor(cfg)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	if strings.TrimSpace(cfg.ResendAPIKey) == "" {
		slog.Warn("resend_key_missing", "detail", "confirmation emails will fail until RESEND_API_KEY is set")
	}
	sender := resend.New(cfg.ResendURL, cfg.ResendAPIKey, resend.Options{
		ResilienceExecutor: executor,
	})

	return &Worker{
		Config:     cfg,
		Metrics:    metrics.NewWorkerMetrics("worker"),
		Subscriber: queue,
		Dispatcher: usecase.NewConfirmationService(sender, cfg.EmailFrom),
		closeFn:    queue.Close,
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func newExecutor(cfg config.Config) *resilience.Executor {
	rcfg := resilience.Config{
		RetryMaxAttempts:        cfg.RetryMaxAttempts,
		RetryInitialBackoff:     cfg.RetryInitialBackoff,
		RetryMaxBackoff:         cfg.RetryMaxBackoff,
		RetryMultiplier:         cfg.RetryMultiplier,
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.BreakerHalfOpenMaxCalls, 0)),
	}
	slog.Info("resilience_config", "config", rcfg)
	return resilience.NewExecutor(rcfg)
}

func seedDoctors(ctx context.Context, path string, writer ports.DoctorWriter) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	doctors, err := seed.LoadDoctorsFile(path)
	if err != nil {
		return fmt.Errorf("load doctor seed: %w", err)
	}
	if err := seed.SeedDoctors(ctx, writer, doctors); err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}
	slog.Info("doctors_seeded", "path", path, "count", len(doctors))
	return nil
}
