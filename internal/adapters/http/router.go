package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kirillkom/symptom-triage/internal/config"
	"github.com/kirillkom/symptom-triage/internal/core/ports"
)

const maxRequestBodyBytes = 1 << 20

// MetricsProvider is satisfied by metrics.HTTPServerMetrics.
type MetricsProvider interface {
	Middleware(service string, next http.Handler) http.Handler
	Handler() http.Handler
}

type Services struct {
	Sessions     ports.TriageSessions
	Classifier   ports.SymptomClassifier
	Appointments ports.AppointmentBooker
	History      ports.HistoryReader
	Metrics      MetricsProvider
}

type Router struct {
	sessions     ports.TriageSessions
	classifier   ports.SymptomClassifier
	appointments ports.AppointmentBooker
	history      ports.HistoryReader
	metrics      MetricsProvider

	jwtSecret        []byte
	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
}

func NewRouter(cfg config.Config, services Services) *Router {
	return &Router{
		sessions:         services.Sessions,
		classifier:       services.Classifier,
		appointments:     services.Appointments,
		history:          services.History,
		metrics:          services.Metrics,
		jwtSecret:        []byte(cfg.AuthJWTSecret),
		rateLimitRPS:     cfg.APIRateLimitRPS,
		rateLimitBurst:   cfg.APIRateLimitBurst,
		maxInFlight:      cfg.APIMaxInFlight,
		backpressureWait: cfg.APIBackpressureWait,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", rt.healthz)
	r.Get("/openapi.yaml", rt.openAPIDocument)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	var v1 http.Handler = rt.v1Routes()
	v1 = backpressureMiddleware(v1, rt.maxInFlight, rt.backpressureWait)
	v1 = rateLimitMiddleware(v1, rt.rateLimitRPS, rt.rateLimitBurst)
	r.Mount("/v1", v1)

	var handler http.Handler = r
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) v1Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/classify", rt.classify)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(rt.jwtSecret))

		r.Route("/triage/sessions", func(r chi.Router) {
			r.Post("/", rt.startSession)
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/", rt.getSession)
				r.Post("/symptoms", rt.addSymptom)
				r.Delete("/symptoms/{symptom}", rt.removeSymptom)
				r.Put("/narrative", rt.setNarrative)
				r.Post("/analyze", rt.analyze)
				r.Post("/followup/answer", rt.answerFollowUp)
				r.Post("/followup/back", rt.backFromFollowUp)
				r.Post("/booking", rt.openBooking)
				r.Post("/booking/back", rt.backToResult)
				r.Get("/doctors", rt.sessionDoctors)
				r.Post("/booking/confirm", rt.confirmBooking)
				r.Post("/start-over", rt.startOver)
				r.Delete("/notices", rt.dismissNotices)
			})
		})

		r.Get("/doctors", rt.listDoctors)
		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", rt.bookAppointment)
			r.Get("/", rt.listAppointments)
			r.Post("/{appointment_id}/cancel", rt.cancelAppointment)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/sessions", rt.listHistory)
			r.Get("/summary", rt.historySummary)
			r.Get("/export.xlsx", rt.exportHistory)
		})
	})

	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is required")
		default:
			writeError(w, http.StatusBadRequest, "invalid json")
		}
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
