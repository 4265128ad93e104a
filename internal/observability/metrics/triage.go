package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
)

// TriageMetrics implements ports.TriageObserver.
type TriageMetrics struct {
	service string

	classificationsTotal   *prometheus.CounterVec
	classificationDuration *prometheus.HistogramVec
	transitionsTotal       *prometheus.CounterVec
	sessionsSavedTotal     *prometheus.CounterVec
	bookingsTotal          *prometheus.CounterVec
	breakerState           *prometheus.GaugeVec
}

func NewTriageMetrics(service string, registerer prometheus.Registerer) *TriageMetrics {
	m := &TriageMetrics{
		service: service,
		classificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "classifier",
				Name:      "verdicts_total",
				Help:      "Classifier verdicts by urgency and whether the fallback was used.",
			},
			[]string{"service", "urgency", "degraded"},
		),
		classificationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "classifier",
				Name:      "duration_seconds",
				Help:      "Classifier round-trip duration in seconds.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"service", "degraded"},
		),
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wizard",
				Name:      "transitions_total",
				Help:      "Wizard step transitions.",
			},
			[]string{"service", "from", "to"},
		),
		sessionsSavedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sessions",
				Name:      "saved_total",
				Help:      "Finalized session writes by status and result.",
			},
			[]string{"service", "status", "result"},
		),
		bookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "appointments",
				Name:      "bookings_total",
				Help:      "Appointment writes by status and result.",
			},
			[]string{"service", "status", "result"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "resilience",
				Name:      "breaker_state",
				Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
			},
			[]string{"service", "operation"},
		),
	}

	registerer.MustRegister(
		m.classificationsTotal,
		m.classificationDuration,
		m.transitionsTotal,
		m.sessionsSavedTotal,
		m.bookingsTotal,
		m.breakerState,
	)
	return m
}

func (m *TriageMetrics) ObserveClassification(urgency domain.Urgency, degraded bool, duration time.Duration) {
	flag := strconv.FormatBool(degraded)
	m.classificationsTotal.WithLabelValues(m.service, string(urgency), flag).Inc()
	m.classificationDuration.WithLabelValues(m.service, flag).Observe(duration.Seconds())
}

func (m *TriageMetrics) ObserveTransition(from, to domain.Step) {
	m.transitionsTotal.WithLabelValues(m.service, string(from), string(to)).Inc()
}

func (m *TriageMetrics) ObserveSessionSaved(status domain.SessionStatus, err error) {
	m.sessionsSavedTotal.WithLabelValues(m.service, string(status), result(err)).Inc()
}

func (m *TriageMetrics) ObserveBooking(status domain.AppointmentStatus, err error) {
	m.bookingsTotal.WithLabelValues(m.service, string(status), result(err)).Inc()
}

// ObserveBreaker matches resilience.StateListener.
func (m *TriageMetrics) ObserveBreaker(operation string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(m.service, operation).Set(float64(to))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
