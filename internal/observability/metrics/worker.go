package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	emailsTotal    *prometheus.CounterVec
	emailDuration  *prometheus.HistogramVec
	emailsInFlight prometheus.Gauge
	queueLag       *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	emailsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "confirmation_emails_total",
			Help:      "Confirmation emails dispatched by status.",
		},
		[]string{"service", "status"},
	)
	emailDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "confirmation_email_duration_seconds",
			Help:      "Confirmation dispatch duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	emailsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "confirmation_emails_in_flight",
			Help:      "Number of confirmation emails being sent.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between booking and confirmation dispatch start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(emailsTotal, emailDuration, emailsInFlight, queueLag)

	return &WorkerMetrics{
		registry:       registry,
		emailsTotal:    emailsTotal,
		emailDuration:  emailDuration,
		emailsInFlight: emailsInFlight,
		queueLag:       queueLag,
	}
}

func (m *WorkerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartEmail() {
	m.emailsInFlight.Inc()
}

func (m *WorkerMetrics) FinishEmail(service string, duration time.Duration, err error) {
	m.emailsInFlight.Dec()

	status := "sent"
	if err != nil {
		status = "error"
	}

	m.emailsTotal.WithLabelValues(service, status).Inc()
	m.emailDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
