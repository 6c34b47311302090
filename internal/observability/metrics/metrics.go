package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes the service's prometheus instruments. One instance per
// process, registered against the default registry unless a test supplies
// its own.
type Metrics struct {
	webhookEvents  *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	directoryError *prometheus.CounterVec
	sweepRuns      prometheus.Counter
	sweepDemotions prometheus.Counter
	sweepDuration  prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyara_webhook_events_total",
			Help: "Webhook events by processing outcome.",
		}, []string{"outcome"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyara_qualification_decisions_total",
			Help: "Evaluator decisions by type.",
		}, []string{"decision"}),
		directoryError: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyara_directory_errors_total",
			Help: "Failed calls against the customer directory by operation.",
		}, []string{"operation"}),
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loyara_sweep_runs_total",
			Help: "Completed expiry sweep passes.",
		}),
		sweepDemotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loyara_sweep_demotions_total",
			Help: "Customers demoted by the expiry sweep.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "loyara_sweep_duration_seconds",
			Help:    "Wall time of one expiry sweep pass.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loyara_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loyara_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.webhookEvents,
		m.decisions,
		m.directoryError,
		m.sweepRuns,
		m.sweepDemotions,
		m.sweepDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) IncWebhookEvent(outcome string) {
	m.webhookEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncDecision(decision string) {
	m.decisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncDirectoryError(operation string) {
	m.directoryError.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveSweep(duration time.Duration, demoted int) {
	m.sweepRuns.Inc()
	m.sweepDemotions.Add(float64(demoted))
	m.sweepDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(route, method, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func defaultRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

var Module = fx.Module("metrics",
	fx.Provide(
		defaultRegisterer,
		New,
	),
)
