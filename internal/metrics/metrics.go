package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "healthrecord"

// Outcome labels for resolved sessions.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
	OutcomeError    = "error"
)

// Metrics holds every collector the service exports. A nil *Metrics is valid
// and records nothing, so packages can be used without a registry.
type Metrics struct {
	sessionsIssued   prometheus.Counter
	sessionsResolved *prometheus.CounterVec
	sessionsReaped   prometheus.Counter
	sweepErrors      prometheus.Counter
	requestDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_issued_total",
			Help:      "Share sessions issued to patients.",
		}),
		sessionsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_resolved_total",
			Help:      "Share token lookups by outcome.",
		}, []string{"outcome"}),
		sessionsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_reaped_total",
			Help:      "Expired share sessions deleted by the reaper.",
		}),
		sweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_sweep_errors_total",
			Help:      "Reaper sweeps that failed.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.sessionsIssued,
		m.sessionsResolved,
		m.sessionsReaped,
		m.sweepErrors,
		m.requestDuration,
	)
	return m
}

func (m *Metrics) SessionIssued() {
	if m == nil {
		return
	}
	m.sessionsIssued.Inc()
}

func (m *Metrics) SessionResolved(outcome string) {
	if m == nil {
		return
	}
	m.sessionsResolved.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionsReaped(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsReaped.Add(float64(n))
}

func (m *Metrics) SweepFailed() {
	if m == nil {
		return
	}
	m.sweepErrors.Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
