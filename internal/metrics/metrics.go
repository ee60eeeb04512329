package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/doorbell-core/internal/dedup"
	"github.com/nerrad567/doorbell-core/internal/push"
)

// Breaker states as reported by the circuit breaker gauge.
var breakerStates = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// Metrics holds the collectors for event handling, dispatch and dedup.
type Metrics struct {
	gatherer prometheus.Gatherer

	EventsTotal      *prometheus.CounterVec
	EventDuration    *prometheus.HistogramVec
	DispatchesTotal  *prometheus.CounterVec
	DeliveriesTotal  *prometheus.CounterVec
	DedupRemoved     *prometheus.CounterVec
	DedupErrors      prometheus.Counter
	BreakerState     *prometheus.GaugeVec
	BreakerTripTotal *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doorbell_events_total",
				Help: "Total number of event writes handled",
			},
			[]string{"type", "status"},
		),

		EventDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "doorbell_event_duration_seconds",
				Help:    "Time spent handling an event write",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"type"},
		),

		DispatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doorbell_dispatches_total",
				Help: "Total number of notification dispatches by outcome",
			},
			[]string{"type", "outcome"}, // "sent", "skipped", "error"
		),

		DeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doorbell_push_deliveries_total",
				Help: "Per-token push delivery results",
			},
			[]string{"result"}, // "success", "failure"
		),

		DedupRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doorbell_dedup_removed_total",
				Help: "Total number of duplicate event records merged away",
			},
			[]string{"doorbell_id"},
		),

		DedupErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "doorbell_dedup_errors_total",
				Help: "Total number of failed dedup passes",
			},
		),

		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "doorbell_push_breaker_state",
				Help: "Push circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),

		BreakerTripTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doorbell_push_breaker_transitions_total",
				Help: "Push circuit breaker state transitions",
			},
			[]string{"breaker", "to"},
		),
	}
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordEvent implements doorbell.Recorder.
func (m *Metrics) RecordEvent(_, eventType, status string, elapsed time.Duration) {
	if eventType == "" {
		eventType = "none"
	}
	m.EventsTotal.WithLabelValues(eventType, status).Inc()
	m.EventDuration.WithLabelValues(eventType).Observe(elapsed.Seconds())
}

// RecordDispatch implements doorbell.Recorder.
func (m *Metrics) RecordDispatch(_, notificationType string, report *push.Report, err error) {
	switch {
	case err != nil:
		m.DispatchesTotal.WithLabelValues(notificationType, "error").Inc()
	case report == nil:
		m.DispatchesTotal.WithLabelValues(notificationType, "skipped").Inc()
	default:
		m.DispatchesTotal.WithLabelValues(notificationType, "sent").Inc()
		m.DeliveriesTotal.WithLabelValues("success").Add(float64(report.SuccessCount))
		m.DeliveriesTotal.WithLabelValues("failure").Add(float64(report.FailureCount))
	}
}

// RecordDedup implements doorbell.Recorder.
func (m *Metrics) RecordDedup(doorbellID, _ string, result dedup.Result, err error) {
	if err != nil {
		m.DedupErrors.Inc()
		return
	}
	if n := len(result.Removed); n > 0 {
		m.DedupRemoved.WithLabelValues(doorbellID).Add(float64(n))
	}
}

// BreakerStateChanged matches push.BreakerConfig.OnStateChange.
func (m *Metrics) BreakerStateChanged(name, _, to string) {
	m.BreakerState.WithLabelValues(name).Set(breakerStates[to])
	m.BreakerTripTotal.WithLabelValues(name, to).Inc()
}
