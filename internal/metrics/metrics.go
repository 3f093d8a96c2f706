package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes recorded by RecordTurn.
const (
	OutcomeOK       = "ok"
	OutcomeReplay   = "replay"
	OutcomeEngine   = "engine_error"
	OutcomeStore    = "store_error"
	OutcomeRejected = "rejected"
)

type serviceMetrics struct {
	sessionsCreated prometheus.Counter
	sessionsDeleted prometheus.Counter
	turnsTotal      *prometheus.CounterVec
	engineDuration  *prometheus.HistogramVec
	lockWait        prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *serviceMetrics
)

func get() *serviceMetrics {
	metricsOnce.Do(func() {
		m := &serviceMetrics{
			sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chat_sessions_created_total",
				Help: "Sessions created.",
			}),
			sessionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chat_sessions_deleted_total",
				Help: "Sessions deleted.",
			}),
			turnsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_turns_total",
					Help: "Conversation turns by outcome.",
				},
				[]string{"outcome"},
			),
			engineDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "chat_engine_request_duration_seconds",
					Help:    "Completion engine latency by status.",
					Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
				},
				[]string{"status"},
			),
			lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "chat_session_lock_wait_seconds",
				Help:    "Time spent waiting for the per-session lock.",
				Buckets: prometheus.DefBuckets,
			}),
		}

		prometheus.MustRegister(
			m.sessionsCreated,
			m.sessionsDeleted,
			m.turnsTotal,
			m.engineDuration,
			m.lockWait,
		)
		metricsInst = m
	})
	return metricsInst
}

// EnsureRegistered registers the collectors with the default registry.
func EnsureRegistered() {
	get()
}

// Handler exposes the default registry in the prometheus text format.
func Handler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func SessionCreated() {
	get().sessionsCreated.Inc()
}

func SessionDeleted() {
	get().sessionsDeleted.Inc()
}

// RecordTurn counts a finished turn.
func RecordTurn(outcome string) {
	get().turnsTotal.WithLabelValues(outcome).Inc()
}

// ObserveEngine records how long a completion call took.
func ObserveEngine(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	get().engineDuration.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveLockWait records how long a caller waited for a session lock.
func ObserveLockWait(d time.Duration) {
	get().lockWait.Observe(d.Seconds())
}
