package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all engine metrics
type Metrics struct {
	// Ingestion pipeline
	NotificationsInserted *prometheus.CounterVec
	NotificationsDeduped  prometheus.Counter
	NotificationsEvicted  prometheus.Counter
	EventsSuppressed      prometheus.Counter
	EventsDropped         *prometheus.CounterVec

	// Read state
	UnreadNotifications prometheus.Gauge

	// Persistence
	PersistFailures *prometheus.CounterVec

	// Session lifecycle
	SessionBinds   prometheus.Counter
	SessionUnbinds prometheus.Counter
}

// New creates and registers all engine metrics on the given registerer.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		NotificationsInserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_inserted_total",
			Help:      "Total number of notifications inserted into the store",
		}, []string{"type"}),
		NotificationsDeduped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_deduplicated_total",
			Help:      "Total number of inserts skipped because the external id was already present",
		}),
		NotificationsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_evicted_total",
			Help:      "Total number of notifications evicted from the list tail",
		}),
		EventsSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_suppressed_total",
			Help:      "Total number of events discarded by the suppression policy",
		}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of inbound events dropped before reaching the builder",
		}, []string{"reason"}),
		UnreadNotifications: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unread_notifications",
			Help:      "Current number of unread notifications for the bound session",
		}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Total number of persistence operations that failed and were degraded",
		}, []string{"op"}),
		SessionBinds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_binds_total",
			Help:      "Total number of session bind operations",
		}),
		SessionUnbinds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_unbinds_total",
			Help:      "Total number of session unbind operations",
		}),
	}
}
