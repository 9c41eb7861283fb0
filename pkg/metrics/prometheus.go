// Package metrics exposes Prometheus metrics for the tasting-game service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var (
	documentWrites = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "pinot",
		Name:      "document_writes_total",
		Help:      "Whole-document upserts issued to the store, by collection.",
	}, []string{"collection"})

	storeErrors = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "pinot",
		Name:      "store_errors_total",
		Help:      "Document store operations that failed, by operation.",
	}, []string{"op"})

	finalizations = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "pinot",
		Name:      "finalizations_total",
		Help:      "Participation documents finalized, by trigger (manual|timer).",
	}, []string{"trigger"})

	timerExpirations = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "pinot",
		Name:      "timer_expirations_total",
		Help:      "Countdown expiries observed by timer synchronizers.",
	})

	scoringRuns = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "pinot",
		Name:      "scoring_runs_total",
		Help:      "Standings computations performed.",
	})

	scoringLatency = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "pinot",
		Name:      "scoring_latency_ms",
		Help:      "Standings computation latency in milliseconds.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
	})

	activeSubscriptions = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "pinot",
		Name:      "active_subscriptions",
		Help:      "Live document subscriptions held by sessions.",
	})

	nameClaimConflicts = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "pinot",
		Name:      "name_claim_conflicts_total",
		Help:      "Name claims rejected because another session holds the name.",
	})

	httpRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "pinot",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	httpRequestDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pinot",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000},
	}, []string{"endpoint", "method", "status"})
)

// RecordDocumentWrite counts an upsert against a collection.
func RecordDocumentWrite(collection string) {
	documentWrites.WithLabelValues(collection).Inc()
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	storeErrors.WithLabelValues(op).Inc()
}

// RecordFinalization counts a finalize, trigger is "manual" or "timer".
func RecordFinalization(trigger string) {
	finalizations.WithLabelValues(trigger).Inc()
}

// RecordTimerExpiration counts a countdown expiry.
func RecordTimerExpiration() {
	timerExpirations.Inc()
}

// RecordScoringRun counts one standings computation.
func RecordScoringRun() {
	scoringRuns.Inc()
}

// RecordScoringLatency observes a standings computation duration.
func RecordScoringLatency(ms float64) {
	scoringLatency.Observe(ms)
}

// SubscriptionOpened tracks a new live subscription.
func SubscriptionOpened() {
	activeSubscriptions.Inc()
}

// SubscriptionClosed tracks a torn-down subscription.
func SubscriptionClosed() {
	activeSubscriptions.Dec()
}

// RecordNameClaimConflict counts a lost name reservation race.
func RecordNameClaimConflict() {
	nameClaimConflicts.Inc()
}

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(endpoint, method, status string) {
	httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes a request duration.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// GetRegistry returns the service's metrics registry for HTTP exposition.
func GetRegistry() *prometheus.Registry {
	return registry
}
