package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewardhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rewardhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewardhub_ledger_operations_total",
			Help: "Total number of balance mutations",
		},
		[]string{"op", "result"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewardhub_requests_total",
			Help: "Withdrawal and deposit request lifecycle events",
		},
		[]string{"kind", "event"},
	)

	TasksCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rewardhub_tasks_completed_total",
			Help: "Total number of task completions credited",
		},
	)

	SyncEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewardhub_sync_events_total",
			Help: "Remote sync events by collection, operation and result",
		},
		[]string{"collection", "op", "result"},
	)

	SyncQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rewardhub_sync_queue_length",
			Help: "Current length of the remote sync queue",
		},
	)

	DailyResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rewardhub_daily_resets_total",
			Help: "Number of daily task counter resets performed",
		},
	)
)

const (
	ResultOK       = "ok"
	ResultRefused  = "refused"
	ResultFailed   = "failed"
	ResultDropped  = "dropped"
	ResultConflict = "conflict"
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordLedger(op, result string) {
	LedgerOperationsTotal.WithLabelValues(op, result).Inc()
}

// RecordRequest counts a lifecycle event ("created", "approved", "rejected",
// "refused") for a request kind ("withdraw", "topup").
func RecordRequest(kind, event string) {
	RequestsTotal.WithLabelValues(kind, event).Inc()
}

func RecordTaskCompleted() {
	TasksCompletedTotal.Inc()
}

func RecordSync(collection, op, result string) {
	SyncEventsTotal.WithLabelValues(collection, op, result).Inc()
}

func SetSyncQueueLength(n int) {
	SyncQueueLength.Set(float64(n))
}

func RecordDailyReset() {
	DailyResetsTotal.Inc()
}
