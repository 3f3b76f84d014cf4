package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the recipe catalog service.
// Metrics are organized by subsystem: database execution, transactions, and
// HTTP traffic. All counters and histograms are registered via promauto for
// automatic registration with the default Prometheus registry.
type Metrics struct {
	// QueriesTotal counts database statements executed, labeled by operation kind.
	QueriesTotal *prometheus.CounterVec

	// QueriesFailed counts database statements that returned an error, labeled by operation kind.
	QueriesFailed *prometheus.CounterVec

	// QueryDuration observes statement duration in seconds, labeled by operation kind.
	QueryDuration *prometheus.HistogramVec

	// QueryRetries counts retry attempts triggered by transient connection errors.
	QueryRetries prometheus.Counter

	// SlowQueries counts statements exceeding the slow-query threshold.
	SlowQueries prometheus.Counter

	// TransactionsCommitted counts committed transactions.
	TransactionsCommitted prometheus.Counter

	// TransactionsRolledBack counts rolled-back transactions.
	TransactionsRolledBack prometheus.Counter

	// BulkItemsProcessed counts bulk operation items by entity and outcome.
	BulkItemsProcessed *prometheus.CounterVec

	// HTTPRequestsTotal counts HTTP requests, labeled by method, route, and status class.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsRateLimited counts requests rejected by the rate limiter.
	HTTPRequestsRateLimited prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Database
		QueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database statements executed",
		}, []string{"operation"}),
		QueriesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_failed_total",
			Help:      "Total number of database statements that failed",
		}, []string{"operation"}),
		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Duration of database statements in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		QueryRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_query_retries_total",
			Help:      "Total number of query retries after transient errors",
		}),
		SlowQueries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_slow_queries_total",
			Help:      "Total number of statements exceeding the slow-query threshold",
		}),

		// Transactions
		TransactionsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_transactions_committed_total",
			Help:      "Total number of committed transactions",
		}),
		TransactionsRolledBack: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_transactions_rolled_back_total",
			Help:      "Total number of rolled-back transactions",
		}),

		// Bulk operations
		BulkItemsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_processed_total",
			Help:      "Total number of bulk operation items by entity and outcome",
		}, []string{"entity", "outcome"}),

		// HTTP
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		HTTPRequestsRateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
	}
}

// RecordQuery records an executed statement and its duration.
func (m *Metrics) RecordQuery(operation string, durationSeconds float64) {
	m.QueriesTotal.WithLabelValues(operation).Inc()
	m.QueryDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordQueryFailed records a failed statement.
func (m *Metrics) RecordQueryFailed(operation string) {
	m.QueriesFailed.WithLabelValues(operation).Inc()
}

// RecordQueryRetry records one retry attempt.
func (m *Metrics) RecordQueryRetry() {
	m.QueryRetries.Inc()
}

// RecordSlowQuery records a statement exceeding the slow-query threshold.
func (m *Metrics) RecordSlowQuery() {
	m.SlowQueries.Inc()
}

// RecordTransactionCommitted records a committed transaction.
func (m *Metrics) RecordTransactionCommitted() {
	m.TransactionsCommitted.Inc()
}

// RecordTransactionRolledBack records a rolled-back transaction.
func (m *Metrics) RecordTransactionRolledBack() {
	m.TransactionsRolledBack.Inc()
}

// RecordBulkItems records bulk item outcomes in one call.
func (m *Metrics) RecordBulkItems(entity string, successful, failed int) {
	m.BulkItemsProcessed.WithLabelValues(entity, "success").Add(float64(successful))
	m.BulkItemsProcessed.WithLabelValues(entity, "failure").Add(float64(failed))
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordRateLimited records a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited() {
	m.HTTPRequestsRateLimited.Inc()
}
