package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_post_transactions_total",
		Help: "Transaction engine operations by operation and result code",
	}, []string{"operation", "result"})

	transactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trading_post_transaction_duration_seconds",
		Help:    "Duration of transaction engine operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	stockMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_post_stock_units_total",
		Help: "Units of stock moved, by direction (in, out)",
	}, []string{"direction"})

	eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trading_post_event_publish_failures_total",
		Help: "Events that could not be delivered to at least one publisher",
	})
)

// ObserveOperation records one engine call.
func ObserveOperation(operation, result string, started time.Time) {
	transactionsTotal.WithLabelValues(operation, result).Inc()
	transactionDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ObserveStock counts a committed stock delta.
func ObserveStock(delta int) {
	switch {
	case delta > 0:
		stockMoved.WithLabelValues("in").Add(float64(delta))
	case delta < 0:
		stockMoved.WithLabelValues("out").Add(float64(-delta))
	}
}

func PublishFailed() {
	eventPublishFailures.Inc()
}
