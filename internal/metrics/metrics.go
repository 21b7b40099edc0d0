package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	PollCount        prometheus.Counter
	EmailsFetched    prometheus.Counter
	PaymentsRecorded prometheus.Counter
	ManualReviews    prometheus.Counter
	SkippedMessages  prometheus.Counter
	ProcessingTime   prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PollCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "propmate_poll_count",
			Help: "Total number of mailbox polling cycles",
		}),
		EmailsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "propmate_emails_fetched",
			Help: "Total number of notification emails fetched",
		}),
		PaymentsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "propmate_payments_recorded",
			Help: "Total number of payments recorded and receipted",
		}),
		ManualReviews: promauto.NewCounter(prometheus.CounterOpts{
			Name: "propmate_manual_reviews",
			Help: "Total number of messages routed to manual review",
		}),
		SkippedMessages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "propmate_skipped_messages",
			Help: "Total number of non-payment messages skipped",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "propmate_processing_duration_seconds",
			Help:    "Time spent processing a polling cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
