package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petcare_notifications_emitted_total",
		Help: "Notifications produced by the threshold engine, by rule.",
	}, []string{"rule"})

	deliveryOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petcare_push_deliveries_total",
		Help: "Push delivery attempts, by outcome.",
	}, []string{"outcome"})

	dispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "petcare_push_dispatch_duration_seconds",
		Help:    "Time to fan one notification out to every subscriber.",
		Buckets: prometheus.DefBuckets,
	})

	queueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petcare_push_queue_dropped_total",
		Help: "Deliveries dropped because the dispatch queue was full.",
	})
)

// RecordEmitted counts pending notifications by rule.
func RecordEmitted(pending []Pending) {
	for _, p := range pending {
		notificationsEmitted.WithLabelValues(string(p.Rule)).Inc()
	}
}
