package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		updatesReceivedTotal,
		updatesFailedTotal,
		updateDuration,
		sendsTotal,
		sendQueueRejectedTotal,
	)
}

var (
	updatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_received_total",
			Help: "Inbound updates by kind (message, callback, other).",
		},
		[]string{"kind"},
	)

	updatesFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_failed_total",
			Help: "Updates whose handling returned an error or panicked.",
		},
		[]string{"kind"},
	)

	updateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Time spent handling one update, delivery excluded.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"kind"},
	)

	sendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_sends_total",
			Help: "Outbound Bot API calls by action and outcome.",
		},
		[]string{"action", "status"},
	)

	sendQueueRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_send_queue_rejected_total",
			Help: "Outbox jobs dropped because the sender queue was full or closed.",
		},
	)
)

// ObserveUpdate records one handled update.
func ObserveUpdate(kind string, seconds float64, failed bool) {
	kind = norm(kind)
	updatesReceivedTotal.WithLabelValues(kind).Inc()
	updateDuration.WithLabelValues(kind).Observe(seconds)
	if failed {
		updatesFailedTotal.WithLabelValues(kind).Inc()
	}
}

// IncSend counts one outbound call. status is "ok" or an error kind.
func IncSend(action, status string) {
	sendsTotal.WithLabelValues(norm(action), norm(status)).Inc()
}

// IncQueueRejected counts a job the dispatcher refused.
func IncQueueRejected() {
	sendQueueRejectedTotal.Inc()
}

func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}
