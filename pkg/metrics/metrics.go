package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Events handed to the broker by producers.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_events_published_total",
			Help: "Events published to the broker, by topic and outcome",
		},
		[]string{"topic", "status"}, // status: ok, error
	)

	// Push delivery latency per subscription, from dequeue to consumer response.
	PushDeliveryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pubsub_push_delivery_latency_ms",
			Help:    "Push delivery latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"subscription", "status"}, // status: ack, reject, retry
	)

	// Push webhook requests handled by consumers.
	PushRequestsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_push_requests_total",
			Help: "Push webhook requests handled, by consumer and result",
		},
		[]string{"consumer", "result"}, // result: handled, duplicate, unknown_type, forbidden, invalid, error
	)

	// Notifications persisted by the notification consumer.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications inserted, by notification type",
		},
		[]string{"type"},
	)

	// Live sessions currently registered with the realtime service.
	ConnectedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connected_sessions",
			Help: "WebSocket sessions currently registered",
		},
	)

	// Internal emit calls received by the realtime service.
	RealtimeEmits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_emits_total",
			Help: "Internal emit requests, by delivery outcome",
		},
		[]string{"delivered"}, // delivered: true, false
	)

	// HTTP request latency across services.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

func RecordPushDelivery(subscription, status string, duration time.Duration) {
	PushDeliveryLatency.WithLabelValues(subscription, status).Observe(float64(duration.Milliseconds()))
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
