package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebSocket Metrics
var (
	// WebSocketConnectionsCurrent tracks current active WebSocket connections
	WebSocketConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_current",
			Help: "Current number of active WebSocket connections",
		},
	)

	// WebSocketConnectionsTotal tracks total WebSocket connection attempts by result
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total WebSocket connection attempts by result (success/unauthorized/error)",
		},
		[]string{"result"},
	)

	// WebSocketMessagesSent tracks frames written to clients by frame type
	WebSocketMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total WebSocket frames written to clients by source (heartbeat/broadcast/direct)",
		},
		[]string{"source"},
	)

	// WebSocketMessagesReceived tracks inbound text frames from clients
	WebSocketMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total text frames received from clients",
		},
	)

	// WebSocketMalformedFrames tracks inbound frames dropped during parsing
	WebSocketMalformedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_malformed_frames_total",
			Help: "Total inbound frames silently dropped because they failed to parse",
		},
	)

	// WebSocketMessageSendDuration tracks WebSocket message send duration
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)
)

// Broadcaster Metrics
var (
	// BroadcasterTickDuration tracks how long a corridor publish tick takes
	BroadcasterTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcaster_tick_duration_seconds",
			Help:    "Corridor publish tick duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// BroadcasterEventsPublished tracks events fanned out by event type
	BroadcasterEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcaster_events_published_total",
			Help: "Total events fanned out by event type (corridor_update/anchor_update/new_payment)",
		},
		[]string{"event_type"},
	)

	// BroadcasterEventsSuppressed tracks corridor updates skipped by the per-key rate limit
	BroadcasterEventsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_events_suppressed_total",
			Help: "Total corridor updates suppressed by the per-key rate limit",
		},
	)

	// BroadcasterDeliveryDrops tracks events dropped because a connection queue was full
	BroadcasterDeliveryDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_delivery_drops_total",
			Help: "Total events dropped for a single connection because its outbound queue was full",
		},
	)

	// BroadcasterStorageErrors tracks corridor ticks skipped due to storage failures
	BroadcasterStorageErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_storage_errors_total",
			Help: "Total corridor ticks skipped because the metrics read failed",
		},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks database query duration by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks database errors by query name
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database errors by query",
		},
		[]string{"query"},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)
