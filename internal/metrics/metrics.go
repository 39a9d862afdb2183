// Package metrics 汇总服务暴露给 Prometheus 的指标，由 /metrics 路由导出。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meet_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meet_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// WebSocket gateway metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meet_ws_connections",
			Help: "Currently open WebSocket connections",
		},
	)

	WSEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meet_ws_events_total",
			Help: "Inbound WebSocket events by outcome",
		},
		[]string{"event", "result"}, // result: "ok" / "error"
	)

	BroadcastFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meet_broadcast_frames_total",
			Help: "Frames enqueued to clients by event",
		},
		[]string{"event"},
	)

	DroppedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meet_dropped_frames_total",
			Help: "Frames dropped because a client send buffer was full",
		},
	)

	// Room lifecycle metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meet_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	RoomJoinRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meet_room_join_rejected_total",
			Help: "Rejected room joins",
		},
		[]string{"reason"}, // "full" / "not_found"
	)

	RoomsSwept = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meet_rooms_swept_total",
			Help: "Rooms touched by the maintenance sweep",
		},
		[]string{"action"}, // "reconciled" / "closed"
	)
)
