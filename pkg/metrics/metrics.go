package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connection metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "draw_connections_active",
			Help: "Currently connected websocket sessions",
		},
	)

	RoomsLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "draw_rooms_live",
			Help: "Rooms currently resident in memory",
		},
	)

	// Event metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draw_events_total",
			Help: "Inbound events processed, by kind",
		},
		[]string{"kind"},
	)

	EventsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "draw_events_rejected_total",
			Help: "Inbound events dropped as malformed or unknown",
		},
	)

	BroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "draw_broadcasts_total",
			Help: "Outbound fan-out messages delivered",
		},
	)

	SendsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "draw_sends_dropped_total",
			Help: "Deliveries that failed and disconnected the session",
		},
	)

	// Persistence metrics
	SaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "draw_room_save_failures_total",
			Help: "Room snapshot writes that failed",
		},
	)
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
