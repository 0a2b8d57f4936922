// Package metrics holds the prometheus collectors of the room server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "poker"

var (
	connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Current number of open websocket connections",
	})

	activeRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_rooms",
		Help:      "Current number of rooms with at least one joined connection",
	})

	inboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inbound_events_total",
		Help:      "Inbound websocket events by type and outcome",
	}, []string{"type", "outcome"})

	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_deliveries_total",
		Help:      "Outbound frames queued to connections, by event and result",
	}, []string{"event", "result"})

	storeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Room store operations by backend, operation and result",
	}, []string{"backend", "op", "result"})

	storeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Duration of room store operations in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "op"})
)

func ConnectionOpened() { connections.Inc() }
func ConnectionClosed() { connections.Dec() }

func RoomOpened() { activeRooms.Inc() }
func RoomClosed() { activeRooms.Dec() }

func ObserveEvent(eventType, outcome string) {
	inboundEvents.WithLabelValues(eventType, outcome).Inc()
}

func ObserveDelivery(event string, sent, dropped int) {
	if sent > 0 {
		deliveries.WithLabelValues(event, "sent").Add(float64(sent))
	}
	if dropped > 0 {
		deliveries.WithLabelValues(event, "dropped").Add(float64(dropped))
	}
}

func ObserveStoreOp(backend, op string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOps.WithLabelValues(backend, op, result).Inc()
	storeLatency.WithLabelValues(backend, op).Observe(time.Since(started).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
