// Package telemetry provides Prometheus metrics and OpenTelemetry tracing helpers.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	RoomResolutions  *prometheus.CounterVec
	StatusUpdates    *prometheus.CounterVec
	BackendRequests  *prometheus.CounterVec
	BackendDuration  *prometheus.HistogramVec
	RoomsCreated     prometheus.Counter
	StaleResolutions prometheus.Counter
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		RoomResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marketchat_room_resolutions_total",
			Help: "Room resolutions by terminal state and failure code",
		}, []string{"state", "code"})
		StatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marketchat_status_updates_total",
			Help: "Listing status updates by outcome",
		}, []string{"outcome"})
		BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marketchat_backend_requests_total",
			Help: "Outbound backend requests by operation and result",
		}, []string{"op", "result"})
		BackendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketchat_backend_request_duration_seconds",
			Help:    "Outbound backend request duration seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"})
		RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketchat_rooms_created_total",
			Help: "Rooms created by the backend (create-or-get misses)",
		})
		StaleResolutions = promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketchat_stale_resolutions_total",
			Help: "Resolutions discarded because their inputs were superseded",
		})
	})
}

// RecordResolution counts one resolution outcome.
func RecordResolution(state, code string) {
	Init()
	RoomResolutions.WithLabelValues(state, code).Inc()
}

// RecordStale counts one discarded resolution.
func RecordStale() {
	Init()
	StaleResolutions.Inc()
}

// RecordStatusUpdate counts one synchronizer outcome.
func RecordStatusUpdate(outcome string) {
	Init()
	StatusUpdates.WithLabelValues(outcome).Inc()
}

// RecordRoomCreated counts one room created by the backend.
func RecordRoomCreated() {
	Init()
	RoomsCreated.Inc()
}

// ObserveBackendRequest records the result and duration of one outbound call.
func ObserveBackendRequest(op string, start time.Time, err error) {
	Init()
	result := "ok"
	if err != nil {
		result = "error"
	}
	BackendRequests.WithLabelValues(op, result).Inc()
	BackendDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
