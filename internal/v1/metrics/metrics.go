// Package metrics declares the Prometheus collectors for the word-round
// server, kept close to the packages that own each concern rather than
// centralised behind an interface (the teacher's layout,
// internal/v1/metrics/metrics.go).
//
// Naming convention: namespace_subsystem_name
//   - namespace: wordround (application-level grouping)
//   - subsystem: room, round, websocket, persist, ratelimit
//   - name: specific metric (rooms_active, rounds_played_total, ...)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoomsActive tracks the current number of live rooms in the registry.
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wordround",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of rooms held by the registry",
	})

	// ParticipantsCount tracks admitted participant count per room.
	ParticipantsCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wordround",
		Subsystem: "room",
		Name:      "participants_count",
		Help:      "Number of admitted participants in each room",
	}, []string{"room_code"})

	// RoundsPlayedTotal counts rounds as they end, labelled by end reason.
	RoundsPlayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordround",
		Subsystem: "round",
		Name:      "rounds_played_total",
		Help:      "Total rounds ended, labelled by end reason",
	}, []string{"end_reason"})

	// RoundDurationSeconds observes the wall-clock time from callNumber to
	// round end.
	RoundDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wordround",
		Subsystem: "round",
		Name:      "round_duration_seconds",
		Help:      "Time from a round's call to its end",
		Buckets:   []float64{1, 2, 5, 10, 15, 30, 60, 120},
	})

	// WebSocketConnectionsActive tracks current live push subscribers.
	WebSocketConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wordround",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active push-surface connections",
	})

	// WebSocketEventsTotal counts messages written to push connections, one
	// per message per connection. wsapi labels every message "push"; the
	// label does not carry the message's event type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordround",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total messages written to push-surface connections",
	}, []string{"event_type"})

	// PersistOperationsTotal counts persisted-log append attempts.
	PersistOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordround",
		Subsystem: "persist",
		Name:      "operations_total",
		Help:      "Total persisted-log operations, labelled by operation and status",
	}, []string{"operation", "status"})

	// CircuitBreakerState mirrors the teacher's circuit-breaker gauge shape:
	// 0 closed, 1 open, 2 half-open.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wordround",
		Subsystem: "persist",
		Name:      "circuit_breaker_state",
		Help:      "Current state of a circuit breaker (0=closed, 1=open, 2=half-open)",
	}, []string{"breaker"})

	// CircuitBreakerFailures counts requests rejected while a breaker is open.
	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordround",
		Subsystem: "persist",
		Name:      "circuit_breaker_failures_total",
		Help:      "Total requests rejected by an open circuit breaker",
	}, []string{"breaker"})

	// RateLimitExceededTotal counts requests rejected by the rate limiter.
	RateLimitExceededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordround",
		Subsystem: "ratelimit",
		Name:      "exceeded_total",
		Help:      "Total requests that exceeded a rate limit",
	}, []string{"scope"})
)

// SetRoomsActive updates the rooms_active gauge, called by the registry
// after every create/reclaim.
func SetRoomsActive(n int) {
	RoomsActive.Set(float64(n))
}

// SetParticipantsCount updates the per-room participants gauge.
func SetParticipantsCount(roomCode string, n int) {
	ParticipantsCount.WithLabelValues(roomCode).Set(float64(n))
}

// IncWebSocketConnections increments the active push-connection gauge.
func IncWebSocketConnections() {
	WebSocketConnectionsActive.Inc()
}

// DecWebSocketConnections decrements the active push-connection gauge.
func DecWebSocketConnections() {
	WebSocketConnectionsActive.Dec()
}
