package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSetRoomsActive(t *testing.T) {
	SetRoomsActive(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(RoomsActive))

	SetRoomsActive(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(RoomsActive))
}

func TestSetParticipantsCount(t *testing.T) {
	SetParticipantsCount("ABCD12", 4)
	assert.Equal(t, float64(4), testutil.ToFloat64(ParticipantsCount.WithLabelValues("ABCD12")))
}

func TestWebSocketConnectionsGauge(t *testing.T) {
	before := testutil.ToFloat64(WebSocketConnectionsActive)

	IncWebSocketConnections()
	assert.Equal(t, before+1, testutil.ToFloat64(WebSocketConnectionsActive))

	DecWebSocketConnections()
	assert.Equal(t, before, testutil.ToFloat64(WebSocketConnectionsActive))
}

func TestRoundsPlayedTotal(t *testing.T) {
	before := testutil.ToFloat64(RoundsPlayedTotal.WithLabelValues("TIMER"))
	RoundsPlayedTotal.WithLabelValues("TIMER").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RoundsPlayedTotal.WithLabelValues("TIMER")))
}

func TestPersistOperationsTotal(t *testing.T) {
	before := testutil.ToFloat64(PersistOperationsTotal.WithLabelValues("append", "success"))
	PersistOperationsTotal.WithLabelValues("append", "success").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PersistOperationsTotal.WithLabelValues("append", "success")))
}

func TestCircuitBreakerGauges(t *testing.T) {
	CircuitBreakerState.WithLabelValues("redis-log").Set(1)
	assert.Equal(t, float64(1), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("redis-log")))

	before := testutil.ToFloat64(CircuitBreakerFailures.WithLabelValues("redis-log"))
	CircuitBreakerFailures.WithLabelValues("redis-log").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CircuitBreakerFailures.WithLabelValues("redis-log")))
}

func TestRateLimitExceededTotal(t *testing.T) {
	before := testutil.ToFloat64(RateLimitExceededTotal.WithLabelValues("rooms"))
	RateLimitExceededTotal.WithLabelValues("rooms").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RateLimitExceededTotal.WithLabelValues("rooms")))
}
