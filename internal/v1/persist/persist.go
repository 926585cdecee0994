// Package persist is the optional, best-effort persisted room log of
// spec.md §6.3: a write-only append of room-creation events, never read back
// by the core. It adapts the teacher's Redis pub/sub service
// (internal/v1/bus/redis.go) from a fan-out channel to a single
// RPUSH-per-room-creation append, keeping the same
// gobreaker.CircuitBreaker wrapping so a Redis outage degrades to an
// instant no-op instead of blocking createRoom.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/adeyems/wordround/internal/v1/metrics"
)

const logKey = "wordround:rooms:log"

// Entry is one line appended to the room log: "(code, hostName,
// maxParticipants, status, createdAt)" per spec.md §6.3.
type Entry struct {
	RoomCode        string `json:"roomCode"`
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

// Log is the best-effort append-only room log. A nil *Log (Redis disabled)
// is safe to call Append/Ping on — both are then instant no-ops, the same
// "single-instance mode" shape the teacher's bus.Service uses.
type Log struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
	log    *zap.Logger
}

// NewLog dials Redis and wraps it in a circuit breaker named "redis-log".
// It pings once at construction so a down Redis fails fast at startup
// rather than on the first room creation.
func NewLog(addr, password string, log *zap.Logger) (*Log, error) {
	if log == nil {
		log = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("persist: failed to connect to redis: %w", err)
	}

	settings := gobreaker.Settings{
		Name:        "redis-log",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			var v float64
			switch to {
			case gobreaker.StateClosed:
				v = 0
			case gobreaker.StateOpen:
				v = 1
			case gobreaker.StateHalfOpen:
				v = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(name).Set(v)
		},
	}

	return &Log{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(settings),
		log:    log,
	}, nil
}

// Append pushes one room-creation entry onto the log. Failure (including
// an open breaker) is swallowed: persistence is best-effort and must never
// fail createRoom (spec.md §6.3).
func (l *Log) Append(ctx context.Context, e Entry) {
	if l == nil || l.client == nil {
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		l.log.Error("failed to marshal room log entry", zap.Error(err))
		return
	}

	_, err = l.cb.Execute(func() (any, error) {
		return nil, l.client.RPush(ctx, logKey, data).Err()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis-log").Inc()
			metrics.PersistOperationsTotal.WithLabelValues("append", "breaker_open").Inc()
			l.log.Warn("redis-log circuit open, dropping room log entry", zap.String("roomCode", e.RoomCode))
			return
		}
		metrics.PersistOperationsTotal.WithLabelValues("append", "error").Inc()
		l.log.Warn("failed to append room log entry", zap.String("roomCode", e.RoomCode), zap.Error(err))
		return
	}

	metrics.PersistOperationsTotal.WithLabelValues("append", "success").Inc()
}

// Ping checks Redis connectivity, used by the health handler. A nil Log
// (Redis disabled) is always healthy.
func (l *Log) Ping(ctx context.Context) error {
	if l == nil || l.client == nil {
		return nil
	}
	_, err := l.cb.Execute(func() (any, error) {
		return nil, l.client.Ping(ctx).Err()
	})
	return err
}

// Close releases the underlying Redis connection.
func (l *Log) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}
