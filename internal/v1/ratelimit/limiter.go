// Package ratelimit is an ambient protection layer, not game logic: it is
// carried regardless of spec.md's "anti-cheat beyond field validation"
// Non-goal, which excludes cheat detection, not infra protection. It
// adapts the teacher's ulule/limiter/v3 + gin middleware
// (internal/v1/ratelimit/limiter.go) from per-user/per-IP API quotas to the
// three rates this domain needs: a per-IP limit on room creation and
// per-room limits on join and submit.
package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/adeyems/wordround/internal/v1/config"
	"github.com/adeyems/wordround/internal/v1/logging"
	"github.com/adeyems/wordround/internal/v1/metrics"
)

// Limiter holds the three named rate limiters this server needs.
type Limiter struct {
	rooms  *limiter.Limiter
	join   *limiter.Limiter
	submit *limiter.Limiter
}

// New builds a Limiter backed by a Redis store when redisClient is
// non-nil, falling back to an in-memory store otherwise (spec.md
// SPEC_FULL §6.1: "in-memory store when Redis is disabled").
func New(cfg *config.Config, redisClient *redis.Client) (*Limiter, error) {
	roomsRate, err := limiter.NewRateFromFormatted(cfg.RateLimitRooms)
	if err != nil {
		return nil, err
	}
	joinRate, err := limiter.NewRateFromFormatted(cfg.RateLimitJoin)
	if err != nil {
		return nil, err
	}
	submitRate, err := limiter.NewRateFromFormatted(cfg.RateLimitSubmit)
	if err != nil {
		return nil, err
	}

	store, err := newStore(redisClient)
	if err != nil {
		return nil, err
	}

	return &Limiter{
		rooms:  limiter.New(store, roomsRate),
		join:   limiter.New(store, joinRate),
		submit: limiter.New(store, submitRate),
	}, nil
}

func newStore(redisClient *redis.Client) (limiter.Store, error) {
	if redisClient == nil {
		return memory.NewStore(), nil
	}
	return sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "wordround:ratelimit:"})
}

// RoomsMiddleware enforces the per-IP limit on POST /api/rooms.
func (l *Limiter) RoomsMiddleware() gin.HandlerFunc {
	return l.middleware(l.rooms, "rooms", func(c *gin.Context) string { return c.ClientIP() })
}

// JoinMiddleware enforces the per-room limit on POST /api/rooms/{code}/join.
func (l *Limiter) JoinMiddleware() gin.HandlerFunc {
	return l.middleware(l.join, "join", roomCodeKey)
}

// SubmitMiddleware enforces the per-room limit on POST /api/rooms/{code}/submit.
func (l *Limiter) SubmitMiddleware() gin.HandlerFunc {
	return l.middleware(l.submit, "submit", roomCodeKey)
}

func roomCodeKey(c *gin.Context) string {
	return "room:" + c.Param("code")
}

// middleware applies inst keyed by keyFn(c), failing open (allowing the
// request) if the store itself errors — availability over strictness, the
// same choice the teacher's limiter makes on a Redis hiccup.
func (l *Limiter) middleware(inst *limiter.Limiter, scope string, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		result, err := inst.Get(ctx, keyFn(c))
		if err != nil {
			logging.Warn(ctx, "rate limiter store error, failing open", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset, 10))

		if result.Reached {
			metrics.RateLimitExceededTotal.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
