package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeyems/wordround/internal/v1/config"
)

func newTestLimiter(t *testing.T) *Limiter {
	cfg := &config.Config{
		RateLimitRooms:  "3-M",
		RateLimitJoin:   "3-M",
		RateLimitSubmit: "3-M",
	}
	l, err := New(cfg, nil)
	require.NoError(t, err)
	return l
}

func TestRoomsMiddleware_AllowsThenBlocksByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := newTestLimiter(t)

	r := gin.New()
	r.POST("/api/rooms", l.RoomsMiddleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusCreated, resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestJoinMiddleware_ScopedPerRoom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := newTestLimiter(t)

	r := gin.New()
	r.POST("/api/rooms/:code/join", l.JoinMiddleware(), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	// Room A exhausts its limit.
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/rooms/AAAA11/join", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusAccepted, resp.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/AAAA11/join", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	// Room B is unaffected by room A's limit.
	req = httptest.NewRequest(http.MethodPost, "/api/rooms/BBBB22/join", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusAccepted, resp.Code)
}

func TestNew_UsesRedisStoreWhenProvided(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rc.Close() }()

	cfg := &config.Config{RateLimitRooms: "5-M", RateLimitJoin: "5-M", RateLimitSubmit: "5-M"}
	l, err := New(cfg, rc)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNew_InvalidRateIsRejected(t *testing.T) {
	cfg := &config.Config{RateLimitRooms: "not-a-rate", RateLimitJoin: "5-M", RateLimitSubmit: "5-M"}
	_, err := New(cfg, nil)
	assert.Error(t, err)
}
