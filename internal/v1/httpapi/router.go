// Package httpapi is the control surface of spec.md §6.1: gin handlers
// translating JSON request bodies into room-actor commands. It follows the
// teacher's middleware order (internal/v1/session cmd/v1/session/main.go):
// gin.Recovery(), CorrelationID(), CORS, then rate limiting.
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/adeyems/wordround/internal/v1/health"
	"github.com/adeyems/wordround/internal/v1/middleware"
	"github.com/adeyems/wordround/internal/v1/ratelimit"
	"github.com/adeyems/wordround/internal/v1/registry"
)

// Deps bundles everything the router needs to wire handlers.
type Deps struct {
	Registry    *registry.Registry
	Limiter     *ratelimit.Limiter
	Health      *health.Handler
	AllowOrigins []string
	Upgrade     func(c *gin.Context, code string)
}

// NewRouter builds the gin.Engine serving the control surface, the push
// surface upgrade, /metrics, and /healthz, all on one port
// (SPEC_FULL.md §1 "Process model").
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CorrelationID())

	corsCfg := cors.Config{
		AllowOrigins:     deps.AllowOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.HeaderXCorrelationID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))

	h := &handlers{registry: deps.Registry}

	r.GET("/healthz", deps.Health.Readiness)
	r.GET("/healthz/live", deps.Health.Liveness)

	api := r.Group("/api/rooms")
	{
		api.POST("", withLimiter(deps.Limiter.RoomsMiddleware()), h.createRoom)
		api.GET("/:code", h.getSnapshot)
		api.POST("/:code/join", withLimiter(deps.Limiter.JoinMiddleware()), h.submitJoin)
		api.POST("/:code/admissions", h.reviewJoin)
		api.POST("/:code/start", h.startGame)
		api.POST("/:code/call", h.callNumber)
		api.POST("/:code/draft", h.updateDraft)
		api.POST("/:code/submit", withLimiter(deps.Limiter.SubmitMiddleware()), h.submitAnswers)
		api.POST("/:code/end", h.endRoundEarly)
		api.POST("/:code/score", h.scoreSubmission)
		api.POST("/:code/publish", h.publishRound)
		api.POST("/:code/discard", h.discardRound)
		api.POST("/:code/cancel", h.cancelGame)
		api.POST("/:code/finish", h.endGame)
	}

	if deps.Upgrade != nil {
		r.GET("/ws/:code", func(c *gin.Context) {
			code, err := normalizeCode(c.Param("code"))
			if err != nil {
				writeError(c, err)
				return
			}
			deps.Upgrade(c, code)
		})
	}

	return r
}

// withLimiter is a passthrough that simply documents, at the call site,
// which middleware guards a given route; a nil handler is replaced by one
// that just calls c.Next(). It does not cover a nil *ratelimit.Limiter:
// the route's middleware is obtained from the Limiter before it gets here.
func withLimiter(mw gin.HandlerFunc) gin.HandlerFunc {
	if mw == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return mw
}
