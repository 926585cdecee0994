// Package wsapi is the push surface of spec.md §6.2: it upgrades an HTTP
// connection to a websocket and copies a room's subscriber hub onto the
// wire. It is adapted from the teacher's Client (internal/v1/session/
// client.go): the same readPump/writePump goroutine pair and bounded send
// channel, but JSON frames instead of binary protobuf, and a read-only
// stream — this game has no client-initiated WS message, so readPump only
// watches for connection close.
package wsapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/adeyems/wordround/internal/v1/logging"
	"github.com/adeyems/wordround/internal/v1/metrics"
	"github.com/adeyems/wordround/internal/v1/registry"
	"github.com/adeyems/wordround/internal/v1/roomhub"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Server upgrades incoming requests and attaches them to a room's push hub.
type Server struct {
	registry *registry.Registry
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// New builds a Server. allowedOrigins mirrors the control surface's CORS
// allow-list so a browser page served from one of those origins can open
// the socket.
func New(reg *registry.Registry, allowedOrigins []string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Server{
		registry: reg,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Upgrade handles GET /ws/{code}: it looks up the room's actor, subscribes
// to its hub, and upgrades the connection. Matches the signature expected
// by httpapi.Deps.Upgrade.
func (s *Server) Upgrade(c *gin.Context, code string) {
	a, err := s.registry.Get(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	sub := a.Subscribe()
	if sub == nil {
		c.JSON(http.StatusGone, gin.H{"error": "room is no longer available"})
		return
	}

	conn, upgradeErr := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if upgradeErr != nil {
		sub.Unsubscribe()
		logging.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(upgradeErr), zap.String("roomCode", code))
		return
	}

	metrics.IncWebSocketConnections()
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go s.readPump(conn, sub, code)
	go s.writePump(conn, sub, code)
}

// readPump's only job is to notice the connection closed (or the client
// sent something, which is discarded — this stream never accepts client
// commands) so the subscription can be torn down.
func (s *Server) readPump(conn *websocket.Conn, sub *roomhub.Subscription, code string) {
	defer func() {
		sub.Unsubscribe()
		conn.Close()
		metrics.DecWebSocketConnections()
		s.registry.NotifyActivity(code)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the hub subscription onto the wire and sends periodic
// pings, the same discipline as the teacher's writePump.
func (s *Server) writePump(conn *websocket.Conn, sub *roomhub.Subscription, code string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.Messages:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			metrics.WebSocketEventsTotal.WithLabelValues("push").Inc()
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
