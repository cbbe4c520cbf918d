package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"decp/pkg/util"
	"decp/realtime-service/internal/registry"
)

const (
	// writeWait is the maximum time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// pongWait is the maximum time to wait for a pong reply from the peer.
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize is the maximum inbound message size in bytes. Clients
	// only receive on this socket; inbound traffic is pings and closes.
	maxMessageSize = 1024
	// sendBufferSize bounds the per-session outbound queue.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin enforcement happens at the gateway; the realtime service
	// is not directly reachable from browsers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is one live WebSocket connection owned by one user.
type session struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger
}

// Send queues a frame for the write pump. A session whose buffer is full drops
// the frame; fan-out must never block on a slow client.
func (s *session) Send(frame []byte) {
	select {
	case s.send <- frame:
	default:
		s.logger.Warn("Dropping frame for slow session",
			zap.String("session_id", s.id),
			zap.String("user_id", s.userID),
		)
	}
}

// WSHandler authenticates and upgrades incoming WebSocket connections and
// hands the resulting sessions to the registry.
type WSHandler struct {
	reg       *registry.Registry
	jwtSecret string
	logger    *zap.Logger
}

func NewWSHandler(reg *registry.Registry, jwtSecret string, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		reg:       reg,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Serve handles the streaming handshake. The bearer token is verified before
// the upgrade; an invalid or missing token rejects the handshake and no
// session is ever created. There is no fallback to anonymous sessions.
func (h *WSHandler) Serve(c *gin.Context) {
	token := util.ExtractToken(c.Request)
	if token == "" {
		c.JSON(401, gin.H{"success": false, "error": "Authentication required"})
		return
	}

	userID, _, err := util.ParseJWT(token, h.jwtSecret)
	if err != nil {
		c.JSON(401, gin.H{"success": false, "error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		return
	}

	s := &session{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: h.logger,
	}

	h.reg.Register(userID, s.id, s)

	go s.writePump()
	go s.readPump(h.reg)
}

// readPump drains inbound traffic to keep the connection's control handling
// alive and detects disconnects. It owns unregistration: whatever ends the
// connection (client close, network failure), the session leaves the registry.
func (s *session) readPump(reg *registry.Registry) {
	// The send channel is never closed: a fan-out may have snapshotted this
	// session just before unregistration and still call Send. Closing the
	// connection is what stops the write pump.
	defer func() {
		reg.Unregister(s.userID, s.id)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Session read error",
					zap.String("session_id", s.id),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// writePump pushes queued frames to the peer and keeps it alive with pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
