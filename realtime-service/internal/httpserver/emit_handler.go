package httpserver

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"decp/pkg/metrics"
	"decp/realtime-service/internal/registry"
)

// EmitHandler serves the internal /emit endpoint other services call to push
// an event to a user's live sessions. It is guarded by the internal service
// secret, never by end-user tokens.
type EmitHandler struct {
	reg            *registry.Registry
	internalSecret string
	logger         *zap.Logger
}

func NewEmitHandler(reg *registry.Registry, internalSecret string, logger *zap.Logger) *EmitHandler {
	return &EmitHandler{
		reg:            reg,
		internalSecret: internalSecret,
		logger:         logger,
	}
}

type emitRequest struct {
	UserID  string `json:"userId"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func (h *EmitHandler) Emit(c *gin.Context) {
	if c.GetHeader("x-internal-token") != h.internalSecret {
		c.JSON(403, gin.H{"success": false, "error": "Unauthorized"})
		return
	}

	var req emitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if req.UserID == "" || req.Event == "" || req.Payload == nil {
		c.JSON(400, gin.H{"success": false, "error": "Missing userId, event, or payload"})
		return
	}

	delivered, sessionCount := h.reg.EmitToUser(req.UserID, req.Event, req.Payload)
	metrics.RealtimeEmits.WithLabelValues(strconv.FormatBool(delivered)).Inc()

	c.JSON(200, gin.H{
		"success":               true,
		"delivered":             delivered,
		"connectedSessionCount": sessionCount,
	})
}
