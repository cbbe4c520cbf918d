package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"decp/notification-service/internal/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// NotificationReader serves the recipient-facing read/ack paths.
type NotificationReader interface {
	ListByRecipient(ctx context.Context, recipientID string, cursor int64, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id int64, recipientID string) (*model.Notification, error)
}

// NotificationHandler serves the REST API behind the gateway. Identity comes
// from the trusted x-user-id header the gateway injects; the internal-token
// middleware has already established the request came through the gateway.
type NotificationHandler struct {
	store  NotificationReader
	logger *zap.Logger
}

func NewNotificationHandler(store NotificationReader, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		store:  store,
		logger: logger,
	}
}

// List returns the caller's notifications, newest first, with cursor
// pagination keyed on the last id.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetHeader("x-user-id")
	if userID == "" {
		c.JSON(401, gin.H{"success": false, "error": "Unauthorized: No user info"})
		return
	}

	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPageSize {
			c.JSON(400, gin.H{"success": false, "error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	var cursor int64
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			c.JSON(400, gin.H{"success": false, "error": "Invalid cursor"})
			return
		}
		cursor = parsed
	}

	// Fetch one extra row to learn whether another page exists.
	items, err := h.store.ListByRecipient(c.Request.Context(), userID, cursor, limit+1)
	if err != nil {
		h.logger.Error("Failed to list notifications",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(500, gin.H{"success": false, "error": "Internal Server Error"})
		return
	}

	var nextCursor *int64
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1].ID
		nextCursor = &last
	}

	c.JSON(200, gin.H{
		"success":    true,
		"data":       items,
		"nextCursor": nextCursor,
	})
}

// MarkRead marks one notification read, scoped to the caller's recipientId.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetHeader("x-user-id")
	if userID == "" {
		c.JSON(401, gin.H{"success": false, "error": "Unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(400, gin.H{"success": false, "error": "Invalid notification id"})
		return
	}

	notif, err := h.store.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		h.logger.Error("Failed to mark notification read",
			zap.Int64("id", id),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(500, gin.H{"success": false, "error": "Internal Server Error"})
		return
	}
	if notif == nil {
		c.JSON(404, gin.H{"success": false, "error": "Notification not found"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": notif})
}
