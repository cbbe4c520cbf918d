package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricReader lists all counters.
type MetricReader interface {
	All(ctx context.Context) (map[string]int64, error)
}

// MetricsHandler serves the admin-only metrics read API. Role comes from the
// trusted x-user-role header the gateway injects.
type MetricsHandler struct {
	store  MetricReader
	logger *zap.Logger
}

func NewMetricsHandler(store MetricReader, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		store:  store,
		logger: logger,
	}
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	if c.GetHeader("x-user-role") != "admin" {
		c.JSON(403, gin.H{"success": false, "error": "Forbidden: Admins only"})
		return
	}

	result, err := h.store.All(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to fetch metrics", zap.Error(err))
		c.JSON(500, gin.H{"success": false, "error": "Internal Server Error"})
		return
	}

	c.JSON(200, gin.H{"success": true, "data": result})
}
