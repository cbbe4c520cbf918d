package httpserver

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"decp/pkg/metrics"
	"decp/realtime-service/internal/registry"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	reg *registry.Registry,
	jwtSecret string,
	internalSecret string,
	logger *zap.Logger,
) *Router {
	r := gin.Default()
	r.Use(metrics.RequestDuration())

	wsHandler := NewWSHandler(reg, jwtSecret, logger)
	emitHandler := NewEmitHandler(reg, internalSecret, logger)

	// Streaming handshake. The gateway forwards the raw upgrade on the
	// /realtime prefix; auth happens here, at handshake time.
	r.GET("/realtime/ws", wsHandler.Serve)

	// Internal cross-service delivery endpoint.
	r.POST("/emit", emitHandler.Emit)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":         "ok",
			"service":        "realtime-service",
			"connectedUsers": reg.ConnectedUsers(),
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
