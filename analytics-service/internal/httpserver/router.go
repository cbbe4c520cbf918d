package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"decp/analytics-service/internal/handler"
	"decp/pkg/metrics"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	pushHandler *handler.PushHandler,
	metricsHandler *handler.MetricsHandler,
	internalSecret string,
	db *pgxpool.Pool,
) *Router {
	r := gin.Default()
	r.Use(metrics.RequestDuration())

	// Broker push endpoint, guarded by the pub/sub verification token.
	r.POST("/pubsub/push", pushHandler.HandlePush)

	// Admin metrics API, reached through the gateway only.
	api := r.Group("/api/v1/analytics")
	api.Use(InternalAuth(internalSecret))
	{
		api.GET("/metrics", metricsHandler.GetMetrics)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "analytics-service"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
