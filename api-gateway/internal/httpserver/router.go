package httpserver

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"decp/api-gateway/internal/config"
	"decp/api-gateway/internal/proxy"
	"decp/pkg/metrics"
)

type Router struct {
	engine *gin.Engine
	logger *zap.Logger
}

func NewRouter(cfg *config.Config, log *zap.Logger) (*Router, error) {
	r := gin.Default()

	r.Use(metrics.RequestDuration())
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(RateLimit(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "api-gateway"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The realtime upgrade path is registered first and bypasses gateway auth:
	// the realtime service verifies the token itself during the WebSocket
	// handshake, before upgrading the connection.
	if cfg.RealtimeURL != "" {
		h, err := proxy.NewServiceProxy(cfg.RealtimeURL, log)
		if err != nil {
			return nil, err
		}
		r.Any("/realtime/*any", h)
	}

	// Login/registration cannot present a bearer token yet, so the auth
	// prefix only gets the internal secret stamped on.
	if cfg.AuthURL != "" {
		h, err := proxy.NewServiceProxy(cfg.AuthURL, log)
		if err != nil {
			return nil, err
		}
		mount(r, "/api/v1/auth", h, InjectInternal(cfg.Internal.Secret))
	}

	authRequired := Auth(cfg.JWT.Secret, cfg.Internal.Secret)
	protected := []struct {
		prefix string
		target string
	}{
		{"/api/v1/users", cfg.UserURL},
		{"/api/v1/feed", cfg.FeedURL},
		{"/api/v1/jobs", cfg.JobURL},
		{"/api/v1/events", cfg.EventURL},
		{"/api/v1/messages", cfg.MessagingURL},
		{"/api/v1/research", cfg.ResearchURL},
		{"/api/v1/notifications", cfg.NotificationURL},
		{"/api/v1/analytics", cfg.AnalyticsURL},
	}
	for _, route := range protected {
		if route.target == "" {
			log.Warn("Skipping unrouted prefix", zap.String("prefix", route.prefix))
			continue
		}
		h, err := proxy.NewServiceProxy(route.target, log)
		if err != nil {
			return nil, err
		}
		mount(r, route.prefix, h, authRequired)
	}

	return &Router{engine: r, logger: log}, nil
}

// mount registers both the bare prefix and everything beneath it.
func mount(r *gin.Engine, prefix string, h gin.HandlerFunc, middleware ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, middleware...), h)
	r.Any(prefix, handlers...)
	r.Any(prefix+"/*any", handlers...)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
