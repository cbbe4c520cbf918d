package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"decp/pkg/logger"
	"decp/pkg/metrics"
	"decp/pkg/mq"
	"decp/pkg/pubsub"
	"decp/pkg/redis"
	"decp/pkg/util"
	"decp/push-delivery-service/internal/config"
	"decp/push-delivery-service/internal/delivery"
)

const retryCounterTTL = time.Hour

func main() {
	cfg := config.Load()

	log := logger.Named(logger.NewLogger(), "push-delivery-service")
	defer log.Sync()

	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	retries := util.NewRetryCounter(rdb, retryCounterTTL)

	// Provision the standing topology and start one pusher per subscription.
	// Binding is idempotent: re-running against existing queues succeeds.
	subs := pubsub.DefaultSubscriptions(cfg.NotificationURL, cfg.AnalyticsURL)
	consumers := make([]*mq.Consumer, 0, len(subs))

	for _, sub := range subs {
		consumer, err := mq.NewConsumer(cfg.MQ.URL, sub.Name, sub.Topic, log)
		if err != nil {
			log.Fatal("Failed to bind subscription",
				zap.String("subscription", sub.Name),
				zap.String("topic", sub.Topic),
				zap.Error(err),
			)
		}

		pusher := delivery.NewPusher(sub, cfg.PubSub.Project, cfg.PubSub.VerificationToken, retries, log)
		consumer.SetHandler(pusher.Deliver)
		consumers = append(consumers, consumer)

		go func(sub pubsub.Subscription, c *mq.Consumer) {
			log.Info("Starting push delivery",
				zap.String("subscription", sub.Name),
				zap.String("topic", sub.Topic),
				zap.String("endpoint", sub.PushEndpoint),
			)
			if err := c.StartConsuming(); err != nil {
				log.Fatal("Push delivery consumer failed",
					zap.String("subscription", sub.Name),
					zap.Error(err),
				)
			}
		}(sub, consumer)
	}

	log.Info("Pub/Sub topology initialized",
		zap.Int("subscriptions", len(subs)),
	)

	// Health/metrics server.
	r := gin.Default()
	r.Use(metrics.RequestDuration())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "push-delivery-service"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	go func() {
		if err := r.Run(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down push-delivery-service gracefully...")
	for _, c := range consumers {
		c.Stop()
		c.Close()
	}
	log.Info("push-delivery-service shutdown complete")
}
