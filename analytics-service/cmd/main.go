package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"decp/analytics-service/internal/config"
	"decp/analytics-service/internal/handler"
	"decp/analytics-service/internal/httpserver"
	"decp/analytics-service/internal/repository"
	"decp/pkg/db"
	"decp/pkg/logger"
	"decp/pkg/redis"
	"decp/pkg/util"
)

const dedupTTL = 24 * time.Hour

func main() {
	cfg := config.Load()

	log := logger.Named(logger.NewLogger(), "analytics-service")
	defer log.Sync()

	log.Info("Starting analytics-service...", zap.String("db_host", cfg.DB.Host))

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	metricRepo := repository.NewMetricRepository(dbConn, log)
	deduper := util.NewDeduper(rdb, dedupTTL, log)

	pushHandler := handler.NewPushHandler(cfg.PubSub.VerificationToken, metricRepo, deduper, log)
	metricsHandler := handler.NewMetricsHandler(metricRepo, log)

	router := httpserver.NewRouter(pushHandler, metricsHandler, cfg.Internal.Secret, dbConn)
	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down analytics-service gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("analytics-service shutdown complete")
}
