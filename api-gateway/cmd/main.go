package main

import (
	"go.uber.org/zap"

	"decp/api-gateway/internal/config"
	"decp/api-gateway/internal/httpserver"
	"decp/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Named(logger.NewLogger(), "api-gateway")
	defer log.Sync()

	router, err := httpserver.NewRouter(cfg, log)
	if err != nil {
		log.Fatal("Failed to build gateway routes", zap.Error(err))
	}

	log.Info("API gateway listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
