package main

import (
	"go.uber.org/zap"

	"decp/pkg/logger"
	"decp/realtime-service/internal/config"
	"decp/realtime-service/internal/httpserver"
	"decp/realtime-service/internal/registry"
)

func main() {
	cfg := config.Load()

	log := logger.Named(logger.NewLogger(), "realtime-service")
	defer log.Sync()

	reg := registry.New(log)

	router := httpserver.NewRouter(reg, cfg.JWT.Secret, cfg.Internal.Secret, log)

	log.Info("Starting realtime-service", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
