package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"decp/pkg/config"
)

type Config struct {
	Server   config.ServerConfig   `yaml:"server"`
	JWT      config.JWTConfig      `yaml:"jwt"`
	Internal config.InternalConfig `yaml:"internal"`
}

func Load() *Config {
	var cfg Config

	// config.yaml is optional; env vars alone can configure the service.
	if f, err := os.Open("config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("failed to decode config.yaml: %v", err)
		}
	}

	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideInternalFromEnv(&cfg.Internal)

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":3010"
	}

	return &cfg
}
