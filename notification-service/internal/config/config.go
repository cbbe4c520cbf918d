package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"decp/pkg/config"
)

type Config struct {
	DB          config.DBConfig       `yaml:"db"`
	Redis       config.RedisConfig    `yaml:"redis"`
	Server      config.ServerConfig   `yaml:"server"`
	PubSub      config.PubSubConfig   `yaml:"pubsub"`
	Internal    config.InternalConfig `yaml:"internal"`
	RealtimeURL string                `yaml:"realtime_url"`
}

func Load() *Config {
	var cfg Config

	if f, err := os.Open("config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("failed to decode config.yaml: %v", err)
		}
	}

	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverridePubSubFromEnv(&cfg.PubSub)
	config.OverrideInternalFromEnv(&cfg.Internal)
	if url := os.Getenv("REALTIME_SERVICE_URL"); url != "" {
		cfg.RealtimeURL = url
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":3007"
	}
	if cfg.RealtimeURL == "" {
		cfg.RealtimeURL = "http://realtime:3010"
	}

	return &cfg
}
