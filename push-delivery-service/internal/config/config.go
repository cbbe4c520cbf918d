package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"decp/pkg/config"
)

type Config struct {
	MQ              config.MQConfig     `yaml:"mq"`
	Redis           config.RedisConfig  `yaml:"redis"`
	Server          config.ServerConfig `yaml:"server"`
	PubSub          config.PubSubConfig `yaml:"pubsub"`
	NotificationURL string              `yaml:"notification_url"`
	AnalyticsURL    string              `yaml:"analytics_url"`
}

func Load() *Config {
	var cfg Config

	if f, err := os.Open("config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("failed to decode config.yaml: %v", err)
		}
	}

	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverridePubSubFromEnv(&cfg.PubSub)
	if url := os.Getenv("NOTIFICATION_SERVICE_URL"); url != "" {
		cfg.NotificationURL = url
	}
	if url := os.Getenv("ANALYTICS_SERVICE_URL"); url != "" {
		cfg.AnalyticsURL = url
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":3009"
	}
	if cfg.PubSub.Project == "" {
		cfg.PubSub.Project = "dummy-project"
	}
	if cfg.NotificationURL == "" {
		cfg.NotificationURL = "http://notification:3007"
	}
	if cfg.AnalyticsURL == "" {
		cfg.AnalyticsURL = "http://analytics:3008"
	}

	return &cfg
}
