package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"decp/pkg/config"
)

type RateLimitConfig struct {
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"max_requests"`
}

type Config struct {
	Server         config.ServerConfig   `yaml:"server"`
	JWT            config.JWTConfig      `yaml:"jwt"`
	Internal       config.InternalConfig `yaml:"internal"`
	RateLimit      RateLimitConfig       `yaml:"rate_limit"`
	AllowedOrigins []string              `yaml:"allowed_origins"`

	// Upstream service URLs. An empty URL means the prefix is not routed.
	AuthURL         string `yaml:"auth_url"`
	UserURL         string `yaml:"user_url"`
	FeedURL         string `yaml:"feed_url"`
	JobURL          string `yaml:"job_url"`
	EventURL        string `yaml:"event_url"`
	MessagingURL    string `yaml:"messaging_url"`
	ResearchURL     string `yaml:"research_url"`
	NotificationURL string `yaml:"notification_url"`
	AnalyticsURL    string `yaml:"analytics_url"`
	RealtimeURL     string `yaml:"realtime_url"`
}

func Load() *Config {
	var cfg Config

	if f, err := os.Open("config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("failed to decode config.yaml: %v", err)
		}
	}

	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideInternalFromEnv(&cfg.Internal)

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}

	overrideURL := func(env string, dst *string) {
		if url := os.Getenv(env); url != "" {
			*dst = url
		}
	}
	overrideURL("AUTH_SERVICE_URL", &cfg.AuthURL)
	overrideURL("USER_SERVICE_URL", &cfg.UserURL)
	overrideURL("FEED_SERVICE_URL", &cfg.FeedURL)
	overrideURL("JOB_SERVICE_URL", &cfg.JobURL)
	overrideURL("EVENT_SERVICE_URL", &cfg.EventURL)
	overrideURL("MESSAGING_SERVICE_URL", &cfg.MessagingURL)
	overrideURL("RESEARCH_SERVICE_URL", &cfg.ResearchURL)
	overrideURL("NOTIFICATION_SERVICE_URL", &cfg.NotificationURL)
	overrideURL("ANALYTICS_SERVICE_URL", &cfg.AnalyticsURL)
	overrideURL("REALTIME_SERVICE_URL", &cfg.RealtimeURL)

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":3000"
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = 15 * time.Minute
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 200
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:5173"}
	}

	return &cfg
}
