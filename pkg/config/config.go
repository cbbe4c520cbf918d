package config

import (
	"os"
	"strconv"
)

// DBConfig holds PostgreSQL connection settings. Pool bounds are optional;
// zero means the service default applies.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// MQConfig holds the broker connection URL.
type MQConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig holds the end-user bearer token secret.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// ServerConfig holds the HTTP listen port.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// PubSubConfig holds the push-delivery contract settings shared by the
// delivery daemon and every push consumer.
type PubSubConfig struct {
	// Project namespaces subscription paths in the push envelope
	// ("projects/<project>/subscriptions/<name>").
	Project string `yaml:"project"`
	// VerificationToken is appended to every push endpoint as ?token=<t>
	// and checked by consumers before processing.
	VerificationToken string `yaml:"verification_token"`
}

// InternalConfig holds the shared secret proving a request came from a trusted
// internal caller (the gateway or a sibling service), distinct from end-user
// bearer tokens.
type InternalConfig struct {
	Secret string `yaml:"secret"`
}

func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
	if maxConns := os.Getenv("DB_MAX_CONNS"); maxConns != "" {
		if n, err := strconv.ParseInt(maxConns, 10, 32); err == nil {
			cfg.MaxConns = int32(n)
		}
	}
	if minConns := os.Getenv("DB_MIN_CONNS"); minConns != "" {
		if n, err := strconv.ParseInt(minConns, 10, 32); err == nil {
			cfg.MinConns = int32(n)
		}
	}
}

func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

func OverrideJWTFromEnv(cfg *JWTConfig) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Secret = secret
	}
}

func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}

func OverridePubSubFromEnv(cfg *PubSubConfig) {
	if project := os.Getenv("PUBSUB_PROJECT"); project != "" {
		cfg.Project = project
	}
	if token := os.Getenv("PUBSUB_VERIFICATION_TOKEN"); token != "" {
		cfg.VerificationToken = token
	}
}

func OverrideInternalFromEnv(cfg *InternalConfig) {
	if secret := os.Getenv("INTERNAL_SERVICE_SECRET"); secret != "" {
		cfg.Secret = secret
	}
}

// GetEnv returns the environment variable value or a default when unset.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
