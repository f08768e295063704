// Package config builds runtime configuration from environment variables
// so main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"claimtrail/internal/rules"
	"claimtrail/pkg/domain"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
}

// PostgresConfig captures the database connection settings.
type PostgresConfig struct {
	URL string
}

// RedisConfig captures the Redis connection settings. An empty URL means
// Redis is not configured and the service falls back to direct lookups and
// in-process locking.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LookupTTL    time.Duration
	LockTTL      time.Duration
}

// KafkaConfig captures the event stream settings. No brokers means events
// are not published.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ExternalConfig captures the external claim system adapter settings.
type ExternalConfig struct {
	BaseURL       string
	SigningSecret string
	Timeout       time.Duration
}

// RevalidationConfig captures the periodic job settings.
type RevalidationConfig struct {
	Enabled          bool
	Interval         time.Duration
	MaxClaims        int
	EligibleGradings []domain.Grading
}

// Config is the full runtime configuration.
type Config struct {
	Server       Server
	Postgres     PostgresConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	External     ExternalConfig
	Revalidation RevalidationConfig
	Rules        rules.Config
}

// FromEnv builds the configuration from environment variables, with
// development defaults for everything but secrets-adjacent settings.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envString("CLAIMTRAIL_ADDR", ":8080"),
			JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envString("JWT_ISSUER", "claimtrail"),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			LookupTTL:    envDuration("LOOKUP_CACHE_TTL", 10*time.Minute),
			LockTTL:      envDuration("IMPORT_LOCK_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_TOPIC", "claimtrail.events"),
		},
		External: ExternalConfig{
			BaseURL:       os.Getenv("EXTERNAL_SYSTEM_URL"),
			SigningSecret: envString("EXTERNAL_SYSTEM_SECRET", "dev-secret-key-change-in-production"),
			Timeout:       envDuration("EXTERNAL_SYSTEM_TIMEOUT", 15*time.Second),
		},
		Revalidation: RevalidationConfig{
			Enabled:          envString("REVALIDATION_ENABLED", "true") == "true",
			Interval:         envDuration("REVALIDATION_INTERVAL", time.Hour),
			MaxClaims:        envInt("REVALIDATION_MAX_CLAIMS", 500),
			EligibleGradings: envGradings("REVALIDATION_GRADINGS", []domain.Grading{domain.GradingNotFound}),
		},
		Rules: rules.Config{
			MarginEnabled:      envString("RULE_MARGIN_ENABLED", "true") == "true",
			SurplusEnabled:     envString("RULE_SURPLUS_ENABLED", "true") == "true",
			TreatZeroAsMissing: envString("RULE_ZERO_AS_MISSING", "true") == "true",
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// envGradings parses a comma-separated grading list; unknown values fall
// back to the default set rather than silently shrinking the scope.
func envGradings(key string, fallback []domain.Grading) []domain.Grading {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]domain.Grading, 0, len(parts))
	for _, p := range parts {
		grading, err := domain.ParseGrading(strings.TrimSpace(p))
		if err != nil {
			return fallback
		}
		out = append(out, grading)
	}
	return out
}
