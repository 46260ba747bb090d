// Package config builds runtime configuration from environment variables so
// main stays lean. Defaults target local development; production overrides
// everything via env.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the top-level runtime configuration.
type Config struct {
	Addr              string
	Postgres          PostgresConfig
	Redis             RedisConfig
	Kafka             KafkaConfig
	JWTSigningKey     string
	FingerprintSecret string
	Admin             Admin
	RateLimit         RateLimitConfig
}

// PostgresConfig captures database connection settings.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// RedisConfig captures Redis connection settings. An empty URL disables Redis
// and the rate limiter falls back to its in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures audit stream settings. Empty brokers disable the Kafka
// producer; audit events are then only persisted locally.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Admin is the injected allow-list of bootstrap administrator emails.
// Accounts authenticating with one of these addresses are granted the admin
// role at token issue time.
type Admin struct {
	Emails []string
}

// IsAdminEmail reports whether the given email is on the bootstrap admin list.
// Comparison is case-insensitive.
func (a Admin) IsAdminEmail(email string) bool {
	for _, candidate := range a.Emails {
		if strings.EqualFold(candidate, email) {
			return true
		}
	}
	return false
}

// RateLimitConfig bounds check-in submissions per client IP.
type RateLimitConfig struct {
	Disabled bool
	Limit    int
	Window   time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr: envOr("ROLLCALL_ADDR", ":8080"),
		Postgres: PostgresConfig{
			URL:          os.Getenv("ROLLCALL_POSTGRES_URL"),
			MaxOpenConns: envIntOr("ROLLCALL_POSTGRES_MAX_OPEN", 20),
			MaxIdleConns: envIntOr("ROLLCALL_POSTGRES_MAX_IDLE", 5),
			ConnLifetime: envDurationOr("ROLLCALL_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("ROLLCALL_REDIS_URL"),
			PoolSize:     envIntOr("ROLLCALL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("ROLLCALL_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDurationOr("ROLLCALL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("ROLLCALL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("ROLLCALL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("ROLLCALL_KAFKA_BROKERS")),
			Topic:   envOr("ROLLCALL_KAFKA_AUDIT_TOPIC", "rollcall.audit"),
		},
		// Defaults are for development only and must be overridden in
		// production.
		JWTSigningKey:     envOr("ROLLCALL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		FingerprintSecret: envOr("ROLLCALL_FINGERPRINT_SECRET", "dev-fingerprint-secret"),
		Admin: Admin{
			Emails: splitNonEmpty(os.Getenv("ROLLCALL_ADMIN_EMAILS")),
		},
		RateLimit: RateLimitConfig{
			Disabled: os.Getenv("ROLLCALL_RATELIMIT_DISABLED") == "true",
			Limit:    envIntOr("ROLLCALL_RATELIMIT_LIMIT", 10),
			Window:   envDurationOr("ROLLCALL_RATELIMIT_WINDOW", time.Minute),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
