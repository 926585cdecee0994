// Package config validates the environment/flag-bound configuration for
// the word-round server. It keeps the teacher's "validate once at startup,
// fail fast with every error collected" shape (internal/v1/config in the
// teacher repo) but reads from a *viper.Viper instance the CLI entrypoint
// has already bound to flags, environment variables, and an optional
// .env file, instead of calling os.Getenv directly.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds validated runtime configuration for cmd/server.
type Config struct {
	Port string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	LogLevel        string
	DevelopmentMode bool
	AllowedOrigins  []string

	RoomCleanupGrace time.Duration

	RateLimitRooms  string
	RateLimitJoin   string
	RateLimitSubmit string
}

// FromViper validates v's bound values and returns a Config, collecting
// every validation failure instead of stopping at the first one.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	var errs []string

	cfg.Port = v.GetString("port")
	if cfg.Port == "" {
		errs = append(errs, "port is required")
	} else if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("port must be between 1 and 65535 (got '%s')", cfg.Port))
	}

	cfg.RedisEnabled = v.GetBool("redis-enabled")
	if cfg.RedisEnabled {
		cfg.RedisAddr = v.GetString("redis-addr")
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = "localhost:6379"
		} else if !isValidHostPort(cfg.RedisAddr) {
			errs = append(errs, fmt.Sprintf("redis-addr must be in format 'host:port' (got '%s')", cfg.RedisAddr))
		}
		cfg.RedisPassword = v.GetString("redis-password")
	}

	cfg.LogLevel = v.GetString("log-level")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.DevelopmentMode = v.GetBool("development")

	origins := v.GetString("allowed-origins")
	if origins == "" {
		origins = "http://localhost:3000"
	}
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	grace := v.GetDuration("room-cleanup-grace")
	if grace <= 0 {
		grace = 5 * time.Second
	}
	cfg.RoomCleanupGrace = grace

	cfg.RateLimitRooms = getOrDefault(v, "rate-limit-rooms", "30-M")
	cfg.RateLimitJoin = getOrDefault(v, "rate-limit-join", "60-M")
	cfg.RateLimitSubmit = getOrDefault(v, "rate-limit-submit", "120-M")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// LogFields renders cfg as zap fields for a one-line startup log, with any
// secret redacted.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("port", c.Port),
		zap.Bool("redisEnabled", c.RedisEnabled),
		zap.String("redisAddr", c.RedisAddr),
		zap.String("logLevel", c.LogLevel),
		zap.Bool("developmentMode", c.DevelopmentMode),
		zap.Strings("allowedOrigins", c.AllowedOrigins),
		zap.Duration("roomCleanupGrace", c.RoomCleanupGrace),
	}
}

func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 || parts[0] == "" {
		return false
	}
	port, err := strconv.Atoi(parts[1])
	return err == nil && port >= 1 && port <= 65535
}

func getOrDefault(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}
