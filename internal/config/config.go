// Package config reads the service configuration from COACH_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "COACH"

type StoreBackend string

const (
	StoreRedis  StoreBackend = "redis"
	StoreMemory StoreBackend = "memory"
)

type Config struct {
	StoreBackend  StoreBackend `envconfig:"STORE_BACKEND" default:"redis"`
	RedisAddr     string       `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string       `envconfig:"REDIS_PASSWORD"`
	RedisDB       int          `envconfig:"REDIS_DB" default:"0"`

	PlansTable  string `envconfig:"PLANS_TABLE" required:"true"`
	ParamPrefix string `envconfig:"PARAM_PREFIX" required:"true"`

	ContextLimit     int    `envconfig:"CONTEXT_LIMIT" default:"10"`
	MaxMessageLength int    `envconfig:"MAX_MESSAGE_LENGTH" default:"2000"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StoreBackend = StoreBackend(strings.ToLower(strings.TrimSpace(string(c.StoreBackend))))
	switch c.StoreBackend {
	case StoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("config: %s_REDIS_ADDR is required for the redis store", envPrefix)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("config: REDIS_DB must not be negative, got %d", c.RedisDB)
	}
	if c.ContextLimit <= 0 || c.ContextLimit > 50 {
		return fmt.Errorf("config: CONTEXT_LIMIT must be in 1..50, got %d", c.ContextLimit)
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("config: MAX_MESSAGE_LENGTH must be positive, got %d", c.MaxMessageLength)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	c.ParamPrefix = strings.TrimRight(strings.TrimSpace(c.ParamPrefix), "/")
	return nil
}

// Level maps LOG_LEVEL onto a slog level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return l, nil
}

// ModelParameter names the SSM parameter holding the chat model id.
func (c *Config) ModelParameter() string {
	return c.ParamPrefix + "/config/openai_model"
}
