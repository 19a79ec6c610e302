// Package config loads Finecision settings from an optional finecision.yaml,
// FINECISION_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. FINECISION_HTTP_PORT.
const EnvPrefix = "FINECISION"

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds the configuration for the application.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	HTTP struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"http"`
	Store struct {
		Backend string `mapstructure:"backend"`
	} `mapstructure:"store"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		Prefix   string        `mapstructure:"prefix"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Lock struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"lock"`
	Engine struct {
		StepMultiplier int `mapstructure:"step_multiplier"`
		MaxSteps       int `mapstructure:"max_steps"`
	} `mapstructure:"engine"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	Encryption struct {
		// Key is a base64 AES-256 key sealing applicant variables at rest.
		Key          string   `mapstructure:"key"`
		FallbackKeys []string `mapstructure:"fallback_keys"`
	} `mapstructure:"encryption"`
	Workflows struct {
		// Dir holds workflow documents imported into the store at start-up.
		Dir string `mapstructure:"dir"`
	} `mapstructure:"workflows"`
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.port", 8080)
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "finecision:")
	v.SetDefault("redis.ttl", time.Duration(0))
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("engine.step_multiplier", 4)
	v.SetDefault("engine.max_steps", 0)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("encryption.key", "")
	v.SetDefault("encryption.fallback_keys", []string{})
	v.SetDefault("workflows.dir", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file and decodes the merged settings.
// An empty path looks for finecision.yaml in the working directory and
// ./config; a missing file is not an error in that case.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("finecision")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q (want %s or %s)", c.Store.Backend, BackendMemory, BackendRedis)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	if c.Engine.StepMultiplier < 0 || c.Engine.MaxSteps < 0 {
		return errors.New("engine step limits must not be negative")
	}
	if c.Encryption.Key == "" && len(c.Encryption.FallbackKeys) > 0 {
		return errors.New("encryption fallback keys need an active key")
	}
	return nil
}
