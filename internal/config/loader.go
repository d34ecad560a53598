// Package config provides configuration management for the Underdog Edge application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "UNDERDOG_EDGE"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional
// fields; a missing config file is not an error.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "underdog-edge")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.timezone", "America/New_York")
	v.SetDefault("feed.url", "https://content.unabated.com/markets/game-odds/b_gameodds.json")
	v.SetDefault("feed.timeout_seconds", 5)
	v.SetDefault("feed.max_retries", 3)
	v.SetDefault("feed.rate_limit", 5.0)
	v.SetDefault("feed.circuit_breaker_max", 5)
	v.SetDefault("poll.ids_url", "https://dotd-ids.tomfconreal.workers.dev/")
	v.SetDefault("poll.proxy_url", "https://dotd.tomfconreal.workers.dev/")
	v.SetDefault("poll.api_url", "https://api.real.vg/polls")
	v.SetDefault("poll.timeout_seconds", 5)
	v.SetDefault("poll.cache_ttl_seconds", 600)
	v.SetDefault("snapshot.enabled", true)
	v.SetDefault("snapshot.path", "odds.json")
	v.SetDefault("metrics.path", "/metrics")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	// viper cannot default a nested map wholesale; fall back in code.
	if len(cfg.Leagues) == 0 {
		cfg.Leagues = DefaultLeagues()
	}
	return cfg, nil
}
