// Package config provides configuration management for the Underdog Edge application.
package config

import "time"

// Config represents the complete application configuration
type Config struct {
	App      AppConfig               `mapstructure:"app" validate:"required"`
	Feed     FeedConfig              `mapstructure:"feed" validate:"required"`
	Poll     PollConfig              `mapstructure:"poll" validate:"required"`
	Snapshot SnapshotConfig          `mapstructure:"snapshot"`
	Database DatabaseConfig          `mapstructure:"database"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
	Leagues  map[string]LeagueConfig `mapstructure:"leagues" validate:"required,min=1,dive"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	// Timezone is the fixed reference zone used to decide which events
	// count as "today".
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`
}

// FeedConfig represents the game-odds feed configuration
type FeedConfig struct {
	URL               string  `mapstructure:"url" validate:"required,url"`
	SessionToken      string  `mapstructure:"session_token"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit         float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	CircuitBreakerMax int     `mapstructure:"circuit_breaker_max" validate:"required,gt=0"`
}

// PollConfig represents the underdog-poll feed configuration
type PollConfig struct {
	IDsURL          string `mapstructure:"ids_url" validate:"required,url"`
	ProxyURL        string `mapstructure:"proxy_url" validate:"required,url"`
	APIURL          string `mapstructure:"api_url" validate:"required,url"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
}

// SnapshotConfig controls the odds snapshot artifact the dashboard reads.
type SnapshotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DatabaseConfig represents the optional cycle-history store.
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// LeagueConfig maps a league to its feed id and the bet-type tag used to
// extract prices. Leagues scored with a point total carry the spread-style
// tag and a meaningful line; hockey quotes a pure moneyline.
type LeagueConfig struct {
	ID        int    `mapstructure:"id" validate:"required,gt=0"`
	BetType   string `mapstructure:"bet_type" validate:"required,bettype"`
	HasPoints bool   `mapstructure:"has_points"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// FeedTimeout returns the feed timeout as a duration.
func (c *FeedConfig) FeedTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the poll cache TTL as a duration.
func (c *PollConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// BetTypeTable flattens the league table into leagueID -> config, the form
// the normalizer consumes.
func (c *Config) BetTypeTable() map[int]LeagueConfig {
	table := make(map[int]LeagueConfig, len(c.Leagues))
	for _, lc := range c.Leagues {
		table[lc.ID] = lc
	}
	return table
}

// DefaultLeagues returns the built-in league table. Adding a league is a
// configuration change, not a code change; this is only the fallback when
// the config file carries no leagues section.
func DefaultLeagues() map[string]LeagueConfig {
	return map[string]LeagueConfig{
		"nfl":  {ID: 1, BetType: "bt2", HasPoints: true},
		"cfb":  {ID: 2, BetType: "bt2", HasPoints: true},
		"nba":  {ID: 3, BetType: "bt2", HasPoints: true},
		"cbb":  {ID: 4, BetType: "bt2", HasPoints: true},
		"mlb":  {ID: 5, BetType: "bt2", HasPoints: true},
		"nhl":  {ID: 6, BetType: "bt1", HasPoints: false},
		"wnba": {ID: 7, BetType: "bt2", HasPoints: true},
		"pga":  {ID: 8, BetType: "bt2", HasPoints: true},
	}
}
