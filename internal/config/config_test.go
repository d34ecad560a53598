package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
app:
  name: underdog-edge
  environment: development
  log_level: debug
  timezone: America/New_York
feed:
  url: https://content.example.com/markets/game-odds/b_gameodds.json
  session_token: ${UNDERDOG_EDGE_TEST_TOKEN}
  timeout_seconds: 5
  max_retries: 3
  rate_limit: 5.0
  circuit_breaker_max: 5
poll:
  ids_url: https://ids.example.com/
  proxy_url: https://proxy.example.com/
  api_url: https://api.example.com/polls
  timeout_seconds: 5
  cache_ttl_seconds: 600
snapshot:
  enabled: true
  path: odds.json
leagues:
  nhl:
    id: 6
    bet_type: bt1
  nba:
    id: 3
    bet_type: bt2
    has_points: true
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("UNDERDOG_EDGE_TEST_TOKEN", "tok-42")

	cfg, err := Load(writeTestConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "tok-42", cfg.Feed.SessionToken)
	assert.Equal(t, "America/New_York", cfg.App.Timezone)
	require.NoError(t, Validate(cfg))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadWithDefaultsFallsBackToBuiltinLeagues(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Len(t, cfg.Leagues, 8)
	assert.Equal(t, "bt1", cfg.Leagues["nhl"].BetType, "hockey has no spread bet type")
	assert.Equal(t, "bt2", cfg.Leagues["nba"].BetType)
	assert.True(t, cfg.Leagues["nba"].HasPoints)
	assert.Equal(t, 600, cfg.Poll.CacheTTLSeconds)
}

func TestBetTypeTable(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, testConfigYAML))
	require.NoError(t, err)

	table := cfg.BetTypeTable()
	assert.Equal(t, "bt1", table[6].BetType)
	assert.False(t, table[6].HasPoints)
	assert.Equal(t, "bt2", table[3].BetType)
	assert.True(t, table[3].HasPoints)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad environment", func(c *Config) { c.App.Environment = "prod" }},
		{"bad log level", func(c *Config) { c.App.LogLevel = "verbose" }},
		{"bad timezone", func(c *Config) { c.App.Timezone = "Mars/Olympus" }},
		{"bad bet type tag", func(c *Config) {
			lc := c.Leagues["nhl"]
			lc.BetType = "moneyline"
			c.Leagues["nhl"] = lc
		}},
		{"duplicate league id", func(c *Config) {
			lc := c.Leagues["nba"]
			lc.ID = 6
			c.Leagues["nba"] = lc
		}},
		{"database enabled without host", func(c *Config) { c.Database.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTestConfig(t, testConfigYAML))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
