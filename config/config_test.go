package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "grok-beta", cfg.Completion.Model)
	assert.Equal(t, 500, cfg.Completion.MaxTokens)
	assert.Equal(t, "Moderate", cfg.Weather.RiskTier)
	assert.Contains(t, cfg.Weather.Advisories["Moderate"], "Prepare emergency kit")
}

func TestLoadOverridesDefaults(t *testing.T) {
	yaml := `
server:
  port: 9090
completion:
  provider: stub
weather:
  risk_tier: High
`
	cfg, err := Load(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "stub", cfg.Completion.Provider)
	assert.Equal(t, "High", cfg.Weather.RiskTier)

	// Untouched fields keep their defaults
	assert.Equal(t, "grok-beta", cfg.Completion.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_API_KEY", "key-from-env")

	yaml := `
completion:
  api_key: ${TEST_API_KEY}
  model: ${TEST_MODEL:-grok-beta}
`
	cfg, err := Load(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.Completion.APIKey)
	assert.Equal(t, "grok-beta", cfg.Completion.Model)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	_, err := Load(strings.NewReader("completion: ["))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "invalid port",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			want:   "invalid port",
		},
		{
			name:   "unknown provider",
			mutate: func(c *Config) { c.Completion.Provider = "carrier-pigeon" },
			want:   "invalid completion provider",
		},
		{
			name:   "empty endpoint for http provider",
			mutate: func(c *Config) { c.Completion.Endpoint = "" },
			want:   "empty completion endpoint",
		},
		{
			name:   "empty model",
			mutate: func(c *Config) { c.Completion.Model = "" },
			want:   "empty completion model",
		},
		{
			name:   "risk tier without advisory",
			mutate: func(c *Config) { c.Weather.RiskTier = "Apocalyptic" },
			want:   "no advisory configured",
		},
		{
			name:   "invalid log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			want:   "invalid log level",
		},
		{
			name:   "invalid log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			want:   "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStaticWatcher(t *testing.T) {
	cfg := DefaultConfig()
	w := NewStaticWatcher(cfg)

	assert.Same(t, cfg, w.GetCurrentConfig())
	require.NoError(t, w.Close())

	select {
	case <-w.Subscribe():
		t.Fatal("static watcher must never deliver updates")
	default:
	}
}
