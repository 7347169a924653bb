package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"lower-case level", func(c *Config) { c.Logging.Level = "debug" }, ""},
		{"unknown level", func(c *Config) { c.Logging.Level = "TRACE" }, "Logging.Level: failed 'oneof'"},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, "Logging.Format: failed 'oneof'"},
		{"api port", func(c *Config) { c.API.Port = 65536 }, "API.Port: failed 'max' (65535)"},
		{"metrics port", func(c *Config) { c.Metrics.Port = -1 }, "Metrics.Port: failed 'min' (1)"},
		{"sample rate", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "Telemetry.SampleRate: failed 'lte' (1)"},
		{"telemetry endpoint", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = ""
		}, "Telemetry.Endpoint: failed 'required_if'"},
		{"profile type", func(c *Config) {
			c.Telemetry.Profiling.ProfileTypes = []string{"cpu", "heap"}
		}, "Telemetry.Profiling.ProfileTypes[1]: failed 'oneof'"},
		{"dissector depth", func(c *Config) { c.Dissector.MaxDepth = -1 }, "Dissector.MaxDepth"},
		{"shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, "ShutdownTimeout: failed 'required'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"
	cfg.API.Port = 0
	cfg.Metrics.Port = 100000

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Logging.Format")
	assert.Contains(t, err.Error(), "Metrics.Port")
	assert.NotContains(t, err.Error(), "API.Port", "zero port means default")
}
