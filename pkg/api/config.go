package api

import (
	"time"

	"github.com/marmos91/smbwire/internal/bytesize"
)

// APIConfig configures the dissection HTTP server.
//
// When Enabled is false, `smbwire serve` refuses to start.
type APIConfig struct {
	// Enabled controls whether the API server is started.
	// A pointer distinguishes "not set" (enabled) from an explicit false.
	Enabled *bool `mapstructure:"enabled" yaml:"enabled" json:"enabled,omitempty"`

	// Port is the HTTP port for the API endpoints. Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port"`

	// ReadTimeout bounds reading the entire request. Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout" jsonschema:"type=string"`

	// WriteTimeout bounds writing the response. Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout" jsonschema:"type=string"`

	// IdleTimeout bounds keep-alive idle time. Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout" jsonschema:"type=string"`

	// RequestTimeout bounds handler execution. Default: 30s
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" json:"request_timeout" jsonschema:"type=string"`

	// MaxBodySize caps POST bodies before they reach the dissector. Hex and
	// base64 encodings of a message need more room than the message itself.
	// Default: 32MiB
	MaxBodySize bytesize.ByteSize `mapstructure:"max_body_size" yaml:"max_body_size" json:"max_body_size"`
}

// IsEnabled returns whether the API server is enabled.
func (c *APIConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// ApplyDefaults fills in zero values.
func (c *APIConfig) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.MaxBodySize == 0 {
		c.MaxBodySize = 32 * bytesize.MiB
	}
}
