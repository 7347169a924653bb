package telemetry

// Config selects the OTLP trace exporter. Tracing is off unless Enabled is
// set; spans are then started per dissected layer and per API request.
type Config struct {
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	ServiceName    string  `mapstructure:"service_name" yaml:"service_name" json:"service_name,omitempty"`
	ServiceVersion string  `mapstructure:"service_version" yaml:"service_version" json:"service_version,omitempty"`
	Endpoint       string  `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint" json:"endpoint,omitempty"`
	Insecure       bool    `mapstructure:"insecure" yaml:"insecure" json:"insecure"`
	SampleRate     float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate" json:"sample_rate"`
}

// ProfilingConfig selects the Pyroscope continuous profiler.
type ProfilingConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	ServiceName    string `mapstructure:"service_name" yaml:"service_name" json:"service_name,omitempty"`
	ServiceVersion string `mapstructure:"service_version" yaml:"service_version" json:"service_version,omitempty"`
	Endpoint       string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint" json:"endpoint,omitempty"`
	// ProfileTypes lists cpu, alloc_objects, alloc_space, inuse_objects,
	// inuse_space, goroutines, mutex_count, mutex_duration, block_count or
	// block_duration.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types" json:"profile_types,omitempty"`
}

// DefaultServiceName names the service in traces and profiles.
const DefaultServiceName = "smbwire"

// DefaultConfig returns tracing disabled, pointed at a local collector.
func DefaultConfig() Config {
	return Config{
		ServiceName:    DefaultServiceName,
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// DefaultProfilingConfig returns profiling disabled with CPU and heap
// profiles selected.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		ServiceName:    DefaultServiceName,
		ServiceVersion: "dev",
		Endpoint:       "http://localhost:4040",
		ProfileTypes:   []string{"cpu", "alloc_space", "inuse_space"},
	}
}
