package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/smbwire/internal/logger"
	"github.com/marmos91/smbwire/internal/telemetry"
	"github.com/marmos91/smbwire/pkg/config"
)

// loadConfig reads the configuration, falling back to defaults when no file
// exists, applies --log-level and initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	if err := logger.Init(cfg.Logging.Logger()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// startObservability starts tracing and profiling when configured. The
// returned function flushes and stops both.
func startObservability(ctx context.Context, cfg *config.Config) (func(), error) {
	traceShutdown, err := telemetry.Init(ctx, cfg.Telemetry.Tracing(Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	profShutdown, err := telemetry.InitProfiling(cfg.Telemetry.ProfilingFor(Version))
	if err != nil {
		_ = traceShutdown(ctx)
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", logger.Remote(cfg.Telemetry.Endpoint))
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", logger.Remote(cfg.Telemetry.Profiling.Endpoint))
	}

	return func() {
		// ctx may already be cancelled; flushing needs its own deadline.
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := traceShutdown(flushCtx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
		if err := profShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}, nil
}
