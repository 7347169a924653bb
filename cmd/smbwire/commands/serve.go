package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/smbwire/internal/logger"
	"github.com/marmos91/smbwire/pkg/api"
	"github.com/marmos91/smbwire/pkg/dissect"
	"github.com/marmos91/smbwire/pkg/metrics"

	// Registers the Prometheus metric implementations.
	_ "github.com/marmos91/smbwire/pkg/metrics/prometheus"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dissection HTTP API",
	Long: `Run the dissection HTTP API in the foreground until interrupted.

POST a raw message, or JSON {"hex": "..."} / {"base64": "..."}, to
/api/v1/dissect to decode it. Prometheus metrics are exposed at /metrics
when metrics.enabled is set, and on metrics.port as well when it differs
from the API port.

Examples:
  smbwire serve
  smbwire serve --port 9000
  SMBWIRE_METRICS_ENABLED=true smbwire serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override api.port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.API.IsEnabled() {
		return errors.New("the API is disabled (api.enabled: false)")
	}
	if servePort != 0 {
		cfg.API.Port = servePort
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stop, err := startObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()

	var httpMetrics metrics.HTTPMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		httpMetrics = metrics.NewHTTPMetrics()
	}

	logger.Info("smbwire starting",
		logger.Value(Version),
		logger.Reason(fmt.Sprintf("log level %s, format %s", cfg.Logging.Level, cfg.Logging.Format)))

	d := dissect.New(cfg.Dissector, metrics.NewDissectMetrics())
	server := api.NewServer(cfg.API, d, httpMetrics)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	if cfg.Metrics.Enabled && cfg.Metrics.Port != cfg.API.Port {
		g.Go(func() error { return metrics.NewServer(cfg.Metrics.Port).Start(gctx) })
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil {
		logger.Error("server error", logger.Err(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}
