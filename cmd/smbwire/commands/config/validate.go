package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbwire/internal/cli/output"
	"github.com/marmos91/smbwire/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Check the configuration file for syntax errors and invalid values.

Examples:
  smbwire config validate
  smbwire config validate --config /etc/smbwire/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Metrics.Enabled && !cfg.API.IsEnabled() && cfg.Metrics.Port == cfg.API.Port {
		warnings = append(warnings, "metrics.port equals api.port while the API is disabled")
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.SampleRate == 0 {
		warnings = append(warnings, "telemetry is enabled with a sample rate of 0")
	}
	if int64(cfg.API.MaxBodySize) < int64(cfg.Dissector.MaxMessageSize) {
		warnings = append(warnings, "api.max_body_size is smaller than dissector.max_message_size")
	}

	out := cmd.OutOrStdout()
	p := output.NewPrinter(out, output.FormatTable, false)
	fmt.Fprintf(out, "Configuration file: %s\n", path)
	p.Success("Validation: OK")

	if len(warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	fmt.Fprintln(out, "\nConfiguration summary:")
	return output.SimpleTable(out, [][2]string{
		{"Log level", cfg.Logging.Level},
		{"API port", fmt.Sprint(cfg.API.Port)},
		{"Max message size", cfg.Dissector.MaxMessageSize.String()},
		{"Max depth", fmt.Sprint(cfg.Dissector.MaxDepth)},
		{"Metrics", fmt.Sprint(cfg.Metrics.Enabled)},
		{"Telemetry", fmt.Sprint(cfg.Telemetry.Enabled)},
	})
}
