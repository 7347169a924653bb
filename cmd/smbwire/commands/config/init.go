package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbwire/internal/cli/prompt"
	"github.com/marmos91/smbwire/pkg/config"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to $XDG_CONFIG_HOME/smbwire/config.yaml,
or to the path given with --config.

Examples:
  smbwire config init
  smbwire config init --interactive
  smbwire config init --config /etc/smbwire/config.yaml --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file without asking")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "ask for the main settings")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	force := initForce
	if _, err := os.Stat(path); err == nil && !force {
		ok, err := prompt.Confirm(fmt.Sprintf("%s exists. Overwrite", path), false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
		force = true
	}

	cfg := config.GetDefaultConfig()
	if initInteractive {
		if err := ask(cfg); err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Edit the configuration file to customize your setup")
	fmt.Fprintln(out, "  2. Check it with: smbwire config validate")
	fmt.Fprintln(out, "  3. Start the API with: smbwire serve")
	return nil
}

// ask fills the settings people change most often.
func ask(cfg *config.Config) error {
	var err error
	levels := []prompt.SelectOption{
		{Label: "DEBUG", Value: "DEBUG", Description: "every decoded layer and field"},
		{Label: "INFO", Value: "INFO", Description: "one line per dissection or request"},
		{Label: "WARN", Value: "WARN", Description: "truncated or rejected input"},
		{Label: "ERROR", Value: "ERROR", Description: "failures only"},
	}
	if cfg.Logging.Level, err = prompt.Select("Log level", levels, cfg.Logging.Level); err != nil {
		return err
	}
	formats := []prompt.SelectOption{
		{Label: "text", Value: "text", Description: "key=value lines"},
		{Label: "json", Value: "json", Description: "one JSON object per line"},
	}
	if cfg.Logging.Format, err = prompt.Select("Log format", formats, cfg.Logging.Format); err != nil {
		return err
	}
	if cfg.API.Port, err = prompt.InputPort("API port", cfg.API.Port); err != nil {
		return err
	}
	if cfg.Dissector.MaxMessageSize, err = prompt.InputByteSize("Maximum message size", cfg.Dissector.MaxMessageSize); err != nil {
		return err
	}
	metrics, err := prompt.Confirm("Enable Prometheus metrics", false)
	if err != nil {
		return err
	}
	cfg.Metrics.Enabled = metrics
	config.ApplyDefaults(cfg)
	return nil
}
