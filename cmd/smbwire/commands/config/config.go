// Package config implements the "smbwire config" commands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/smbwire/internal/cli/output"
	"github.com/marmos91/smbwire/pkg/config"
)

// Cmd is the parent of the configuration commands.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long: `Create, validate and inspect the smbwire configuration file.

The default location is $XDG_CONFIG_HOME/smbwire/config.yaml. Use the
global --config flag to work with another file.`,
}

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and SMBWIRE_* environment
overrides have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(showFormat)
		if err != nil {
			return err
		}
		cfg, err := config.Load(configPath(cmd))
		if err != nil {
			return err
		}
		if format == output.FormatTable {
			format = output.FormatYAML
		}
		return output.NewPrinter(cmd.OutOrStdout(), format, false).Print(cfg)
	},
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "output", "o", "yaml", "output format (yaml, json)")

	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(schemaCmd)
}

// configPath returns the global --config flag.
func configPath(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("config")
	return p
}
