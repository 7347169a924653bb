// Package commands implements the smbwire command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/smbwire/cmd/smbwire/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "smbwire",
	Short: "smbwire - SMB, NetBIOS and NTLM message dissector",
	Long: `smbwire decodes captured Windows networking messages layer by layer:
NetBIOS session and datagram frames, SMB and SMB2 headers and bodies, the
browser protocol, SPNEGO tokens, NTLMSSP messages and LLMNR queries.

Use "smbwire [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/smbwire/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(dissectCmd)
	rootCmd.AddCommand(schemasCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
