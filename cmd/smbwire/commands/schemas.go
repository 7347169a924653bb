package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbwire/internal/cli/output"
	"github.com/marmos91/smbwire/pkg/binstruct"
	"github.com/marmos91/smbwire/pkg/dissect"
)

var schemasFormat string

var schemasCmd = &cobra.Command{
	Use:   "schemas [name]",
	Short: "List registered message schemas or describe one",
	Long: `Without arguments, list every registered message schema. With a name,
print the schema's fields and the default values of a new instance.

Examples:
  smbwire schemas
  smbwire schemas smb2_session_setup_request
  smbwire schemas ntlm_authenticate -o yaml`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return binstruct.DefaultRegistry.Names(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runSchemas,
}

func init() {
	schemasCmd.Flags().StringVarP(&schemasFormat, "output", "o", "table", "output format (table, json, yaml)")
}

func runSchemas(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(schemasFormat)
	if err != nil {
		return err
	}
	p := output.NewPrinter(cmd.OutOrStdout(), format, false)

	if len(args) == 0 {
		names := binstruct.DefaultRegistry.Names()
		if format != output.FormatTable {
			return p.Print(names)
		}
		table := output.NewTableData("Schema")
		for _, n := range names {
			table.AddRow(n)
		}
		return p.Print(table)
	}

	schema, ok := binstruct.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown schema %q (run \"smbwire schemas\" for the list)", args[0])
	}
	if format != output.FormatTable {
		return p.Print(dissect.DescribeSchema(schema))
	}
	return binstruct.Inspect(cmd.OutOrStdout(), schema.New())
}
