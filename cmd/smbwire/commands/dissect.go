package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbwire/internal/cli/output"
	"github.com/marmos91/smbwire/internal/logger"
	"github.com/marmos91/smbwire/pkg/bufpool"
	"github.com/marmos91/smbwire/pkg/dissect"
	"github.com/marmos91/smbwire/pkg/metrics"
)

var (
	dissectLayer  string
	dissectFormat string
	dissectHex    bool
)

var dissectCmd = &cobra.Command{
	Use:   "dissect [file|-]",
	Short: "Decode a captured message layer by layer",
	Long: `Decode one captured message and print every layer found in it.

The input is read from the file argument, or from stdin when the argument is
"-" or missing. With --hex the input is hexadecimal text; whitespace is
ignored. The outermost layer is detected unless --layer names it.

Examples:
  # Decode a NetBIOS session frame saved from a capture
  smbwire dissect session.bin

  # Decode an NTLM message given as hex
  echo 4e544c4d5353500001000000... | smbwire dissect --hex --layer ntlm

  # Machine-readable output
  smbwire dissect --output json datagram.bin --layer netbios_datagram`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDissect,
}

func init() {
	names := make([]string, len(dissect.Layers))
	for i, l := range dissect.Layers {
		names[i] = string(l)
	}
	dissectCmd.Flags().StringVarP(&dissectLayer, "layer", "l", "auto", "outermost layer: "+strings.Join(names, ", "))
	dissectCmd.Flags().StringVarP(&dissectFormat, "output", "o", "table", "output format (table, json, yaml)")
	dissectCmd.Flags().BoolVar(&dissectHex, "hex", false, "input is hexadecimal text")
	_ = dissectCmd.RegisterFlagCompletionFunc("layer", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

func runDissect(cmd *cobra.Command, args []string) error {
	layer, err := dissect.ParseLayer(dissectLayer)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(dissectFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source := "stdin"
	if len(args) == 1 && args[0] != "-" {
		source = args[0]
	}
	data, err := readInput(cmd.InOrStdin(), source, int64(cfg.Dissector.MaxMessageSize))
	if err != nil {
		return err
	}
	defer bufpool.Put(data)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stop, err := startObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()

	ctx = logger.WithContext(ctx, logger.NewLogContext(source))
	d := dissect.New(cfg.Dissector, metrics.NewDissectMetrics())
	res, err := d.Dissect(ctx, data, layer)
	if err != nil {
		return err
	}

	p := output.NewPrinter(cmd.OutOrStdout(), format, false)
	if err := p.Print(reportView{dissect.NewReport(res)}); err != nil {
		return err
	}
	if res.Err != nil {
		output.NewPrinter(cmd.ErrOrStderr(), format, false).Warning(
			fmt.Sprintf("dissection %s: %v", res.Outcome, res.Err))
	}
	return nil
}

// readInput reads at most limit bytes of message from source. Hex input may
// be up to twice as long plus whitespace, so the limit applies after
// decoding. The result comes from bufpool.
func readInput(stdin io.Reader, source string, limit int64) ([]byte, error) {
	r := stdin
	if source != "stdin" {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	readLimit := limit + 1
	if dissectHex {
		readLimit = 3*limit + 1
	}
	raw, err := bufpool.ReadAll(io.LimitReader(r, readLimit), readLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if dissectHex {
		text := raw
		raw, err = hex.DecodeString(strings.Join(strings.Fields(string(text)), ""))
		bufpool.Put(text)
		if err != nil {
			return nil, fmt.Errorf("invalid hex input: %w", err)
		}
	}
	if int64(len(raw)) > limit {
		bufpool.Put(raw)
		return nil, fmt.Errorf("%w (%d bytes)", dissect.ErrTooLarge, limit)
	}
	return raw, nil
}

// reportView renders a report as one titled table per layer.
type reportView struct {
	*dissect.Report
}

func (v reportView) Sections() []output.Section {
	sections := make([]output.Section, 0, len(v.Layers)+1)
	for _, l := range v.Layers {
		title := fmt.Sprintf("%s[%d] %s  offset=%d length=%d", strings.Repeat("  ", l.Depth), l.Depth, l.Name, l.Offset, l.Length)
		if l.Summary != "" {
			title += "  " + l.Summary
		}
		if len(l.Names) > 0 {
			title += "  names=" + strings.Join(l.Names, ",")
		}
		var table *output.TableData
		if len(l.Fields) > 0 {
			table = output.NewTableData("Field", "Type", "Value")
			for _, f := range l.Fields {
				table.AddRow(f.Field, f.Type, f.Value)
			}
			sections = append(sections, output.Section{Title: title, Table: table})
			continue
		}
		sections = append(sections, output.Section{Title: title})
	}
	return sections
}
