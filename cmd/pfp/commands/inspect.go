package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pfp/pkg/pfpio"
)

// InspectCommand holds the flags for the inspect command: a read-only
// summary over an already-built output set, for spot-checking a run
// without reprocessing any input.
type InspectCommand struct {
	prefix string
}

// NewInspectCommand creates and configures the inspect command.
func NewInspectCommand() *cobra.Command {
	ic := &InspectCommand{}

	cobraCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize an existing output set without reprocessing any input",
		RunE:  ic.Run,
	}

	cobraCmd.Flags().StringVar(&ic.prefix, "input", "", "prefix of an existing output set")

	return cobraCmd
}

// Run executes the inspect command.
func (ic *InspectCommand) Run(cmd *cobra.Command, _ []string) error {
	if ic.prefix == "" {
		return newUsageError(fmt.Errorf("--input is required"))
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.OutOrStdout())
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Present", "Detail"})

	phrases, dictErr := ic.inspectDict()
	tbl.AppendRow(table.Row{".dict/.dicz", dictErr == nil, dictDetail(phrases, dictErr)})

	ranks, parseErr := ic.inspectParse()
	tbl.AppendRow(table.Row{".parse", parseErr == nil, parseDetail(ranks, parseErr)})

	occ, occErr := ic.inspectOcc()
	tbl.AppendRow(table.Row{".occ", occErr == nil, occDetail(occ, occErr)})

	lidx, lidxErr := ic.inspectLidx()
	tbl.AppendRow(table.Row{".lidx", lidxErr == nil, lidxDetail(lidx, lidxErr)})

	tbl.Render()

	return nil
}

func (ic *InspectCommand) inspectDict() ([][]byte, error) {
	f, err := os.Open(ic.prefix + ".dict") //nolint:gosec
	if err != nil {
		dicz, diczErr := os.Open(ic.prefix + ".dicz") //nolint:gosec
		if diczErr != nil {
			return nil, fmt.Errorf("neither .dict nor .dicz found: %w", err)
		}
		defer dicz.Close() //nolint:errcheck

		lens, lensErr := os.Open(ic.prefix + ".dicz.len") //nolint:gosec
		if lensErr != nil {
			return nil, fmt.Errorf("open .dicz.len: %w", lensErr)
		}
		defer lens.Close() //nolint:errcheck

		return pfpio.ReadDictz(dicz, lens)
	}
	defer f.Close() //nolint:errcheck

	return pfpio.ReadDict(f)
}

func (ic *InspectCommand) inspectParse() ([]uint32, error) {
	f, err := os.Open(ic.prefix + ".parse") //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	return pfpio.ReadParse(f)
}

func (ic *InspectCommand) inspectOcc() ([]uint64, error) {
	f, err := os.Open(ic.prefix + ".occ") //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	return pfpio.ReadOcc(f)
}

func (ic *InspectCommand) inspectLidx() ([]pfpio.LengthEntry, error) {
	f, err := os.Open(ic.prefix + ".lidx") //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	return pfpio.ReadLidx(f)
}

func dictDetail(phrases [][]byte, err error) string {
	if err != nil {
		return err.Error()
	}

	total := 0
	for _, p := range phrases {
		total += len(p)
	}

	return fmt.Sprintf("%s phrases, %s bytes", humanize.Comma(int64(len(phrases))), humanize.Comma(int64(total)))
}

func parseDetail(ranks []uint32, err error) string {
	if err != nil {
		return err.Error()
	}

	return fmt.Sprintf("%s tokens", humanize.Comma(int64(len(ranks))))
}

func occDetail(counts []uint64, err error) string {
	if err != nil {
		return err.Error()
	}

	var total uint64
	for _, c := range counts {
		total += c
	}

	return fmt.Sprintf("%s ranks, %s total occurrences", humanize.Comma(int64(len(counts))), humanize.Comma(int64(total))) //nolint:gosec
}

func lidxDetail(entries []pfpio.LengthEntry, err error) string {
	if err != nil {
		return err.Error()
	}

	return fmt.Sprintf("%s units", humanize.Comma(int64(len(entries))))
}
