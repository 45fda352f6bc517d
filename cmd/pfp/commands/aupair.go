package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pfp/pkg/aupair"
	"github.com/Sumatoshi-tech/pfp/pkg/pfpio"
)

// AuPairCommand holds the flags for the aupair command: a post-pass that
// contracts an already-built dictionary/parse pair by merging trigger
// strings into their neighboring phrases, within a byte budget (spec.md
// §4.7).
type AuPairCommand struct {
	inputPrefix  string
	outputPrefix string
	window       int
	budget       int
	compressed   bool

	silent bool
}

// NewAuPairCommand creates and configures the aupair command.
func NewAuPairCommand() *cobra.Command {
	ac := &AuPairCommand{}

	cobraCmd := &cobra.Command{
		Use:   "aupair",
		Short: "Contract an existing dictionary/parse pair with the AuPair trigger-removal pass",
		RunE:  ac.Run,
	}

	flags := cobraCmd.Flags()
	flags.StringVar(&ac.inputPrefix, "input", "", "prefix of the existing .dict/.dicz and .parse files")
	flags.StringVar(&ac.outputPrefix, "output", "", "prefix for the contracted .n_dict and .n_parse files")
	flags.IntVar(&ac.window, "w", 0, "trigger window size, matching the input's build window")
	flags.IntVar(&ac.budget, "budget", 0, "maximum bytes of trigger strings to remove (0: unbounded)")
	flags.BoolVar(&ac.compressed, "compressed", false, "read .dicz/.dicz.len instead of .dict")
	flags.BoolVar(&ac.silent, "silent", false, "suppress progress output")

	return cobraCmd
}

// Run executes the aupair command.
func (ac *AuPairCommand) Run(cmd *cobra.Command, _ []string) error {
	silent := isSilent(cmd, ac.silent)
	out := cmd.OutOrStdout()

	if ac.inputPrefix == "" || ac.outputPrefix == "" {
		return newUsageError(fmt.Errorf("both --input and --output are required"))
	}

	if ac.window <= 0 {
		return newUsageError(fmt.Errorf("--w must be a positive window size"))
	}

	progressf(silent, out, "reading %s", ac.inputPrefix)

	phrases, err := ac.readDict()
	if err != nil {
		return NewFatalError(FatalKindDecode, err)
	}

	ranks, err := ac.readParse()
	if err != nil {
		return NewFatalError(FatalKindDecode, err)
	}

	contractor := aupair.NewContractor(ac.window, phrases, ranks)

	budget := ac.budget
	if budget <= 0 {
		budget = int(^uint(0) >> 1)
	}

	progressf(silent, out, "contracting with budget %s bytes", humanize.Comma(int64(ac.budget)))

	result, err := contractor.Contract(budget)
	if err != nil {
		return NewFatalError(FatalKindInvariant, fmt.Errorf("contract: %w", err))
	}

	if err := ac.writeResult(result); err != nil {
		return NewFatalError(FatalKindIOFailure, err)
	}

	progressf(silent, out, "removed %s distinct triggers, %s bytes; %d phrases remain",
		humanize.Comma(int64(len(result.RemovedTrigger))), humanize.Comma(int64(result.RemovedBytes)), len(result.Dict))

	return nil
}

func (ac *AuPairCommand) readDict() ([][]byte, error) {
	if ac.compressed {
		dicz, err := os.Open(ac.inputPrefix + ".dicz") //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("open .dicz: %w", err)
		}
		defer dicz.Close() //nolint:errcheck

		lens, err := os.Open(ac.inputPrefix + ".dicz.len") //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("open .dicz.len: %w", err)
		}
		defer lens.Close() //nolint:errcheck

		phrases, err := pfpio.ReadDictz(dicz, lens)
		if err != nil {
			return nil, fmt.Errorf("read .dicz: %w", err)
		}

		return phrases, nil
	}

	f, err := os.Open(ac.inputPrefix + ".dict") //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open .dict: %w", err)
	}
	defer f.Close() //nolint:errcheck

	phrases, err := pfpio.ReadDict(f)
	if err != nil {
		return nil, fmt.Errorf("read .dict: %w", err)
	}

	return phrases, nil
}

func (ac *AuPairCommand) readParse() ([]uint32, error) {
	f, err := os.Open(ac.inputPrefix + ".parse") //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open .parse: %w", err)
	}
	defer f.Close() //nolint:errcheck

	ranks, err := pfpio.ReadParse(f)
	if err != nil {
		return nil, fmt.Errorf("read .parse: %w", err)
	}

	return ranks, nil
}

// writeResult writes the contracted dictionary and parse as .n_dict and
// .n_parse, kept distinct from .dict/.parse so a contracted output never
// silently overwrites the pre-contraction pair it was built from.
func (ac *AuPairCommand) writeResult(result *aupair.Result) error {
	dictFile, err := os.Create(ac.outputPrefix + ".n_dict") //nolint:gosec
	if err != nil {
		return fmt.Errorf("create .n_dict: %w", err)
	}
	defer dictFile.Close() //nolint:errcheck

	if err := pfpio.WriteDict(dictFile, result.Dict); err != nil {
		return fmt.Errorf("write .n_dict: %w", err)
	}

	parseFile, err := os.Create(ac.outputPrefix + ".n_parse") //nolint:gosec
	if err != nil {
		return fmt.Errorf("create .n_parse: %w", err)
	}
	defer parseFile.Close() //nolint:errcheck

	if err := pfpio.WriteParse(parseFile, result.Parse); err != nil {
		return fmt.Errorf("write .n_parse: %w", err)
	}

	return nil
}
