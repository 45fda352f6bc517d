// Command pfp builds a prefix-free parse pangenome representation from a
// reference FASTA and a cohort VCF.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pfp/cmd/pfp/commands"
	"github.com/Sumatoshi-tech/pfp/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pfp",
		Short: "Prefix-free parse pangenome construction",
		Long: `pfp builds a dictionary and parse over a cohort of haplotypes against a
shared reference, using a Karp-Rabin content-defined chunking scheme.

Commands:
  build    Run the full pipeline: ingest, reference pre-parse, sample parse, write output
  aupair   Contract an existing dictionary/parse pair with the AuPair trigger-removal pass
  inspect  Summarize an existing output set without reprocessing any input`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewAuPairCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCodeForError(err))
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "pfp %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
