// Package commands provides CLI command implementations for pfp.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pfp/internal/config"
	"github.com/Sumatoshi-tech/pfp/internal/ingest"
	"github.com/Sumatoshi-tech/pfp/internal/lifting"
	"github.com/Sumatoshi-tech/pfp/internal/observability"
	"github.com/Sumatoshi-tech/pfp/pkg/dictionary"
	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
	"github.com/Sumatoshi-tech/pfp/pkg/parser"
	"github.com/Sumatoshi-tech/pfp/pkg/pfpio"
	"github.com/Sumatoshi-tech/pfp/pkg/refparse"
)

// BuildCommand holds the flags for the build command: the pipeline that
// ingests a reference and a cohort VCF, pre-parses the reference,
// parses every sample haplotype against it, and writes the full output
// set (spec.md §§4.4-4.6).
type BuildCommand struct {
	configPath    string
	refPath       string
	vcfPath       string
	allowListPath string

	window             int
	modulus            int
	workers            int
	useAcceleration    bool
	computeOccurrences bool
	reportLengths      bool
	computeLifting     bool
	compressDictionary bool
	maxSamples         int
	outputPrefix       string

	silent bool
}

// NewBuildCommand creates and configures the build command.
func NewBuildCommand() *cobra.Command {
	bc := &BuildCommand{}

	cobraCmd := &cobra.Command{
		Use:   "build",
		Short: "Build a PFP dictionary and parse from a reference and a cohort VCF",
		RunE:  bc.Run,
	}

	flags := cobraCmd.Flags()
	flags.StringVar(&bc.configPath, "config", "", "path to a pfp.yaml configuration file")
	flags.StringVar(&bc.refPath, "reference", "", "path to the reference FASTA (optionally gzipped)")
	flags.StringVar(&bc.vcfPath, "vcf", "", "path to the cohort VCF")
	flags.StringVar(&bc.allowListPath, "samples", "", "optional file restricting processing to a named subset of samples")

	flags.IntVar(&bc.window, "w", 0, "trigger window size (unset: use config default)")
	flags.IntVar(&bc.modulus, "p", 0, "rolling-hash trigger modulus (unset: use config default)")
	flags.IntVar(&bc.workers, "workers", 0, "number of sample-parsing workers (unset: use config default)")
	flags.BoolVar(&bc.useAcceleration, "use_acceleration", true, "copy reference phrase runs instead of re-hashing them")
	flags.BoolVar(&bc.computeOccurrences, "compute_occurrences", false, "write the .occ occurrence-count file")
	flags.BoolVar(&bc.reportLengths, "report_lengths", false, "write the .lidx per-unit length file")
	flags.BoolVar(&bc.computeLifting, "compute_lifting", false, "write a .ldx lifting index per sample haplotype")
	flags.BoolVar(&bc.compressDictionary, "compress_dictionary", false,
		"write the .dicz/.dicz.len compressed dictionary instead of .dict")
	flags.IntVar(&bc.maxSamples, "max_samples", 0, "cap the number of samples taken from the VCF (unset: use config default)")
	flags.StringVar(&bc.outputPrefix, "output", "", "output file prefix (unset: use config default)")
	flags.BoolVar(&bc.silent, "silent", false, "suppress progress output")

	return cobraCmd
}

// Run executes the build command end to end.
func (bc *BuildCommand) Run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(bc.configPath, nil)
	if err != nil {
		return newUsageError(fmt.Errorf("load configuration: %w", err))
	}

	bc.applyOverrides(cmd, cfg)

	providers, err := observability.Init(observabilityConfig(cmd))
	if err != nil {
		return newUsageError(fmt.Errorf("init observability: %w", err))
	}

	defer func() {
		_ = providers.Shutdown(context.Background())
	}()

	silent := isSilent(cmd, bc.silent)
	out := cmd.OutOrStdout()

	allowList, err := loadAllowList(bc.allowListPath)
	if err != nil {
		return newUsageError(err)
	}

	counters := observability.NewErrorCounters()

	progressf(silent, out, "reading reference %s", bc.refPath)

	contigs, err := ingest.ReadFASTA(bc.refPath)
	if err != nil {
		return NewFatalError(FatalKindDecode, fmt.Errorf("read reference: %w", err))
	}

	contigMap := make(map[string]*pangenome.ReferenceContig, len(contigs))
	for _, c := range contigs {
		contigMap[c.Name] = c
	}

	progressf(silent, out, "reading variants %s", bc.vcfPath)

	samples, err := ingest.ReadVCF(bc.vcfPath, contigMap, ingest.VCFOptions{
		AllowList:  allowList,
		MaxSamples: cfg.MaxSamples,
		Counters:   counters,
		Logger:     providers.Logger,
	})
	if err != nil {
		return NewFatalError(FatalKindDecode, fmt.Errorf("read variants: %w", err))
	}

	ploidy := normalizeSamplePloidy(samples)

	progressf(silent, out, "dictionary: %d contigs, %d samples, ploidy %d", len(contigs), len(samples), ploidy)

	dict, err := dictionary.New(estimatePhraseCount(contigs, samples))
	if err != nil {
		return NewFatalError(FatalKindInvariant, fmt.Errorf("create dictionary: %w", err))
	}

	refParser := refparse.New(cfg.Window, dict)
	for i, c := range contigs {
		if err := refParser.ParseContig(c); err != nil {
			return NewFatalError(FatalKindInvariant, fmt.Errorf("reference pre-parse %q: %w", c.Name, err))
		}

		progressf(silent, out, "reference pre-parse %d/%d: %s", i+1, len(contigs), c.Name)
	}

	if err := refParser.Close(len(samples) > 0); err != nil {
		return NewFatalError(FatalKindInvariant, fmt.Errorf("close reference pre-parse: %w", err))
	}

	windowCache := refparse.NewWindowCache(cfg.Window, int64(cfg.BufferSize))

	sampleParser := parser.New(
		cfg.Window, dict, contigs, refParser.Contigs, windowCache, ploidy, len(samples), cfg.UseAcceleration,
		cfg.SpillCompression, cfg.BufferSize,
	)

	if err := bc.runWorkers(sampleParser, samples, cfg.Workers, counters, providers, silent, out); err != nil {
		return NewFatalError(FatalKindInvariant, err)
	}

	finalResults, err := sampleParser.Close()
	if err != nil {
		return NewFatalError(FatalKindInvariant, err)
	}

	if err := bc.writeOutputs(cfg, dict, refParser, finalResults, samples, ploidy, providers); err != nil {
		return NewFatalError(FatalKindIOFailure, err)
	}

	printSummary(out, cfg, counters, len(samples), dict.Size())

	return nil
}

// applyOverrides copies any explicitly-set build flags onto cfg. Flags
// are applied manually, checked via Changed, rather than routed through
// config.Load's viper/pflag binding: several of these flags (w, p,
// workers, max_samples) have no valid zero value, so a bound-but-unset
// flag's zero default would otherwise outrank config.Load's own
// defaults in viper's precedence order.
func (bc *BuildCommand) applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("w") {
		cfg.Window = bc.window
	}

	if flags.Changed("p") {
		cfg.Modulus = bc.modulus
	}

	if flags.Changed("workers") {
		cfg.Workers = bc.workers
	}

	if flags.Changed("max_samples") {
		cfg.MaxSamples = bc.maxSamples
	}

	if flags.Changed("output") {
		cfg.OutputPrefix = bc.outputPrefix
	}

	if flags.Changed("use_acceleration") {
		cfg.UseAcceleration = bc.useAcceleration
	}

	if flags.Changed("compute_occurrences") {
		cfg.ComputeOccurrences = bc.computeOccurrences
	}

	if flags.Changed("report_lengths") {
		cfg.ReportLengths = bc.reportLengths
	}

	if flags.Changed("compute_lifting") {
		cfg.ComputeLifting = bc.computeLifting
	}

	if flags.Changed("compress_dictionary") {
		cfg.CompressDictionary = bc.compressDictionary
	}
}

// runWorkers drives cfg.Workers goroutines over samples through a shared
// job channel, mirroring the teacher's startWorkers/jobs-channel pattern
// (internal/framework/uast_pipeline.go) rather than a library scheduler.
func (bc *BuildCommand) runWorkers(
	p *parser.Parser,
	samples []pangenome.Sample,
	workers int,
	counters *observability.ErrorCounters,
	providers observability.Providers,
	silent bool,
	out io.Writer,
) error {
	type job struct {
		sample pangenome.Sample
		index  int
	}

	jobs := make(chan job)

	var (
		wg       sync.WaitGroup
		firstErr error
		mu       sync.Mutex
		done     int
	)

	wg.Add(workers)

	for range workers {
		w := p.RegisterWorker()

		go func() {
			defer wg.Done()

			for j := range jobs {
				start := time.Now()

				if err := w.Parse(j.sample, j.index); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					counters.Record(observability.ErrorKindInvariant)

					continue
				}

				providers.Metrics.RecordSampleCompleted(context.Background(), time.Since(start))

				mu.Lock()
				done++
				n := done
				mu.Unlock()

				progressf(silent, out, "parsed sample %d/%d: %s", n, len(samples), j.sample.ID)
			}
		}()
	}

	for i, s := range samples {
		jobs <- job{sample: s, index: i}
	}

	close(jobs)
	wg.Wait()

	return firstErr
}

// writeOutputs remaps every SampleResult's strong-hash ids through the
// finalized dictionary's rank table and writes the full `.dict`/`.dicz`/
// `.parse`/`.occ`/`.lidx`/`.ldx` output set (spec.md §4.6).
func (bc *BuildCommand) writeOutputs(
	cfg *config.Config,
	dict *dictionary.Dictionary,
	refParser *refparse.Parser,
	results []parser.SampleResult,
	samples []pangenome.Sample,
	ploidy int,
	providers observability.Providers,
) error {
	phrases := dict.SortedPhrases()

	if cfg.CompressDictionary {
		if err := writeDictz(cfg.OutputPrefix, phrases); err != nil {
			return err
		}
	} else if err := writeDict(cfg.OutputPrefix, phrases); err != nil {
		return err
	}

	ranks, lengths, err := remapParse(dict, refParser.ParseIDs, refParser.Contigs, results)
	if err != nil {
		return err
	}

	if err := writeParseFile(cfg.OutputPrefix, ranks); err != nil {
		return err
	}

	if cfg.ComputeOccurrences {
		if err := writeOccFile(cfg.OutputPrefix, dict); err != nil {
			return err
		}
	}

	if cfg.ReportLengths {
		if err := writeLidxFile(cfg.OutputPrefix, lengths); err != nil {
			return err
		}
	}

	if cfg.ComputeLifting {
		if err := writeLiftingFiles(cfg.OutputPrefix, samples, ploidy); err != nil {
			return err
		}
	}

	providers.Metrics.RecordBytesParsed(context.Background(), int64(len(ranks))*4) //nolint:gosec // ranks length is process-bounded

	return nil
}

// remapParse concatenates the reference parse and every sample result's
// parse, in that order, translating each strong-hash id to its
// finalized dictionary rank, and builds the matching per-unit
// LengthEntry table for .lidx.
func remapParse(
	dict *dictionary.Dictionary,
	refIDs []uint64,
	refContigs []*refparse.ContigParse,
	results []parser.SampleResult,
) ([]uint32, []pfpio.LengthEntry, error) {
	var (
		ranks   []uint32
		lengths []pfpio.LengthEntry
	)

	for _, id := range refIDs {
		rank, ok := dict.RankOf(id)
		if !ok {
			return nil, nil, fmt.Errorf("remap: unknown reference phrase id %#x", id)
		}

		ranks = append(ranks, rank)
	}

	for _, cp := range refContigs {
		lengths = append(lengths, pfpio.LengthEntry{Name: cp.Name, Length: sumInts(cp.PhraseLens)})
	}

	for _, res := range results {
		total := 0

		for i, id := range res.IDs {
			rank, ok := dict.RankOf(id)
			if !ok {
				return nil, nil, fmt.Errorf("remap: unknown sample phrase id %#x for %s", id, res.SampleID)
			}

			ranks = append(ranks, rank)
			total += res.Lens[i]
		}

		lengths = append(lengths, pfpio.LengthEntry{Name: res.SampleID, Length: total})
	}

	return ranks, lengths, nil
}

func sumInts(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}

	return total
}

// estimatePhraseCount gives dictionary.New a rough pre-sizing hint: the
// total input bytes divided by the expected average phrase length
// (a small multiple of the trigger window, the rolling hash's typical
// cut spacing).
func estimatePhraseCount(contigs []*pangenome.ReferenceContig, samples []pangenome.Sample) uint {
	total := 0
	for _, c := range contigs {
		total += len(c.Bases)
	}

	for i := range samples {
		for _, inst := range samples[i].Contigs {
			total += len(inst.Contig.Bases)
		}
	}

	const avgPhraseLen = 32

	return uint(total/avgPhraseLen) + 1 //nolint:gosec // total is process-bounded
}

// normalizeSamplePloidy picks the cohort-wide ploidy pkg/parser.Parser
// requires as a single value (every sample is walked for the same
// number of ploidy slots in one run), then pads any sample genotype
// vector shorter than that — e.g. a haploid sex-chromosome contig
// alongside diploid autosomes — with trailing reference (0) alleles, per
// SPEC_FULL.md's ploidy-beyond-diploid supplement.
func normalizeSamplePloidy(samples []pangenome.Sample) int {
	ploidy := 1

	for i := range samples {
		for _, inst := range samples[i].Contigs {
			for _, g := range inst.Genotype {
				if len(g) > ploidy {
					ploidy = len(g)
				}
			}
		}
	}

	for i := range samples {
		for j, inst := range samples[i].Contigs {
			for k, g := range inst.Genotype {
				if len(g) < ploidy {
					padded := make([]int, ploidy)
					copy(padded, g)
					samples[i].Contigs[j].Genotype[k] = padded
				}
			}
		}
	}

	return ploidy
}

// loadAllowList reads path as a pangenome.AllowList, or returns nil
// (meaning "allow every sample") if path is empty.
func loadAllowList(path string) (*pangenome.AllowList, error) {
	if path == "" {
		return nil, nil //nolint:nilnil // nil AllowList is a documented "allow all" sentinel
	}

	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open allow-list %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	allow, err := pangenome.LoadAllowList(f)
	if err != nil {
		return nil, fmt.Errorf("parse allow-list %q: %w", path, err)
	}

	return allow, nil
}

func writeLiftingFiles(prefix string, samples []pangenome.Sample, ploidy int) error {
	for _, s := range samples {
		for ploidyIdx := 0; ploidyIdx < ploidy; ploidyIdx++ {
			idx := lifting.BuildIndex(s, ploidyIdx)

			path := fmt.Sprintf("%s.%s.p%d.ldx", prefix, s.ID, ploidyIdx)

			if err := writeLdxFile(path, idx); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeLdxFile(path string, idx *pfpio.LiftingIndex) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	err = pfpio.WriteLdx(f, idx)
	closeErr := f.Close()

	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	return nil
}

func writeDict(prefix string, phrases [][]byte) error {
	f, err := os.Create(prefix + ".dict") //nolint:gosec
	if err != nil {
		return fmt.Errorf("create .dict: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := pfpio.WriteDict(f, phrases); err != nil {
		return fmt.Errorf("write .dict: %w", err)
	}

	return nil
}

func writeDictz(prefix string, phrases [][]byte) error {
	dicz, err := os.Create(prefix + ".dicz") //nolint:gosec
	if err != nil {
		return fmt.Errorf("create .dicz: %w", err)
	}
	defer dicz.Close() //nolint:errcheck

	lens, err := os.Create(prefix + ".dicz.len") //nolint:gosec
	if err != nil {
		return fmt.Errorf("create .dicz.len: %w", err)
	}
	defer lens.Close() //nolint:errcheck

	if err := pfpio.WriteDictz(dicz, lens, phrases); err != nil {
		return fmt.Errorf("write .dicz: %w", err)
	}

	return nil
}

func writeParseFile(prefix string, ranks []uint32) error {
	f, err := os.Create(prefix + ".parse") //nolint:gosec
	if err != nil {
		return fmt.Errorf("create .parse: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := pfpio.WriteParse(f, ranks); err != nil {
		return fmt.Errorf("write .parse: %w", err)
	}

	return nil
}

func writeOccFile(prefix string, dict *dictionary.Dictionary) error {
	counts := make([]uint64, dict.Size())

	for rank := uint32(1); rank <= uint32(dict.Size()); rank++ { //nolint:gosec // dict.Size() is process-bounded
		n, ok := dict.Occurrences(rank)
		if !ok {
			return fmt.Errorf("occurrences: missing rank %d", rank)
		}

		counts[rank-1] = n
	}

	f, err := os.Create(prefix + ".occ") //nolint:gosec
	if err != nil {
		return fmt.Errorf("create .occ: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := pfpio.WriteOcc(f, counts); err != nil {
		return fmt.Errorf("write .occ: %w", err)
	}

	return nil
}

func writeLidxFile(prefix string, entries []pfpio.LengthEntry) error {
	f, err := os.Create(prefix + ".lidx") //nolint:gosec
	if err != nil {
		return fmt.Errorf("create .lidx: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := pfpio.WriteLidx(f, entries); err != nil {
		return fmt.Errorf("write .lidx: %w", err)
	}

	return nil
}

// printSummary renders the end-of-run table: phase counts and the
// run-wide error-kind tallies, styled the way the teacher's
// formatCollectionTable renders analysis results
// (internal/analyzers/common/formatter.go).
func printSummary(w io.Writer, cfg *config.Config, counters *observability.ErrorCounters, sampleCount, dictSize int) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRow(table.Row{"Samples processed", sampleCount})
	tbl.AppendRow(table.Row{"Dictionary phrases", dictSize})
	tbl.AppendRow(table.Row{"Output prefix", cfg.OutputPrefix})

	snapshot := counters.Snapshot()

	kinds := make([]string, 0, len(snapshot))
	for kind := range snapshot {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)

	for _, kind := range kinds {
		n := snapshot[kind]
		if n == 0 {
			continue
		}

		tbl.AppendRow(table.Row{fmt.Sprintf("Errors: %s", kind), n})
	}

	tbl.AppendFooter(table.Row{"Total errors", counters.Total()})
	tbl.Render()

	if counters.Total() > 0 {
		_, _ = color.New(color.FgYellow).Fprintf(w, "%s recoverable records skipped; see above for the breakdown by kind\n",
			humanize.Comma(counters.Total()))
	}
}
