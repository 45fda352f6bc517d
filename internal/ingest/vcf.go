package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/pfp/internal/observability"
	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
)

const vcfScanBufSize = 1 << 22

// VCFOptions configures ReadVCF's sample selection and diagnostic
// reporting. Counters and Logger may be nil, in which case recoverable
// conditions (unknown contigs, symbolic alleles, overlaps, ploidy
// mismatches) are silently dropped rather than tallied or logged.
type VCFOptions struct {
	AllowList  *pangenome.AllowList
	MaxSamples int
	Counters   *observability.ErrorCounters
	Logger     *slog.Logger
}

func (o VCFOptions) record(kind observability.ErrorKind, err error) {
	if o.Counters != nil {
		o.Counters.Record(kind)
	}

	if o.Logger != nil {
		o.Logger.Warn("ingest: recoverable error", "kind", kind.String(), "error", err)
	}
}

// sampleContigState tracks the in-progress ContigInstance for one sample
// across the run of VCF records belonging to a single contig, including
// the ploidy established by the first genotype this sample contributes
// to it — every later record's genotype vector for this sample/contig
// must match that length for pkg/haplotype's iterators to stay valid.
type sampleContigState struct {
	instIdx   int
	ploidy    int
	ploidySet bool
}

// ReadVCF reads a line-oriented VCF file and returns one pangenome.Sample
// per column in the file's #CHROM header line (subject to AllowList and
// MaxSamples), each carrying the ContigInstance/genotype data for every
// contig it is genotyped against in contigs. Field order and allele/
// genotype semantics follow original_source/src/vcf.cpp: REF is Alt[0],
// missing ("." or incomplete) genotype slots default to the reference
// allele, and any record naming a symbolic ALT (e.g. <DEL>) is dropped
// in its entirety rather than guessed at, per spec.md §3.
func ReadVCF(path string, contigs map[string]*pangenome.ReferenceContig, opts VCFOptions) ([]pangenome.Sample, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("ingest: open %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, vcfScanBufSize), vcfScanBufSize)

	var (
		samples     []pangenome.Sample
		selectedCol []int // indices into the VCF sample columns (9+)
		colSample   []int // selectedCol[i] -> index into samples

		curContig    *pangenome.ReferenceContig
		curChrom     string
		contigStates map[int]*sampleContigState
	)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "##") {
			continue
		}

		cols := strings.Split(line, "\t")

		if strings.HasPrefix(line, "#CHROM") {
			selectedCol, colSample, samples, _ = selectSamples(cols, opts)
			continue
		}

		if len(cols) < 9 {
			return nil, fmt.Errorf("%w: %q: line has %d columns, want >= 9", ErrTruncatedRecord, path, len(cols))
		}

		chrom := cols[0]
		if chrom != curChrom {
			curChrom = chrom
			curContig = contigs[chrom]
			contigStates = map[int]*sampleContigState{}

			if curContig == nil {
				opts.record(observability.ErrorKindSchemaMismatch, fmt.Errorf("%w: %q", ErrUnknownContig, chrom))
			} else {
				for _, sIdx := range colSample {
					samples[sIdx].Contigs = append(samples[sIdx].Contigs, pangenome.ContigInstance{Contig: curContig})
					contigStates[sIdx] = &sampleContigState{instIdx: len(samples[sIdx].Contigs) - 1}
				}
			}
		}

		if curContig == nil {
			continue
		}

		if err := processRecord(cols, curContig, samples, selectedCol, colSample, contigStates, opts); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ingest: scan %q: %w", path, err)
	}

	normalizeFrequencies(contigs, samples)
	rejectOverlaps(samples, opts)

	return samples, nil
}

// selectSamples parses the #CHROM header line and applies MaxSamples and
// AllowList, in header column order, matching init_vcf's
// std::min(n_samples, max_samples) cap.
func selectSamples(
	cols []string, opts VCFOptions,
) (selectedCol, colSample []int, samples []pangenome.Sample, sampleIdx map[string]int) {
	names := cols[9:]
	sampleIdx = make(map[string]int, len(names))

	limit := len(names)
	if opts.MaxSamples > 0 && opts.MaxSamples < limit {
		limit = opts.MaxSamples
	}

	for i := 0; i < limit; i++ {
		name := names[i]
		if !opts.AllowList.Allows(name) {
			continue
		}

		idx, ok := sampleIdx[name]
		if !ok {
			idx = len(samples)
			samples = append(samples, pangenome.Sample{ID: name})
			sampleIdx[name] = idx
		}

		selectedCol = append(selectedCol, i)
		colSample = append(colSample, idx)
	}

	return selectedCol, colSample, samples, sampleIdx
}

// processRecord parses one VCF data line's REF/ALT/GT fields and updates
// every selected sample's current contig instance. Records naming a
// symbolic allele anywhere in ALT are dropped wholesale: the original
// implementation only disables the remaining, not-yet-processed sample
// columns once it notices a symbolic allele selected, which makes the
// outcome depend on VCF sample column order — rejecting the whole record
// up front is simpler and deterministic, while still honoring spec.md
// §3's "never select a symbolic allele" invariant.
func processRecord(
	cols []string,
	contig *pangenome.ReferenceContig,
	samples []pangenome.Sample,
	selectedCol, colSample []int,
	contigStates map[int]*sampleContigState,
	opts VCFOptions,
) error {
	pos, err := strconv.Atoi(cols[1])
	if err != nil {
		opts.record(observability.ErrorKindDecode, fmt.Errorf("ingest: malformed POS %q: %w", cols[1], err))

		return nil
	}

	ref := []byte(cols[3])
	altFields := strings.Split(cols[4], ",")

	alt := make([][]byte, 0, len(altFields)+1)
	alt = append(alt, ref)

	for _, a := range altFields {
		alt = append(alt, []byte(a))
	}

	for _, a := range alt[1:] {
		if pangenome.IsSymbolicAllele(a) {
			opts.record(observability.ErrorKindUnsupportedVariant, fmt.Errorf("%w: pos %d", ErrSymbolicAllele, pos))

			return nil
		}
	}

	gtIdx := -1

	for i, key := range strings.Split(cols[8], ":") {
		if key == "GT" {
			gtIdx = i

			break
		}
	}

	if gtIdx < 0 {
		opts.record(observability.ErrorKindSchemaMismatch, fmt.Errorf("ingest: record at pos %d has no GT field", pos))

		return nil
	}

	variation := pangenome.Variation{Pos: pos - 1, RefLen: len(ref), Alt: alt}

	type pending struct {
		sampleIdx int
		genotype  []int
	}

	var accepted []pending

	for i, col := range selectedCol {
		sIdx := colSample[i]

		field := cols[9+col]
		subfields := strings.Split(field, ":")

		if gtIdx >= len(subfields) {
			continue
		}

		genotype, used, err := parseGenotype(subfields[gtIdx], len(alt))
		if err != nil {
			opts.record(observability.ErrorKindDecode,
				fmt.Errorf("ingest: malformed GT at pos %d, sample %q: %w", pos, samples[sIdx].ID, err))

			continue
		}

		state := contigStates[sIdx]

		if !state.ploidySet {
			state.ploidy = len(genotype)
			state.ploidySet = true
		} else if len(genotype) != state.ploidy {
			opts.record(observability.ErrorKindSchemaMismatch, fmt.Errorf(
				"%w: sample %q pos %d: expected %d, got %d",
				ErrPloidyMismatch, samples[sIdx].ID, pos, state.ploidy, len(genotype)))
			genotype = reconcilePloidy(genotype, state.ploidy)
		}

		if used {
			variation.Freq++
			accepted = append(accepted, pending{sampleIdx: sIdx, genotype: genotype})
		}
	}

	if len(accepted) == 0 {
		return nil
	}

	varIdx := len(contig.Variations)
	contig.Variations = append(contig.Variations, variation)

	for _, p := range accepted {
		state := contigStates[p.sampleIdx]
		inst := &samples[p.sampleIdx].Contigs[state.instIdx]
		inst.VariationIdx = append(inst.VariationIdx, varIdx)
		inst.Genotype = append(inst.Genotype, p.genotype)
	}

	return nil
}

// reconcilePloidy pads genotype with trailing reference (0) alleles or
// truncates it to match want, so every genotype vector recorded for one
// sample's contig instance stays a uniform length.
func reconcilePloidy(genotype []int, want int) []int {
	if len(genotype) == want {
		return genotype
	}

	if len(genotype) > want {
		return genotype[:want]
	}

	padded := make([]int, want)
	copy(padded, genotype)

	return padded
}

// parseGenotype splits a GT subfield (e.g. "0/1", "1|0", "./.") into
// per-ploidy allele indices into altCount's allele table. Missing ("."
// ) slots default to the reference allele (0). used reports whether any
// slot selected a non-reference allele.
func parseGenotype(gt string, altCount int) (genotype []int, used bool, err error) {
	tokens := strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' })
	if len(tokens) == 0 {
		return nil, false, errors.New("ingest: empty GT field")
	}

	genotype = make([]int, len(tokens))

	for i, tok := range tokens {
		if tok == "." || tok == "" {
			continue
		}

		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, false, fmt.Errorf("ingest: allele index %q: %w", tok, err)
		}

		if n < 0 || n >= altCount {
			return nil, false, fmt.Errorf("ingest: allele index %d out of range [0,%d)", n, altCount)
		}

		genotype[i] = n
		if n != 0 {
			used = true
		}
	}

	return genotype, used, nil
}

// normalizeFrequencies divides each touched contig's accumulated
// variation allele counts by the number of samples that were actually
// genotyped against it, matching init_vcf's post-pass normalization.
func normalizeFrequencies(contigs map[string]*pangenome.ReferenceContig, samples []pangenome.Sample) {
	counts := map[*pangenome.ReferenceContig]int{}

	for i := range samples {
		for _, inst := range samples[i].Contigs {
			counts[inst.Contig]++
		}
	}

	seen := map[*pangenome.ReferenceContig]bool{}

	for _, contig := range contigs {
		if seen[contig] || counts[contig] == 0 {
			continue
		}

		seen[contig] = true
		n := float64(counts[contig])

		for i := range contig.Variations {
			contig.Variations[i].Freq /= n
		}
	}
}

// rejectOverlaps runs pkg/pangenome.RejectOverlapping over every sample
// contig instance, reporting dropped variations as schema-class
// diagnostics per that function's own documented classification.
func rejectOverlaps(samples []pangenome.Sample, opts VCFOptions) {
	for i := range samples {
		for j, inst := range samples[i].Contigs {
			kept, errs := pangenome.RejectOverlapping(inst.Contig.Name, inst)
			samples[i].Contigs[j] = kept

			for _, e := range errs {
				opts.record(observability.ErrorKindSchemaMismatch, e)
			}
		}
	}
}
