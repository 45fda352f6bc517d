// Package parser implements the sample parser (spec.md §4.5): it drives
// one rolling-hash segmenter per haplotype, streaming bytes from
// pkg/haplotype's lazy iterators, emitting parse tokens into the shared
// dictionary, and — when enabled — accelerating past stretches that
// match the pre-parsed reference exactly.
package parser

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/Sumatoshi-tech/pfp/pkg/dictionary"
	"github.com/Sumatoshi-tech/pfp/pkg/haplotype"
	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
	"github.com/Sumatoshi-tech/pfp/pkg/refparse"
	"github.com/Sumatoshi-tech/pfp/pkg/rollhash"
)

// SampleResult is one sample's contribution to the final parse: its
// strong-hash ids (pre-remap) and matching phrase lengths, flattened
// across all of the sample's ploidy slots in slot order, tagged with its
// position in the original sample iteration order so Close can
// concatenate deterministically regardless of completion order.
type SampleResult struct {
	SampleIndex int
	SampleID    string
	IDs         []uint64
	Lens        []int
}

// Parser is the main coordinator: owns the shared dictionary and
// read-only reference parses, and knows which haplotype unit — across
// the whole run, reference included — is the very last one, since only
// that unit closes with the universe's final terminator instead of the
// standard unit separator.
type Parser struct {
	window           int
	dict             *dictionary.Dictionary
	contigs          map[string]*pangenome.ReferenceContig
	refContigs       map[string]*refparse.ContigParse
	windowCache      *refparse.WindowCache
	ploidy           int
	useAcceleration  bool
	finalUnitIndex   int
	spillCompression bool
	spillBufferSize  int

	mu      sync.Mutex
	workers []*Worker
}

// New creates a Parser. contigs, refContigs, and windowCache come from
// the completed reference pass (C4) and are read-only for the lifetime
// of the Parser. totalSamples*ploidy-1 is the index of the last
// haplotype unit in the run; it alone gets the universe's final
// terminator. When spillCompression is set, each worker writes its
// SampleResults to an lz4-compressed scratch file (buffered at
// spillBufferSize) instead of holding them in memory, reread once at
// Close.
func New(
	window int,
	dict *dictionary.Dictionary,
	contigs []*pangenome.ReferenceContig,
	refContigs []*refparse.ContigParse,
	windowCache *refparse.WindowCache,
	ploidy int,
	totalSamples int,
	useAcceleration bool,
	spillCompression bool,
	spillBufferSize int,
) *Parser {
	p := &Parser{
		window:           window,
		dict:             dict,
		contigs:          make(map[string]*pangenome.ReferenceContig, len(contigs)),
		refContigs:       make(map[string]*refparse.ContigParse, len(refContigs)),
		windowCache:      windowCache,
		ploidy:           ploidy,
		useAcceleration:  useAcceleration,
		finalUnitIndex:   totalSamples*ploidy - 1,
		spillCompression: spillCompression,
		spillBufferSize:  spillBufferSize,
	}

	for _, c := range contigs {
		p.contigs[c.Name] = c
	}

	for _, cp := range refContigs {
		p.refContigs[cp.Name] = cp
	}

	return p
}

// RegisterWorker attaches a new Worker to the parser, per spec.md §4.5's
// register_worker(w) operation.
func (p *Parser) RegisterWorker() *Worker {
	w := &Worker{parser: p}

	p.mu.Lock()
	p.workers = append(p.workers, w)
	p.mu.Unlock()

	return w
}

// Close finalizes the dictionary and returns every worker's results
// concatenated in original sample iteration order, ready for the remap
// from strong-hash ids to rank ids and the final write (C6). Workers may
// have registered SampleResults out of completion order; Close sorts by
// SampleIndex before concatenating.
func (p *Parser) Close() ([]SampleResult, error) {
	if err := p.dict.Finalize(); err != nil {
		return nil, fmt.Errorf("parser: finalizing dictionary: %w", err)
	}

	p.mu.Lock()
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	var all []SampleResult

	for _, w := range workers {
		if w.spill == nil {
			all = append(all, w.results...)

			continue
		}

		if err := w.spill.close(); err != nil {
			return nil, err
		}

		spilled, err := readSpillFile(w.spill.path())
		if err != nil {
			return nil, err
		}

		all = append(all, spilled...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].SampleIndex < all[j].SampleIndex })

	return all, nil
}

// Worker parses a shard of samples, assigned to it by whatever scheduler
// drives the run, accumulating results into its own slice — exclusive to
// this worker for its whole lifetime, per spec.md §5 — or, when the
// parser's SpillCompression is enabled, into its own lz4-compressed
// scratch file instead, created lazily on the first completed sample.
type Worker struct {
	parser  *Parser
	mu      sync.Mutex
	results []SampleResult
	spill   *spillWriter
}

// Parse segments every ploidy slot of sample, in slot order, into the
// worker's private output. sampleIndex is the sample's position in the
// overall, deterministic input order (used only to sort results back
// into place at Close, not to gate concurrency).
func (w *Worker) Parse(sample pangenome.Sample, sampleIndex int) error {
	p := w.parser

	res := SampleResult{SampleIndex: sampleIndex, SampleID: sample.ID}

	for ploidy := 0; ploidy < p.ploidy; ploidy++ {
		unitIndex := sampleIndex*p.ploidy + ploidy
		isLast := unitIndex == p.finalUnitIndex

		ids, lens, err := p.parseHaplotype(sample, ploidy, isLast)
		if err != nil {
			return fmt.Errorf("parser: sample %s ploidy %d: %w", sample.ID, ploidy, err)
		}

		res.IDs = append(res.IDs, ids...)
		res.Lens = append(res.Lens, lens...)
	}

	if p.spillCompression {
		return w.spillResult(res)
	}

	w.mu.Lock()
	w.results = append(w.results, res)
	w.mu.Unlock()

	return nil
}

// spillResult writes res to this worker's scratch file, creating it on
// first use. Callers never run concurrently within one worker (a worker
// is only ever driven by the single goroutine that registered it), so
// the spill writer itself needs no locking.
func (w *Worker) spillResult(res SampleResult) error {
	if w.spill == nil {
		sw, err := newSpillWriter(w.parser.spillBufferSize)
		if err != nil {
			return fmt.Errorf("parser: sample %s: %w", res.SampleID, err)
		}

		w.spill = sw
	}

	if err := w.spill.write(res); err != nil {
		return fmt.Errorf("parser: spill sample %s: %w", res.SampleID, err)
	}

	return nil
}

// parseHaplotype segments one (sample, ploidy) haplotype — the unit
// DOLLAR_SEQUENCE marks the end of, per spec.md §3's alphabet table.
// Every haplotype gets a fresh Segmenter, seeded directly (via Resync,
// not Feed) with the fixed unit-separator bytes rather than re-feeding
// them: the previous unit (the reference pass, or the previous sample)
// already fed and force-cut on those exact bytes as its own last
// phrase's suffix when it closed, so feeding them again here would count
// them twice in the reconstructed byte stream. Because the separator is
// always the same fixed bytes regardless of what preceded it (see
// DESIGN.md's sentinel framing decision), seeding is correct without any
// shared state with whatever unit came before.
func (p *Parser) parseHaplotype(sample pangenome.Sample, ploidy int, isLast bool) ([]uint64, []int, error) {
	seg := rollhash.NewSegmenter(p.window)
	seg.Resync(pangenome.UnitSeparator(p.window))

	var ids []uint64

	var lens []int

	record := func(id uint64, length int) {
		ids = append(ids, id)
		lens = append(lens, length)
	}

	emit := func(closed []byte) error {
		id, err := p.dict.CheckAndAdd(closed)
		if err != nil {
			return err
		}

		record(id, len(closed))

		return nil
	}

	hap := haplotype.NewSampleIterator(sample, ploidy)

	for !hap.End() {
		accelerated, err := p.tryAccelerate(seg, hap, record)
		if err != nil {
			return nil, nil, err
		}

		if accelerated {
			continue
		}

		closed, cut := seg.Feed(hap.Current())
		if cut {
			if err := emit(closed); err != nil {
				return nil, nil, err
			}
		}

		// The DollarPrime byte between two contig instances closes the
		// phrase even when no trigger lands on it.
		if !cut && hap.Current() == pangenome.DollarPrime {
			if err := emit(seg.ForceCut()); err != nil {
				return nil, nil, err
			}
		}

		hap.Advance()
	}

	terminator := pangenome.FinalTerminator(p.window)
	if !isLast {
		terminator = pangenome.UnitSeparator(p.window)
	}

	for _, b := range terminator {
		if closed, cut := seg.Feed(b); cut {
			if err := emit(closed); err != nil {
				return nil, nil, err
			}
		}
	}

	if len(seg.Pending()) != p.window {
		if err := emit(seg.ForceCut()); err != nil {
			return nil, nil, err
		}
	}

	return ids, lens, nil
}

// tryAccelerate copies one reference phrase's id directly and advances
// hap and seg past it, if the sample cursor is currently eligible: not
// mid-splice, sitting exactly on a recorded reference phrase boundary
// with seg's pending W bytes equal to the reference bytes just before it,
// and far enough from the next variation that the whole copied phrase is
// guaranteed byte-identical between reference and sample. It is called
// once per outer loop iteration, so a run of several eligible reference
// phrases is copied one at a time rather than in one bulk step — simpler
// than batching, and observably identical to it, since eligibility is
// rechecked fresh at the new position every time.
func (p *Parser) tryAccelerate(
	seg *rollhash.Segmenter,
	hap *haplotype.SampleIterator,
	record func(id uint64, length int),
) (bool, error) {
	if !p.useAcceleration || len(seg.Pending()) != p.window {
		return false, nil
	}

	ci, ok := hap.Active()
	if !ok || ci.IsSplicing() {
		return false, nil
	}

	cp, ok := p.refContigs[ci.ContigName()]
	if !ok {
		return false, nil
	}

	id, length, ok := cp.PhraseAt(ci.RefCursor())
	if !ok {
		return false, nil
	}

	// length counts the phrase's leading W-byte overlap, which seg already
	// holds as its pending bytes; only the rest is new input to skip.
	advance := length - p.window

	if nextPos, hasNext := ci.NextVariationPos(); hasNext && nextPos-ci.RefCursor() < advance {
		return false, nil
	}

	contig, ok := p.contigs[ci.ContigName()]
	if !ok {
		return false, nil
	}

	if prev := p.windowCache.Window(contig, ci.RefCursor()); !bytes.Equal(prev, seg.Pending()) {
		return false, nil
	}

	window := p.windowCache.Window(contig, ci.RefCursor()+advance)
	if window == nil {
		return false, nil
	}

	if !p.dict.Reaffirm(id) {
		return false, fmt.Errorf("parser: acceleration hit unknown reference phrase id %#x", id)
	}

	record(id, length)
	seg.Resync(window)

	for i := 0; i < advance; i++ {
		hap.Advance()
	}

	return true, nil
}
