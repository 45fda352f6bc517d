// Package refparse implements the reference pre-parse (spec.md §4.4): it
// phrase-decomposes the reference ahead of sample processing, seeding the
// shared dictionary and recording per-contig phrase-boundary offsets so
// the sample parser (pkg/parser) can accelerate by copying reference
// phrase runs instead of re-hashing.
package refparse

import (
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/pfp/pkg/alg/lru"
	"github.com/Sumatoshi-tech/pfp/pkg/dictionary"
	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
	"github.com/Sumatoshi-tech/pfp/pkg/rollhash"
)

// ContigParse records one contig's phrase-boundary offsets, measured in
// bytes from that contig's first real (non-sentinel) base, together with
// the strong-hash id and full length of the reference phrase whose bytes
// after its leading W-byte overlap begin at each boundary (the length
// includes that overlap) — the table the sample parser's acceleration path
// consults to bulk-copy reference phrase ids instead of re-hashing.
type ContigParse struct {
	Name       string
	Boundaries []int
	PhraseIDs  []uint64
	PhraseLens []int
}

// PhraseAt returns the reference phrase whose bytes after its overlap
// begin at the given byte offset from this contig's start, if offset is a
// recorded boundary.
func (cp *ContigParse) PhraseAt(offset int) (id uint64, length int, ok bool) {
	i := sort.SearchInts(cp.Boundaries, offset)
	if i >= len(cp.Boundaries) || cp.Boundaries[i] != offset {
		return 0, 0, false
	}

	return cp.PhraseIDs[i], cp.PhraseLens[i], true
}

// Parser drives the single rolling-hash segmenter shared across every
// reference contig, in order, emitting phrases into the shared dictionary
// exactly as the per-sample parser (C5) will. Every unit transition — the
// universe-opening DOLLAR seed and the inter-contig separator — is fed
// through the same segmentation machinery as real content, and the phrase
// it ends is force-cut right after it unless a trigger already closed it
// there, so each contig's first phrase opens with those W bytes as its
// overlap (see DESIGN.md's sentinel framing decision).
type Parser struct {
	window int
	dict   *dictionary.Dictionary
	seg    *rollhash.Segmenter

	ParseIDs   []uint64 // flat, ordered reference parse (strong-hash ids)
	PhraseLens []int
	Contigs    []*ContigParse

	started bool
}

// New creates a Parser with the given trigger window, sharing dict with
// the rest of the run.
func New(window int, dict *dictionary.Dictionary) *Parser {
	return &Parser{window: window, dict: dict, seg: rollhash.NewSegmenter(window)}
}

func (p *Parser) emit(closed []byte) error {
	id, err := p.dict.CheckAndAdd(closed)
	if err != nil {
		return fmt.Errorf("refparse: %w", err)
	}

	p.ParseIDs = append(p.ParseIDs, id)
	p.PhraseLens = append(p.PhraseLens, len(closed))

	return nil
}

// ParseContig phrase-decomposes one reference contig, in call order. The
// first call seeds the universe with pangenome.GlobalSeed; every
// subsequent call is preceded by pangenome.UnitSeparator, matching
// spec.md §4.4's "first contig prefixed... subsequent contigs separated
// by" framing.
func (p *Parser) ParseContig(contig *pangenome.ReferenceContig) error {
	cp := &ContigParse{Name: contig.Name}
	p.Contigs = append(p.Contigs, cp)

	var leading []byte
	if !p.started {
		leading = pangenome.GlobalSeed(p.window)
		p.started = true
	} else {
		leading = pangenome.UnitSeparator(p.window)
	}

	for _, b := range leading {
		if closed, cut := p.seg.Feed(b); cut {
			if err := p.emit(closed); err != nil {
				return err
			}
		}
	}

	if len(p.seg.Pending()) != p.window {
		if err := p.emit(p.seg.ForceCut()); err != nil {
			return err
		}
	}

	segStart := 0

	for i, b := range contig.Bases {
		closed, cut := p.seg.Feed(b)
		if !cut {
			continue
		}

		if err := p.emit(closed); err != nil {
			return err
		}

		// segStart, not i+1: the boundary table is keyed by where each
		// recorded phrase's bytes after its W-byte overlap begin (in this
		// contig's own bytes) so PhraseAt(offset) can answer "what phrase
		// continues from here", which is exactly what the sample parser's
		// acceleration path needs.
		cp.Boundaries = append(cp.Boundaries, segStart)
		cp.PhraseIDs = append(cp.PhraseIDs, p.ParseIDs[len(p.ParseIDs)-1])
		cp.PhraseLens = append(cp.PhraseLens, len(closed))

		segStart = i + 1
	}

	return nil
}

// Close finalizes the reference pass. When moreUnitsFollow is true (at
// least one sample will be parsed next), it feeds the standard unit
// separator, whose trailing W bytes become the first sample's overlap
// seed. Otherwise it feeds the universe's final terminator directly —
// the boundary behavior spec.md §8 names: "Empty variant set → parse
// equals the reference parse with sentinel framing."
func (p *Parser) Close(moreUnitsFollow bool) error {
	terminator := pangenome.FinalTerminator(p.window)
	if moreUnitsFollow {
		terminator = pangenome.UnitSeparator(p.window)
	}

	for _, b := range terminator {
		if closed, cut := p.seg.Feed(b); cut {
			if err := p.emit(closed); err != nil {
				return err
			}
		}
	}

	if len(p.seg.Pending()) != p.window {
		if err := p.emit(p.seg.ForceCut()); err != nil {
			return err
		}
	}

	return nil
}

// WindowCache caches recently sliced W-byte reference windows, bounded by
// total byte size, so the sample parser's acceleration path can re-sync
// its rolling hash after a bulk copy without re-slicing contig.Bases on
// every access.
type WindowCache struct {
	cache  *lru.Cache[string, []byte]
	window int
}

// NewWindowCache creates a WindowCache bounded by maxBytes total cached
// window bytes.
func NewWindowCache(window int, maxBytes int64) *WindowCache {
	c := lru.New[string, []byte](
		lru.WithMaxBytes[string, []byte](maxBytes, func(v []byte) int64 { return int64(len(v)) }),
	)

	return &WindowCache{cache: c, window: window}
}

// Window returns the W bytes of contig ending at offset (exclusive),
// i.e. contig.Bases[offset-W:offset]. Returns nil if offset has fewer
// than W preceding bytes.
func (w *WindowCache) Window(contig *pangenome.ReferenceContig, offset int) []byte {
	key := fmt.Sprintf("%s@%d", contig.Name, offset)

	if v, ok := w.cache.Get(key); ok {
		return v
	}

	start := offset - w.window
	if start < 0 {
		return nil
	}

	win := append([]byte(nil), contig.Bases[start:offset]...)
	w.cache.Put(key, win)

	return win
}
