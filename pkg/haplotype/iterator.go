// Package haplotype implements the lazy byte-stream iterator over a
// reference contig and one sample's selected variations: it composes
// reference bases with genotyped alternate alleles without ever
// materializing the resulting haplotype sequence in memory.
package haplotype

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
)

// ErrSeekBackward is returned by Seek when asked to move to a sample
// coordinate behind the iterator's current position.
var ErrSeekBackward = errors.New("haplotype: seek must move forward")

// ContigIterator produces the byte stream one sample realizes for one
// contig instance, splicing in the alt allele selected by a single ploidy
// slot's genotype wherever a used variation is reached and copying
// reference bytes everywhere else. Variations whose genotype selects the
// reference allele (index 0) are skipped without the emit loop ever
// consulting their Alt table, per spec.md §4.3.
type ContigIterator struct {
	contig *pangenome.ReferenceContig
	idx    []int
	geno   [][]int
	ploidy int

	refCursor    int
	variantIdx   int // index into idx/geno, not into contig.Variations
	curAllele    []byte
	withinAllele int // -1 when not currently splicing an allele

	sampleCursor   int
	prevVariantPos int

	curByte byte
	ended   bool
}

// NewContigIterator builds an iterator over inst, selecting the ploidy-th
// genotype slot of each of inst's variations. ploidy must be a valid index
// into every entry of inst.Genotype; callers validate sample-wide ploidy
// consistency before construction.
func NewContigIterator(inst pangenome.ContigInstance, ploidy int) *ContigIterator {
	it := &ContigIterator{
		contig:         inst.Contig,
		idx:            inst.VariationIdx,
		geno:           inst.Genotype,
		ploidy:         ploidy,
		withinAllele:   -1,
		prevVariantPos: -1,
	}

	it.skipRefGenotype()
	it.fill()

	return it
}

// skipRefGenotype advances variantIdx past every variation whose selected
// genotype allele is 0 (the reference allele), without consulting Alt for
// them: the reference bytes they would otherwise splice back in are
// already what refCursor walks through one byte at a time.
func (it *ContigIterator) skipRefGenotype() {
	for it.variantIdx < len(it.idx) {
		allele := it.geno[it.variantIdx][it.ploidy]
		if allele != 0 {
			return
		}

		it.variantIdx++
	}
}

func (it *ContigIterator) currentVariation() pangenome.Variation {
	return it.contig.Variations[it.idx[it.variantIdx]]
}

// finishVariation closes out the variation currently being spliced: steps
// refCursor past the reference span it consumes, advances past it, and
// skips any immediately following reference-genotype variations.
func (it *ContigIterator) finishVariation() {
	v := it.currentVariation()
	it.refCursor += v.RefLen
	it.prevVariantPos = v.Pos
	it.variantIdx++
	it.withinAllele = -1
	it.curAllele = nil

	it.skipRefGenotype()
}

// fill resolves curByte/ended from the current state, recursing through
// zero-length alt alleles (pure deletions) without emitting anything for
// them.
func (it *ContigIterator) fill() {
	if it.withinAllele >= 0 {
		it.curByte = it.curAllele[it.withinAllele]
		return
	}

	if it.variantIdx < len(it.idx) && it.refCursor < it.currentVariation().Pos {
		it.curByte = it.contig.Bases[it.refCursor]
		return
	}

	if it.variantIdx < len(it.idx) {
		v := it.currentVariation()
		allele := it.geno[it.variantIdx][it.ploidy]
		it.curAllele = v.Alt[allele]
		it.withinAllele = 0

		if len(it.curAllele) == 0 {
			it.finishVariation()
			it.fill()

			return
		}

		it.curByte = it.curAllele[0]

		return
	}

	if it.refCursor >= len(it.contig.Bases) {
		it.ended = true
		return
	}

	it.curByte = it.contig.Bases[it.refCursor]
}

// Current returns the byte at the iterator's current position. Calling it
// after End reports true is invalid.
func (it *ContigIterator) Current() byte { return it.curByte }

// End reports whether the iterator has exhausted this contig instance.
func (it *ContigIterator) End() bool { return it.ended }

// Advance moves the iterator one byte forward.
func (it *ContigIterator) Advance() {
	if it.ended {
		return
	}

	it.sampleCursor++

	if it.withinAllele >= 0 {
		it.withinAllele++
		if it.withinAllele >= len(it.curAllele) {
			it.finishVariation()
			it.fill()

			return
		}

		it.curByte = it.curAllele[it.withinAllele]

		return
	}

	it.refCursor++
	it.fill()
}

// SampleCursor returns the 1-based count of bytes emitted so far.
func (it *ContigIterator) SampleCursor() int { return it.sampleCursor }

// ContigName returns the name of the contig this iterator realizes.
func (it *ContigIterator) ContigName() string { return it.contig.Name }

// RefCursor returns the iterator's current offset into the contig's
// reference bytes. Meaningful for acceleration only when IsSplicing is
// false: mid-splice, it still points at the spliced variation's own
// position until the splice finishes.
func (it *ContigIterator) RefCursor() int { return it.refCursor }

// IsSplicing reports whether the iterator is currently emitting bytes
// from an alternate allele rather than copying reference bytes directly.
func (it *ContigIterator) IsSplicing() bool { return it.withinAllele >= 0 }

// NextVariationPos returns the reference position of the next variation
// this iterator will splice in, or ok=false if none remain.
func (it *ContigIterator) NextVariationPos() (pos int, ok bool) {
	if it.variantIdx >= len(it.idx) {
		return 0, false
	}

	return it.currentVariation().Pos, true
}

// PrevVariantPos returns the reference position of the last variation
// fully spliced in, or -1 if none has been processed yet. Used by the
// lifting index to map sample coordinates back to reference coordinates
// around variant boundaries.
func (it *ContigIterator) PrevVariantPos() int { return it.prevVariantPos }

// Seek advances the iterator to sample coordinate target. It only moves
// forward, per spec.md §4.3's forward-only cursor contract.
func (it *ContigIterator) Seek(target int) error {
	if target < it.sampleCursor {
		return fmt.Errorf("%w: at %d, requested %d", ErrSeekBackward, it.sampleCursor, target)
	}

	for it.sampleCursor < target && !it.ended {
		it.Advance()
	}

	return nil
}
