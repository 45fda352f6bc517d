package haplotype

import (
	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
)

// SampleIterator composes the ContigIterators of one sample's contig
// instances in order, for one ploidy slot, inserting a single literal
// DollarPrime byte between contigs (spec.md §4.3). It does not emit the
// heavier inter-unit separator C4/C5 use between the reference pass and
// samples, or between samples — that framing belongs to the caller
// orchestrating the whole parse.
type SampleIterator struct {
	contigs []*ContigIterator
	ploidy  int

	contigPos int
	inSep     bool // currently emitting the one-byte inter-contig separator

	curByte byte
	ended   bool
}

// NewSampleIterator builds a SampleIterator over sample's contigs for the
// given ploidy slot. sample must already satisfy
// Sample.ReferencesEachContigOnce.
func NewSampleIterator(sample pangenome.Sample, ploidy int) *SampleIterator {
	it := &SampleIterator{ploidy: ploidy}

	it.contigs = make([]*ContigIterator, len(sample.Contigs))
	for i, inst := range sample.Contigs {
		it.contigs[i] = NewContigIterator(inst, ploidy)
	}

	it.resolve()

	return it
}

// resolve settles curByte/ended: when the current contig is exhausted it
// either steps into the one-byte separator (if another contig follows) or
// moves to the next contig. An exhausted contig with a successor, even one
// with zero bases and no variations, is still followed by one separator
// byte.
func (it *SampleIterator) resolve() {
	for {
		if it.contigPos >= len(it.contigs) {
			it.ended = true
			return
		}

		cur := it.contigs[it.contigPos]
		if !cur.End() {
			it.curByte = cur.Current()
			return
		}

		// current contig exhausted: either step into the one-byte
		// separator before the next contig, or move past it if we just
		// emitted that separator.
		if !it.inSep && it.contigPos+1 < len(it.contigs) {
			it.inSep = true
			it.curByte = pangenome.DollarPrime

			return
		}

		it.inSep = false
		it.contigPos++
	}
}

// Current returns the iterator's current byte. Invalid once End is true.
func (it *SampleIterator) Current() byte { return it.curByte }

// Active returns the ContigIterator currently producing bytes, or
// ok=false when the sample is finished or the cursor is inside the
// one-byte inter-contig separator (which has no reference analogue, so
// acceleration never applies there).
func (it *SampleIterator) Active() (ci *ContigIterator, ok bool) {
	if it.ended || it.inSep {
		return nil, false
	}

	return it.contigs[it.contigPos], true
}

// End reports whether every contig instance (and separator) has been
// consumed.
func (it *SampleIterator) End() bool { return it.ended }

// Advance moves the iterator one byte forward.
func (it *SampleIterator) Advance() {
	if it.ended {
		return
	}

	if it.inSep {
		it.inSep = false
		it.contigPos++
		it.resolve()

		return
	}

	it.contigs[it.contigPos].Advance()
	it.resolve()
}
