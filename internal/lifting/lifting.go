// Package lifting builds the optional per-haplotype lifting index
// (spec.md §4.6's `.ldx` output, gated by the compute_lifting config
// flag): a map from the bytes one (sample, ploidy) haplotype emits back
// to the reference coordinates they were copied or spliced from. It
// walks the same haplotype.ContigIterator the sample parser (pkg/parser)
// consumes, so segment boundaries always agree with what was actually
// parsed, without needing any hook into the parser itself.
package lifting

import (
	"github.com/Sumatoshi-tech/pfp/pkg/haplotype"
	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
	"github.com/Sumatoshi-tech/pfp/pkg/pfpio"
)

// segment is one contiguous copy-or-splice run recorded while walking a
// single contig instance's iterator, before the instance's total length
// is known (pfpio.Lift needs that length up front to size its bitmap).
type segment struct {
	sampleStart int
	refStart    int
	splice      bool
}

// BuildIndex walks sample's contig instances for one ploidy slot and
// returns the LiftingIndex covering that (sample, ploidy) haplotype unit.
// Coordinates are local to the unit's own emitted byte stream (the same
// stream haplotype.SampleIterator produces for that sample/ploidy),
// starting at 0 — not the global, sentinel-framed parse stream C5 feeds
// the segmenter, since sentinel bytes never come from the reference and
// have nothing meaningful to lift. The single-byte DollarPrime separator
// SampleIterator inserts between contig instances is likewise excluded
// from every instance's Lift, but still advances the running offset so
// ContigStarts stays aligned with the real byte stream.
func BuildIndex(sample pangenome.Sample, ploidy int) *pfpio.LiftingIndex {
	idx := &pfpio.LiftingIndex{
		ContigNames: make([]string, 0, len(sample.Contigs)),
		Entries:     make([]pfpio.LiftEntry, 0, len(sample.Contigs)),
	}

	contigStarts := make([]int, 0, len(sample.Contigs))
	unitOffset := 0

	for i, inst := range sample.Contigs {
		if i > 0 {
			unitOffset++ // DollarPrime separator
		}

		contigStart := unitOffset
		contigStarts = append(contigStarts, contigStart)
		idx.ContigNames = append(idx.ContigNames, inst.Contig.Name)
		idx.Entries = append(idx.Entries, buildEntry(inst, ploidy, &unitOffset, contigStart))
	}

	idx.UniverseLength = unitOffset
	idx.ContigStarts = pfpio.NewBitmap(unitOffset)

	for _, start := range contigStarts {
		idx.ContigStarts.Set(start)
	}

	idx.ContigStarts.Build()

	return idx
}

// buildEntry walks one contig instance's haplotype bytes, recording a
// new segment each time splicing starts or stops, and returns the
// finished LiftEntry. unitOffset is advanced in place as bytes are
// consumed, since later contig instances in the same sample continue
// counting from wherever this one left off.
func buildEntry(inst pangenome.ContigInstance, ploidy int, unitOffset *int, contigStart int) pfpio.LiftEntry {
	ci := haplotype.NewContigIterator(inst, ploidy)

	var segs []segment

	splicing := ci.IsSplicing()
	segStart := *unitOffset
	refStart := inst.Contig.GlobalOffset + ci.RefCursor()

	for !ci.End() {
		if cur := ci.IsSplicing(); cur != splicing {
			segs = append(segs, segment{sampleStart: segStart - contigStart, refStart: refStart, splice: splicing})
			segStart = *unitOffset
			splicing = cur
			refStart = inst.Contig.GlobalOffset + ci.RefCursor()
		}

		*unitOffset++
		ci.Advance()
	}

	length := *unitOffset - contigStart

	lift := pfpio.NewLift(length)

	if length > 0 {
		segs = append(segs, segment{sampleStart: segStart - contigStart, refStart: refStart, splice: splicing})

		for _, s := range segs {
			if s.splice {
				lift.AddSpliceSegment(s.sampleStart, s.refStart)
			} else {
				lift.AddCopySegment(s.sampleStart, s.refStart)
			}
		}
	}

	lift.Build()

	return pfpio.LiftEntry{ReferenceOffset: inst.Contig.GlobalOffset, Lift: lift}
}
