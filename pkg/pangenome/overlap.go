package pangenome

import (
	"fmt"

	"github.com/Sumatoshi-tech/pfp/pkg/alg/interval"
)

// OverlapError describes two variation intervals from the same contig
// instance that overlap in reference coordinates — ambiguous per spec.md
// §9 Open Questions, and rejected rather than guessed at.
type OverlapError struct {
	ContigName    string
	FirstPos      int
	FirstEnd      int
	SkippedPos    int
	SkippedEnd    int
	SkippedVarIdx int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf(
		"pangenome: contig %q: variation at [%d,%d) overlaps accepted interval [%d,%d), skipping",
		e.ContigName, e.SkippedPos, e.SkippedEnd, e.FirstPos, e.FirstEnd,
	)
}

// RejectOverlapping walks inst's variation selection in Pos order and drops
// any variation whose reference interval overlaps one already accepted,
// returning the filtered instance and one OverlapError per dropped
// variation (for logging as a recoverable, schema-class diagnostic —
// spec.md §7 kind 2). The input is assumed already sorted by Pos, which
// ingestion guarantees since VCF records are read in genome order.
func RejectOverlapping(contigName string, inst ContigInstance) (ContigInstance, []error) {
	tree := interval.New[int, int]()

	kept := ContigInstance{
		Contig:       inst.Contig,
		VariationIdx: make([]int, 0, len(inst.VariationIdx)),
		Genotype:     make([][]int, 0, len(inst.Genotype)),
	}

	var errs []error

	for i, varIdx := range inst.VariationIdx {
		v := inst.Contig.Variations[varIdx]
		low, high := v.Pos, v.Pos+v.RefLen-1

		if high < low {
			high = low
		}

		overlaps := tree.QueryOverlap(low, high)
		if len(overlaps) > 0 {
			first := overlaps[0]
			errs = append(errs, &OverlapError{
				ContigName:    contigName,
				FirstPos:      first.Low,
				FirstEnd:      first.High + 1,
				SkippedPos:    low,
				SkippedEnd:    high + 1,
				SkippedVarIdx: varIdx,
			})

			continue
		}

		tree.Insert(low, high, varIdx)
		kept.VariationIdx = append(kept.VariationIdx, varIdx)
		kept.Genotype = append(kept.Genotype, inst.Genotype[i])
	}

	return kept, errs
}
