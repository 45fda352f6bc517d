package pangenome_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
)

func TestRejectOverlappingDropsSecondOfTwoOverlappingVariations(t *testing.T) {
	t.Parallel()

	contig := &pangenome.ReferenceContig{
		Name: "chr1",
		Variations: []pangenome.Variation{
			{Pos: 10, RefLen: 5, Alt: [][]byte{[]byte("A"), []byte("T")}},
			{Pos: 12, RefLen: 3, Alt: [][]byte{[]byte("A"), []byte("G")}},
			{Pos: 30, RefLen: 1, Alt: [][]byte{[]byte("C"), []byte("G")}},
		},
	}

	inst := pangenome.ContigInstance{
		Contig:       contig,
		VariationIdx: []int{0, 1, 2},
		Genotype:     [][]int{{1}, {1}, {1}},
	}

	kept, errs := pangenome.RejectOverlapping("chr1", inst)

	require.Len(t, errs, 1)
	assert.Equal(t, []int{0, 2}, kept.VariationIdx)
	assert.Equal(t, [][]int{{1}, {1}}, kept.Genotype)
}

func TestRejectOverlappingKeepsAdjacentNonOverlapping(t *testing.T) {
	t.Parallel()

	contig := &pangenome.ReferenceContig{
		Name: "chr1",
		Variations: []pangenome.Variation{
			{Pos: 0, RefLen: 5, Alt: [][]byte{[]byte("AAAAA"), []byte("T")}},
			{Pos: 5, RefLen: 5, Alt: [][]byte{[]byte("CCCCC"), []byte("G")}},
		},
	}

	inst := pangenome.ContigInstance{
		Contig:       contig,
		VariationIdx: []int{0, 1},
		Genotype:     [][]int{{1}, {1}},
	}

	kept, errs := pangenome.RejectOverlapping("chr1", inst)

	assert.Empty(t, errs)
	assert.Equal(t, []int{0, 1}, kept.VariationIdx)
}

func TestIsSymbolicAllele(t *testing.T) {
	t.Parallel()

	assert.True(t, pangenome.IsSymbolicAllele([]byte("<DEL>")))
	assert.False(t, pangenome.IsSymbolicAllele([]byte("ACGT")))
	assert.False(t, pangenome.IsSymbolicAllele(nil))
}

func TestSampleReferencesEachContigOnce(t *testing.T) {
	t.Parallel()

	contig := &pangenome.ReferenceContig{Name: "chr1"}

	okSample := pangenome.Sample{
		ID: "HG00096",
		Contigs: []pangenome.ContigInstance{
			{Contig: contig},
		},
	}
	assert.True(t, okSample.ReferencesEachContigOnce())

	badSample := pangenome.Sample{
		ID: "HG00096",
		Contigs: []pangenome.ContigInstance{
			{Contig: contig},
			{Contig: contig},
		},
	}
	assert.False(t, badSample.ReferencesEachContigOnce())
}
