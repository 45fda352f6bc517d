package lifting_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pfp/internal/lifting"
	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
)

func TestBuildIndexPureCopyContigLiftsEveryOffset(t *testing.T) {
	t.Parallel()

	contig := &pangenome.ReferenceContig{Name: "chr1", Bases: []byte("ACGTACGT"), GlobalOffset: 100}
	sample := pangenome.Sample{
		ID: "s1",
		Contigs: []pangenome.ContigInstance{
			{Contig: contig},
		},
	}

	idx := lifting.BuildIndex(sample, 0)

	require.Equal(t, 8, idx.UniverseLength)
	require.Equal(t, []string{"chr1"}, idx.ContigNames)
	require.Len(t, idx.Entries, 1)

	entry := idx.Entries[0]
	require.Equal(t, 100, entry.ReferenceOffset)

	for i := 0; i < 8; i++ {
		ref, ok := entry.Lift.ToReference(i)
		require.True(t, ok)
		require.Equal(t, 100+i, ref)
	}
}

func TestBuildIndexSplicedAlleleMapsToVariationStart(t *testing.T) {
	t.Parallel()

	contig := &pangenome.ReferenceContig{
		Name:         "chr1",
		Bases:        []byte("AAAAAAAAAA"),
		GlobalOffset: 0,
		Variations: []pangenome.Variation{
			{Pos: 3, RefLen: 1, Alt: [][]byte{[]byte("A"), []byte("GG")}},
		},
	}
	sample := pangenome.Sample{
		ID: "s1",
		Contigs: []pangenome.ContigInstance{
			{Contig: contig, VariationIdx: []int{0}, Genotype: [][]int{{1}}},
		},
	}

	idx := lifting.BuildIndex(sample, 0)
	entry := idx.Entries[0]

	// Bytes 0,1,2 copy straight from reference offsets 0,1,2.
	for i := 0; i < 3; i++ {
		ref, ok := entry.Lift.ToReference(i)
		require.True(t, ok)
		require.Equal(t, i, ref)
	}

	// The spliced "GG" replacing the single reference base at offset 3
	// both map back to the variation's reference start, 3.
	ref3, ok := entry.Lift.ToReference(3)
	require.True(t, ok)
	require.Equal(t, 3, ref3)

	ref4, ok := entry.Lift.ToReference(4)
	require.True(t, ok)
	require.Equal(t, 3, ref4)

	// Bytes after the splice resume copying from reference offset 4.
	ref5, ok := entry.Lift.ToReference(5)
	require.True(t, ok)
	require.Equal(t, 4, ref5)
}

func TestBuildIndexMultipleContigsAdvanceUnitOffsetAcrossSeparator(t *testing.T) {
	t.Parallel()

	c1 := &pangenome.ReferenceContig{Name: "chr1", Bases: []byte("AAAA"), GlobalOffset: 0}
	c2 := &pangenome.ReferenceContig{Name: "chr2", Bases: []byte("CCC"), GlobalOffset: 4}
	sample := pangenome.Sample{
		ID: "s1",
		Contigs: []pangenome.ContigInstance{
			{Contig: c1},
			{Contig: c2},
		},
	}

	idx := lifting.BuildIndex(sample, 0)

	// 4 bytes of chr1 + 1 separator byte + 3 bytes of chr2 = 8.
	require.Equal(t, 8, idx.UniverseLength)
	require.True(t, idx.ContigStarts.Get(0))
	require.True(t, idx.ContigStarts.Get(5))

	ref, ok := idx.Entries[1].Lift.ToReference(0)
	require.True(t, ok)
	require.Equal(t, 4, ref)
}
