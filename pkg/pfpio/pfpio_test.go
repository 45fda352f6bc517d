package pfpio_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pfp/pkg/pfpio"
)

func TestDictRoundTrip(t *testing.T) {
	t.Parallel()

	phrases := [][]byte{
		[]byte("ACGTACGT"),
		[]byte("TTTTGGGG"),
		[]byte("CCCCAAAA"),
	}

	var buf bytes.Buffer
	require.NoError(t, pfpio.WriteDict(&buf, phrases))

	got, err := pfpio.ReadDict(&buf)
	require.NoError(t, err)
	require.Equal(t, phrases, got)
}

func TestDictzRoundTrip(t *testing.T) {
	t.Parallel()

	phrases := [][]byte{
		[]byte("ACGTACGT"),
		[]byte("TT"),
		[]byte("CCCCAAAAGGGG"),
	}

	var body, lens bytes.Buffer
	require.NoError(t, pfpio.WriteDictz(&body, &lens, phrases))

	got, err := pfpio.ReadDictz(&body, &lens)
	require.NoError(t, err)
	require.Equal(t, phrases, got)
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	ranks := []uint32{1, 2, 3, 2, 1, 4}

	var buf bytes.Buffer
	require.NoError(t, pfpio.WriteParse(&buf, ranks))

	got, err := pfpio.ReadParse(&buf)
	require.NoError(t, err)
	require.Equal(t, ranks, got)
}

func TestOccRoundTrip(t *testing.T) {
	t.Parallel()

	counts := []uint64{5, 1, 3, 2}

	var buf bytes.Buffer
	require.NoError(t, pfpio.WriteOcc(&buf, counts))

	got, err := pfpio.ReadOcc(&buf)
	require.NoError(t, err)
	require.Equal(t, counts, got)
}

func TestLidxRoundTrip(t *testing.T) {
	t.Parallel()

	entries := []pfpio.LengthEntry{
		{Name: "chr1", Length: 120},
		{Name: "s1/chr1/0", Length: 124},
	}

	var buf bytes.Buffer
	require.NoError(t, pfpio.WriteLidx(&buf, entries))

	got, err := pfpio.ReadLidx(&buf)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestBitmapRankSelect(t *testing.T) {
	t.Parallel()

	b := pfpio.NewBitmap(100)
	set := []int{0, 1, 5, 63, 64, 65, 99}

	for _, i := range set {
		b.Set(i)
	}

	b.Build()

	require.Equal(t, 0, b.Rank(0))
	require.Equal(t, 1, b.Rank(1))
	require.Equal(t, 3, b.Rank(6))
	require.Equal(t, len(set), b.Rank(100))

	for k, want := range set {
		got, ok := b.Select(k)
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok := b.Select(len(set))
	require.False(t, ok)
}

func TestLiftToReferenceCopyAndSplice(t *testing.T) {
	t.Parallel()

	// Reference: 0..9 copied straight, then a spliced 2-byte allele at
	// sample offset 10 standing in for reference position 10, then a
	// straight copy resuming at reference position 11.
	l := pfpio.NewLift(14)
	l.AddCopySegment(0, 0)
	l.AddSpliceSegment(10, 10)
	l.AddCopySegment(12, 11)
	l.Build()

	for i := 0; i < 10; i++ {
		got, ok := l.ToReference(i)
		require.True(t, ok)
		require.Equal(t, i, got)
	}

	for _, i := range []int{10, 11} {
		got, ok := l.ToReference(i)
		require.True(t, ok)
		require.Equal(t, 10, got)
	}

	got, ok := l.ToReference(12)
	require.True(t, ok)
	require.Equal(t, 11, got)

	got, ok = l.ToReference(13)
	require.True(t, ok)
	require.Equal(t, 12, got)

	_, ok = l.ToReference(14)
	require.False(t, ok)
}

func TestLdxRoundTrip(t *testing.T) {
	t.Parallel()

	l1 := pfpio.NewLift(5)
	l1.AddCopySegment(0, 100)
	l1.Build()

	l2 := pfpio.NewLift(8)
	l2.AddCopySegment(0, 0)
	l2.AddSpliceSegment(4, 4)
	l2.AddCopySegment(6, 5)
	l2.Build()

	starts := pfpio.NewBitmap(13)
	starts.Set(0)
	starts.Set(5)
	starts.Build()

	idx := &pfpio.LiftingIndex{
		UniverseLength: 13,
		ContigStarts:   starts,
		ContigNames:    []string{"chr1", "chr2"},
		Entries: []pfpio.LiftEntry{
			{ReferenceOffset: 100, Lift: l1},
			{ReferenceOffset: 0, Lift: l2},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, pfpio.WriteLdx(&buf, idx))

	got, err := pfpio.ReadLdx(&buf)
	require.NoError(t, err)

	require.Equal(t, idx.UniverseLength, got.UniverseLength)
	require.Equal(t, idx.ContigNames, got.ContigNames)

	for i, want := range []int{0, 5} {
		gotPos, ok := got.ContigStarts.Select(i)
		require.True(t, ok)
		require.Equal(t, want, gotPos)
	}

	require.Len(t, got.Entries, 2)
	require.Equal(t, 100, got.Entries[0].ReferenceOffset)

	for i := 0; i < 4; i++ {
		gotRef, ok := got.Entries[1].Lift.ToReference(i)
		require.True(t, ok)
		require.Equal(t, i, gotRef)
	}

	gotRef, ok := got.Entries[1].Lift.ToReference(4)
	require.True(t, ok)
	require.Equal(t, 4, gotRef)
}
