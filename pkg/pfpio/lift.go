package pfpio

import "math/bits"

// Bitmap is a fixed-size bit-vector with O(1) rank and O(log n) select,
// via a precomputed per-word running popcount (spec.md §4.6's "rank/select
// support"). Set must not be called after Build.
type Bitmap struct {
	words []uint64
	ranks []uint64 // ranks[i] = popcount of words[0:i]
	n     int
	built bool
}

// NewBitmap creates a Bitmap over n bit positions, all initially clear.
func NewBitmap(n int) *Bitmap {
	return &Bitmap{words: make([]uint64, (n+63)/64), n: n}
}

// Set marks bit i. Panics if i is out of range or Build has already run.
func (b *Bitmap) Set(i int) {
	if b.built {
		panic("pfpio: Bitmap.Set called after Build")
	}

	if i < 0 || i >= b.n {
		panic("pfpio: Bitmap.Set index out of range")
	}

	b.words[i/64] |= 1 << uint(i%64)
}

// Build finalizes the bitmap, precomputing the rank prefix sums. Must be
// called once, after every Set, before Rank/Select/Get.
func (b *Bitmap) Build() {
	b.ranks = make([]uint64, len(b.words)+1)
	for i, w := range b.words {
		b.ranks[i+1] = b.ranks[i] + uint64(bits.OnesCount64(w))
	}

	b.built = true
}

// Get reports whether bit i is set.
func (b *Bitmap) Get(i int) bool {
	return b.words[i/64]&(1<<uint(i%64)) != 0
}

// Rank returns the number of set bits in [0, i). Valid only after Build.
func (b *Bitmap) Rank(i int) int {
	if i <= 0 {
		return 0
	}

	if i > b.n {
		i = b.n
	}

	word, bit := i/64, i%64
	r := b.ranks[word]

	if bit > 0 {
		mask := uint64(1)<<uint(bit) - 1
		r += uint64(bits.OnesCount64(b.words[word] & mask))
	}

	return int(r)
}

// Select returns the position of the k-th set bit (0-based), or
// ok=false if fewer than k+1 bits are set. Valid only after Build.
func (b *Bitmap) Select(k int) (pos int, ok bool) {
	target := uint64(k + 1)

	lo, hi := 0, len(b.words)
	for lo < hi {
		mid := (lo + hi) / 2
		if b.ranks[mid+1] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	if lo >= len(b.words) {
		return 0, false
	}

	remaining := target - b.ranks[lo]
	w := b.words[lo]

	for bit := 0; bit < 64; bit++ {
		if w&(1<<uint(bit)) != 0 {
			remaining--
			if remaining == 0 {
				return lo*64 + bit, true
			}
		}
	}

	return 0, false
}

// segmentKind distinguishes a straight reference copy (where sample and
// reference coordinates advance in lockstep) from a spliced allele region
// (where no single reference coordinate corresponds 1:1 to a sample
// coordinate, so lookups clamp to the variation's reference start).
type segmentKind uint8

const (
	segCopy segmentKind = iota
	segSplice
)

type segment struct {
	sampleStart int
	refStart    int
	kind        segmentKind
}

// Lift maps sample coordinates back to reference coordinates for one
// contig instance, built from the alternating reference-copy/spliced-allele
// segments the haplotype iterator (pkg/haplotype) walks through. This is
// the concrete shape spec.md §4.6 suggests implementers may choose:
// "two bitmaps (insertion/deletion positions) with rank/select support" —
// here realized as one rank/select bitmap marking each segment's start
// sample-offset, paired with the segments' reference starts, giving the
// same O(1) lookup without a second bitmap to decode lengths from.
type Lift struct {
	segments []segment
	starts   *Bitmap
	total    int
}

// NewLift creates a Lift over a contig instance whose sample-space length
// is total.
func NewLift(total int) *Lift {
	return &Lift{starts: NewBitmap(total), total: total}
}

// AddCopySegment records a straight reference-copy run starting at
// sampleStart (sample coordinates) / refStart (reference coordinates).
func (l *Lift) AddCopySegment(sampleStart, refStart int) {
	l.add(sampleStart, refStart, segCopy)
}

// AddSpliceSegment records a spliced-allele run starting at sampleStart,
// whose bytes do not correspond 1:1 to reference coordinates; lookups
// inside it clamp to refStart (the variation's reference position).
func (l *Lift) AddSpliceSegment(sampleStart, refStart int) {
	l.add(sampleStart, refStart, segSplice)
}

func (l *Lift) add(sampleStart, refStart int, kind segmentKind) {
	l.segments = append(l.segments, segment{sampleStart: sampleStart, refStart: refStart, kind: kind})
	l.starts.Set(sampleStart)
}

// Build finalizes the Lift for querying. Must be called once, after every
// AddCopySegment/AddSpliceSegment, before ToReference.
func (l *Lift) Build() {
	l.starts.Build()
}

// ToReference returns the reference coordinate corresponding to
// sampleOffset, in O(1). Within a spliced-allele segment, every offset
// maps to the same reference coordinate (the variation's start), since no
// finer-grained correspondence exists.
func (l *Lift) ToReference(sampleOffset int) (int, bool) {
	if sampleOffset < 0 || sampleOffset >= l.total {
		return 0, false
	}

	idx := l.starts.Rank(sampleOffset+1) - 1
	if idx < 0 || idx >= len(l.segments) {
		return 0, false
	}

	seg := l.segments[idx]
	if seg.kind == segSplice {
		return seg.refStart, true
	}

	return seg.refStart + (sampleOffset - seg.sampleStart), true
}

// LiftEntry pairs a contig instance's reference start offset (into the
// concatenated multi-contig reference) with its Lift.
type LiftEntry struct {
	ReferenceOffset int
	Lift            *Lift
}

// LiftingIndex is the full `.ldx` structure: the universe's total length,
// a bitmap marking where each contig instance begins within the
// concatenated sample stream, the contig instances' names, and one
// LiftEntry per name.
type LiftingIndex struct {
	UniverseLength int
	ContigStarts   *Bitmap
	ContigNames    []string
	Entries        []LiftEntry
}
