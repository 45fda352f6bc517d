package pfpio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// WriteLdx writes idx to the `.ldx` binary format: total universe length,
// the contig-start bitmap, the contig names, then one (reference_offset,
// Lift) pair per name.
func WriteLdx(w io.Writer, idx *LiftingIndex) error {
	bw := bufio.NewWriter(w)

	if err := writeUint64(bw, uint64(idx.UniverseLength)); err != nil { //nolint:gosec // bounded by input size
		return fmt.Errorf("pfpio: write ldx universe length: %w", err)
	}

	if err := writeBitmap(bw, idx.ContigStarts); err != nil {
		return fmt.Errorf("pfpio: write ldx contig starts: %w", err)
	}

	if err := writeUint32(bw, uint32(len(idx.ContigNames))); err != nil { //nolint:gosec // bounded by input size
		return fmt.Errorf("pfpio: write ldx contig count: %w", err)
	}

	for i, name := range idx.ContigNames {
		if err := writeString(bw, name); err != nil {
			return fmt.Errorf("pfpio: write ldx contig name %d: %w", i, err)
		}
	}

	for i, e := range idx.Entries {
		if err := writeUint64(bw, uint64(e.ReferenceOffset)); err != nil { //nolint:gosec // bounded by input size
			return fmt.Errorf("pfpio: write ldx entry %d reference offset: %w", i, err)
		}

		if err := writeLift(bw, e.Lift); err != nil {
			return fmt.Errorf("pfpio: write ldx entry %d lift: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("pfpio: flush ldx: %w", err)
	}

	return nil
}

// ReadLdx parses the `.ldx` binary format written by WriteLdx.
func ReadLdx(r io.Reader) (*LiftingIndex, error) {
	br := bufio.NewReader(r)

	universeLength, err := readUint64(br)
	if err != nil {
		return nil, fmt.Errorf("pfpio: read ldx universe length: %w", err)
	}

	starts, err := readBitmap(br)
	if err != nil {
		return nil, fmt.Errorf("pfpio: read ldx contig starts: %w", err)
	}

	nameCount, err := readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("pfpio: read ldx contig count: %w", err)
	}

	idx := &LiftingIndex{
		UniverseLength: int(universeLength),
		ContigStarts:   starts,
		ContigNames:    make([]string, nameCount),
		Entries:        make([]LiftEntry, nameCount),
	}

	for i := range idx.ContigNames {
		name, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("pfpio: read ldx contig name %d: %w", i, err)
		}

		idx.ContigNames[i] = name
	}

	for i := range idx.Entries {
		refOffset, err := readUint64(br)
		if err != nil {
			return nil, fmt.Errorf("pfpio: read ldx entry %d reference offset: %w", i, err)
		}

		lift, err := readLift(br)
		if err != nil {
			return nil, fmt.Errorf("pfpio: read ldx entry %d lift: %w", i, err)
		}

		idx.Entries[i] = LiftEntry{ReferenceOffset: int(refOffset), Lift: lift}
	}

	return idx, nil
}

func writeBitmap(w io.Writer, b *Bitmap) error {
	if err := writeUint64(w, uint64(b.n)); err != nil { //nolint:gosec // bounded by input size
		return err
	}

	if err := writeUint64(w, uint64(len(b.words))); err != nil { //nolint:gosec // bounded by input size
		return err
	}

	for _, word := range b.words {
		if err := writeUint64(w, word); err != nil {
			return err
		}
	}

	return nil
}

func readBitmap(r io.Reader) (*Bitmap, error) {
	n, err := readUint64(r)
	if err != nil {
		return nil, err
	}

	wordCount, err := readUint64(r)
	if err != nil {
		return nil, err
	}

	b := &Bitmap{words: make([]uint64, wordCount), n: int(n)}

	for i := range b.words {
		w, err := readUint64(r)
		if err != nil {
			return nil, err
		}

		b.words[i] = w
	}

	b.Build()

	return b, nil
}

func writeLift(w io.Writer, l *Lift) error {
	if err := writeUint64(w, uint64(l.total)); err != nil { //nolint:gosec // bounded by input size
		return err
	}

	if err := writeUint32(w, uint32(len(l.segments))); err != nil { //nolint:gosec // bounded by input size
		return err
	}

	for _, seg := range l.segments {
		if err := writeUint64(w, uint64(seg.sampleStart)); err != nil { //nolint:gosec // bounded by input size
			return err
		}

		if err := writeUint64(w, uint64(seg.refStart)); err != nil { //nolint:gosec // bounded by input size
			return err
		}

		if err := writeByte(w, byte(seg.kind)); err != nil {
			return err
		}
	}

	return nil
}

// readLift reconstructs a Lift from its serialized segments, rebuilding
// the rank/select bitmap rather than persisting it: the bitmap is fully
// determined by the segments' sample-start offsets, so storing it on disk
// would only duplicate what AddCopySegment/AddSpliceSegment already
// record.
func readLift(r io.Reader) (*Lift, error) {
	total, err := readUint64(r)
	if err != nil {
		return nil, err
	}

	segCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}

	l := NewLift(int(total))

	for i := uint32(0); i < segCount; i++ {
		sampleStart, err := readUint64(r)
		if err != nil {
			return nil, err
		}

		refStart, err := readUint64(r)
		if err != nil {
			return nil, err
		}

		kind, err := readByte(r)
		if err != nil {
			return nil, err
		}

		l.add(int(sampleStart), int(refStart), segmentKind(kind))
	}

	l.Build()

	return l, nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])

	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte

	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])

	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return buf[0], nil
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil { //nolint:gosec // contig names are short
		return err
	}

	_, err := io.WriteString(w, s)

	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	return string(buf), nil
}
