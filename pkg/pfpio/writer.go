// Package pfpio implements the output writer and lifting index (spec.md
// §4.6): the on-disk `.dict`/`.dicz`+`.dicz.len`/`.parse`/`.occ`/`.lidx`/
// `.ldx` formats, and the rank/select bitmaps backing O(1) lifting
// lookups.
package pfpio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
)

// WriteDict writes phrases — already in sorted (rank) order — to the
// `.dict` format: each phrase terminated by EndOfWord, the whole file
// terminated by EndOfDict.
func WriteDict(w io.Writer, phrases [][]byte) error {
	bw := bufio.NewWriter(w)

	for i, phrase := range phrases {
		if _, err := bw.Write(phrase); err != nil {
			return fmt.Errorf("pfpio: write dict phrase %d: %w", i, err)
		}

		if err := bw.WriteByte(pangenome.EndOfWord); err != nil {
			return fmt.Errorf("pfpio: write dict terminator %d: %w", i, err)
		}
	}

	if err := bw.WriteByte(pangenome.EndOfDict); err != nil {
		return fmt.Errorf("pfpio: write dict end: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("pfpio: flush dict: %w", err)
	}

	return nil
}

// WriteDictz writes the compressed-dictionary variant: phrase bodies
// concatenated with no separators at all (the `.dicz` file), and a
// parallel stream of little-endian uint32 lengths (the `.dicz.len`
// file), one per phrase in the same order.
func WriteDictz(dicz, diczLen io.Writer, phrases [][]byte) error {
	bwBody := bufio.NewWriter(dicz)
	bwLen := bufio.NewWriter(diczLen)

	var lenBuf [4]byte

	for i, phrase := range phrases {
		if _, err := bwBody.Write(phrase); err != nil {
			return fmt.Errorf("pfpio: write dicz body phrase %d: %w", i, err)
		}

		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(phrase))) //nolint:gosec // phrase length is bounded well under 2^32

		if _, err := bwLen.Write(lenBuf[:]); err != nil {
			return fmt.Errorf("pfpio: write dicz length %d: %w", i, err)
		}
	}

	if err := bwBody.Flush(); err != nil {
		return fmt.Errorf("pfpio: flush dicz body: %w", err)
	}

	if err := bwLen.Flush(); err != nil {
		return fmt.Errorf("pfpio: flush dicz lengths: %w", err)
	}

	return nil
}

// WriteParse writes ranks — the finalized parse, one 1-based dictionary
// rank id per phrase occurrence, in emission order — to the `.parse`
// format: fixed-width little-endian uint32s.
func WriteParse(w io.Writer, ranks []uint32) error {
	bw := bufio.NewWriter(w)

	var buf [4]byte

	for i, rank := range ranks {
		binary.LittleEndian.PutUint32(buf[:], rank)

		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("pfpio: write parse entry %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("pfpio: flush parse: %w", err)
	}

	return nil
}

// WriteOcc writes occurrence counts — one little-endian uint64 per
// dictionary rank, in rank order — to the `.occ` format.
func WriteOcc(w io.Writer, counts []uint64) error {
	bw := bufio.NewWriter(w)

	var buf [8]byte

	for i, count := range counts {
		binary.LittleEndian.PutUint64(buf[:], count)

		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("pfpio: write occ entry %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("pfpio: flush occ: %w", err)
	}

	return nil
}

// LengthEntry is one `name length` record in a `.lidx` file: a single
// contig-instance's emitted length (reference contig or sample contig
// instance), including its trailing sentinel window, in emission order.
type LengthEntry struct {
	Name   string
	Length int
}

// WriteLidx writes entries to the `.lidx` format: whitespace-separated
// `name length` pairs, one per line, in emission order.
func WriteLidx(w io.Writer, entries []LengthEntry) error {
	bw := bufio.NewWriter(w)

	for i, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s %d\n", e.Name, e.Length); err != nil {
			return fmt.Errorf("pfpio: write lidx entry %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("pfpio: flush lidx: %w", err)
	}

	return nil
}
