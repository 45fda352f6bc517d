package parser

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// spillWriter appends SampleResults to a temporary lz4-compressed file
// instead of holding them in a worker's own memory, when the run's
// SpillCompression config is enabled. A large cohort's full set of
// strong-hash ids and lengths held in memory across every worker can
// dwarf the dictionary itself; spilling trades that for one append-only
// file per worker, reread once at Close.
type spillWriter struct {
	file *os.File
	lz   *lz4.Writer
	buf  *bufio.Writer
}

func newSpillWriter(bufferSize int) (*spillWriter, error) {
	f, err := os.CreateTemp("", "pfp-spill-*.lz4")
	if err != nil {
		return nil, fmt.Errorf("parser: create spill file: %w", err)
	}

	lz := lz4.NewWriter(f)
	buf := bufio.NewWriterSize(lz, bufferSize)

	return &spillWriter{file: f, lz: lz, buf: buf}, nil
}

// write appends one record: the sample index, its id, the phrase count,
// then one (id, length) pair per phrase, all little-endian, matching
// pkg/pfpio's on-disk conventions even though this file never leaves the
// machine.
func (s *spillWriter) write(res SampleResult) error {
	if err := binary.Write(s.buf, binary.LittleEndian, uint64(res.SampleIndex)); err != nil { //nolint:gosec
		return err
	}

	if err := writeSpillString(s.buf, res.SampleID); err != nil {
		return err
	}

	if err := binary.Write(s.buf, binary.LittleEndian, uint32(len(res.IDs))); err != nil { //nolint:gosec
		return err
	}

	for i, id := range res.IDs {
		if err := binary.Write(s.buf, binary.LittleEndian, id); err != nil {
			return err
		}

		if err := binary.Write(s.buf, binary.LittleEndian, uint32(res.Lens[i])); err != nil { //nolint:gosec
			return err
		}
	}

	return nil
}

// close flushes and closes the compressor and the file, leaving the
// finished file on disk for readSpillFile to reopen.
func (s *spillWriter) close() error {
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("parser: flush spill buffer: %w", err)
	}

	if err := s.lz.Close(); err != nil {
		return fmt.Errorf("parser: close spill compressor: %w", err)
	}

	return s.file.Close()
}

func (s *spillWriter) path() string { return s.file.Name() }

func writeSpillString(w io.Writer, str string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(str))); err != nil { //nolint:gosec
		return err
	}

	_, err := io.WriteString(w, str)

	return err
}

func readSpillString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	return string(buf), nil
}

// readSpillFile decompresses and decodes every record written by a
// spillWriter, then removes the file: spilled results are read back
// exactly once, at Close, and never needed again afterward.
func readSpillFile(path string) ([]SampleResult, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("parser: open spill file: %w", err)
	}
	defer f.Close()        //nolint:errcheck
	defer os.Remove(path) //nolint:errcheck

	lz := lz4.NewReader(f)

	var results []SampleResult

	for {
		var sampleIndex uint64

		if err := binary.Read(lz, binary.LittleEndian, &sampleIndex); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("parser: read spill record: %w", err)
		}

		sampleID, err := readSpillString(lz)
		if err != nil {
			return nil, fmt.Errorf("parser: read spill sample id: %w", err)
		}

		var count uint32
		if err := binary.Read(lz, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("parser: read spill count: %w", err)
		}

		res := SampleResult{
			SampleIndex: int(sampleIndex), //nolint:gosec
			SampleID:    sampleID,
			IDs:         make([]uint64, count),
			Lens:        make([]int, count),
		}

		for i := uint32(0); i < count; i++ {
			if err := binary.Read(lz, binary.LittleEndian, &res.IDs[i]); err != nil {
				return nil, fmt.Errorf("parser: read spill id %d: %w", i, err)
			}

			var length uint32
			if err := binary.Read(lz, binary.LittleEndian, &length); err != nil {
				return nil, fmt.Errorf("parser: read spill length %d: %w", i, err)
			}

			res.Lens[i] = int(length)
		}

		results = append(results, res)
	}

	return results, nil
}
