package pfpio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
)

// ReadDict parses the `.dict` format written by WriteDict, returning
// phrases in their original (rank) order: the i-th element (0-based) is
// rank id i+1.
func ReadDict(r io.Reader) ([][]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pfpio: read dict: %w", err)
	}

	raw = bytes.TrimSuffix(raw, []byte{pangenome.EndOfDict})
	if len(raw) == 0 {
		return nil, nil
	}

	// Every phrase, including the last, is EndOfWord-terminated, so
	// splitting leaves one trailing empty element to drop.
	words := bytes.Split(raw, []byte{pangenome.EndOfWord})
	words = words[:len(words)-1]

	phrases := make([][]byte, len(words))
	for i, word := range words {
		phrases[i] = append([]byte(nil), word...)
	}

	return phrases, nil
}

// ReadDictz parses the compressed-dictionary variant: phrase bodies with
// no separators, split using the parallel length stream.
func ReadDictz(dicz, diczLen io.Reader) ([][]byte, error) {
	brBody := bufio.NewReader(dicz)
	brLen := bufio.NewReader(diczLen)

	var phrases [][]byte

	for {
		length, err := readUint32(brLen)
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("pfpio: read dicz length %d: %w", len(phrases), err)
		}

		phrase := make([]byte, length)
		if _, err := io.ReadFull(brBody, phrase); err != nil {
			return nil, fmt.Errorf("pfpio: read dicz body %d: %w", len(phrases), err)
		}

		phrases = append(phrases, phrase)
	}

	return phrases, nil
}

// ReadParse parses the `.parse` format written by WriteParse.
func ReadParse(r io.Reader) ([]uint32, error) {
	br := bufio.NewReader(r)

	var ranks []uint32

	for {
		rank, err := readUint32(br)
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("pfpio: read parse entry %d: %w", len(ranks), err)
		}

		ranks = append(ranks, rank)
	}

	return ranks, nil
}

// ReadOcc parses the `.occ` format written by WriteOcc.
func ReadOcc(r io.Reader) ([]uint64, error) {
	br := bufio.NewReader(r)

	var counts []uint64

	for {
		count, err := readUint64(br)
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("pfpio: read occ entry %d: %w", len(counts), err)
		}

		counts = append(counts, count)
	}

	return counts, nil
}

// ReadLidx parses the `.lidx` format written by WriteLidx.
func ReadLidx(r io.Reader) ([]LengthEntry, error) {
	sc := bufio.NewScanner(r)

	var entries []LengthEntry

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}

		var e LengthEntry
		if _, err := fmt.Sscanf(line, "%s %d", &e.Name, &e.Length); err != nil {
			return nil, fmt.Errorf("pfpio: parse lidx line %q: %w", line, err)
		}

		entries = append(entries, e)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("pfpio: read lidx: %w", err)
	}

	return entries, nil
}
