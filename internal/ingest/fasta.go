// Package ingest provides the default file-format adapters that turn
// on-disk reference and variant files into the pkg/pangenome types the
// core pipeline consumes: gzip-or-plain FASTA for references and
// line-oriented VCF for genotypes, following original_source/src/vcf.cpp's
// field order and allele semantics since the teacher repo has no genomics
// format of its own to imitate.
package ingest

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
)

const fastaScanBufSize = 1 << 20

// openMaybeGzip opens path and, if its name ends in .gz, wraps it in a
// gzip.Reader. The returned closer closes both layers.
func openMaybeGzip(path string) (io.Reader, io.Closer, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: open %q: %w", path, err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()

		return nil, nil, fmt.Errorf("ingest: gzip %q: %w", path, err)
	}

	return gz, multiCloser{gz, f}, nil
}

type multiCloser struct {
	inner io.Closer
	outer io.Closer
}

func (m multiCloser) Close() error {
	innerErr := m.inner.Close()
	outerErr := m.outer.Close()

	if innerErr != nil {
		return innerErr
	}

	return outerErr
}

// ReadFASTA reads a (optionally gzip-compressed) multi-FASTA file into
// ReferenceContig records, one per ">" header, in file order. Each
// contig's name is the header text up to the first space, per spec.md
// §6. GlobalOffset accumulates across contigs in the order they appear,
// matching ReferenceContig.GlobalOffset's documented meaning.
func ReadFASTA(path string) ([]*pangenome.ReferenceContig, error) {
	r, closer, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, fastaScanBufSize), fastaScanBufSize)

	var (
		contigs []*pangenome.ReferenceContig
		offset  int
		cur     *pangenome.ReferenceContig
	)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if line[0] == '>' {
			if cur != nil {
				offset += len(cur.Bases)
			}

			name, _, _ := strings.Cut(line[1:], " ")
			cur = &pangenome.ReferenceContig{Name: name, GlobalOffset: offset}
			contigs = append(contigs, cur)

			continue
		}

		if cur == nil {
			return nil, fmt.Errorf("%w: %q: sequence data before any header", ErrMalformedFASTA, path)
		}

		cur.Bases = append(cur.Bases, line...)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ingest: scan %q: %w", path, err)
	}

	if len(contigs) == 0 {
		return nil, fmt.Errorf("%w: %q: no contigs found", ErrMalformedFASTA, path)
	}

	return contigs, nil
}
