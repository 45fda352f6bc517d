package ingest_test

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pfp/internal/ingest"
)

func TestReadFASTAParsesMultipleContigsWithCumulativeOffsets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ref.fa")
	content := ">chr1 some description\nACGTACGT\nACGT\n>chr2 other\nTTTT\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	contigs, err := ingest.ReadFASTA(path)
	require.NoError(t, err)
	require.Len(t, contigs, 2)

	require.Equal(t, "chr1", contigs[0].Name)
	require.Equal(t, 0, contigs[0].GlobalOffset)
	require.Equal(t, "ACGTACGTACGT", string(contigs[0].Bases))

	require.Equal(t, "chr2", contigs[1].Name)
	require.Equal(t, 12, contigs[1].GlobalOffset)
	require.Equal(t, "TTTT", string(contigs[1].Bases))
}

func TestReadFASTAHandlesGzip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ref.fa.gz")

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(">only\nACGT\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	contigs, err := ingest.ReadFASTA(path)
	require.NoError(t, err)
	require.Len(t, contigs, 1)
	require.Equal(t, "ACGT", string(contigs[0].Bases))
}

func TestReadFASTARejectsSequenceBeforeHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.fa")
	require.NoError(t, os.WriteFile(path, []byte("ACGT\n"), 0o600))

	_, err := ingest.ReadFASTA(path)
	require.ErrorIs(t, err, ingest.ErrMalformedFASTA)
}

func TestReadFASTARejectsEmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.fa")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

	_, err := ingest.ReadFASTA(path)
	require.ErrorIs(t, err, ingest.ErrMalformedFASTA)
}
