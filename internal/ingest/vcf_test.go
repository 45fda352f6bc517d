package ingest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pfp/internal/ingest"
	"github.com/Sumatoshi-tech/pfp/internal/observability"
	"github.com/Sumatoshi-tech/pfp/pkg/pangenome"
)

func writeVCF(t *testing.T, dir string, lines ...string) string {
	t.Helper()

	path := filepath.Join(dir, "variants.vcf")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	return path
}

func baseContigs() map[string]*pangenome.ReferenceContig {
	chr1 := &pangenome.ReferenceContig{Name: "chr1", Bases: make([]byte, 20), GlobalOffset: 0}

	return map[string]*pangenome.ReferenceContig{"chr1": chr1}
}

func TestReadVCFParsesGenotypesAndNormalizesFrequency(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	contigs := baseContigs()
	path := writeVCF(t, dir,
		"##fileformat=VCFv4.2",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\ts2",
		"chr1\t2\t.\tA\tG\t.\t.\t.\tGT\t0/1\t1/1",
		"chr1\t10\t.\tG\tT,A\t.\t.\t.\tGT\t1/2\t0/0",
	)

	samples, err := ingest.ReadVCF(path, contigs, ingest.VCFOptions{})
	require.NoError(t, err)
	require.Len(t, samples, 2)

	chr1 := contigs["chr1"]
	require.Len(t, chr1.Variations, 2)
	require.InDelta(t, 1.0, chr1.Variations[0].Freq, 1e-9)
	require.InDelta(t, 0.5, chr1.Variations[1].Freq, 1e-9)

	s1 := samples[0]
	require.Equal(t, "s1", s1.ID)
	require.Len(t, s1.Contigs, 1)
	require.Equal(t, []int{0, 1}, s1.Contigs[0].VariationIdx)
	require.Equal(t, [][]int{{0, 1}, {1, 2}}, s1.Contigs[0].Genotype)

	s2 := samples[1]
	require.Equal(t, []int{0}, s2.Contigs[0].VariationIdx)
	require.Equal(t, [][]int{{1, 1}}, s2.Contigs[0].Genotype)
}

func TestReadVCFDropsSymbolicAlleleRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	contigs := baseContigs()
	path := writeVCF(t, dir,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1",
		"chr1\t5\t.\tC\t<DEL>\t.\t.\t.\tGT\t0/1",
	)

	counters := observability.NewErrorCounters()
	samples, err := ingest.ReadVCF(path, contigs, ingest.VCFOptions{Counters: counters})
	require.NoError(t, err)

	require.Empty(t, contigs["chr1"].Variations)
	require.Empty(t, samples[0].Contigs[0].VariationIdx)
	require.Equal(t, int64(1), counters.Snapshot()["unsupported_variant"])
}

func TestReadVCFLogsUnknownContig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	contigs := baseContigs()
	path := writeVCF(t, dir,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1",
		"chrX\t1\t.\tA\tG\t.\t.\t.\tGT\t0/1",
	)

	counters := observability.NewErrorCounters()
	samples, err := ingest.ReadVCF(path, contigs, ingest.VCFOptions{Counters: counters})
	require.NoError(t, err)
	require.Empty(t, samples[0].Contigs)
	require.Equal(t, int64(1), counters.Snapshot()["schema_mismatch"])
}

func TestReadVCFAppliesAllowListAndMaxSamples(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	contigs := baseContigs()
	path := writeVCF(t, dir,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\ts2\ts3",
		"chr1\t2\t.\tA\tG\t.\t.\t.\tGT\t0/1\t1/1\t0/1",
	)

	allow, err := pangenome.LoadAllowList(strings.NewReader("s1\ns3\n"))
	require.NoError(t, err)

	samples, err := ingest.ReadVCF(path, contigs, ingest.VCFOptions{AllowList: allow})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Equal(t, "s1", samples[0].ID)
	require.Equal(t, "s3", samples[1].ID)

	// MaxSamples caps the header columns considered before the allow-list
	// applies: only s1 and s2 are considered, and only s1 is allowed.
	capped, err := ingest.ReadVCF(path, baseContigs(), ingest.VCFOptions{AllowList: allow, MaxSamples: 2})
	require.NoError(t, err)
	require.Len(t, capped, 1)
	require.Equal(t, "s1", capped[0].ID)
}

func TestReadVCFRejectsOverlappingVariations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	contigs := baseContigs()
	path := writeVCF(t, dir,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1",
		"chr1\t2\t.\tACG\tG\t.\t.\t.\tGT\t0/1",
		"chr1\t3\t.\tC\tT\t.\t.\t.\tGT\t0/1",
	)

	counters := observability.NewErrorCounters()
	samples, err := ingest.ReadVCF(path, contigs, ingest.VCFOptions{Counters: counters})
	require.NoError(t, err)
	require.Len(t, samples[0].Contigs[0].VariationIdx, 1)
	require.Equal(t, int64(1), counters.Snapshot()["schema_mismatch"])
}
