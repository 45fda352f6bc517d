package pangenome

// Variation is one genotyped record: a 0-based contig offset, the reference
// length it consumes, an allele table (Alt[0] is conventionally the
// reference allele, Alt[i>0] the alternates), a population frequency, and
// a Used flag the ingestion pipeline sets once at least one sample selects
// a non-reference allele for it (so C4's reference pre-parse can skip
// variations nobody actually uses).
type Variation struct {
	Pos    int
	RefLen int
	Alt    [][]byte
	Freq   float64
	Used   bool
}

// IsSymbolicAllele reports whether allele is a symbolic allele (e.g. <DEL>,
// <INS:ME>), which spec.md §3 requires rejecting wherever a genotype would
// otherwise select it.
func IsSymbolicAllele(allele []byte) bool {
	return len(allele) > 0 && allele[0] == '<'
}

// ReferenceContig is a named, linear reference sequence shared read-only
// across every sample that uses it: its bytes, its offset within the
// multi-contig concatenation, and the full, cohort-wide set of variation
// records that apply to it (sorted by Pos).
type ReferenceContig struct {
	Name         string
	Bases        []byte
	GlobalOffset int
	Variations   []Variation
}

// ContigInstance is one sample's realization of a ReferenceContig: the
// ordered subset of variation indices (into Contig.Variations) this sample
// actually uses, and a genotype vector per selected variation — one
// allele index per ploidy slot, pointing into that Variation's Alt table.
type ContigInstance struct {
	Contig       *ReferenceContig
	VariationIdx []int
	Genotype     [][]int
}

// Sample is an identifier plus an ordered sequence of contig instances.
// Invariant (spec.md §3): a sample references each contig at most once.
type Sample struct {
	ID      string
	Contigs []ContigInstance
}

// ReferencesEachContigOnce validates the spec.md §3 invariant that a sample
// never visits the same reference contig twice in one pass.
func (s *Sample) ReferencesEachContigOnce() bool {
	seen := make(map[*ReferenceContig]bool, len(s.Contigs))

	for i := range s.Contigs {
		c := s.Contigs[i].Contig
		if seen[c] {
			return false
		}

		seen[c] = true
	}

	return true
}
