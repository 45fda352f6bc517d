// Package pangenome holds the data model shared by every PFP component:
// the reserved byte alphabet, variation records, contigs, and samples.
package pangenome

// Reserved sentinel byte values. They are chosen from the low, non-printable
// range of the byte alphabet so they can never collide with biological
// sequence data (which is ASCII nucleotide/amino-acid letters). Their
// relative order is part of the wire contract: it determines how sentinel
// runs sort against each other and against real bases wherever phrases are
// compared lexicographically, so it must never change between runs.
const (
	// Dollar is the global string terminator; it appears W times at the
	// very start of the parsed universe (GlobalSeed) and W times at the
	// very end (FinalTerminator).
	Dollar byte = 0x00

	// DollarPrime fills the first W-1 bytes of UnitSeparator and
	// FinalTerminator; within one sample haplotype, a single DollarPrime
	// byte separates consecutive contig instances.
	DollarPrime byte = 0x01

	// DollarSequence is the last byte of UnitSeparator: it marks the end of
	// one unit (a reference contig or one sample haplotype) that another
	// unit follows.
	DollarSequence byte = 0x02

	// EndOfWord separates phrases in the .dict file.
	EndOfWord byte = 0x03

	// EndOfDict terminates the .dict file.
	EndOfDict byte = 0x04
)

// IsSentinel reports whether b is one of the five reserved sentinel bytes.
func IsSentinel(b byte) bool {
	switch b {
	case Dollar, DollarPrime, DollarSequence, EndOfWord, EndOfDict:
		return true
	default:
		return false
	}
}

// GlobalSeed returns the window-byte run of literal DOLLAR bytes that
// opens the very first phrase of the whole parsed universe (spec.md
// §4.4/§4.5; see DESIGN.md's sentinel framing decision for why this
// module treats it as window, not one, literal bytes).
func GlobalSeed(window int) []byte {
	return repeat(Dollar, window)
}

// UnitSeparator returns the window-byte run — (window-1) DOLLAR_PRIME
// bytes followed by one DOLLAR_SEQUENCE byte — that both closes one unit
// (a reference contig, or a complete sample haplotype) and seeds the next
// unit's first phrase with its required W-byte overlap (spec.md §4.4).
func UnitSeparator(window int) []byte {
	out := repeat(DollarPrime, window-1)
	return append(out, DollarSequence)
}

// FinalTerminator returns the tail of the whole parsed universe —
// (window-1) DOLLAR_PRIME bytes followed by window DOLLAR bytes — closing
// the very last unit with no DOLLAR_SEQUENCE, since there is no further
// unit left to seed (spec.md §8 scenario 6; §3 invariant 3).
func FinalTerminator(window int) []byte {
	out := repeat(DollarPrime, window-1)
	return append(out, repeat(Dollar, window)...)
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}

	return out
}
