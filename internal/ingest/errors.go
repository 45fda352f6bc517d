package ingest

import "errors"

// Sentinel errors surfaced by the FASTA and VCF readers. Schema-class
// conditions (malformed records, unknown contigs, overlaps) are
// recoverable — callers log them and keep reading; ErrMalformedFASTA and
// ErrTruncatedRecord are the exceptions, since a broken reference or a
// cut-off VCF line leaves no safe way to keep parsing that file.
var (
	ErrMalformedFASTA  = errors.New("ingest: malformed FASTA")
	ErrTruncatedRecord = errors.New("ingest: truncated VCF record")
	ErrUnknownContig   = errors.New("ingest: unknown contig")
	ErrSymbolicAllele  = errors.New("ingest: symbolic allele")
	ErrPloidyMismatch  = errors.New("ingest: inconsistent ploidy")
)
