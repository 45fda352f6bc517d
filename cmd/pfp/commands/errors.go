package commands

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/pfp/internal/observability"
)

// FatalKind distinguishes the ways a run can fail outright, separately
// from internal/observability.ErrorKind's per-record recoverable
// taxonomy: every FatalKind maps to exactly one process exit code, while
// ErrorKind only ever feeds a run-summary counter. The two taxonomies
// share vocabulary (Decode, Invariant, IOFailure) rather than duplicating
// it under different names, since a whole-file decode failure and a
// fatal I/O failure are the same *kinds* of problem at the per-record
// level — they're just fatal instead of recoverable here.
type FatalKind int

const (
	// FatalKindUsage covers bad flags, missing files, and invalid
	// configuration — caught before any parsing begins.
	FatalKindUsage FatalKind = iota
	// FatalKindDecode covers a whole-file input decode failure (spec.md
	// §7 kind 1): a malformed FASTA, or a VCF line truncated mid-record,
	// which leaves no safe way to keep reading that file.
	FatalKindDecode
	// FatalKindInvariant covers an invariant violation (spec.md §7 kind
	// 4): a dictionary hash collision, an out-of-range parse token, or a
	// backward haplotype seek.
	FatalKindInvariant
	// FatalKindIOFailure covers a failed write of a final output file
	// (spec.md §7 kind 5). Output files written before the failure are
	// left in place; no cleanup of partial output is performed.
	FatalKindIOFailure
)

func (k FatalKind) exitCode() int {
	switch k {
	case FatalKindUsage:
		return 2
	case FatalKindDecode:
		return 3
	case FatalKindInvariant:
		return 4
	case FatalKindIOFailure:
		return 5
	default:
		return 1
	}
}

func (k FatalKind) String() string {
	switch k {
	case FatalKindUsage:
		return "usage"
	case FatalKindDecode:
		return "decode"
	case FatalKindInvariant:
		return "invariant"
	case FatalKindIOFailure:
		return "io_failure"
	default:
		return "unknown"
	}
}

// FatalError is the distinguished error type the orchestrator (the pfp
// binary, the only actor allowed to call os.Exit) uses to choose a
// process exit code, wrapping whatever lower-level error triggered the
// abort.
type FatalError struct {
	Kind FatalKind
	Err  error
}

// NewFatalError wraps err as a FatalError of the given kind. A nil err
// still produces a non-nil *FatalError, since callers use this purely to
// tag an exit code, not to test for success.
func NewFatalError(kind FatalKind, err error) *FatalError {
	return &FatalError{Kind: kind, Err: err}
}

func newUsageError(err error) *FatalError {
	return NewFatalError(FatalKindUsage, err)
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// ObservabilityKind reports the internal/observability.ErrorKind this
// fatal condition would have been recorded as had it been recoverable,
// letting the run-summary table fold a fatal abort into the same
// per-kind counters a successful run prints.
func (k FatalKind) ObservabilityKind() (observability.ErrorKind, bool) {
	switch k {
	case FatalKindDecode:
		return observability.ErrorKindDecode, true
	case FatalKindInvariant:
		return observability.ErrorKindInvariant, true
	case FatalKindIOFailure:
		return observability.ErrorKindIOFailure, true
	case FatalKindUsage:
		return 0, false
	default:
		return 0, false
	}
}

// ExitCodeForError inspects err for a *FatalError and returns the exit
// code it names, defaulting to 1 (matching the teacher's unconditional
// os.Exit(1) in cmd/codefang/main.go) for any other error.
func ExitCodeForError(err error) int {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe.Kind.exitCode()
	}

	return 1
}
