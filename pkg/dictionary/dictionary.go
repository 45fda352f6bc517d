// Package dictionary implements the shared phrase dictionary (spec.md
// §4.2): a content-addressed set of phrases with occurrence counts, safe
// for concurrent insertion by worker goroutines, and a one-time
// finalization step that assigns dense, lexicographically-ordered rank
// ids.
package dictionary

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/Sumatoshi-tech/pfp/pkg/alg/bloom"
	"github.com/Sumatoshi-tech/pfp/pkg/alg/hashutil"
)

// CollisionError reports two distinct phrases that hashed to the same
// 64-bit strong-hash identifier — an invariant violation (spec.md §7 kind
// 4) that aborts the run.
type CollisionError struct {
	Hash     uint64
	Existing []byte
	New      []byte
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf(
		"dictionary: strong-hash collision on %#x between phrases %q and %q",
		e.Hash, e.Existing, e.New,
	)
}

type entry struct {
	bytes   []byte
	count   uint64
	rankID  uint32 // valid only after finalization
}

// Dictionary is the concurrent, content-addressed phrase set. Zero value
// is not usable; construct with New.
type Dictionary struct {
	mu sync.Mutex

	filter *bloom.Filter // pre-filter, reduces lock contention on misses

	byHash map[uint64]*entry

	finalized bool
	byRank    []uint64 // rank id (1-based, index 0 unused) -> hash
}

// New creates an empty Dictionary sized for approximately expectedPhrases
// distinct phrases, used only to size the Bloom pre-filter.
func New(expectedPhrases uint) (*Dictionary, error) {
	if expectedPhrases == 0 {
		expectedPhrases = 1
	}

	filter, err := bloom.NewWithEstimates(expectedPhrases, 0.01)
	if err != nil {
		return nil, fmt.Errorf("dictionary: sizing bloom filter: %w", err)
	}

	return &Dictionary{
		filter: filter,
		byHash: make(map[uint64]*entry, expectedPhrases),
	}, nil
}

// CheckAndAdd inserts phrase if absent (returning its new strong-hash id)
// or increments its occurrence count if present (returning its existing
// id). It is safe for concurrent use before Finalize. Returns a
// *CollisionError if phrase's strong hash matches an existing, distinct
// phrase.
func (d *Dictionary) CheckAndAdd(phrase []byte) (uint64, error) {
	hash := hashutil.StrongHash64(phrase)

	// Bloom test first, outside the mutex: "definitely not present" lets
	// the common first-sighting case skip the map lookup below. Because
	// this test is unlocked, two workers sighting the same new phrase at
	// once can both see a miss, so a miss is tested again under the lock
	// (every Add happens under it) before the insert path is taken.
	maybePresent := d.filter.Test(phrase)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.finalized {
		panic("dictionary: CheckAndAdd called after Finalize")
	}

	if maybePresent || d.filter.Test(phrase) {
		if e, ok := d.byHash[hash]; ok {
			if !bytes.Equal(e.bytes, phrase) {
				return 0, &CollisionError{Hash: hash, Existing: e.bytes, New: phrase}
			}

			e.count++

			return hash, nil
		}
	}

	owned := append([]byte(nil), phrase...)
	d.byHash[hash] = &entry{bytes: owned, count: 1}
	d.filter.Add(owned)

	return hash, nil
}

// Reaffirm bumps the occurrence count of an already-known phrase by its
// strong-hash id, without recomputing anything — used by the sample
// parser's acceleration path when it copies a reference phrase id
// directly instead of re-hashing its bytes. Reports false if hash is not
// a known phrase.
func (d *Dictionary) Reaffirm(hash uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.finalized {
		panic("dictionary: Reaffirm called after Finalize")
	}

	e, ok := d.byHash[hash]
	if !ok {
		return false
	}

	e.count++

	return true
}

// Contains reports whether phrase has already been inserted. Safe for
// concurrent use before Finalize.
func (d *Dictionary) Contains(phrase []byte) bool {
	if !d.filter.Test(phrase) {
		return false
	}

	hash := hashutil.StrongHash64(phrase)

	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.byHash[hash]

	return ok && bytes.Equal(e.bytes, phrase)
}

// Size returns the number of distinct phrases inserted so far.
func (d *Dictionary) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.byHash)
}

// Finalize freezes the dictionary, sorts phrases lexicographically, and
// assigns each a dense 1-based rank id in that order (spec.md §4.2). It
// is called after all concurrent insertion has stopped; CheckAndAdd must
// not run concurrently with or after Finalize. Calling Finalize again
// after the first call is a no-op that returns nil.
func (d *Dictionary) Finalize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.finalized {
		return nil
	}

	hashes := make([]uint64, 0, len(d.byHash))
	for h := range d.byHash {
		hashes = append(hashes, h)
	}

	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(d.byHash[hashes[i]].bytes, d.byHash[hashes[j]].bytes) < 0
	})

	d.byRank = make([]uint64, len(hashes)+1) // index 0 unused, ranks are 1-based

	for i, h := range hashes {
		rank := uint32(i + 1) //nolint:gosec // dictionary size is bounded well under 2^32 by spec.md's domain
		d.byHash[h].rankID = rank
		d.byRank[rank] = h
	}

	d.finalized = true

	return nil
}

// RankOf returns the 1-based rank id for a strong-hash id produced before
// finalization. Valid only after Finalize.
func (d *Dictionary) RankOf(hash uint64) (uint32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.byHash[hash]
	if !ok || !d.finalized {
		return 0, false
	}

	return e.rankID, true
}

// PhraseAt returns the phrase bytes for a 1-based rank id. Valid only
// after Finalize.
func (d *Dictionary) PhraseAt(rank uint32) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.finalized || int(rank) <= 0 || int(rank) >= len(d.byRank) {
		return nil, false
	}

	return d.byHash[d.byRank[rank]].bytes, true
}

// Occurrences returns the occurrence count recorded for a 1-based rank id,
// in dictionary (sorted) order. Valid only after Finalize.
func (d *Dictionary) Occurrences(rank uint32) (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.finalized || int(rank) <= 0 || int(rank) >= len(d.byRank) {
		return 0, false
	}

	return d.byHash[d.byRank[rank]].count, true
}

// SortedPhrases returns every phrase in rank order (1-based rank i is
// SortedPhrases()[i-1]). Valid only after Finalize. The returned slices
// alias internal storage and must not be mutated.
func (d *Dictionary) SortedPhrases() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.finalized {
		return nil
	}

	out := make([][]byte, 0, len(d.byRank)-1)
	for rank := 1; rank < len(d.byRank); rank++ {
		out = append(out, d.byHash[d.byRank[rank]].bytes)
	}

	return out
}
