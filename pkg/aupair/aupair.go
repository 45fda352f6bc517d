package aupair

import (
	"bytes"
	"fmt"

	"github.com/Sumatoshi-tech/pfp/pkg/pqueue"
)

// Result is AuPair's output: the contracted parse and dictionary (written
// to `.n_parse`/`.n_dict` side-by-side with the originals, per spec.md
// §4.7's open-question resolution against in-place swapping), plus the
// triggers actually removed and total bytes saved.
type Result struct {
	Parse          []uint32
	Dict           [][]byte
	RemovedTrigger [][]byte
	RemovedBytes   int
}

// Contractor runs AuPair over a finalized dictionary and parse. The
// original dictionary/parse are read-only; Contract synthesizes new
// phrases into a private table rather than mutating them.
type Contractor struct {
	window int
	dict   [][]byte // rank r (1-based) is dict[r-1]
	parse  []uint32 // original ranks, one per position, index-aligned with list

	list *LinkedList

	// rank of the phrase currently occupying each live position. Starts
	// as a copy of parse; after a merge, the surviving position's entry
	// is rewritten to point at a synthesized rank instead of its original
	// one. Distinct from parse, which always holds the ORIGINAL ranks
	// (needed to recompute refcounts deterministically).
	current []uint32

	// synthesized phrases, keyed by content so repeated merges producing
	// byte-identical results collapse into one new entry. Ranks assigned
	// here are disjoint from the original dictionary's (offset by
	// len(dict)) until Finalize flattens everything into one table.
	synthIndex map[string]int
	synthBytes [][]byte

	// content -> original 1-based rank, built once over dict. internPhrase
	// consults this before minting a synthetic rank: a merge that happens
	// to reproduce some other, still-live original phrase's bytes (common
	// in repetitive genomic sequence, exactly what AuPair runs over) must
	// reuse that original rank rather than mint a second entry with
	// identical content, or the contracted dictionary's uniqueness
	// invariant (spec.md §8) breaks.
	dictIndex map[string]uint32

	refcount map[uint32]int // original rank -> number of live positions still holding it directly (not yet merged away)
}

// NewContractor builds a Contractor over dict (rank r at dict[r-1]) and
// parse (ranks in emission order), with trigger window size window.
func NewContractor(window int, dict [][]byte, parse []uint32) *Contractor {
	c := &Contractor{
		window:     window,
		dict:       dict,
		parse:      append([]uint32(nil), parse...),
		list:       NewLinkedList(len(parse)),
		current:    append([]uint32(nil), parse...),
		synthIndex: make(map[string]int),
		dictIndex:  make(map[string]uint32, len(dict)),
		refcount:   make(map[uint32]int, len(dict)),
	}

	for i, phrase := range dict {
		c.dictIndex[string(phrase)] = uint32(i + 1) //nolint:gosec // dictionary size bounded well under 2^32
	}

	for _, r := range parse {
		c.refcount[r]++
	}

	return c
}

func (c *Contractor) phraseOf(rank uint32) []byte {
	if int(rank) <= len(c.dict) {
		return c.dict[rank-1]
	}

	return c.synthBytes[int(rank)-len(c.dict)-1]
}

// trigger returns the shared W-byte boundary between the phrase at pos
// and its live successor, which by the PFP overlap invariant always
// equals both that phrase's trailing W bytes and the successor's leading
// W bytes.
func (c *Contractor) trigger(pos int) (next int, key string, ok bool) {
	next, ok = c.list.Next(pos)
	if !ok {
		return 0, "", false
	}

	phrase := c.phraseOf(c.current[pos])
	if len(phrase) < c.window {
		return 0, "", false
	}

	return next, string(phrase[len(phrase)-c.window:]), true
}

// occurrencesByTrigger groups every live adjacency by its shared trigger
// bytes.
func (c *Contractor) occurrencesByTrigger() map[string][]int {
	groups := make(map[string][]int)

	pos, ok := c.list.First()
	for ok {
		if _, key, has := c.trigger(pos); has {
			groups[key] = append(groups[key], pos)
		}

		pos, ok = c.list.Next(pos)
	}

	return groups
}

// cost computes the current gain (positive = bytes saved) from removing
// every live occurrence of trigger among positions, without mutating any
// state: the sum of merged-phrase bytes added (deduplicated by content,
// since repeated merges can produce identical phrases) minus the bytes
// saved by original phrases that would become fully unreferenced once
// these occurrences are merged away.
func (c *Contractor) cost(positions []int) float64 {
	projectedDecrement := make(map[uint32]int)
	newPhrases := make(map[string]bool)

	var added float64

	for _, pos := range positions {
		next, ok := c.list.Next(pos)
		if !ok {
			continue
		}

		rankA, rankB := c.current[pos], c.current[next]
		projectedDecrement[c.parse[pos]]++
		projectedDecrement[c.parse[next]]++

		phraseA, phraseB := c.phraseOf(rankA), c.phraseOf(rankB)

		merged := mergePhrase(phraseA, phraseB, c.window)
		if key := string(merged); !newPhrases[key] {
			newPhrases[key] = true
			added += float64(len(merged))
		}
	}

	var saved float64

	for rank, dec := range projectedDecrement {
		if c.refcount[rank]-dec <= 0 {
			saved += float64(len(c.phraseOf(rank)))
		}
	}

	return saved - added
}

func mergePhrase(a, b []byte, window int) []byte {
	out := make([]byte, 0, len(a)+len(b)-window)
	out = append(out, a...)
	out = append(out, b[window:]...)

	return out
}

// apply commits the removal of every live occurrence of trigger among
// positions: for each, merges the phrase at pos with its successor's,
// rewrites pos's current rank to the (possibly newly synthesized) merged
// rank, removes the successor from the list, and updates refcounts.
func (c *Contractor) apply(positions []int) (removedBytes int) {
	for _, pos := range positions {
		next, ok := c.list.Next(pos)
		if !ok {
			continue
		}

		rankA, rankB := c.current[pos], c.current[next]
		phraseA, phraseB := c.phraseOf(rankA), c.phraseOf(rankB)
		merged := mergePhrase(phraseA, phraseB, c.window)

		mergedRank := c.internPhrase(merged)

		c.current[pos] = mergedRank

		c.list.RemoveAt(next)

		c.refcount[c.parse[pos]]--
		c.refcount[c.parse[next]]--

		removedBytes += c.window
	}

	return removedBytes
}

func (c *Contractor) internPhrase(phrase []byte) uint32 {
	key := string(phrase)

	if rank, ok := c.dictIndex[key]; ok {
		return rank
	}

	if id, ok := c.synthIndex[key]; ok {
		return uint32(len(c.dict) + id + 1) //nolint:gosec // dictionary size bounded well under 2^32
	}

	id := len(c.synthBytes)
	c.synthBytes = append(c.synthBytes, phrase)
	c.synthIndex[key] = id

	return uint32(len(c.dict) + id + 1) //nolint:gosec // dictionary size bounded well under 2^32
}

// Contract runs the greedy removal loop until budget bytes have been
// removed or no trigger has positive gain left, then flattens the result
// into a dense new parse/dictionary.
func (c *Contractor) Contract(budget int) (*Result, error) {
	groups := c.occurrencesByTrigger()

	pq := pqueue.New[string](len(groups))
	for key, positions := range groups {
		if err := pq.Push(key, c.cost(positions)); err != nil {
			return nil, fmt.Errorf("aupair: seeding queue: %w", err)
		}
	}

	var (
		removedBytes int
		removed      [][]byte
	)

	for removedBytes < budget {
		key, gain, ok := pq.GetMax()
		if !ok || gain <= 0 {
			break
		}

		pq.Pop() //nolint:errcheck // key just came from GetMax, guaranteed present

		positions := groups[key]
		delete(groups, key)

		removedBytes += c.apply(positions)
		removed = append(removed, []byte(key))

		// Neighboring triggers may have changed: every position now
		// adjacent to a position touched by this removal gets its group
		// membership and cost recomputed.
		if err := c.recomputeNeighbors(positions, groups, pq); err != nil {
			return nil, err
		}
	}

	parse, dict := c.flatten()

	return &Result{
		Parse:          parse,
		Dict:           dict,
		RemovedTrigger: removed,
		RemovedBytes:   removedBytes,
	}, nil
}

// recomputeNeighbors re-groups and re-prioritizes the triggers adjacent
// to positions just merged: the phrase at each pos changed, so its
// relationship with its new predecessor/successor (if any) must be
// re-evaluated from scratch rather than assumed stale.
func (c *Contractor) recomputeNeighbors(
	positions []int,
	groups map[string][]int,
	pq *pqueue.IndexedMaxPQ[string],
) error {
	touched := make(map[int]bool)

	for _, pos := range positions {
		touched[pos] = true

		if prev, ok := c.list.Prev(pos); ok {
			touched[prev] = true
		}
	}

	// Drop every stale group membership for touched positions, then
	// rebuild from the live list so a position's trigger key always
	// reflects its current phrase content.
	for key, group := range groups {
		filtered := group[:0]

		for _, p := range group {
			if !touched[p] && !c.list.Removed(p) {
				filtered = append(filtered, p)
			}
		}

		if len(filtered) == 0 {
			delete(groups, key)

			if pq.Contains(key) {
				if _, _, err := popID(pq, key); err != nil {
					return err
				}
			}

			continue
		}

		groups[key] = filtered
	}

	for pos := range touched {
		if c.list.Removed(pos) {
			continue
		}

		_, key, ok := c.trigger(pos)
		if !ok {
			continue
		}

		groups[key] = append(groups[key], pos)
	}

	for pos := range touched {
		if c.list.Removed(pos) {
			continue
		}

		_, key, ok := c.trigger(pos)
		if !ok {
			continue
		}

		gain := c.cost(groups[key])
		if pq.Contains(key) {
			if err := pq.Promote(key, gain); err != nil {
				return fmt.Errorf("aupair: reprioritizing %q: %w", key, err)
			}
		} else if err := pq.Push(key, gain); err != nil {
			return fmt.Errorf("aupair: pushing %q: %w", key, err)
		}
	}

	return nil
}

func popID(pq *pqueue.IndexedMaxPQ[string], key string) (string, float64, error) {
	// IndexedMaxPQ has no direct "remove by id", only Pop-the-max; since
	// callers only ever ask to drop a group that is about to be replaced
	// by Push/Promote below, demoting it to -infinity and letting it sit
	// unused is simpler and just as correct than extending pqueue's API
	// for a one-off internal need.
	if err := pq.Demote(key, negativeInfinity); err != nil {
		return "", 0, fmt.Errorf("aupair: demoting stale group %q: %w", key, err)
	}

	return key, negativeInfinity, nil
}

const negativeInfinity = -1 << 62

// flatten walks the live list in order, building a dense new parse over a
// flattened dictionary: original phrases that are still referenced keep
// their relative order, synthesized phrases are appended after them, and
// every current rank is remapped to its position in this new table.
func (c *Contractor) flatten() ([]uint32, [][]byte) {
	var (
		newDict   [][]byte
		byRank    = make(map[uint32]uint32)
		byContent = make(map[string]uint32)
		newParse  []uint32
	)

	pos, ok := c.list.First()
	for ok {
		rank := c.current[pos]

		newRank, seen := byRank[rank]
		if !seen {
			phrase := c.phraseOf(rank)

			// Dedup by content, not just by rank: two distinct current
			// ranks can still carry identical bytes (e.g. a synthesized
			// phrase internPhrase didn't already fold into an original
			// rank). Keying the flattened table by content, not rank
			// number, keeps it strictly unique either way.
			if existing, ok := byContent[string(phrase)]; ok {
				newRank = existing
			} else {
				newDict = append(newDict, phrase)
				newRank = uint32(len(newDict)) //nolint:gosec // dictionary size bounded well under 2^32
				byContent[string(phrase)] = newRank
			}

			byRank[rank] = newRank
		}

		newParse = append(newParse, newRank)

		pos, ok = c.list.Next(pos)
	}

	sortDictByContent(newDict, newParse)

	return newParse, newDict
}

// sortDictByContent re-sorts newDict lexicographically in place and
// rewrites newParse so its ranks still point at the right entries,
// preserving the "strictly increasing lexicographically" dictionary
// invariant (spec.md §8) for the contracted output too.
func sortDictByContent(dict [][]byte, parse []uint32) {
	order := make([]int, len(dict))
	for i := range order {
		order[i] = i
	}

	// Old index i held old rank i+1; insertion sort is fine here, AuPair
	// dictionaries are small relative to the full parse.
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && bytes.Compare(dict[order[j-1]], dict[order[j]]) > 0 {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}

	oldToNew := make([]uint32, len(dict)+1) // 1-based old rank -> 1-based new rank
	sorted := make([][]byte, len(dict))

	for newIdx, oldIdx := range order {
		sorted[newIdx] = dict[oldIdx]
		oldToNew[oldIdx+1] = uint32(newIdx + 1) //nolint:gosec // dictionary size bounded well under 2^32
	}

	copy(dict, sorted)

	for i, rank := range parse {
		parse[i] = oldToNew[rank]
	}
}
