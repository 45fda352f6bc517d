package pangenome

import (
	"bufio"
	"io"
	"strings"
)

// AllowList restricts sample processing to a named subset, loaded from a
// newline-terminated file of sample ids (spec.md §6 optional input).
type AllowList struct {
	ids map[string]struct{}
}

// LoadAllowList reads one sample id per line from r. Blank lines are
// ignored. It always returns a non-nil list on success; an empty source
// yields a list that allows no sample. Only a nil *AllowList allows every
// sample (see Allows).
func LoadAllowList(r io.Reader) (*AllowList, error) {
	ids := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ids[line] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &AllowList{ids: ids}, nil
}

// Allows reports whether sampleID should be processed. A nil AllowList
// allows every sample.
func (a *AllowList) Allows(sampleID string) bool {
	if a == nil {
		return true
	}

	_, ok := a.ids[sampleID]

	return ok
}

// Len returns the number of ids in the list.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}

	return len(a.ids)
}
