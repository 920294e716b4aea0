package parser

import (
	"sort"

	"github.com/Alex-AIMS/nz-addresses/internal/store"
)

// SortCandidates returns a copy of rows ordered by priority, street match
// quality and address id. The store already orders them; sorting again keeps
// the order total for any backend.
func SortCandidates(rows []store.RankedRow) []store.RankedRow {
	out := make([]store.RankedRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return candidateLess(out[i], out[j])
	})
	return out
}

func candidateLess(a, b store.RankedRow) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.StreetMatchQuality != b.StreetMatchQuality {
		return a.StreetMatchQuality < b.StreetMatchQuality
	}
	return a.Record.AddressID < b.Record.AddressID
}

// SelectCandidate picks from sorted, non-empty candidates. With a city, the
// first candidate in that city wins; otherwise the top candidate.
func SelectCandidate(sorted []store.RankedRow, hasCity bool) store.RankedRow {
	if len(sorted) == 1 || !hasCity {
		return sorted[0]
	}
	for _, c := range sorted {
		if c.Priority == store.PriorityCityMatch {
			return c
		}
	}
	return sorted[0]
}
