package factcheck

import (
	"sort"

	"github.com/samber/lo"
)

// Tier is one immutable domain budget of Stage 2.
type Tier struct {
	Limit      int
	Candidates []SourceCandidate
}

// Domains returns the distinct domains of the tier in priority order.
func (t Tier) Domains() []string {
	return lo.Uniq(lo.Map(t.Candidates, func(c SourceCandidate, _ int) string { return c.Domain }))
}

// BuildTiers derives the ordered domain budgets from candidates: a tight limit, a
// relaxed limit and the full deduplicated set. Sizes are sorted ascending with
// duplicates dropped, and each tier is a prefix of the next, so the last tier is always
// the full set. Limits of zero or less mean "everything".
func BuildTiers(candidates []SourceCandidate, tight, relaxed int) []Tier {
	unique := dedupCandidates(candidates)
	n := len(unique)
	if n == 0 {
		return nil
	}
	sizes := []int{tierSize(tight, n), tierSize(relaxed, n), n}
	sort.Ints(sizes)
	sizes = lo.Uniq(sizes)

	tiers := make([]Tier, 0, len(sizes))
	for _, size := range sizes {
		snapshot := make([]SourceCandidate, size)
		copy(snapshot, unique[:size])
		tiers = append(tiers, Tier{Limit: size, Candidates: snapshot})
	}
	return tiers
}

func tierSize(limit, n int) int {
	if limit <= 0 || limit > n {
		return n
	}
	return limit
}

// dedupCandidates keeps the first candidate of each (domain, url) pair.
func dedupCandidates(candidates []SourceCandidate) []SourceCandidate {
	return lo.UniqBy(candidates, func(c SourceCandidate) string { return c.key() })
}
