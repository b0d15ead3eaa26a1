// Package ranking scores candidate dates from every member's availability
// and produces the host's ordered pick list.
package ranking

import (
	"sort"

	"groupsched/internal/domain"
)

// DefaultTopN is how many top candidates are surfaced when no count is given.
const DefaultTopN = 5

// Resolver reports a member's effective status for a date.
type Resolver func(userID string, key domain.DateKey) domain.AvailabilityStatus

// Options controls candidate selection.
type Options struct {
	// TopN bounds the candidate list; 0 means DefaultTopN.
	TopN int
	// SkipUnanswered drops dates where no member has recorded any status,
	// so untouched days never surface as false positives.
	SkipUnanswered bool
}

// Summarize aggregates every member's status for each date, in date order.
func Summarize(memberIDs []string, keys []domain.DateKey, resolve Resolver) []domain.DateScoreSummary {
	summaries := make([]domain.DateScoreSummary, 0, len(keys))
	for _, key := range keys {
		s := domain.DateScoreSummary{DateKey: key}
		for _, member := range memberIDs {
			status := resolve(member, key)
			s.Score += status.Score()
			switch status {
			case domain.StatusAvailable:
				s.AvailableCount++
			case domain.StatusMaybe:
				s.MaybeCount++
			case domain.StatusUnavailable:
				s.UnavailableCount++
			default:
				s.UnspecifiedCount++
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// Rank orders summaries by desirability: score descending, then fewer hard
// conflicts, then more confirmed yeses, then ascending date key. The final
// tie-break makes the order total and re-runs deterministic.
func Rank(summaries []domain.DateScoreSummary) []domain.DateScoreSummary {
	ranked := make([]domain.DateScoreSummary, len(summaries))
	copy(ranked, summaries)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.UnavailableCount != b.UnavailableCount {
			return a.UnavailableCount < b.UnavailableCount
		}
		if a.AvailableCount != b.AvailableCount {
			return a.AvailableCount > b.AvailableCount
		}
		return a.DateKey < b.DateKey
	})
	return ranked
}

// answered reports whether any member recorded a status for the date.
func answered(s domain.DateScoreSummary) bool {
	return s.AvailableCount+s.MaybeCount+s.UnavailableCount > 0
}

// TopCandidates ranks the summaries and returns the first TopN, optionally
// skipping dates nobody has answered.
func TopCandidates(summaries []domain.DateScoreSummary, opts Options) []domain.DateScoreSummary {
	n := opts.TopN
	if n <= 0 {
		n = DefaultTopN
	}
	top := make([]domain.DateScoreSummary, 0, n)
	for _, s := range Rank(summaries) {
		if opts.SkipUnanswered && !answered(s) {
			continue
		}
		top = append(top, s)
		if len(top) == n {
			break
		}
	}
	return top
}

// AllGreen returns the dates where every member is available, in date order.
// An empty member set yields no dates; "everyone is free" is never
// vacuously true.
func AllGreen(summaries []domain.DateScoreSummary, memberCount int) []domain.DateKey {
	if memberCount == 0 {
		return nil
	}
	var keys []domain.DateKey
	for _, s := range summaries {
		if s.AvailableCount == memberCount {
			keys = append(keys, s.DateKey)
		}
	}
	return keys
}

// AnyRed returns the dates where at least one member is unavailable, in
// date order.
func AnyRed(summaries []domain.DateScoreSummary) []domain.DateKey {
	var keys []domain.DateKey
	for _, s := range summaries {
		if s.UnavailableCount > 0 {
			keys = append(keys, s.DateKey)
		}
	}
	return keys
}
