package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsched/internal/domain"
)

// tableResolver backs a Resolver with a per-user day table.
func tableResolver(table map[string]map[domain.DateKey]domain.AvailabilityStatus) Resolver {
	return func(userID string, key domain.DateKey) domain.AvailabilityStatus {
		return table[userID][key]
	}
}

func TestSummarize_CountsAndScores(t *testing.T) {
	members := []string{"alice", "bob", "carol"}
	resolve := tableResolver(map[string]map[domain.DateKey]domain.AvailabilityStatus{
		"alice": {"2026-09-01": domain.StatusAvailable, "2026-09-02": domain.StatusMaybe},
		"bob":   {"2026-09-01": domain.StatusAvailable},
		"carol": {"2026-09-01": domain.StatusUnavailable},
	})

	summaries := Summarize(members, []domain.DateKey{"2026-09-01", "2026-09-02"}, resolve)
	require.Len(t, summaries, 2)

	first := summaries[0]
	assert.Equal(t, 2, first.AvailableCount)
	assert.Equal(t, 1, first.UnavailableCount)
	assert.Equal(t, 2+2-2, first.Score)

	second := summaries[1]
	assert.Equal(t, 1, second.MaybeCount)
	assert.Equal(t, 2, second.UnspecifiedCount)
	assert.Equal(t, 1, second.Score)
}

func TestRank_FullTieChain(t *testing.T) {
	summaries := []domain.DateScoreSummary{
		// Same score, more hard conflicts: loses to the next entry.
		{DateKey: "2026-09-03", Score: 2, UnavailableCount: 1, AvailableCount: 2},
		{DateKey: "2026-09-04", Score: 2, UnavailableCount: 0, AvailableCount: 1},
		// Top score wins outright.
		{DateKey: "2026-09-05", Score: 4, AvailableCount: 2},
		// Ties all the way to the date key: earlier date first.
		{DateKey: "2026-09-02", Score: 2, UnavailableCount: 0, AvailableCount: 1},
	}

	ranked := Rank(summaries)
	want := []domain.DateKey{"2026-09-05", "2026-09-02", "2026-09-04", "2026-09-03"}
	for i, key := range want {
		assert.Equal(t, key, ranked[i].DateKey, "position %d", i)
	}
}

func TestRank_DeterministicAndNonDestructive(t *testing.T) {
	summaries := []domain.DateScoreSummary{
		{DateKey: "2026-09-02", Score: 1},
		{DateKey: "2026-09-01", Score: 1},
	}
	first := Rank(summaries)
	second := Rank(summaries)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.DateKey("2026-09-02"), summaries[0].DateKey, "input order untouched")
}

func TestTopCandidates_SkipUnanswered(t *testing.T) {
	summaries := []domain.DateScoreSummary{
		{DateKey: "2026-09-01", Score: 0, UnspecifiedCount: 3},
		{DateKey: "2026-09-02", Score: -2, UnavailableCount: 1, UnspecifiedCount: 2},
	}

	top := TopCandidates(summaries, Options{TopN: 5, SkipUnanswered: true})
	require.Len(t, top, 1, "the untouched day never surfaces")
	assert.Equal(t, domain.DateKey("2026-09-02"), top[0].DateKey)

	top = TopCandidates(summaries, Options{TopN: 5, SkipUnanswered: false})
	assert.Len(t, top, 2)
	assert.Equal(t, domain.DateKey("2026-09-01"), top[0].DateKey, "zero beats a negative score")
}

func TestTopCandidates_BoundsAndDefault(t *testing.T) {
	var summaries []domain.DateScoreSummary
	for _, key := range []domain.DateKey{
		"2026-09-01", "2026-09-02", "2026-09-03", "2026-09-04",
		"2026-09-05", "2026-09-06", "2026-09-07",
	} {
		summaries = append(summaries, domain.DateScoreSummary{DateKey: key, AvailableCount: 1, Score: 2})
	}

	assert.Len(t, TopCandidates(summaries, Options{TopN: 3}), 3)
	assert.Len(t, TopCandidates(summaries, Options{}), DefaultTopN)
	assert.Len(t, TopCandidates(summaries[:2], Options{TopN: 5}), 2)
}

func TestAllGreen(t *testing.T) {
	summaries := []domain.DateScoreSummary{
		{DateKey: "2026-09-01", AvailableCount: 3},
		{DateKey: "2026-09-02", AvailableCount: 2, MaybeCount: 1},
	}

	assert.Equal(t, []domain.DateKey{"2026-09-01"}, AllGreen(summaries, 3))
	assert.Nil(t, AllGreen(summaries, 0), "no members means no all-green days")
}

func TestAnyRed(t *testing.T) {
	summaries := []domain.DateScoreSummary{
		{DateKey: "2026-09-01", AvailableCount: 3},
		{DateKey: "2026-09-02", AvailableCount: 2, UnavailableCount: 1},
	}
	assert.Equal(t, []domain.DateKey{"2026-09-02"}, AnyRed(summaries))
}
