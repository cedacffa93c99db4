package agreement

import (
	"sort"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

// topSkippedLimit caps the most-skipped pair list.
const topSkippedLimit = 20

// SkippedPairCount is one pair and how many reviewers skipped it.
type SkippedPairCount struct {
	Pair      database.Pair `json:"pair"`
	SkipCount int           `json:"skip_count"`
}

// ReviewerSkipRate is one reviewer's skip behavior.
type ReviewerSkipRate struct {
	UserID   int64   `json:"user_id"`
	Name     string  `json:"name"`
	Skips    int     `json:"skips"`
	Votes    int     `json:"votes"`
	SkipRate float64 `json:"skip_rate"`
}

// SkipStats is the campaign-wide skip analysis.
type SkipStats struct {
	TotalSkips         int                `json:"total_skips"`
	UniquePairsSkipped int                `json:"unique_pairs_skipped"`
	SkipRate           float64            `json:"skip_rate"`
	TopSkipped         []SkippedPairCount `json:"top_skipped"`
	ByReviewer         []ReviewerSkipRate `json:"by_reviewer"`
}

// SkipAnalysis aggregates skip behavior: the global skip rate is
// uniqueSkipped / (reviewedPairs + uniqueSkipped), per-reviewer rates
// are skips / (skips + votes).
func (e *Engine) SkipAnalysis(campaignID int64) (*SkipStats, error) {
	skips, err := e.store.SkipsForCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	votes, err := e.store.VotesForCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	pairs, err := e.store.PairsForCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	skipsByPair := make(map[int64]int)
	skipsByUser := make(map[int64]int)
	for i := range skips {
		skipsByPair[skips[i].PairID]++
		skipsByUser[skips[i].UserID]++
	}

	votedPairs := make(map[int64]bool)
	votesByUser := make(map[int64]int)
	for i := range votes {
		votedPairs[votes[i].PairID] = true
		votesByUser[votes[i].UserID]++
	}

	stats := &SkipStats{
		TotalSkips:         len(skips),
		UniquePairsSkipped: len(skipsByPair),
		TopSkipped:         []SkippedPairCount{},
		ByReviewer:         []ReviewerSkipRate{},
	}
	if denom := len(votedPairs) + len(skipsByPair); denom > 0 {
		stats.SkipRate = float64(len(skipsByPair)) / float64(denom)
	}

	pairByID := make(map[int64]*database.Pair, len(pairs))
	for i := range pairs {
		pairByID[pairs[i].ID] = &pairs[i]
	}
	for pairID, count := range skipsByPair {
		p, ok := pairByID[pairID]
		if !ok {
			continue
		}
		stats.TopSkipped = append(stats.TopSkipped, SkippedPairCount{Pair: *p, SkipCount: count})
	}
	sort.Slice(stats.TopSkipped, func(i, j int) bool {
		if stats.TopSkipped[i].SkipCount != stats.TopSkipped[j].SkipCount {
			return stats.TopSkipped[i].SkipCount > stats.TopSkipped[j].SkipCount
		}
		return stats.TopSkipped[i].Pair.ID < stats.TopSkipped[j].Pair.ID
	})
	if len(stats.TopSkipped) > topSkippedLimit {
		stats.TopSkipped = stats.TopSkipped[:topSkippedLimit]
	}

	// Reviewers appearing in either ledger get a skip rate.
	reviewers := make(map[int64]bool)
	for id := range skipsByUser {
		reviewers[id] = true
	}
	for id := range votesByUser {
		reviewers[id] = true
	}
	userIDs := make([]int64, 0, len(reviewers))
	for id := range reviewers {
		userIDs = append(userIDs, id)
	}
	names, err := e.store.UserNames(userIDs)
	if err != nil {
		return nil, err
	}

	for id := range reviewers {
		r := ReviewerSkipRate{
			UserID: id,
			Name:   names[id],
			Skips:  skipsByUser[id],
			Votes:  votesByUser[id],
		}
		if total := r.Skips + r.Votes; total > 0 {
			r.SkipRate = float64(r.Skips) / float64(total)
		}
		stats.ByReviewer = append(stats.ByReviewer, r)
	}
	sort.Slice(stats.ByReviewer, func(i, j int) bool {
		if stats.ByReviewer[i].SkipRate != stats.ByReviewer[j].SkipRate {
			return stats.ByReviewer[i].SkipRate > stats.ByReviewer[j].SkipRate
		}
		return stats.ByReviewer[i].UserID < stats.ByReviewer[j].UserID
	})

	return stats, nil
}
