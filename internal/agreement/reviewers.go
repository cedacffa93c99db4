package agreement

import (
	"sort"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

// Reviewer flag thresholds.
const (
	lowAgreementThreshold     = 0.75
	highPositiveBiasThreshold = 0.85
	highNegativeBiasThreshold = 0.35
)

// Reviewer flags.
const (
	FlagLowAgreement     = "low_agreement"
	FlagHighPositiveBias = "high_positive_bias"
	FlagHighNegativeBias = "high_negative_bias"
)

// ReviewerStat is one reviewer's activity and quality profile within a
// campaign. AgreementRate and PositiveRate are nil below the
// binary-vote floor; flags are only raised when both rates are defined.
type ReviewerStat struct {
	UserID        int64    `json:"user_id"`
	Name          string   `json:"name"`
	TotalVotes    int      `json:"total_votes"`
	DailyActivity []int    `json:"daily_activity"` // last 7 days, oldest first
	AgreementRate *float64 `json:"agreement_rate"`
	PositiveRate  *float64 `json:"positive_rate"`
	SkipCount     int      `json:"skip_count"`
	Flags         []string `json:"flags"`
}

type reviewerTally struct {
	totalVotes      int
	binaryVotes     int
	definitiveVotes int
	matchVotes      int
	agreed          int
	considered      int
	skips           int
	byDay           map[string]int
}

// ReviewerStats computes per-reviewer statistics for a campaign.
// Agreement is measured against pair-level majority consensus over
// definitive votes; unsure votes count toward neither side.
func (e *Engine) ReviewerStats(campaignID int64) ([]ReviewerStat, error) {
	votes, err := e.store.VotesForCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	skips, err := e.store.SkipsForCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	consensus := pairConsensus(votes)

	tallies := make(map[int64]*reviewerTally)
	tally := func(userID int64) *reviewerTally {
		t, ok := tallies[userID]
		if !ok {
			t = &reviewerTally{byDay: make(map[string]int)}
			tallies[userID] = t
		}
		return t
	}

	for i := range votes {
		v := &votes[i]
		t := tally(v.UserID)
		t.totalVotes++
		t.byDay[v.Day()]++
		if v.ScoringMode != database.ScoringBinary {
			continue
		}
		t.binaryVotes++
		if !v.Definitive() {
			continue
		}
		t.definitiveVotes++
		if v.Positive() {
			t.matchVotes++
		}
		if c, ok := consensus[v.PairID]; ok {
			t.considered++
			if *v.ScoreBinary == c {
				t.agreed++
			}
		}
	}

	for i := range skips {
		tally(skips[i].UserID).skips++
	}

	userIDs := make([]int64, 0, len(tallies))
	for id := range tallies {
		userIDs = append(userIDs, id)
	}
	names, err := e.store.UserNames(userIDs)
	if err != nil {
		return nil, err
	}

	// Last-7-days window, oldest day first.
	today := e.clock.Now()
	days := make([]string, 7)
	for i := 0; i < 7; i++ {
		days[i] = today.AddDate(0, 0, i-6).Format("2006-01-02")
	}

	stats := make([]ReviewerStat, 0, len(tallies))
	for id, t := range tallies {
		s := ReviewerStat{
			UserID:        id,
			Name:          names[id],
			TotalVotes:    t.totalVotes,
			DailyActivity: make([]int, 7),
			SkipCount:     t.skips,
			Flags:         []string{},
		}
		for i, day := range days {
			s.DailyActivity[i] = t.byDay[day]
		}

		if t.binaryVotes >= e.reviewerVoteFloor {
			if t.considered > 0 {
				rate := float64(t.agreed) / float64(t.considered)
				s.AgreementRate = &rate
			}
			if t.definitiveVotes > 0 {
				rate := float64(t.matchVotes) / float64(t.definitiveVotes)
				s.PositiveRate = &rate
			}
		}

		if s.AgreementRate != nil && s.PositiveRate != nil {
			if *s.AgreementRate < lowAgreementThreshold {
				s.Flags = append(s.Flags, FlagLowAgreement)
			}
			if *s.PositiveRate > highPositiveBiasThreshold {
				s.Flags = append(s.Flags, FlagHighPositiveBias)
			}
			if *s.PositiveRate < highNegativeBiasThreshold {
				s.Flags = append(s.Flags, FlagHighNegativeBias)
			}
		}

		stats = append(stats, s)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalVotes != stats[j].TotalVotes {
			return stats[i].TotalVotes > stats[j].TotalVotes
		}
		return stats[i].UserID < stats[j].UserID
	})
	return stats, nil
}

// pairConsensus returns the majority definitive outcome per pair.
// A pair needs at least 2 definitive votes; the consensus is "match"
// when positives strictly outnumber negatives, "no_match" otherwise.
func pairConsensus(votes []database.Vote) map[int64]string {
	type counts struct{ positive, definitive int }
	byPair := make(map[int64]*counts)
	for i := range votes {
		v := &votes[i]
		if !v.Definitive() {
			continue
		}
		c, ok := byPair[v.PairID]
		if !ok {
			c = &counts{}
			byPair[v.PairID] = c
		}
		c.definitive++
		if v.Positive() {
			c.positive++
		}
	}

	consensus := make(map[int64]string)
	for pairID, c := range byPair {
		if c.definitive < 2 {
			continue
		}
		if c.positive > c.definitive-c.positive {
			consensus[pairID] = database.OutcomeMatch
		} else {
			consensus[pairID] = database.OutcomeNoMatch
		}
	}
	return consensus
}
