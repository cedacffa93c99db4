package agreement

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

// NumericStats summarizes 1-5 numeric scores. StdDev is the population
// standard deviation, not the sample estimator.
type NumericStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// ModeDayCount is one day's vote counts split by scoring mode.
type ModeDayCount struct {
	Day          string `json:"day"`
	BinaryVotes  int    `json:"binary_votes"`
	NumericVotes int    `json:"numeric_votes"`
}

// Distribution is the campaign-wide vote breakdown. Unsure votes are
// kept in the raw binary count but excluded from the match/no-match
// split.
type Distribution struct {
	BinaryVotes              int           `json:"binary_votes"`
	NumericVotes             int           `json:"numeric_votes"`
	MatchVotes               int           `json:"match_votes"`
	NoMatchVotes             int           `json:"no_match_votes"`
	UnsureVotes              int           `json:"unsure_votes"`
	NumericScoreDistribution [5]int        `json:"numeric_score_distribution"`
	NumericStats             *NumericStats `json:"numeric_stats"`
	VotesByDay               []ModeDayCount `json:"votes_by_day"`
}

// VoteDistribution aggregates all votes in a campaign. Zero votes yield
// a well-typed zero result, never an error.
func (e *Engine) VoteDistribution(campaignID int64) (*Distribution, error) {
	votes, err := e.store.VotesForCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	d := &Distribution{VotesByDay: []ModeDayCount{}}
	var scores []float64
	byDay := make(map[string]*ModeDayCount)

	for i := range votes {
		v := &votes[i]

		day := v.Day()
		dc, ok := byDay[day]
		if !ok {
			dc = &ModeDayCount{Day: day}
			byDay[day] = dc
		}

		switch {
		case v.ScoringMode == database.ScoringBinary:
			d.BinaryVotes++
			dc.BinaryVotes++
			switch {
			case v.Positive():
				d.MatchVotes++
			case v.Definitive():
				d.NoMatchVotes++
			case v.Unsure():
				d.UnsureVotes++
			}
		default:
			d.NumericVotes++
			dc.NumericVotes++
			code := v.Code()
			if code >= 1 && code <= 5 {
				d.NumericScoreDistribution[code-1]++
				scores = append(scores, float64(code))
			}
		}
	}

	if len(scores) > 0 {
		sort.Float64s(scores)
		d.NumericStats = &NumericStats{
			Mean:   stat.Mean(scores, nil),
			Median: median(scores),
			StdDev: stat.PopStdDev(scores, nil),
		}
	}

	for _, dc := range byDay {
		d.VotesByDay = append(d.VotesByDay, *dc)
	}
	sort.Slice(d.VotesByDay, func(i, j int) bool {
		return d.VotesByDay[i].Day < d.VotesByDay[j].Day
	})

	return d, nil
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
