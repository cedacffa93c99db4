package agreement

import (
	"sort"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

// TimePoint is one day's vote count plus the running total.
type TimePoint struct {
	Day        string `json:"day"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// VotesOverTime returns per-day vote counts with a running cumulative
// total, scoped to one campaign when campaignID is non-nil, global
// otherwise.
func (e *Engine) VotesOverTime(campaignID *int64) ([]TimePoint, error) {
	var votes []database.Vote
	var err error
	if campaignID != nil {
		votes, err = e.store.VotesForCampaign(*campaignID)
	} else {
		votes, err = e.store.AllVotes()
	}
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int)
	for i := range votes {
		byDay[votes[i].Day()]++
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	points := make([]TimePoint, 0, len(days))
	cumulative := 0
	for _, day := range days {
		cumulative += byDay[day]
		points = append(points, TimePoint{Day: day, Count: byDay[day], Cumulative: cumulative})
	}
	return points, nil
}
