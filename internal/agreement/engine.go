// Package agreement computes inter-rater reliability and the derived
// review analytics over the append-only vote ledger. Every computation
// is a fresh read-only aggregation: nothing here mutates pairs, votes,
// or campaigns.
package agreement

import (
	"github.com/trentleslie/expert-in-the-loop/internal/database"
	"github.com/trentleslie/expert-in-the-loop/internal/timeutil"
)

// Disagreement band: a pair whose positive rate falls inside this
// inclusive range signals a genuine reviewer split rather than noise.
const (
	disagreementLow  = 0.4
	disagreementHigh = 0.6
)

// DefaultReviewerVoteFloor is the minimum number of binary votes a
// reviewer needs before agreement and positive rates are reported.
const DefaultReviewerVoteFloor = 5

// Store is the data access the engine needs. *database.DB satisfies it.
type Store interface {
	VotesForCampaign(campaignID int64) ([]database.Vote, error)
	PairsForCampaign(campaignID int64) ([]database.Pair, error)
	SkipsForCampaign(campaignID int64) ([]database.SkippedPair, error)
	CountPairs(campaignID int64) (int, error)
	AllVotes() ([]database.Vote, error)
	UserNames(userIDs []int64) (map[int64]string, error)
}

// Engine computes agreement statistics for a campaign.
type Engine struct {
	store             Store
	clock             timeutil.Clock
	reviewerVoteFloor int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects a clock for time-scoped analytics.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithReviewerVoteFloor overrides the minimum binary-vote count before
// per-reviewer rates are reported.
func WithReviewerVoteFloor(n int) Option {
	return func(e *Engine) { e.reviewerVoteFloor = n }
}

// New creates an Engine over the given store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:             store,
		clock:             timeutil.Real(),
		reviewerVoteFloor: DefaultReviewerVoteFloor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary is the campaign-level agreement result. Alpha is nil when the
// preconditions for a defined coefficient are unmet; callers must treat
// nil as "not yet computable", not as zero.
type Summary struct {
	Alpha      *float64 `json:"alpha"`
	RaterCount int      `json:"rater_count"`
	PairCount  int      `json:"pair_count"`
	VoteCount  int      `json:"vote_count"`
}

// Agreement computes the chance-corrected inter-rater agreement
// coefficient over all votes in a campaign. A defined alpha requires at
// least 2 distinct raters, at least one pair rated by 2+ reviewers, and
// at least 3 codes across such pairs.
func (e *Engine) Agreement(campaignID int64) (*Summary, error) {
	votes, err := e.store.VotesForCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	pairCount, err := e.store.CountPairs(campaignID)
	if err != nil {
		return nil, err
	}

	raters := make(map[int64]bool)
	unitsByPair := make(map[int64][]int)
	for i := range votes {
		v := &votes[i]
		raters[v.UserID] = true
		unitsByPair[v.PairID] = append(unitsByPair[v.PairID], v.Code())
	}

	// Units with a single code offer no comparison.
	var units [][]int
	totalCodes := 0
	for _, codes := range unitsByPair {
		if len(codes) < 2 {
			continue
		}
		units = append(units, codes)
		totalCodes += len(codes)
	}

	summary := &Summary{
		RaterCount: len(raters),
		PairCount:  pairCount,
		VoteCount:  len(votes),
	}
	if len(raters) < 2 || len(units) == 0 || totalCodes < 3 {
		return summary, nil
	}

	summary.Alpha = nominalAlpha(units)
	return summary, nil
}
