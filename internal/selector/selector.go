// Package selector implements the next-pair sampling policy: a
// stratified active-sampling scheme that spends reviewer attention on
// coverage first, then on uncertain pairs (low model confidence, human
// disagreement), and only then on well-covered ones.
package selector

import (
	"math/rand"
	"sort"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

// Priority buckets, lowest number served first.
const (
	BucketUnreviewed    = 0 // no votes yet
	BucketLowConfidence = 1 // low model confidence, under-sampled
	BucketDisagreement  = 2 // reviewers split, keep collecting votes
	BucketCovered       = 3 // settled or high confidence
)

// Policy holds the tuning knobs of the sampling scheme.
type Policy struct {
	// LowConfidenceThreshold is the llm_confidence below which a pair
	// is considered low-confidence.
	LowConfidenceThreshold float64
	// LowConfidenceVoteTarget is the vote count below which a
	// low-confidence pair stays prioritized.
	LowConfidenceVoteTarget int
	// DisagreementLow and DisagreementHigh bound the positive-rate band
	// (inclusive) that signals an unresolved reviewer split.
	DisagreementLow  float64
	DisagreementHigh float64
}

// DefaultPolicy returns the standard tuning.
func DefaultPolicy() Policy {
	return Policy{
		LowConfidenceThreshold:  0.7,
		LowConfidenceVoteTarget: 3,
		DisagreementLow:         0.4,
		DisagreementHigh:        0.6,
	}
}

// Store is the data access the selector needs. *database.DB satisfies it.
type Store interface {
	CandidatePairs(campaignID, userID int64) ([]database.PairTally, error)
	GetPair(pairID int64) (*database.Pair, error)
}

// Selector picks the next pair a reviewer should see. It is a pure
// read-and-rank query with no side effects; recording happens when the
// caller later submits a vote or skip.
type Selector struct {
	store     Store
	policy    Policy
	randFloat func() float64
}

// Option configures a Selector.
type Option func(*Selector)

// WithPolicy overrides the default tuning.
func WithPolicy(p Policy) Option {
	return func(s *Selector) { s.policy = p }
}

// WithRand injects a deterministic random source for tests. The default
// uses the shared math/rand source, which is safe for concurrent calls.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) { s.randFloat = r.Float64 }
}

// New creates a Selector over the given store.
func New(store Store, opts ...Option) *Selector {
	s := &Selector{
		store:     store,
		policy:    DefaultPolicy(),
		randFloat: rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextPair returns the highest-priority pair in the campaign that the
// user has neither voted on nor skipped, or nil when none remain.
// Candidates are ordered by (bucket, voteCount, random key); the random
// tiebreak spreads concurrent reviewers across equally ranked pairs
// instead of funneling them onto the same one.
func (s *Selector) NextPair(campaignID, userID int64) (*database.Pair, error) {
	tallies, err := s.store.CandidatePairs(campaignID, userID)
	if err != nil {
		return nil, err
	}
	if len(tallies) == 0 {
		return nil, nil
	}

	type ranked struct {
		tally  database.PairTally
		bucket int
		key    float64
	}
	candidates := make([]ranked, len(tallies))
	for i := range tallies {
		candidates[i] = ranked{
			tally:  tallies[i],
			bucket: s.Bucket(&tallies[i]),
			key:    s.randFloat(),
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.bucket != b.bucket {
			return a.bucket < b.bucket
		}
		if a.tally.VoteCount != b.tally.VoteCount {
			return a.tally.VoteCount < b.tally.VoteCount
		}
		return a.key < b.key
	})

	return s.store.GetPair(candidates[0].tally.PairID)
}

// Bucket assigns a pair's priority bucket. Unreviewed pairs always win;
// a nil confidence never qualifies as low-confidence; the disagreement
// band only applies once at least one definitive vote exists.
func (s *Selector) Bucket(t *database.PairTally) int {
	if t.VoteCount == 0 {
		return BucketUnreviewed
	}
	if t.LLMConfidence != nil && *t.LLMConfidence < s.policy.LowConfidenceThreshold &&
		t.VoteCount < s.policy.LowConfidenceVoteTarget {
		return BucketLowConfidence
	}
	if rate := t.PositiveRate(); rate != nil &&
		*rate >= s.policy.DisagreementLow && *rate <= s.policy.DisagreementHigh {
		return BucketDisagreement
	}
	return BucketCovered
}
