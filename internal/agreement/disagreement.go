package agreement

import (
	"math"
	"sort"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

// DefaultDisagreementLimit caps the high-disagreement pair list.
const DefaultDisagreementLimit = 50

// DisagreementPair is a pair whose definitive votes are split.
type DisagreementPair struct {
	Pair            database.Pair `json:"pair"`
	DefinitiveVotes int           `json:"definitive_votes"`
	PositiveVotes   int           `json:"positive_votes"`
	NegativeVotes   int           `json:"negative_votes"`
	PositiveRate    float64       `json:"positive_rate"`
}

// HighDisagreementPairs returns pairs with 2+ definitive votes whose
// positive rate sits inside the disagreement band, most ambiguous
// (closest to 50%) first. A non-positive limit applies the default.
func (e *Engine) HighDisagreementPairs(campaignID int64, limit int) ([]DisagreementPair, error) {
	if limit <= 0 {
		limit = DefaultDisagreementLimit
	}

	pairs, err := e.store.PairsForCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	votes, err := e.store.VotesForCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	tallies := definitiveTallies(votes)
	pairByID := make(map[int64]*database.Pair, len(pairs))
	for i := range pairs {
		pairByID[pairs[i].ID] = &pairs[i]
	}

	result := []DisagreementPair{}
	for pairID, t := range tallies {
		if t.definitive < 2 {
			continue
		}
		rate := float64(t.positive) / float64(t.definitive)
		if rate < disagreementLow || rate > disagreementHigh {
			continue
		}
		p, ok := pairByID[pairID]
		if !ok {
			continue
		}
		result = append(result, DisagreementPair{
			Pair:            *p,
			DefinitiveVotes: t.definitive,
			PositiveVotes:   t.positive,
			NegativeVotes:   t.definitive - t.positive,
			PositiveRate:    rate,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		di := math.Abs(result[i].PositiveRate - 0.5)
		dj := math.Abs(result[j].PositiveRate - 0.5)
		if di != dj {
			return di < dj
		}
		return result[i].Pair.ID < result[j].Pair.ID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ConfidenceBand is one LLM-confidence range and the share of its
// sufficiently voted pairs that reviewers disagree on.
type ConfidenceBand struct {
	Label             string   `json:"label"`
	Low               float64  `json:"low"`
	High              float64  `json:"high"`
	PairCount         int      `json:"pair_count"`
	EvaluatedPairs    int      `json:"evaluated_pairs"`
	DisagreementShare *float64 `json:"disagreement_share"`
}

// DisagreementByConfidence buckets a campaign's pairs into five
// LLM-confidence ranges and reports, per range, the fraction of pairs
// with 2+ definitive votes that fall inside the disagreement band.
// Pairs without a confidence value are not bucketed.
func (e *Engine) DisagreementByConfidence(campaignID int64) ([]ConfidenceBand, error) {
	pairs, err := e.store.PairsForCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	votes, err := e.store.VotesForCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	bands := []ConfidenceBand{
		{Label: "0.9-1.0", Low: 0.9, High: 1.0},
		{Label: "0.8-0.9", Low: 0.8, High: 0.9},
		{Label: "0.7-0.8", Low: 0.7, High: 0.8},
		{Label: "0.6-0.7", Low: 0.6, High: 0.7},
		{Label: "0.0-0.6", Low: 0.0, High: 0.6},
	}
	disagreeing := make([]int, len(bands))

	tallies := definitiveTallies(votes)
	for i := range pairs {
		p := &pairs[i]
		if p.LLMConfidence == nil {
			continue
		}
		idx := bandIndex(*p.LLMConfidence)
		bands[idx].PairCount++

		t, ok := tallies[p.ID]
		if !ok || t.definitive < 2 {
			continue
		}
		bands[idx].EvaluatedPairs++
		rate := float64(t.positive) / float64(t.definitive)
		if rate >= disagreementLow && rate <= disagreementHigh {
			disagreeing[idx]++
		}
	}

	for i := range bands {
		if bands[i].EvaluatedPairs > 0 {
			share := float64(disagreeing[i]) / float64(bands[i].EvaluatedPairs)
			bands[i].DisagreementShare = &share
		}
	}
	return bands, nil
}

func bandIndex(confidence float64) int {
	switch {
	case confidence >= 0.9:
		return 0
	case confidence >= 0.8:
		return 1
	case confidence >= 0.7:
		return 2
	case confidence >= 0.6:
		return 3
	default:
		return 4
	}
}

type definitiveTally struct {
	positive   int
	definitive int
}

// definitiveTallies counts match/no_match votes per pair; unsure and
// numeric votes are excluded on both sides.
func definitiveTallies(votes []database.Vote) map[int64]*definitiveTally {
	tallies := make(map[int64]*definitiveTally)
	for i := range votes {
		v := &votes[i]
		if !v.Definitive() {
			continue
		}
		t, ok := tallies[v.PairID]
		if !ok {
			t = &definitiveTally{}
			tallies[v.PairID] = t
		}
		t.definitive++
		if v.Positive() {
			t.positive++
		}
	}
	return tallies
}
