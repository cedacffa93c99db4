package agreement

import (
	"math"
	"sort"
)

// nominalAlpha computes Krippendorff's alpha for nominal data in its
// pairwise-disagreement form, which stays valid when units carry
// unequal numbers of raters. Each unit is the list of codes assigned to
// one pair; callers pass only units with 2+ codes.
//
// Observed disagreement is the mismatch share of all within-unit code
// pairs; expected disagreement is the mismatch share of all code pairs
// drawn from the pooled code frequencies. Per-unit weighting would
// change the statistic and is deliberately not applied.
func nominalAlpha(units [][]int) *float64 {
	freq := make(map[int]int)
	n := 0
	var comparisons, mismatches float64
	for _, unit := range units {
		for i := 0; i < len(unit); i++ {
			freq[unit[i]]++
			n++
			for j := i + 1; j < len(unit); j++ {
				comparisons++
				if unit[i] != unit[j] {
					mismatches++
				}
			}
		}
	}
	if comparisons == 0 {
		return nil
	}
	observed := mismatches / comparisons

	values := make([]int, 0, len(freq))
	for v := range freq {
		values = append(values, v)
	}
	sort.Ints(values)

	var crossProduct float64
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			crossProduct += float64(freq[values[i]]) * float64(freq[values[j]])
		}
	}
	expected := crossProduct / (float64(n) * float64(n-1) / 2)

	// Degenerate denominator: all pooled codes identical. Observed
	// disagreement is necessarily zero too, so alpha is 1 by convention.
	if expected == 0 {
		one := 1.0
		return &one
	}

	alpha := 1 - observed/expected
	alpha = math.Max(-1, math.Min(1, alpha))
	alpha = math.Round(alpha*1000) / 1000
	return &alpha
}
