// Package scoring implements the two scoring engines of spec.md §4.2. Both
// operate over a round's submission list and only touch submissions that
// already carry a Review (host has marked them); recomputation always runs
// over the whole round so score consistency reflects the full set of marks.
package scoring

import (
	"math"

	"github.com/adeyems/wordround/internal/v1/roundtypes"
)

// Recompute returns a copy of submissions with every reviewed submission's
// Review.Scores recalculated under mode. Submissions without a Review are
// returned unchanged.
func Recompute(mode roundtypes.ScoringMode, submissions []roundtypes.Submission) []roundtypes.Submission {
	out := make([]roundtypes.Submission, len(submissions))
	for i, s := range submissions {
		out[i] = s.Clone()
	}

	switch mode {
	case roundtypes.ScoringShared10:
		recomputeShared10(out)
	default:
		recomputeFixed10(out)
	}

	for i := range out {
		if out[i].Review == nil {
			continue
		}
		total := 0.0
		for _, f := range roundtypes.Fields {
			total += out[i].Review.Scores.Get(f)
		}
		out[i].Review.Scores.Total = round2(total)
	}
	return out
}

func recomputeFixed10(out []roundtypes.Submission) {
	for _, field := range roundtypes.Fields {
		for i, s := range out {
			if s.Review == nil {
				continue
			}
			v := 0.0
			if s.Review.Marks.Get(field) {
				v = 10
			}
			out[i].Review.Scores = out[i].Review.Scores.Set(field, v)
		}
	}
}

// recomputeShared10 implements: for each field, group the reviewed-correct
// submissions by their normalised answer; each group of size k splits 10
// points k ways (round(10/k, 2)). Empty normalised answers never share
// points and score 0 even though marked correct.
func recomputeShared10(out []roundtypes.Submission) {
	for _, field := range roundtypes.Fields {
		groups := make(map[string][]int)
		for i, s := range out {
			if s.Review == nil {
				continue
			}
			out[i].Review.Scores = out[i].Review.Scores.Set(field, 0)
			if !s.Review.Marks.Get(field) {
				continue
			}
			norm := roundtypes.NormalizeForCompare(s.Answers.Get(field))
			if norm == "" {
				continue
			}
			groups[norm] = append(groups[norm], i)
		}
		for _, idxs := range groups {
			share := round2(10.0 / float64(len(idxs)))
			for _, i := range idxs {
				out[i].Review.Scores = out[i].Review.Scores.Set(field, share)
			}
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
