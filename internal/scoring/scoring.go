// Package scoring computes weighted rubric scores from raw criterion ratings.
//
// All functions are pure. The weighted score is accumulated in integer
// hundredths (score × weight) and divided once, so the result does not
// depend on map iteration order.
package scoring

import (
	"fmt"

	"github.com/roach88/scorecard/internal/ir"
)

// MaxWeighted is the weighted score of a record rated 5 on every criterion.
func MaxWeighted(cat *ir.Catalog) float64 {
	return float64(ir.MaxScore*cat.WeightSum()) / 100
}

// labels are the rating names shown next to raw scores.
var labels = map[int]string{
	1: "Poor",
	2: "Fair",
	3: "Satisfactory",
	4: "Good",
	5: "Excellent",
}

// Label returns the rating name for a raw score, or "" outside [1,5].
func Label(score int) string {
	return labels[score]
}

// Validate checks that every key is a catalog criterion and every value is in [1,5].
// Keys are checked in sorted order so the reported error is deterministic.
func Validate(cat *ir.Catalog, scores ir.Scores) error {
	for _, id := range scores.SortedKeys() {
		score := scores[id]
		if !cat.HasCriterion(id) {
			return ir.NewInvalidScore(id, score, "unknown criterion")
		}
		if score < ir.MinScore || score > ir.MaxScore {
			return ir.NewInvalidScore(id, score, fmt.Sprintf("score must be within %d..%d", ir.MinScore, ir.MaxScore))
		}
	}
	return nil
}

// WeightedScore returns Σ score × weight / 100 over the criteria present in scores.
//
// Absent criteria contribute zero, so an incomplete set yields a partial total
// that is not comparable with complete ones; check IsComplete before treating
// the value as final. Invalid input fails with ir.ErrCodeInvalidScore and is
// never clamped.
func WeightedScore(cat *ir.Catalog, scores ir.Scores) (float64, error) {
	if err := Validate(cat, scores); err != nil {
		return 0, err
	}
	return Total(cat, scores), nil
}

// Total sums score × weight / 100 without validating. Keys that are not
// catalog criteria are ignored. Use it for records already validated on write.
func Total(cat *ir.Catalog, scores ir.Scores) float64 {
	hundredths := 0
	for _, c := range cat.Criteria() {
		if s, ok := scores[c.ID]; ok {
			hundredths += s * c.Weight
		}
	}
	return float64(hundredths) / 100
}

// IsComplete reports whether scores holds a rating for every catalog criterion.
func IsComplete(cat *ir.Catalog, scores ir.Scores) bool {
	for _, id := range cat.CriterionIDs() {
		if _, ok := scores[id]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the criterion IDs without a rating, in catalog order.
func Missing(cat *ir.Catalog, scores ir.Scores) []string {
	var missing []string
	for _, id := range cat.CriterionIDs() {
		if _, ok := scores[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Contribution is one criterion's share of a weighted score.
type Contribution struct {
	CriterionID string  `json:"criterion_id"`
	Name        string  `json:"name"`
	Weight      int     `json:"weight"`
	Score       int     `json:"score"`           // 0 when unscored
	Label       string  `json:"label,omitempty"` // rating name
	Level       string  `json:"level,omitempty"` // rubric text for the score
	Points      float64 `json:"points"`          // score × weight / 100
}

// Scored reports whether the criterion has a rating.
func (c Contribution) Scored() bool {
	return c.Score != 0
}

// Known returns a copy of scores without keys that are not catalog
// criteria. Records saved under an older catalog can hold such keys.
func Known(cat *ir.Catalog, scores ir.Scores) ir.Scores {
	out := make(ir.Scores, len(scores))
	for id, s := range scores {
		if cat.HasCriterion(id) {
			out[id] = s
		}
	}
	return out
}

// Breakdown lists every criterion's contribution in catalog order.
// Keys that are not catalog criteria are ignored, like in Total.
func Breakdown(cat *ir.Catalog, scores ir.Scores) ([]Contribution, error) {
	if err := Validate(cat, Known(cat, scores)); err != nil {
		return nil, err
	}

	criteria := cat.Criteria()
	out := make([]Contribution, 0, len(criteria))
	for _, c := range criteria {
		contrib := Contribution{
			CriterionID: c.ID,
			Name:        c.Name,
			Weight:      c.Weight,
		}
		if s, ok := scores[c.ID]; ok {
			contrib.Score = s
			contrib.Label = Label(s)
			contrib.Level = c.Levels[s]
			contrib.Points = float64(s*c.Weight) / 100
		}
		out = append(out, contrib)
	}
	return out, nil
}

// FormatScore renders a weighted score for display with two decimals.
func FormatScore(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
