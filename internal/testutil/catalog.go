package testutil

import "github.com/roach88/scorecard/internal/ir"

// SmallCatalog returns a three-entry, three-criterion catalog with weights
// 50/30/20. Small enough that tests can score every cell by hand.
func SmallCatalog() *ir.Catalog {
	return ir.NewCatalog(
		[]ir.Entry{
			{ID: 1, Name: "Team Alpha", Project: "Alpha Project"},
			{ID: 2, Name: "Team Beta", Project: "Beta Project"},
			{ID: 3, Name: "Team Gamma", Project: "Gamma Project"},
		},
		[]ir.Criterion{
			{ID: "impact", Name: "Impact", Weight: 50},
			{ID: "craft", Name: "Craft", Weight: 30},
			{ID: "demo", Name: "Demo", Weight: 20},
		},
	)
}

// FullScores returns a score for every criterion of SmallCatalog.
func FullScores(impact, craft, demo int) ir.Scores {
	return ir.Scores{"impact": impact, "craft": craft, "demo": demo}
}
