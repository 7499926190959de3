// Package risk scores a study's declarations. The score is recomputed on
// every read; stored copies are caches only.
package risk

import "steward/internal/study/models"

// Predicate names a weighted rule.
type Predicate string

const (
	PredicateOutsideEEA          Predicate = "involves_data_processing_outside_eea"
	PredicateDBS                 Predicate = "requires_dbs"
	PredicateDSPT                Predicate = "requires_dspt"
	PredicateUnmitigatedThirdPty Predicate = "involves_third_party_without_mnca"
	PredicateNHSEnglandOrCAG     Predicate = "involves_nhs_england_or_cag"
)

// Contribution is one rule that fired.
type Contribution struct {
	Predicate Predicate `json:"predicate"`
	Weight    int       `json:"weight"`
}

type Assessment struct {
	Score         int            `json:"score"`
	Contributions []Contribution `json:"contributions"`
}

type rule struct {
	predicate Predicate
	weight    int
	fires     func(models.Declarations) bool
}

// Order is normative for the breakdown.
var rules = []rule{
	{PredicateOutsideEEA, 10, func(d models.Declarations) bool {
		return models.Is(d.InvolvesDataProcessingOutsideEEA)
	}},
	{PredicateDBS, 5, func(d models.Declarations) bool {
		return models.Is(d.RequiresDBS)
	}},
	{PredicateDSPT, 5, func(d models.Declarations) bool {
		return models.Is(d.RequiresDSPT)
	}},
	{PredicateUnmitigatedThirdPty, 5, func(d models.Declarations) bool {
		return models.Is(d.InvolvesThirdParty) && !models.Is(d.InvolvesMNCA)
	}},
	{PredicateNHSEnglandOrCAG, 5, func(d models.Declarations) bool {
		return models.Is(d.InvolvesNHSEngland) || models.Is(d.InvolvesCAG)
	}},
}

// Score sums the weights of the rules that fire. Every other declaration is
// informational.
func Score(d models.Declarations) Assessment {
	a := Assessment{Contributions: []Contribution{}}
	for _, r := range rules {
		if r.fires(d) {
			a.Score += r.weight
			a.Contributions = append(a.Contributions, Contribution{Predicate: r.predicate, Weight: r.weight})
		}
	}
	return a
}

// Max is the highest attainable score.
func Max() int {
	total := 0
	for _, r := range rules {
		total += r.weight
	}
	return total
}
