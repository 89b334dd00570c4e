package services

import (
	"golang.org/x/exp/rand"

	"github.com/oakline/fundsim/internal/models"
)

// LTV breakpoints for the competing-risk adjustments. Above the high
// mark default risk scales up; below the low mark refinancing becomes
// attractive because of the accumulated equity.
const (
	highLTVThreshold = 0.9
	lowLTVThreshold  = 0.8
)

// CompetingRiskSelector assigns the exit type once an exit month is
// fixed. Default is tested first as an independent Bernoulli hazard
// layered on top of the voluntary exits; only if no default occurs do
// sale and refinance compete through a normalized weighted draw. The
// ordering is deliberate: default is not modeled as proportionally
// competing with the voluntary-exit weights.
type CompetingRiskSelector struct {
	params models.ExitHazardParameters
}

func NewCompetingRiskSelector(params models.ExitHazardParameters) *CompetingRiskSelector {
	return &CompetingRiskSelector{params: params}
}

// Select draws the exit type for a triggered exit given the loan's
// realized appreciation and current loan-to-value ratio.
func (s *CompetingRiskSelector) Select(appreciation, currentLTV float64, rng *rand.Rand) models.ExitType {
	if rng.Float64() < s.defaultProbability(currentLTV) {
		return models.ExitDefault
	}

	saleWeight := s.params.SaleWeight
	if appreciation > 0 {
		saleWeight *= 1 + appreciation*s.params.AppreciationSaleMultiplier
	}

	refinanceWeight := s.params.RefinanceWeight
	if currentLTV < lowLTVThreshold {
		refinanceWeight *= 1 + (lowLTVThreshold-currentLTV)*s.params.RateRefinanceMultiplier
	}

	total := saleWeight + refinanceWeight
	if total <= 0 {
		return models.ExitSale
	}
	if rng.Float64() < saleWeight/total {
		return models.ExitSale
	}
	return models.ExitRefinance
}

func (s *CompetingRiskSelector) defaultProbability(currentLTV float64) float64 {
	p := s.params.DefaultWeight * s.params.EconomicDefaultMultiplier
	if currentLTV > highLTVThreshold {
		p *= s.params.HighLTVDefaultMultiplier
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
