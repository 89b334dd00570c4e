package services

import (
	"golang.org/x/exp/rand"

	"github.com/oakline/fundsim/internal/models"
)

const monthsPerYear = 12.0

// ExitHazardModel computes the instantaneous monthly probability of a
// loan leaving the portfolio. The hazard combines a flat time-based
// component with a price-based component that rises with realized
// appreciation and falls when the property is under water.
type ExitHazardModel struct {
	params models.ExitHazardParameters
}

func NewExitHazardModel(params models.ExitHazardParameters) *ExitHazardModel {
	return &ExitHazardModel{params: params}
}

// MonthlyExitProbability returns the hazard for one month given the
// loan's realized appreciation at that month.
func (m *ExitHazardModel) MonthlyExitProbability(appreciation float64) float64 {
	dt := 1.0 / monthsPerYear
	base := m.params.BaseAnnualExitRate * dt

	timeComponent := base

	var priceComponent float64
	if appreciation > 0 {
		priceComponent = base * (1 + appreciation*m.params.AppreciationSaleMultiplier)
	} else {
		// Negative appreciation suppresses exits rather than
		// accelerating them.
		priceComponent = base * (1 + appreciation)
		if priceComponent < 0 {
			priceComponent = 0
		}
	}

	p := m.params.TimeWeight*timeComponent + m.params.PriceWeight*priceComponent
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ExitWindow bounds the months in which a hazard-triggered exit may
// occur for a loan: [min hold, min(max hold, term, remaining horizon)].
func (m *ExitHazardModel) ExitWindow(loan models.Loan, horizonMonths int) (first, last int) {
	first = m.params.MinHoldMonths
	if first < 1 {
		first = 1
	}
	last = loan.TermMonths
	if m.params.MaxHoldMonths > 0 && m.params.MaxHoldMonths < last {
		last = m.params.MaxHoldMonths
	}
	if remaining := horizonMonths - loan.OriginationMonth; remaining < last {
		last = remaining
	}
	return first, last
}

// SimulateExitMonth walks the loan month by month through its exit
// window. The first month whose uniform draw falls below the hazard
// fixes the exit; reaching the end of the window without a trigger is
// the term-completion terminal state.
//
// appreciationAt must return the loan's realized appreciation at a
// given loan-month. The returned triggered flag distinguishes a hazard
// exit from term completion.
func (m *ExitHazardModel) SimulateExitMonth(loan models.Loan, horizonMonths int, appreciationAt func(month int) float64, rng *rand.Rand) (exitMonth int, triggered bool) {
	first, last := m.ExitWindow(loan, horizonMonths)
	if last < first {
		return last, false
	}
	for month := first; month <= last; month++ {
		p := m.MonthlyExitProbability(appreciationAt(month))
		if rng.Float64() < p {
			return month, true
		}
	}
	return last, false
}
