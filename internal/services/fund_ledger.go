package services

import (
	"github.com/shopspring/decimal"

	"github.com/oakline/fundsim/internal/models"
)

// FundLedger performs the fee and reinvestment bookkeeping over the
// exit-record set. It is pure arithmetic: nothing here mutates the
// records or re-runs any simulation.
type FundLedger struct {
	managementFeePct  decimal.Decimal
	performanceFeePct decimal.Decimal
}

func NewFundLedger(managementFeePct, performanceFeePct float64) *FundLedger {
	return &FundLedger{
		managementFeePct:  decimal.NewFromFloat(managementFeePct),
		performanceFeePct: decimal.NewFromFloat(performanceFeePct),
	}
}

// Summarize aggregates principal flows, fees and reinvestable cash by
// month. Management fees accrue on each loan's principal for the years
// it was held; performance fees take a cut of appreciation income.
func (l *FundLedger) Summarize(loans []models.Loan, records []models.ExitRecord) models.LedgerSummary {
	principalByLoan := make(map[string]decimal.Decimal, len(loans))
	summary := models.LedgerSummary{
		ReinvestableByMonth: make(map[int]decimal.Decimal),
	}

	for _, loan := range loans {
		p := decimal.NewFromFloat(loan.Principal).Round(2)
		principalByLoan[loan.ID] = p
		summary.PrincipalDeployed = summary.PrincipalDeployed.Add(p)
	}

	twelve := decimal.NewFromInt(12)
	for _, r := range records {
		summary.PrincipalReturned = summary.PrincipalReturned.Add(r.ExitValue)
		summary.AppreciationIncome = summary.AppreciationIncome.Add(r.AppreciationShare)

		principal := principalByLoan[r.LoanID]
		if r.ExitType == models.ExitDefault && r.ExitValue.LessThan(principal) {
			summary.DefaultLosses = summary.DefaultLosses.Add(principal.Sub(r.ExitValue))
		}

		yearsHeld := decimal.NewFromInt(int64(r.ExitMonth)).Div(twelve)
		summary.ManagementFees = summary.ManagementFees.Add(
			principal.Mul(l.managementFeePct).Mul(yearsHeld).Round(2))

		cash := r.TotalCash()
		summary.ReinvestableByMonth[r.ExitMonth] = summary.ReinvestableByMonth[r.ExitMonth].Add(cash)
	}

	summary.PerformanceFees = summary.AppreciationIncome.Mul(l.performanceFeePct).Round(2)
	summary.NetProceeds = summary.PrincipalReturned.
		Add(summary.AppreciationIncome).
		Sub(summary.ManagementFees).
		Sub(summary.PerformanceFees)
	return summary
}
