package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/oakline/fundsim/internal/models"
)

func TestLedgerColumnSums(t *testing.T) {
	ledger := NewFundLedger(0.015, 0.15)

	loans := []models.Loan{
		{ID: "LN-00001", Principal: 200_000},
		{ID: "LN-00002", Principal: 300_000},
		{ID: "LN-00003", Principal: 100_000},
	}
	records := []models.ExitRecord{
		{
			LoanID: "LN-00001", ExitMonth: 24, ExitType: models.ExitSale,
			ExitValue:         decimal.NewFromInt(200_000),
			AppreciationShare: decimal.NewFromInt(20_000),
		},
		{
			LoanID: "LN-00002", ExitMonth: 48, ExitType: models.ExitRefinance,
			ExitValue:         decimal.NewFromInt(300_000),
			AppreciationShare: decimal.NewFromInt(30_000),
		},
		{
			LoanID: "LN-00003", ExitMonth: 36, ExitType: models.ExitDefault,
			ExitValue:         decimal.NewFromInt(80_000),
			AppreciationShare: decimal.Zero,
		},
	}

	summary := ledger.Summarize(loans, records)

	assert.True(t, summary.PrincipalDeployed.Equal(decimal.NewFromInt(600_000)))
	assert.True(t, summary.PrincipalReturned.Equal(decimal.NewFromInt(580_000)))
	assert.True(t, summary.AppreciationIncome.Equal(decimal.NewFromInt(50_000)))
	assert.True(t, summary.DefaultLosses.Equal(decimal.NewFromInt(20_000)))

	// Management fees: principal * 1.5% * years held, per loan.
	wantMgmt := decimal.NewFromFloat(200_000 * 0.015 * 2).
		Add(decimal.NewFromFloat(300_000 * 0.015 * 4)).
		Add(decimal.NewFromFloat(100_000 * 0.015 * 3))
	assert.True(t, summary.ManagementFees.Equal(wantMgmt.Round(2)),
		"got %s want %s", summary.ManagementFees, wantMgmt)

	wantPerf := decimal.NewFromFloat(50_000 * 0.15)
	assert.True(t, summary.PerformanceFees.Equal(wantPerf.Round(2)))

	wantNet := summary.PrincipalReturned.
		Add(summary.AppreciationIncome).
		Sub(summary.ManagementFees).
		Sub(summary.PerformanceFees)
	assert.True(t, summary.NetProceeds.Equal(wantNet))
}

func TestLedgerReinvestableByMonth(t *testing.T) {
	ledger := NewFundLedger(0, 0)

	loans := []models.Loan{
		{ID: "a", Principal: 100},
		{ID: "b", Principal: 100},
		{ID: "c", Principal: 100},
	}
	records := []models.ExitRecord{
		{LoanID: "a", ExitMonth: 12, ExitValue: decimal.NewFromInt(100), AppreciationShare: decimal.NewFromInt(10)},
		{LoanID: "b", ExitMonth: 12, ExitValue: decimal.NewFromInt(100), AppreciationShare: decimal.NewFromInt(5)},
		{LoanID: "c", ExitMonth: 30, ExitValue: decimal.NewFromInt(100), AppreciationShare: decimal.Zero},
	}

	summary := ledger.Summarize(loans, records)
	assert.True(t, summary.ReinvestableByMonth[12].Equal(decimal.NewFromInt(215)))
	assert.True(t, summary.ReinvestableByMonth[30].Equal(decimal.NewFromInt(100)))
}

func TestLedgerEmptyRecords(t *testing.T) {
	ledger := NewFundLedger(0.015, 0.15)
	summary := ledger.Summarize([]models.Loan{{ID: "a", Principal: 100}}, nil)

	assert.True(t, summary.PrincipalDeployed.Equal(decimal.NewFromInt(100)))
	assert.True(t, summary.PrincipalReturned.IsZero())
	assert.True(t, summary.NetProceeds.IsZero())
}
