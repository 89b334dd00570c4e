package services

import (
	"fmt"

	"github.com/oakline/fundsim/internal/config"
	"github.com/oakline/fundsim/internal/models"
)

// GuardrailChecker evaluates the flat risk-rule list over a completed
// simulation. Findings are pure functions of the result set; a failed
// rule is reported, never enforced here.
type GuardrailChecker struct {
	cfg config.GuardrailConfig
}

func NewGuardrailChecker(cfg config.GuardrailConfig) *GuardrailChecker {
	return &GuardrailChecker{cfg: cfg}
}

func (g *GuardrailChecker) Evaluate(loans []models.Loan, records []models.ExitRecord, allocations []models.CapitalAllocation) []models.GuardrailFinding {
	var findings []models.GuardrailFinding

	findings = append(findings, g.defaultRate(records))
	findings = append(findings, g.weightedAverageLife(loans, records)...)
	findings = append(findings, g.zoneConcentration(allocations))
	findings = append(findings, g.portfolioROI(loans, records))
	return findings
}

func (g *GuardrailChecker) defaultRate(records []models.ExitRecord) models.GuardrailFinding {
	defaults := 0
	for _, r := range records {
		if r.ExitType == models.ExitDefault {
			defaults++
		}
	}
	rate := 0.0
	if len(records) > 0 {
		rate = float64(defaults) / float64(len(records))
	}
	return models.GuardrailFinding{
		Rule:     "max_default_rate",
		Passed:   rate <= g.cfg.MaxDefaultRate,
		Observed: rate,
		Limit:    g.cfg.MaxDefaultRate,
		Message:  fmt.Sprintf("%d of %d loans defaulted", defaults, len(records)),
	}
}

// weightedAverageLife computes WAL in years from exit months weighted
// by principal, and checks it against the configured band.
func (g *GuardrailChecker) weightedAverageLife(loans []models.Loan, records []models.ExitRecord) []models.GuardrailFinding {
	principalByLoan := make(map[string]float64, len(loans))
	for _, l := range loans {
		principalByLoan[l.ID] = l.Principal
	}
	var weighted, total float64
	for _, r := range records {
		p := principalByLoan[r.LoanID]
		weighted += p * float64(r.ExitMonth)
		total += p
	}
	wal := 0.0
	if total > 0 {
		wal = weighted / total / monthsPerYear
	}
	msg := fmt.Sprintf("weighted-average life %.2f years", wal)
	return []models.GuardrailFinding{
		{
			Rule:     "min_wal_years",
			Passed:   wal >= g.cfg.MinWALYears,
			Observed: wal,
			Limit:    g.cfg.MinWALYears,
			Message:  msg,
		},
		{
			Rule:     "max_wal_years",
			Passed:   wal <= g.cfg.MaxWALYears,
			Observed: wal,
			Limit:    g.cfg.MaxWALYears,
			Message:  msg,
		},
	}
}

func (g *GuardrailChecker) zoneConcentration(allocations []models.CapitalAllocation) models.GuardrailFinding {
	maxShare := 0.0
	maxZone := ""
	for _, a := range allocations {
		if a.Weight > maxShare {
			maxShare = a.Weight
			maxZone = a.ZoneID
		}
	}
	return models.GuardrailFinding{
		Rule:     "max_zone_share",
		Passed:   maxShare <= g.cfg.MaxZoneShare,
		Observed: maxShare,
		Limit:    g.cfg.MaxZoneShare,
		Message:  fmt.Sprintf("largest zone bucket is %s at %.1f%%", maxZone, maxShare*100),
	}
}

func (g *GuardrailChecker) portfolioROI(loans []models.Loan, records []models.ExitRecord) models.GuardrailFinding {
	var principal, proceeds float64
	principalByLoan := make(map[string]float64, len(loans))
	for _, l := range loans {
		principalByLoan[l.ID] = l.Principal
	}
	for _, r := range records {
		principal += principalByLoan[r.LoanID]
		cash, _ := r.TotalCash().Float64()
		proceeds += cash
	}
	roi := 0.0
	if principal > 0 {
		roi = (proceeds - principal) / principal
	}
	return models.GuardrailFinding{
		Rule:     "min_portfolio_roi",
		Passed:   roi >= g.cfg.MinPortfolioROI,
		Observed: roi,
		Limit:    g.cfg.MinPortfolioROI,
		Message:  fmt.Sprintf("realized portfolio ROI %.2f%%", roi*100),
	}
}
