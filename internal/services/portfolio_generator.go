package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oakline/fundsim/internal/config"
	"github.com/oakline/fundsim/internal/models"
)

// PortfolioGenerator draws the loan book: one loan per reference
// property, with principal, LTV, rate and origination month sampled
// independently from the configured ranges.
type PortfolioGenerator struct {
	cfg     config.PortfolioConfig
	runSeed uint64
	logger  *logrus.Logger
}

func NewPortfolioGenerator(cfg config.PortfolioConfig, runSeed uint64, logger *logrus.Logger) *PortfolioGenerator {
	return &PortfolioGenerator{cfg: cfg, runSeed: runSeed, logger: logger}
}

// Generate produces the loan list over the provider's properties. Loan
// generation is sequential on a single stream, which is deterministic
// because the property order itself is deterministic.
func (g *PortfolioGenerator) Generate(provider ReferenceDataProvider) []models.Loan {
	properties := provider.AllProperties()
	count := g.cfg.LoanCount
	if count > len(properties) {
		count = len(properties)
	}

	rng := entityRand(g.runSeed, "portfolio")
	loans := make([]models.Loan, 0, count)
	for i := 0; i < count; i++ {
		prop := properties[i]

		ltv := g.cfg.MinLTV + rng.Float64()*(g.cfg.MaxLTV-g.cfg.MinLTV)
		principal := g.cfg.MinPrincipal + rng.Float64()*(g.cfg.MaxPrincipal-g.cfg.MinPrincipal)
		rate := g.cfg.MinRate + rng.Float64()*(g.cfg.MaxRate-g.cfg.MinRate)

		origination := 0
		if g.cfg.OriginationSpan > 0 {
			origination = rng.Intn(g.cfg.OriginationSpan)
		}

		loans = append(loans, models.Loan{
			ID:               fmt.Sprintf("LN-%05d", i+1),
			ZoneID:           prop.ZoneID,
			SuburbID:         prop.SuburbID,
			PropertyID:       prop.ID,
			Principal:        principal,
			LTV:              ltv,
			InterestRate:     rate,
			TermMonths:       g.cfg.TermMonths,
			OriginationMonth: origination,
		})
	}

	if g.logger != nil {
		g.logger.WithFields(logrus.Fields{
			"loans":      len(loans),
			"properties": len(properties),
		}).Info("generated loan portfolio")
	}
	return loans
}
