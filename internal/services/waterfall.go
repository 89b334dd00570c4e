package services

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/oakline/fundsim/internal/models"
)

// ExitProceeds is the cash outcome of one exit before conversion into
// an ExitRecord.
type ExitProceeds struct {
	ExitValue         float64
	AppreciationShare float64
	ROI               float64
	AnnualizedROI     float64
}

// AppreciationWaterfallCalculator converts a realized exit into a cash
// exit value and the fund's appreciation-share amount.
//
// Defaults recover min(recovered collateral, principal) and never earn
// an appreciation share. All other exit types return principal, plus a
// share of the gain when appreciation is positive: the share fraction
// comes from the tier schedule when one is configured (tier index =
// number of thresholds the appreciation exceeds, clamped into
// [MinShare, MaxShare]) and from the flat rate otherwise.
type AppreciationWaterfallCalculator struct {
	spec   models.AppreciationWaterfallSpec
	logger *logrus.Logger
}

func NewAppreciationWaterfallCalculator(spec models.AppreciationWaterfallSpec, logger *logrus.Logger) *AppreciationWaterfallCalculator {
	return &AppreciationWaterfallCalculator{spec: spec, logger: logger}
}

// Calculate produces the proceeds for one exit. currentValue is the
// property's value at the exit month; appreciation the realized index
// growth since origination. Degenerate loans (zero principal or zero
// property value) produce a zero result rather than an error so one
// bad loan never aborts the batch.
func (c *AppreciationWaterfallCalculator) Calculate(exitType models.ExitType, principal, currentValue, appreciation float64, exitMonth int) ExitProceeds {
	if principal <= 0 || currentValue <= 0 {
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"exit_type":     exitType,
				"principal":     principal,
				"current_value": currentValue,
			}).Warn("degenerate loan values, producing zero proceeds")
		}
		return ExitProceeds{}
	}

	var exitValue, share float64
	if exitType == models.ExitDefault {
		recovery := currentValue * c.spec.RecoveryRate * (1 - c.spec.ForeclosureCost)
		exitValue = math.Min(recovery, principal)
	} else {
		exitValue = principal
		if appreciation > 0 {
			share = currentValue * appreciation * c.shareFraction(appreciation)
		}
	}

	total := exitValue + share
	roi := (total - principal) / principal

	years := float64(exitMonth) / monthsPerYear
	if years <= 0 {
		years = 1.0 / monthsPerYear
	}
	annualized := math.Pow(total/principal, 1/years) - 1

	return ExitProceeds{
		ExitValue:         exitValue,
		AppreciationShare: share,
		ROI:               roi,
		AnnualizedROI:     annualized,
	}
}

// TierIndex returns the number of tier thresholds the appreciation
// exceeds. With no tiers configured the index is always zero.
func (c *AppreciationWaterfallCalculator) TierIndex(appreciation float64) int {
	idx := 0
	for _, threshold := range c.spec.Thresholds {
		if appreciation > threshold {
			idx++
		}
	}
	return idx
}

func (c *AppreciationWaterfallCalculator) shareFraction(appreciation float64) float64 {
	if !c.spec.Tiered() {
		return c.spec.ShareRate
	}
	idx := c.TierIndex(appreciation)
	share := c.spec.TierShares[idx]
	if share < c.spec.MinShare {
		share = c.spec.MinShare
	}
	if share > c.spec.MaxShare {
		share = c.spec.MaxShare
	}
	return share
}
