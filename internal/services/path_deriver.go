package services

import (
	"github.com/sirupsen/logrus"

	"github.com/oakline/fundsim/internal/models"
)

// Attribute weights for the combined multiplicative factor. Each
// attribute's normalized deviation from the reference average
// contributes one bounded multiplicative adjustment.
const (
	suburbAppreciationWeight = 0.5
	suburbRiskWeight         = 0.3
	suburbLiquidityWeight    = 0.2

	propertyBedroomWeight  = 0.10
	propertyBathroomWeight = 0.05
	propertyLandWeight     = 0.10
	propertyAgeWeight      = 0.08

	// Each single-attribute adjustment is clamped into
	// [1-factorBound, 1+factorBound].
	factorBound = 0.30

	// Score scale midpoint for suburb reference scores (0-10 scale).
	scoreMidpoint = 5.0
)

var propertyTypeFactors = map[string]float64{
	"house":     1.05,
	"townhouse": 1.00,
	"unit":      0.95,
}

// SuburbAverages are the per-suburb means the property attributes are
// normalized against.
type SuburbAverages struct {
	Bedrooms  float64
	Bathrooms float64
	LandSize  float64
	AgeYears  float64
}

// HierarchicalPathDeriver derives suburb trajectories from zone
// trajectories and property trajectories from suburb trajectories. The
// child path rescales the parent's cumulative growth by a combined
// attribute factor, then applies small idiosyncratic noise from a
// per-entity deterministic stream.
type HierarchicalPathDeriver struct {
	runSeed           uint64
	suburbVariation   float64
	propertyVariation float64
	logger            *logrus.Logger
}

func NewHierarchicalPathDeriver(runSeed uint64, suburbVariation, propertyVariation float64, logger *logrus.Logger) *HierarchicalPathDeriver {
	return &HierarchicalPathDeriver{
		runSeed:           runSeed,
		suburbVariation:   suburbVariation,
		propertyVariation: propertyVariation,
		logger:            logger,
	}
}

// DeriveSuburb produces a suburb trajectory from its zone's path using
// the suburb reference scores. Higher appreciation and liquidity
// scores raise the growth factor; higher risk lowers it.
func (d *HierarchicalPathDeriver) DeriveSuburb(parent models.PriceTrajectory, attrs models.SuburbAttributes) models.PriceTrajectory {
	factor := boundedAdjustment(attrs.AppreciationScore, scoreMidpoint, suburbAppreciationWeight) *
		boundedAdjustment(2*scoreMidpoint-attrs.RiskScore, scoreMidpoint, suburbRiskWeight) *
		boundedAdjustment(attrs.LiquidityScore, scoreMidpoint, suburbLiquidityWeight)

	return d.derive(parent, factor, "suburb:"+attrs.ID, d.suburbVariation)
}

// DeriveProperty produces a property trajectory from its suburb's path
// using the property's physical attributes relative to the suburb
// averages.
func (d *HierarchicalPathDeriver) DeriveProperty(parent models.PriceTrajectory, attrs models.PropertyAttributes, avg SuburbAverages) models.PriceTrajectory {
	factor := 1.0
	if tf, ok := propertyTypeFactors[attrs.PropertyType]; ok {
		factor = tf
	}
	factor *= boundedAdjustment(float64(attrs.Bedrooms), avg.Bedrooms, propertyBedroomWeight)
	factor *= boundedAdjustment(float64(attrs.Bathrooms), avg.Bathrooms, propertyBathroomWeight)
	factor *= boundedAdjustment(attrs.LandSize, avg.LandSize, propertyLandWeight)
	// Older than average suppresses growth, so the deviation inverts.
	factor *= boundedAdjustment(2*avg.AgeYears-attrs.AgeYears, avg.AgeYears, propertyAgeWeight)

	return d.derive(parent, factor, "property:"+attrs.ID, d.propertyVariation)
}

// derive rescales the parent's cumulative growth by the combined factor
// and layers zero-mean idiosyncratic noise on every step after the
// first. child[0] stays exactly 1.0.
func (d *HierarchicalPathDeriver) derive(parent models.PriceTrajectory, factor float64, entityID string, variation float64) models.PriceTrajectory {
	if len(parent) == 0 {
		return models.PriceTrajectory{1.0}
	}

	child := make(models.PriceTrajectory, len(parent))
	child[0] = 1.0

	rng := entityRand(d.runSeed, entityID)
	for t := 1; t < len(parent); t++ {
		v := 1 + (parent[t]-1)*factor
		if variation > 0 {
			v *= 1 + rng.NormFloat64()*variation
		}
		if v < 0 {
			v = 0
		}
		child[t] = v
	}
	return child
}

// boundedAdjustment converts one attribute's deviation from its
// reference average into a multiplicative adjustment clamped into
// [1-factorBound, 1+factorBound].
func boundedAdjustment(value, average, weight float64) float64 {
	if average == 0 {
		return 1.0
	}
	adj := 1 + weight*(value-average)/average
	if adj < 1-factorBound {
		return 1 - factorBound
	}
	if adj > 1+factorBound {
		return 1 + factorBound
	}
	return adj
}
