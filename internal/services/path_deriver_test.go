package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/fundsim/internal/models"
)

func neutralSuburb(id string) models.SuburbAttributes {
	return models.SuburbAttributes{
		ID:                id,
		AppreciationScore: 5,
		RiskScore:         5,
		LiquidityScore:    5,
	}
}

func TestDeriveSuburbNeutralScoresMatchParent(t *testing.T) {
	parent := models.PriceTrajectory{1.0, 1.02, 1.05, 1.10}
	d := NewHierarchicalPathDeriver(1, 0, 0, nil)

	child := d.DeriveSuburb(parent, neutralSuburb("s1"))
	require.Len(t, child, len(parent))
	assert.Equal(t, 1.0, child[0])
	for i := range parent {
		assert.InDelta(t, parent[i], child[i], 1e-12, "step %d", i)
	}
}

func TestDeriveSuburbScoresShiftGrowth(t *testing.T) {
	parent := models.PriceTrajectory{1.0, 1.1, 1.2}
	d := NewHierarchicalPathDeriver(1, 0, 0, nil)

	strong := neutralSuburb("hot")
	strong.AppreciationScore = 8
	weak := neutralSuburb("cold")
	weak.AppreciationScore = 2

	hot := d.DeriveSuburb(parent, strong)
	cold := d.DeriveSuburb(parent, weak)

	assert.Greater(t, hot.FinalIndex(), parent.FinalIndex())
	assert.Less(t, cold.FinalIndex(), parent.FinalIndex())
	assert.Equal(t, 1.0, hot[0])
	assert.Equal(t, 1.0, cold[0])
}

func TestDeriveIsDeterministicPerEntity(t *testing.T) {
	parent := models.PriceTrajectory{1.0, 1.03, 1.08, 1.15, 1.21}
	d := NewHierarchicalPathDeriver(42, 0.02, 0.02, nil)

	first := d.DeriveSuburb(parent, neutralSuburb("s1"))
	second := d.DeriveSuburb(parent, neutralSuburb("s1"))
	assert.Equal(t, first, second)

	other := d.DeriveSuburb(parent, neutralSuburb("s2"))
	assert.NotEqual(t, first, other, "different entities must get different noise")
}

func TestDerivePropertyUsesAttributes(t *testing.T) {
	parent := models.PriceTrajectory{1.0, 1.1, 1.25}
	d := NewHierarchicalPathDeriver(7, 0, 0, nil)
	avg := SuburbAverages{Bedrooms: 3, Bathrooms: 2, LandSize: 450, AgeYears: 25}

	average := models.PropertyAttributes{
		ID: "p-avg", PropertyType: "townhouse",
		Bedrooms: 3, Bathrooms: 2, LandSize: 450, AgeYears: 25,
	}
	premium := models.PropertyAttributes{
		ID: "p-big", PropertyType: "house",
		Bedrooms: 5, Bathrooms: 3, LandSize: 800, AgeYears: 5,
	}

	base := d.DeriveProperty(parent, average, avg)
	big := d.DeriveProperty(parent, premium, avg)

	// An average townhouse tracks its suburb exactly.
	for i := range parent {
		assert.InDelta(t, parent[i], base[i], 1e-12, "step %d", i)
	}
	assert.Greater(t, big.FinalIndex(), base.FinalIndex())
}

func TestBoundedAdjustmentClamps(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		average float64
		weight  float64
		want    float64
	}{
		{"no deviation", 5, 5, 0.5, 1.0},
		{"upper clamp", 100, 5, 0.5, 1 + factorBound},
		{"lower clamp", -100, 5, 0.5, 1 - factorBound},
		{"zero average is neutral", 3, 0, 0.5, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, boundedAdjustment(tt.value, tt.average, tt.weight), 1e-12)
		})
	}
}

func TestDeriveEmptyParent(t *testing.T) {
	d := NewHierarchicalPathDeriver(1, 0, 0, nil)
	child := d.DeriveSuburb(nil, neutralSuburb("s1"))
	assert.Equal(t, models.PriceTrajectory{1.0}, child)
}
