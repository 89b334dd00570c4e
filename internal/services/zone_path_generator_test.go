package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/fundsim/internal/models"
)

func gbmSpec(zones []string, rate, vol float64) models.StochasticModelSpec {
	spec := models.StochasticModelSpec{
		Kind:         models.ModelGeometricBrownian,
		Zones:        zones,
		BaseRates:    make(map[string]float64),
		Volatilities: make(map[string]float64),
	}
	for _, z := range zones {
		spec.BaseRates[z] = rate
		spec.Volatilities[z] = vol
	}
	return spec
}

func TestGBMZeroVolatilityMatchesCompounding(t *testing.T) {
	gen := NewZonePathGenerator(gbmSpec([]string{"growth"}, 0.06, 0.0), nil)

	paths, regimes := gen.Generate(1, 12, 1.0/12)
	require.Contains(t, paths, "growth")
	assert.Nil(t, regimes)

	path := paths["growth"]
	require.Len(t, path, 13)
	assert.Equal(t, 1.0, path[0])

	want := math.Pow(1+0.06/12, 12)
	assert.InDelta(t, want, path[12], 1e-12)
}

func TestGenerateStartsAtOneForAllModels(t *testing.T) {
	kinds := []models.ModelKind{
		models.ModelGeometricBrownian,
		models.ModelMeanReverting,
		models.ModelRegimeSwitching,
		models.ModelCyclical,
	}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			spec := gbmSpec([]string{"a", "b"}, 0.05, 0.1)
			spec.Kind = kind
			spec.MeanReversion = models.MeanReversionParams{Speed: 0.5, LongRunMean: 0.05}
			spec.Regime = models.RegimeParams{
				BullRate: 0.08, BullVolatility: 0.1,
				BearRate: -0.03, BearVolatility: 0.15,
				BullToBearProb: 0.2, BearToBullProb: 0.4,
			}
			spec.Cycle = models.CycleParams{PeriodYears: 7, Amplitude: 0.03}

			gen := NewZonePathGenerator(spec, nil)
			paths, _ := gen.Generate(99, 24, 1.0/12)
			for zone, path := range paths {
				require.Len(t, path, 25, "zone %s", zone)
				assert.Equal(t, 1.0, path[0], "zone %s", zone)
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	spec := gbmSpec([]string{"a", "b", "c"}, 0.05, 0.12)
	spec.Correlation = [][]float64{
		{1.0, 0.6, 0.3},
		{0.6, 1.0, 0.5},
		{0.3, 0.5, 1.0},
	}
	gen := NewZonePathGenerator(spec, nil)

	first, _ := gen.Generate(7, 60, 1.0/12)
	second, _ := gen.Generate(7, 60, 1.0/12)
	assert.Equal(t, first, second)

	third, _ := gen.Generate(8, 60, 1.0/12)
	assert.NotEqual(t, first, third)
}

func TestPerfectCorrelationAlignsZones(t *testing.T) {
	// Two zones with identical dynamics and correlation 1 must move
	// in lockstep.
	spec := gbmSpec([]string{"a", "b"}, 0.05, 0.15)
	spec.Correlation = [][]float64{
		{1.0, 1.0},
		{1.0, 1.0},
	}
	gen := NewZonePathGenerator(spec, nil)

	paths, _ := gen.Generate(3, 36, 1.0/12)
	for i := range paths["a"] {
		assert.InDelta(t, paths["a"][i], paths["b"][i], 1e-9, "step %d", i)
	}
}

func TestRegimeSwitchingRecordsSequences(t *testing.T) {
	spec := gbmSpec([]string{"a"}, 0.05, 0.1)
	spec.Kind = models.ModelRegimeSwitching
	spec.Regime = models.RegimeParams{
		BullRate: 0.08, BullVolatility: 0.08,
		BearRate: -0.04, BearVolatility: 0.2,
		BullToBearProb: 0.5, BearToBullProb: 0.5,
	}
	gen := NewZonePathGenerator(spec, nil)

	_, regimes := gen.Generate(11, 120, 1.0/12)
	require.Contains(t, regimes, "a")
	require.Len(t, regimes["a"], 120)
	for _, state := range regimes["a"] {
		assert.Contains(t, []models.RegimeState{models.RegimeBull, models.RegimeBear}, state)
	}
}

func TestCyclicalZeroVolatilityFollowsCycle(t *testing.T) {
	spec := gbmSpec([]string{"a"}, 0.05, 0.0)
	spec.Kind = models.ModelCyclical
	spec.Cycle = models.CycleParams{
		PeriodYears:       5,
		Amplitude:         0.02,
		EconomicGrowth:    0.01,
		SupplyDemand:      0.005,
		DemographicGrowth: 0.005,
	}
	gen := NewZonePathGenerator(spec, nil)

	paths, _ := gen.Generate(1, 12, 1.0/12)
	path := paths["a"]

	// Replicate the deterministic recurrence.
	dt := 1.0 / 12
	want := 1.0
	phase := 0.0
	for k := 0; k < 12; k++ {
		step := (0.05 + 0.02*math.Sin(2*math.Pi*phase) + 0.02) * dt
		want *= 1 + step
		phase += dt / 5
		assert.InDelta(t, want, path[k+1], 1e-12, "step %d", k+1)
	}
}
