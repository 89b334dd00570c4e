package models

// ModelKind selects the stochastic process used for zone price paths.
type ModelKind string

const (
	ModelGeometricBrownian ModelKind = "gbm"
	ModelMeanReverting     ModelKind = "mean_reverting"
	ModelRegimeSwitching   ModelKind = "regime_switching"
	ModelCyclical          ModelKind = "cyclical"
)

// RegimeState is the market state of the two-state regime model.
type RegimeState string

const (
	RegimeBull RegimeState = "bull"
	RegimeBear RegimeState = "bear"
)

// MeanReversionParams drives the Ornstein-Uhlenbeck rate process.
type MeanReversionParams struct {
	Speed       float64 `json:"speed"`
	LongRunMean float64 `json:"long_run_mean"`
}

// RegimeParams holds the per-state dynamics and annual transition
// probabilities of the two-state Markov regime model.
type RegimeParams struct {
	BullRate       float64 `json:"bull_rate"`
	BullVolatility float64 `json:"bull_volatility"`
	BearRate       float64 `json:"bear_rate"`
	BearVolatility float64 `json:"bear_volatility"`
	// Annual probabilities of leaving the current state; converted to
	// per-step probabilities via 1-(1-p)^dt.
	BullToBearProb float64 `json:"bull_to_bear_prob"`
	BearToBullProb float64 `json:"bear_to_bull_prob"`
}

// CycleParams drives the sinusoidal market-cycle model. The linear
// adjustment terms shift the drift alongside the cycle itself.
type CycleParams struct {
	PeriodYears       float64 `json:"period_years"`
	Amplitude         float64 `json:"amplitude"`
	InitialPhase      float64 `json:"initial_phase"`
	EconomicGrowth    float64 `json:"economic_growth"`
	SupplyDemand      float64 `json:"supply_demand"`
	DemographicGrowth float64 `json:"demographic_growth"`
}

// StochasticModelSpec fully describes the zone-level price process:
// which model runs, the per-zone drift and volatility, and the
// cross-zone correlation structure.
//
// The correlation matrix is indexed in the same order as Zones. It must
// be symmetric with a unit diagonal; positive semi-definiteness is not
// required up front because the generator repairs the matrix before
// factorization.
type StochasticModelSpec struct {
	Kind          ModelKind           `json:"kind"`
	Zones         []string            `json:"zones"`
	BaseRates     map[string]float64  `json:"base_rates"`
	Volatilities  map[string]float64  `json:"volatilities"`
	Correlation   [][]float64         `json:"correlation"`
	MeanReversion MeanReversionParams `json:"mean_reversion"`
	Regime        RegimeParams        `json:"regime"`
	Cycle         CycleParams         `json:"cycle"`
}
