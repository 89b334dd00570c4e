package config

import (
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/oakline/fundsim/internal/models"
	"github.com/oakline/fundsim/internal/utils"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Simulation  SimulationConfig `mapstructure:"simulation"`
	Market      MarketConfig     `mapstructure:"market"`
	Hazard      HazardConfig     `mapstructure:"hazard"`
	Waterfall   WaterfallConfig  `mapstructure:"waterfall"`
	Portfolio   PortfolioConfig  `mapstructure:"portfolio"`
	Guardrails  GuardrailConfig  `mapstructure:"guardrails"`
}

type SimulationConfig struct {
	Seed             uint64  `mapstructure:"seed"`
	HorizonYears     int     `mapstructure:"horizon_years"`
	StepsPerYear     int     `mapstructure:"steps_per_year"`
	CommittedCapital float64 `mapstructure:"committed_capital"`
	Workers          int     `mapstructure:"workers"`
	CancelCheckEvery int     `mapstructure:"cancel_check_every"`
}

type ZoneConfig struct {
	ID           string  `mapstructure:"id"`
	Name         string  `mapstructure:"name"`
	TargetWeight float64 `mapstructure:"target_weight"`
	BaseRate     float64 `mapstructure:"base_rate"`
	Volatility   float64 `mapstructure:"volatility"`
}

type MarketConfig struct {
	Model       string       `mapstructure:"model"`
	Zones       []ZoneConfig `mapstructure:"zones"`
	Correlation [][]float64  `mapstructure:"correlation"`

	SuburbsPerZone    int     `mapstructure:"suburbs_per_zone"`
	SuburbVariation   float64 `mapstructure:"suburb_variation"`
	PropertyVariation float64 `mapstructure:"property_variation"`

	MeanReversionSpeed   float64 `mapstructure:"mean_reversion_speed"`
	MeanReversionTarget  float64 `mapstructure:"mean_reversion_target"`
	BullRate             float64 `mapstructure:"bull_rate"`
	BullVolatility       float64 `mapstructure:"bull_volatility"`
	BearRate             float64 `mapstructure:"bear_rate"`
	BearVolatility       float64 `mapstructure:"bear_volatility"`
	BullToBearProb       float64 `mapstructure:"bull_to_bear_prob"`
	BearToBullProb       float64 `mapstructure:"bear_to_bull_prob"`
	CyclePeriodYears     float64 `mapstructure:"cycle_period_years"`
	CycleAmplitude       float64 `mapstructure:"cycle_amplitude"`
	CycleInitialPhase    float64 `mapstructure:"cycle_initial_phase"`
	EconomicGrowth       float64 `mapstructure:"economic_growth"`
	SupplyDemandPressure float64 `mapstructure:"supply_demand_pressure"`
	DemographicGrowth    float64 `mapstructure:"demographic_growth"`
}

type HazardConfig struct {
	BaseAnnualExitRate float64 `mapstructure:"base_annual_exit_rate"`
	TimeWeight         float64 `mapstructure:"time_weight"`
	PriceWeight        float64 `mapstructure:"price_weight"`
	MinHoldMonths      int     `mapstructure:"min_hold_months"`
	MaxHoldMonths      int     `mapstructure:"max_hold_months"`

	SaleWeight      float64 `mapstructure:"sale_weight"`
	RefinanceWeight float64 `mapstructure:"refinance_weight"`
	DefaultWeight   float64 `mapstructure:"default_weight"`

	AppreciationSaleMultiplier float64 `mapstructure:"appreciation_sale_multiplier"`
	RateRefinanceMultiplier    float64 `mapstructure:"rate_refinance_multiplier"`
	EconomicDefaultMultiplier  float64 `mapstructure:"economic_default_multiplier"`
	HighLTVDefaultMultiplier   float64 `mapstructure:"high_ltv_default_multiplier"`
}

type WaterfallConfig struct {
	ShareRate       float64   `mapstructure:"share_rate"`
	TierThresholds  []float64 `mapstructure:"tier_thresholds"`
	TierShares      []float64 `mapstructure:"tier_shares"`
	MinShare        float64   `mapstructure:"min_share"`
	MaxShare        float64   `mapstructure:"max_share"`
	RecoveryRate    float64   `mapstructure:"recovery_rate"`
	ForeclosureCost float64   `mapstructure:"foreclosure_cost"`
}

type PortfolioConfig struct {
	LoanCount         int     `mapstructure:"loan_count"`
	MinPrincipal      float64 `mapstructure:"min_principal"`
	MaxPrincipal      float64 `mapstructure:"max_principal"`
	MinLTV            float64 `mapstructure:"min_ltv"`
	MaxLTV            float64 `mapstructure:"max_ltv"`
	MinRate           float64 `mapstructure:"min_rate"`
	MaxRate           float64 `mapstructure:"max_rate"`
	TermMonths        int     `mapstructure:"term_months"`
	OriginationSpan   int     `mapstructure:"origination_span_months"`
	ManagementFeePct  float64 `mapstructure:"management_fee_pct"`
	PerformanceFeePct float64 `mapstructure:"performance_fee_pct"`
}

type GuardrailConfig struct {
	MaxDefaultRate  float64 `mapstructure:"max_default_rate"`
	MinWALYears     float64 `mapstructure:"min_wal_years"`
	MaxWALYears     float64 `mapstructure:"max_wal_years"`
	MaxZoneShare    float64 `mapstructure:"max_zone_share"`
	MinPortfolioROI float64 `mapstructure:"min_portfolio_roi"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvPrefix("fundsim")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate enforces the fatal configuration errors: everything that must
// abort the run before any simulation starts. Degraded numerical
// conditions (a non-positive-semi-definite correlation matrix, for one)
// are deliberately not rejected here because the engine repairs them at
// run time.
func (c *Config) Validate() error {
	if c.Simulation.HorizonYears <= 0 {
		return utils.NewValidationErrorf("simulation.horizon_years must be positive, got %d", c.Simulation.HorizonYears)
	}
	switch c.Simulation.StepsPerYear {
	case 1, 4, 12:
	default:
		return utils.NewValidationErrorf("simulation.steps_per_year must be 1, 4 or 12, got %d", c.Simulation.StepsPerYear)
	}
	if c.Simulation.CommittedCapital <= 0 {
		return utils.NewValidationError("simulation.committed_capital must be positive")
	}

	switch models.ModelKind(c.Market.Model) {
	case models.ModelGeometricBrownian, models.ModelMeanReverting,
		models.ModelRegimeSwitching, models.ModelCyclical:
	default:
		return utils.NewValidationErrorf("unknown market model %q", c.Market.Model)
	}

	if len(c.Market.Zones) == 0 {
		return utils.NewValidationError("market.zones must define at least one zone")
	}
	seen := make(map[string]bool, len(c.Market.Zones))
	for _, z := range c.Market.Zones {
		if z.ID == "" {
			return utils.NewValidationError("market.zones entries require an id")
		}
		if seen[z.ID] {
			return utils.NewValidationErrorf("duplicate zone id %q", z.ID)
		}
		seen[z.ID] = true
		if z.Volatility < 0 {
			return utils.NewValidationErrorf("zone %s volatility must be non-negative", z.ID)
		}
	}

	if err := validateCorrelation(c.Market.Correlation, len(c.Market.Zones)); err != nil {
		return err
	}

	if len(c.Waterfall.TierThresholds) > 0 {
		if len(c.Waterfall.TierShares) != len(c.Waterfall.TierThresholds)+1 {
			return utils.NewValidationErrorf(
				"waterfall.tier_shares must have %d entries for %d thresholds, got %d",
				len(c.Waterfall.TierThresholds)+1, len(c.Waterfall.TierThresholds), len(c.Waterfall.TierShares))
		}
		for i := 1; i < len(c.Waterfall.TierThresholds); i++ {
			if c.Waterfall.TierThresholds[i] <= c.Waterfall.TierThresholds[i-1] {
				return utils.NewValidationErrorf(
					"waterfall.tier_thresholds must be strictly ascending, got %v", c.Waterfall.TierThresholds)
			}
		}
	}
	if c.Waterfall.MinShare > c.Waterfall.MaxShare {
		return utils.NewValidationError("waterfall.min_share must not exceed waterfall.max_share")
	}
	if c.Waterfall.RecoveryRate < 0 || c.Waterfall.RecoveryRate > 1 {
		return utils.NewValidationErrorf("waterfall.recovery_rate must be in [0,1], got %v", c.Waterfall.RecoveryRate)
	}

	if c.Hazard.MinHoldMonths < 0 || c.Hazard.MaxHoldMonths < c.Hazard.MinHoldMonths {
		return utils.NewValidationErrorf(
			"hazard hold period invalid: min %d, max %d", c.Hazard.MinHoldMonths, c.Hazard.MaxHoldMonths)
	}

	if c.Portfolio.LoanCount <= 0 {
		return utils.NewValidationError("portfolio.loan_count must be positive")
	}
	if c.Portfolio.MinLTV <= 0 || c.Portfolio.MaxLTV < c.Portfolio.MinLTV {
		return utils.NewValidationErrorf(
			"portfolio LTV range invalid: min %v, max %v", c.Portfolio.MinLTV, c.Portfolio.MaxLTV)
	}

	return nil
}

func validateCorrelation(corr [][]float64, zones int) error {
	if len(corr) == 0 {
		// Missing matrix means uncorrelated zones; the generator
		// substitutes the identity.
		return nil
	}
	if len(corr) != zones {
		return utils.NewValidationErrorf("correlation matrix has %d rows but there are %d zones", len(corr), zones)
	}
	for i, row := range corr {
		if len(row) != zones {
			return utils.NewValidationErrorf("correlation row %d has %d entries, want %d", i, len(row), zones)
		}
		if math.Abs(row[i]-1.0) > 1e-9 {
			return utils.NewValidationErrorf("correlation diagonal entry [%d][%d] must be 1.0, got %v", i, i, row[i])
		}
		for j := range row {
			if math.Abs(row[j]) > 1.0+1e-9 {
				return utils.NewValidationErrorf("correlation entry [%d][%d] out of [-1,1]: %v", i, j, row[j])
			}
			if math.Abs(row[j]-corr[j][i]) > 1e-9 {
				return utils.NewValidationErrorf("correlation matrix not symmetric at [%d][%d]", i, j)
			}
		}
	}
	return nil
}

// ModelSpec assembles the stochastic model specification from the
// market section.
func (c *Config) ModelSpec() models.StochasticModelSpec {
	spec := models.StochasticModelSpec{
		Kind:         models.ModelKind(c.Market.Model),
		BaseRates:    make(map[string]float64, len(c.Market.Zones)),
		Volatilities: make(map[string]float64, len(c.Market.Zones)),
		Correlation:  c.Market.Correlation,
		MeanReversion: models.MeanReversionParams{
			Speed:       c.Market.MeanReversionSpeed,
			LongRunMean: c.Market.MeanReversionTarget,
		},
		Regime: models.RegimeParams{
			BullRate:       c.Market.BullRate,
			BullVolatility: c.Market.BullVolatility,
			BearRate:       c.Market.BearRate,
			BearVolatility: c.Market.BearVolatility,
			BullToBearProb: c.Market.BullToBearProb,
			BearToBullProb: c.Market.BearToBullProb,
		},
		Cycle: models.CycleParams{
			PeriodYears:       c.Market.CyclePeriodYears,
			Amplitude:         c.Market.CycleAmplitude,
			InitialPhase:      c.Market.CycleInitialPhase,
			EconomicGrowth:    c.Market.EconomicGrowth,
			SupplyDemand:      c.Market.SupplyDemandPressure,
			DemographicGrowth: c.Market.DemographicGrowth,
		},
	}
	for _, z := range c.Market.Zones {
		spec.Zones = append(spec.Zones, z.ID)
		spec.BaseRates[z.ID] = z.BaseRate
		spec.Volatilities[z.ID] = z.Volatility
	}
	return spec
}

// HazardParameters assembles the exit-hazard parameter set.
func (c *Config) HazardParameters() models.ExitHazardParameters {
	return models.ExitHazardParameters{
		BaseAnnualExitRate:         c.Hazard.BaseAnnualExitRate,
		TimeWeight:                 c.Hazard.TimeWeight,
		PriceWeight:                c.Hazard.PriceWeight,
		MinHoldMonths:              c.Hazard.MinHoldMonths,
		MaxHoldMonths:              c.Hazard.MaxHoldMonths,
		SaleWeight:                 c.Hazard.SaleWeight,
		RefinanceWeight:            c.Hazard.RefinanceWeight,
		DefaultWeight:              c.Hazard.DefaultWeight,
		AppreciationSaleMultiplier: c.Hazard.AppreciationSaleMultiplier,
		RateRefinanceMultiplier:    c.Hazard.RateRefinanceMultiplier,
		EconomicDefaultMultiplier:  c.Hazard.EconomicDefaultMultiplier,
		HighLTVDefaultMultiplier:   c.Hazard.HighLTVDefaultMultiplier,
	}
}

// WaterfallSpec assembles the appreciation-sharing specification.
func (c *Config) WaterfallSpec() models.AppreciationWaterfallSpec {
	return models.AppreciationWaterfallSpec{
		ShareRate:       c.Waterfall.ShareRate,
		Thresholds:      c.Waterfall.TierThresholds,
		TierShares:      c.Waterfall.TierShares,
		MinShare:        c.Waterfall.MinShare,
		MaxShare:        c.Waterfall.MaxShare,
		RecoveryRate:    c.Waterfall.RecoveryRate,
		ForeclosureCost: c.Waterfall.ForeclosureCost,
	}
}

// HorizonMonths returns the simulation horizon in months.
func (c *Config) HorizonMonths() int {
	return c.Simulation.HorizonYears * 12
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Simulation
	viper.SetDefault("simulation.seed", 42)
	viper.SetDefault("simulation.horizon_years", 10)
	viper.SetDefault("simulation.steps_per_year", 12)
	viper.SetDefault("simulation.committed_capital", 100_000_000.0)
	viper.SetDefault("simulation.workers", 0) // 0 = size from system resources
	viper.SetDefault("simulation.cancel_check_every", 100)

	// Market
	viper.SetDefault("market.model", "gbm")
	viper.SetDefault("market.zones", []map[string]interface{}{
		{"id": "growth", "name": "Growth", "target_weight": 0.4, "base_rate": 0.07, "volatility": 0.12},
		{"id": "balanced", "name": "Balanced", "target_weight": 0.35, "base_rate": 0.05, "volatility": 0.08},
		{"id": "defensive", "name": "Defensive", "target_weight": 0.25, "base_rate": 0.035, "volatility": 0.05},
	})
	viper.SetDefault("market.suburbs_per_zone", 8)
	viper.SetDefault("market.suburb_variation", 0.01)
	viper.SetDefault("market.property_variation", 0.015)
	viper.SetDefault("market.mean_reversion_speed", 0.5)
	viper.SetDefault("market.mean_reversion_target", 0.05)
	viper.SetDefault("market.bull_rate", 0.09)
	viper.SetDefault("market.bull_volatility", 0.10)
	viper.SetDefault("market.bear_rate", -0.03)
	viper.SetDefault("market.bear_volatility", 0.18)
	viper.SetDefault("market.bull_to_bear_prob", 0.15)
	viper.SetDefault("market.bear_to_bull_prob", 0.35)
	viper.SetDefault("market.cycle_period_years", 7.0)
	viper.SetDefault("market.cycle_amplitude", 0.03)
	viper.SetDefault("market.cycle_initial_phase", 0.0)
	viper.SetDefault("market.economic_growth", 0.01)
	viper.SetDefault("market.supply_demand_pressure", 0.005)
	viper.SetDefault("market.demographic_growth", 0.005)

	// Hazard
	viper.SetDefault("hazard.base_annual_exit_rate", 0.12)
	viper.SetDefault("hazard.time_weight", 0.5)
	viper.SetDefault("hazard.price_weight", 0.5)
	viper.SetDefault("hazard.min_hold_months", 12)
	viper.SetDefault("hazard.max_hold_months", 120)
	viper.SetDefault("hazard.sale_weight", 0.55)
	viper.SetDefault("hazard.refinance_weight", 0.35)
	viper.SetDefault("hazard.default_weight", 0.03)
	viper.SetDefault("hazard.appreciation_sale_multiplier", 2.0)
	viper.SetDefault("hazard.rate_refinance_multiplier", 1.5)
	viper.SetDefault("hazard.economic_default_multiplier", 1.0)
	viper.SetDefault("hazard.high_ltv_default_multiplier", 2.5)

	// Waterfall
	viper.SetDefault("waterfall.share_rate", 0.25)
	viper.SetDefault("waterfall.tier_thresholds", []float64{0.2, 0.5, 1.0})
	viper.SetDefault("waterfall.tier_shares", []float64{0.1, 0.2, 0.3, 0.4})
	viper.SetDefault("waterfall.min_share", 0.05)
	viper.SetDefault("waterfall.max_share", 0.45)
	viper.SetDefault("waterfall.recovery_rate", 0.8)
	viper.SetDefault("waterfall.foreclosure_cost", 0.1)

	// Portfolio
	viper.SetDefault("portfolio.loan_count", 500)
	viper.SetDefault("portfolio.min_principal", 100_000.0)
	viper.SetDefault("portfolio.max_principal", 400_000.0)
	viper.SetDefault("portfolio.min_ltv", 0.55)
	viper.SetDefault("portfolio.max_ltv", 0.85)
	viper.SetDefault("portfolio.min_rate", 0.045)
	viper.SetDefault("portfolio.max_rate", 0.075)
	viper.SetDefault("portfolio.term_months", 120)
	viper.SetDefault("portfolio.origination_span_months", 24)
	viper.SetDefault("portfolio.management_fee_pct", 0.015)
	viper.SetDefault("portfolio.performance_fee_pct", 0.15)

	// Guardrails
	viper.SetDefault("guardrails.max_default_rate", 0.05)
	viper.SetDefault("guardrails.min_wal_years", 2.0)
	viper.SetDefault("guardrails.max_wal_years", 8.0)
	viper.SetDefault("guardrails.max_zone_share", 0.5)
	viper.SetDefault("guardrails.min_portfolio_roi", 0.0)
}
