package services

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/oakline/fundsim/internal/models"
)

// ZonePathGenerator simulates one correlated price trajectory per zone.
// Cross-zone correlation is imposed by factoring the (repaired)
// correlation matrix and mixing an independent standard-normal shock
// matrix through the Cholesky factor; each zone's path is then
// discretized from the configured stochastic process.
type ZonePathGenerator struct {
	spec   models.StochasticModelSpec
	logger *logrus.Logger
}

func NewZonePathGenerator(spec models.StochasticModelSpec, logger *logrus.Logger) *ZonePathGenerator {
	return &ZonePathGenerator{spec: spec, logger: logger}
}

// Generate produces a trajectory of steps+1 points per zone, plus the
// regime sequence per zone when the regime-switching model is active.
// dt is the step size in years.
func (g *ZonePathGenerator) Generate(runSeed uint64, steps int, dt float64) (map[string]models.PriceTrajectory, map[string][]models.RegimeState) {
	zones := g.spec.Zones
	shocks := g.correlatedShocks(runSeed, len(zones), steps)

	paths := make(map[string]models.PriceTrajectory, len(zones))
	var regimes map[string][]models.RegimeState
	if g.spec.Kind == models.ModelRegimeSwitching {
		regimes = make(map[string][]models.RegimeState, len(zones))
	}

	for i, zoneID := range zones {
		rate := g.spec.BaseRates[zoneID]
		vol := g.spec.Volatilities[zoneID]

		switch g.spec.Kind {
		case models.ModelMeanReverting:
			paths[zoneID] = g.meanRevertingPath(rate, vol, dt, shocks[i])
		case models.ModelRegimeSwitching:
			path, seq := g.regimeSwitchingPath(runSeed, zoneID, dt, shocks[i])
			paths[zoneID] = path
			regimes[zoneID] = seq
		case models.ModelCyclical:
			paths[zoneID] = g.cyclicalPath(rate, vol, dt, shocks[i])
		default:
			paths[zoneID] = g.geometricBrownianPath(rate, vol, dt, shocks[i])
		}
	}
	return paths, regimes
}

// correlatedShocks draws a zones x steps matrix of independent standard
// normals and mixes it through the Cholesky factor of the correlation
// matrix. The draw order is fixed (zone-major) so results never depend
// on scheduling.
func (g *ZonePathGenerator) correlatedShocks(runSeed uint64, zones, steps int) [][]float64 {
	rng := entityRand(runSeed, "zone-shocks")

	raw := make([][]float64, zones)
	for i := range raw {
		raw[i] = make([]float64, steps)
		for k := range raw[i] {
			raw[i][k] = rng.NormFloat64()
		}
	}

	if len(g.spec.Correlation) != zones {
		if len(g.spec.Correlation) != 0 && g.logger != nil {
			g.logger.WithFields(logrus.Fields{
				"matrix_rows": len(g.spec.Correlation),
				"zones":       zones,
			}).Warn("correlation matrix dimension mismatch, treating zones as uncorrelated")
		}
		return raw
	}

	l := CholeskyFactor(g.spec.Correlation, g.logger)
	return mixShocks(l, raw)
}

func mixShocks(l *mat.TriDense, raw [][]float64) [][]float64 {
	zones := len(raw)
	if zones == 0 {
		return raw
	}
	steps := len(raw[0])
	mixed := make([][]float64, zones)
	for i := range mixed {
		mixed[i] = make([]float64, steps)
		for k := 0; k < steps; k++ {
			var v float64
			for j := 0; j <= i; j++ {
				v += l.At(i, j) * raw[j][k]
			}
			mixed[i][k] = v
		}
	}
	return mixed
}

func (g *ZonePathGenerator) geometricBrownianPath(rate, vol, dt float64, shocks []float64) models.PriceTrajectory {
	path := make(models.PriceTrajectory, len(shocks)+1)
	path[0] = 1.0
	sqrtDt := math.Sqrt(dt)
	for k, z := range shocks {
		step := rate*dt + vol*sqrtDt*z
		path[k+1] = path[k] * (1 + step)
	}
	return path
}

// meanRevertingPath runs an Ornstein-Uhlenbeck process on the
// instantaneous rate; the price step each period is the prevailing
// rate times dt.
func (g *ZonePathGenerator) meanRevertingPath(rate, vol, dt float64, shocks []float64) models.PriceTrajectory {
	p := g.spec.MeanReversion
	path := make(models.PriceTrajectory, len(shocks)+1)
	path[0] = 1.0
	sqrtDt := math.Sqrt(dt)
	r := rate
	for k, z := range shocks {
		r += p.Speed*(p.LongRunMean-r)*dt + vol*sqrtDt*z
		path[k+1] = path[k] * (1 + r*dt)
	}
	return path
}

// regimeSwitchingPath runs a two-state bull/bear Markov chain with
// per-step transition probabilities derived from the configured annual
// probabilities. State transitions draw from a dedicated per-zone
// stream so the shock matrix stays aligned across models.
func (g *ZonePathGenerator) regimeSwitchingPath(runSeed uint64, zoneID string, dt float64, shocks []float64) (models.PriceTrajectory, []models.RegimeState) {
	p := g.spec.Regime
	stateRng := entityRand(runSeed, "regime:"+zoneID)

	bullToBear := 1 - math.Pow(1-p.BullToBearProb, dt)
	bearToBull := 1 - math.Pow(1-p.BearToBullProb, dt)

	path := make(models.PriceTrajectory, len(shocks)+1)
	path[0] = 1.0
	seq := make([]models.RegimeState, len(shocks))
	sqrtDt := math.Sqrt(dt)

	state := models.RegimeBull
	for k, z := range shocks {
		if state == models.RegimeBull {
			if stateRng.Float64() < bullToBear {
				state = models.RegimeBear
			}
		} else {
			if stateRng.Float64() < bearToBull {
				state = models.RegimeBull
			}
		}
		seq[k] = state

		rate, vol := p.BullRate, p.BullVolatility
		if state == models.RegimeBear {
			rate, vol = p.BearRate, p.BearVolatility
		}
		step := rate*dt + vol*sqrtDt*z
		path[k+1] = path[k] * (1 + step)
	}
	return path, seq
}

// cyclicalPath layers a sinusoidal market cycle and the linear
// economic adjustment terms on top of the base drift. The cycle phase
// advances by dt/period per step, wrapped to [0,1).
func (g *ZonePathGenerator) cyclicalPath(rate, vol, dt float64, shocks []float64) models.PriceTrajectory {
	p := g.spec.Cycle
	path := make(models.PriceTrajectory, len(shocks)+1)
	path[0] = 1.0
	sqrtDt := math.Sqrt(dt)

	phase := math.Mod(p.InitialPhase, 1.0)
	adjustments := p.EconomicGrowth + p.SupplyDemand + p.DemographicGrowth
	for k, z := range shocks {
		cyclical := p.Amplitude * math.Sin(2*math.Pi*phase)
		step := (rate+cyclical+adjustments)*dt + vol*sqrtDt*z
		path[k+1] = path[k] * (1 + step)

		if p.PeriodYears > 0 {
			phase += dt / p.PeriodYears
			if phase >= 1.0 {
				phase -= math.Floor(phase)
			}
		}
	}
	return path
}
