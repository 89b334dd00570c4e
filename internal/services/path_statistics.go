package services

import (
	"math"
	"sort"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"gonum.org/v1/gonum/stat"

	"github.com/oakline/fundsim/internal/models"
)

// smaPeriod smooths the trajectory before measuring the terminal trend
// slope, so a single noisy final step doesn't flip the sign.
const smaPeriod = 6

// PathStatisticsService summarizes zone trajectories for the run
// report: annualized return and volatility, max drawdown, the smoothed
// terminal trend and regime occupancy where applicable.
type PathStatisticsService struct {
	stepsPerYear int
}

func NewPathStatisticsService(stepsPerYear int) *PathStatisticsService {
	if stepsPerYear < 1 {
		stepsPerYear = 12
	}
	return &PathStatisticsService{stepsPerYear: stepsPerYear}
}

func (s *PathStatisticsService) Summarize(hierarchy *models.PriceHierarchy) []models.ZonePathStats {
	zoneIDs := make([]string, 0, len(hierarchy.Zones))
	for id := range hierarchy.Zones {
		zoneIDs = append(zoneIDs, id)
	}
	sort.Strings(zoneIDs)

	out := make([]models.ZonePathStats, 0, len(zoneIDs))
	for _, id := range zoneIDs {
		path := hierarchy.Zones[id]
		stats := models.ZonePathStats{
			ZoneID:           id,
			FinalIndex:       path.FinalIndex(),
			AnnualizedReturn: s.annualizedReturn(path),
			AnnualizedVol:    s.annualizedVol(path),
			MaxDrawdown:      maxDrawdown(path),
			TrendSlope:       s.trendSlope(path),
		}
		if seq, ok := hierarchy.Regimes[id]; ok {
			stats.BullShare = bullShare(seq)
		}
		out = append(out, stats)
	}
	return out
}

func (s *PathStatisticsService) annualizedReturn(path models.PriceTrajectory) float64 {
	steps := len(path) - 1
	if steps <= 0 || path.FinalIndex() <= 0 {
		return 0
	}
	years := float64(steps) / float64(s.stepsPerYear)
	return math.Pow(path.FinalIndex(), 1/years) - 1
}

func (s *PathStatisticsService) annualizedVol(path models.PriceTrajectory) float64 {
	returns := stepReturns(path)
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(float64(s.stepsPerYear))
}

// trendSlope is the per-step change of the SMA-smoothed trajectory at
// its end.
func (s *PathStatisticsService) trendSlope(path models.PriceTrajectory) float64 {
	if len(path) < smaPeriod+1 {
		return 0
	}
	sma := trend.NewSmaWithPeriod[float64](smaPeriod)
	smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(path)))
	if len(smoothed) < 2 {
		return 0
	}
	return smoothed[len(smoothed)-1] - smoothed[len(smoothed)-2]
}

func stepReturns(path models.PriceTrajectory) []float64 {
	if len(path) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		if path[i-1] <= 0 {
			continue
		}
		returns = append(returns, path[i]/path[i-1]-1)
	}
	return returns
}

func maxDrawdown(path models.PriceTrajectory) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range path {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func bullShare(seq []models.RegimeState) float64 {
	if len(seq) == 0 {
		return 0
	}
	bulls := 0
	for _, s := range seq {
		if s == models.RegimeBull {
			bulls++
		}
	}
	return float64(bulls) / float64(len(seq))
}
