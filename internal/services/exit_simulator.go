package services

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oakline/fundsim/internal/models"
)

// fallbackLTV stands in for the current loan-to-value ratio when the
// property index has collapsed to zero, making the true ratio
// unbounded. It is above the high-LTV default threshold on purpose.
const fallbackLTV = 1.5

// ExitSimulator runs the competing-risk exit simulation for a loan
// portfolio against the property-level price hierarchy. Each loan is
// independent, so loans run on a worker pool; every loan draws from its
// own deterministic stream, which keeps the output identical at any
// pool size.
type ExitSimulator struct {
	hazard    *ExitHazardModel
	selector  *CompetingRiskSelector
	waterfall *AppreciationWaterfallCalculator

	runSeed      uint64
	stepsPerYear int
	workers      int
	batchSize    int
	logger       *logrus.Logger
}

// ExitSimulatorConfig collects the knobs of the exit stage.
type ExitSimulatorConfig struct {
	RunSeed      uint64
	StepsPerYear int
	Workers      int
	// BatchSize is how many loans run between cancellation checks and
	// progress reports.
	BatchSize int
}

func NewExitSimulator(
	hazardParams models.ExitHazardParameters,
	waterfallSpec models.AppreciationWaterfallSpec,
	cfg ExitSimulatorConfig,
	logger *logrus.Logger,
) *ExitSimulator {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	batch := cfg.BatchSize
	if batch < 1 {
		batch = 100
	}
	stepsPerYear := cfg.StepsPerYear
	if stepsPerYear < 1 {
		stepsPerYear = 12
	}
	return &ExitSimulator{
		hazard:       NewExitHazardModel(hazardParams),
		selector:     NewCompetingRiskSelector(hazardParams),
		waterfall:    NewAppreciationWaterfallCalculator(waterfallSpec, logger),
		runSeed:      cfg.RunSeed,
		stepsPerYear: stepsPerYear,
		workers:      workers,
		batchSize:    batch,
		logger:       logger,
	}
}

// ExitSimulationResult is the outcome of the exit stage. Records are in
// loan order; ByLoanID is a dictionary view over the same records.
type ExitSimulationResult struct {
	Records  []models.ExitRecord
	ByLoanID map[string]models.ExitRecord
	// Cancelled reports that the run stopped early at a batch
	// boundary; Records holds everything computed before the stop.
	Cancelled bool
}

// Simulate produces one ExitRecord per loan. Cancellation is checked
// only between batches: a mid-stage cancel keeps the records already
// computed and simply stops producing more.
func (s *ExitSimulator) Simulate(
	ctx context.Context,
	loans []models.Loan,
	hierarchy *models.PriceHierarchy,
	horizonMonths int,
	progress ProgressSink,
	cancelled CancelCheck,
) *ExitSimulationResult {
	if progress == nil {
		progress = NopProgressSink{}
	}
	if cancelled == nil {
		cancelled = NeverCancelled
	}

	result := &ExitSimulationResult{
		ByLoanID: make(map[string]models.ExitRecord, len(loans)),
	}
	records := make([]models.ExitRecord, len(loans))

	done := 0
	for start := 0; start < len(loans); start += s.batchSize {
		if cancelled() || ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		end := start + s.batchSize
		if end > len(loans) {
			end = len(loans)
		}
		s.runBatch(loans, records, start, end, hierarchy, horizonMonths)
		done = end

		progress.Progress("exit_simulator", float64(done)/float64(len(loans))*100, "simulating loan exits")
	}

	result.Records = records[:done]
	for _, r := range result.Records {
		result.ByLoanID[r.LoanID] = r
	}
	return result
}

func (s *ExitSimulator) runBatch(loans []models.Loan, records []models.ExitRecord, start, end int, hierarchy *models.PriceHierarchy, horizonMonths int) {
	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				records[i] = s.simulateLoan(loans[i], hierarchy, horizonMonths)
			}
		}()
	}
	for i := start; i < end; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}

func (s *ExitSimulator) simulateLoan(loan models.Loan, hierarchy *models.PriceHierarchy, horizonMonths int) models.ExitRecord {
	lookup := hierarchy.LookupProperty(loan.PropertyID, loan.SuburbID, loan.ZoneID)
	if lookup.Level != models.LevelProperty && s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"loan_id":     loan.ID,
			"property_id": loan.PropertyID,
			"level":       lookup.Level,
		}).Warn("property trajectory missing, using fallback level")
	}
	traj := lookup.Trajectory

	origStep := s.monthToStep(loan.OriginationMonth)
	origIndex := traj.At(origStep)

	appreciationAt := func(month int) float64 {
		if origIndex <= 0 {
			return 0
		}
		return traj.At(s.monthToStep(loan.OriginationMonth+month))/origIndex - 1
	}

	rng := entityRand(s.runSeed, "loan:"+loan.ID)

	exitMonth, triggered := s.hazard.SimulateExitMonth(loan, horizonMonths, appreciationAt, rng)
	appreciation := appreciationAt(exitMonth)
	growth := 1 + appreciation

	currentLTV := fallbackLTV
	if growth > 0 {
		currentLTV = loan.LTV / growth
	}

	exitType := models.ExitTermCompletion
	if triggered {
		exitType = s.selector.Select(appreciation, currentLTV, rng)
	}

	currentValue := loan.PropertyValue() * growth
	proceeds := s.waterfall.Calculate(exitType, loan.Principal, currentValue, appreciation, exitMonth)

	return models.ExitRecord{
		LoanID:            loan.ID,
		ZoneID:            loan.ZoneID,
		ExitMonth:         exitMonth,
		ExitType:          exitType,
		ExitValue:         decimal.NewFromFloat(proceeds.ExitValue).Round(2),
		AppreciationShare: decimal.NewFromFloat(proceeds.AppreciationShare).Round(2),
		Appreciation:      appreciation,
		ROI:               proceeds.ROI,
		AnnualizedROI:     proceeds.AnnualizedROI,
	}
}

// monthToStep converts a calendar month offset into a trajectory step
// index at the configured resolution.
func (s *ExitSimulator) monthToStep(month int) int {
	return month * s.stepsPerYear / 12
}
