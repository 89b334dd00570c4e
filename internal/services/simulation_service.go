package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oakline/fundsim/internal/config"
	"github.com/oakline/fundsim/internal/models"
)

// SimulationService runs the full fund simulation pipeline: zone paths,
// hierarchical derivation, portfolio generation, exit simulation and
// the bookkeeping passes. Stages run strictly in order because exit
// simulation reads property-level trajectories; within a stage, work
// fans out over a worker pool wherever entities are independent.
type SimulationService struct {
	cfg             *config.Config
	logger          *logrus.Logger
	refData         ReferenceDataProvider
	progress        ProgressSink
	cancelled       CancelCheck
	resourceManager *ResourceManager
}

func NewSimulationService(cfg *config.Config, logger *logrus.Logger) *SimulationService {
	return &SimulationService{
		cfg:             cfg,
		logger:          logger,
		progress:        &LogProgressSink{Logger: logger},
		cancelled:       NeverCancelled,
		resourceManager: NewResourceManager(logger),
	}
}

// SetReferenceData injects a reference-data provider; without one the
// service builds the in-memory synthetic provider from the run seed.
func (s *SimulationService) SetReferenceData(provider ReferenceDataProvider) {
	s.refData = provider
}

// SetProgressSink replaces the default logging sink.
func (s *SimulationService) SetProgressSink(sink ProgressSink) {
	if sink != nil {
		s.progress = sink
	}
}

// SetCancelCheck installs the orchestrator's cancellation predicate.
func (s *SimulationService) SetCancelCheck(check CancelCheck) {
	if check != nil {
		s.cancelled = check
	}
}

// Run executes one simulation and assembles the run report. Only the
// already-validated configuration feeds the stages, so the error return
// is reserved for context cancellation before the pipeline could start.
func (s *SimulationService) Run(ctx context.Context) (*models.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	seed := s.cfg.Simulation.Seed
	report := &models.RunReport{
		RunID:     uuid.New().String(),
		Seed:      seed,
		StartedAt: started,
	}

	log := s.logger.WithFields(logrus.Fields{
		"run_id": report.RunID,
		"seed":   seed,
		"model":  s.cfg.Market.Model,
	})
	log.Info("simulation run starting")

	provider := s.refData
	if provider == nil {
		provider = NewInMemoryReferenceData(seed, s.zoneInfos(), s.cfg.Market.SuburbsPerZone, s.cfg.Portfolio.LoanCount)
	}

	hierarchy, ok := s.buildHierarchy(ctx, seed, provider)
	report.Cancelled = !ok
	if !ok {
		report.FinishedAt = time.Now()
		log.Warn("simulation cancelled during price-path generation")
		return report, nil
	}

	generator := NewPortfolioGenerator(s.cfg.Portfolio, seed, s.logger)
	loans := generator.Generate(provider)
	report.Loans = len(loans)
	s.progress.Progress("portfolio_generator", 100, "loan portfolio generated")

	allocator := NewCapitalAllocator()
	report.Allocations = allocator.Allocate(
		decimal.NewFromFloat(s.cfg.Simulation.CommittedCapital), s.zoneInfos())

	simulator := NewExitSimulator(s.cfg.HazardParameters(), s.cfg.WaterfallSpec(), ExitSimulatorConfig{
		RunSeed:      seed,
		StepsPerYear: s.cfg.Simulation.StepsPerYear,
		Workers:      s.resourceManager.OptimalWorkers(s.cfg.Simulation.Workers),
		BatchSize:    s.cfg.Simulation.CancelCheckEvery,
	}, s.logger)

	exits := simulator.Simulate(ctx, loans, hierarchy, s.cfg.HorizonMonths(), s.progress, s.cancelled)
	report.ExitRecords = exits.Records
	report.Cancelled = exits.Cancelled
	report.ExitsByType = countByType(exits.Records)

	ledger := NewFundLedger(s.cfg.Portfolio.ManagementFeePct, s.cfg.Portfolio.PerformanceFeePct)
	report.Ledger = ledger.Summarize(loans, exits.Records)

	checker := NewGuardrailChecker(s.cfg.Guardrails)
	report.Guardrails = checker.Evaluate(loans, exits.Records, report.Allocations)

	stats := NewPathStatisticsService(s.cfg.Simulation.StepsPerYear)
	report.ZoneStats = stats.Summarize(hierarchy)

	report.FinishedAt = time.Now()
	log.WithFields(logrus.Fields{
		"loans":     report.Loans,
		"exits":     len(report.ExitRecords),
		"cancelled": report.Cancelled,
		"elapsed":   report.FinishedAt.Sub(started).String(),
	}).Info("simulation run finished")
	return report, nil
}

// buildHierarchy runs the three price-path stages. Cancellation is
// checked at each level boundary; a cancel mid-hierarchy abandons the
// run before any loan is simulated.
func (s *SimulationService) buildHierarchy(ctx context.Context, seed uint64, provider ReferenceDataProvider) (*models.PriceHierarchy, bool) {
	stepsPerYear := s.cfg.Simulation.StepsPerYear
	steps := s.cfg.Simulation.HorizonYears * stepsPerYear
	dt := 1.0 / float64(stepsPerYear)

	generator := NewZonePathGenerator(s.cfg.ModelSpec(), s.logger)
	zonePaths, regimes := generator.Generate(seed, steps, dt)
	s.progress.Progress("zone_paths", 100, "zone trajectories generated")

	hierarchy := &models.PriceHierarchy{
		Zones:      zonePaths,
		Suburbs:    make(map[string]models.PriceTrajectory),
		Properties: make(map[string]models.PriceTrajectory),
		Regimes:    regimes,
		Steps:      steps,
	}

	if s.stopRequested(ctx) {
		return hierarchy, false
	}

	deriver := NewHierarchicalPathDeriver(seed, s.cfg.Market.SuburbVariation, s.cfg.Market.PropertyVariation, s.logger)

	suburbs := provider.AllSuburbs()
	for _, suburb := range suburbs {
		parent, ok := zonePaths[suburb.ZoneID]
		if !ok {
			s.logger.WithField("suburb_id", suburb.ID).Warn("suburb references unknown zone, using neutral parent")
			parent = models.NeutralTrajectory(steps)
		}
		hierarchy.Suburbs[suburb.ID] = deriver.DeriveSuburb(parent, suburb)
	}
	s.progress.Progress("suburb_paths", 100, "suburb trajectories derived")

	if s.stopRequested(ctx) {
		return hierarchy, false
	}

	// Property derivation is independent per suburb, so suburbs fan
	// out over the worker pool. Per-entity noise streams keep the
	// result identical regardless of scheduling.
	workers := s.resourceManager.OptimalWorkers(s.cfg.Simulation.Workers)
	var mu sync.Mutex
	var wg sync.WaitGroup
	suburbCh := make(chan models.SuburbAttributes)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for suburb := range suburbCh {
				parent := hierarchy.Suburbs[suburb.ID]
				avg := provider.SuburbAverages(suburb.ID)
				derived := make(map[string]models.PriceTrajectory)
				for _, prop := range provider.PropertiesInSuburb(suburb.ID) {
					derived[prop.ID] = deriver.DeriveProperty(parent, prop, avg)
				}
				mu.Lock()
				for id, path := range derived {
					hierarchy.Properties[id] = path
				}
				mu.Unlock()
			}
		}()
	}
	for _, suburb := range suburbs {
		suburbCh <- suburb
	}
	close(suburbCh)
	wg.Wait()
	s.progress.Progress("property_paths", 100, "property trajectories derived")

	return hierarchy, !s.stopRequested(ctx)
}

func (s *SimulationService) stopRequested(ctx context.Context) bool {
	return ctx.Err() != nil || s.cancelled()
}

func (s *SimulationService) zoneInfos() []models.ZoneInfo {
	zones := make([]models.ZoneInfo, 0, len(s.cfg.Market.Zones))
	for _, z := range s.cfg.Market.Zones {
		zones = append(zones, models.ZoneInfo{ID: z.ID, Name: z.Name, TargetWeight: z.TargetWeight})
	}
	return zones
}

func countByType(records []models.ExitRecord) map[models.ExitType]int {
	counts := make(map[models.ExitType]int, 4)
	for _, r := range records {
		counts[r.ExitType]++
	}
	return counts
}
