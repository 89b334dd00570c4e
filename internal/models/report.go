package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CapitalAllocation is the amount of committed capital assigned to one
// zone bucket by the allocator.
type CapitalAllocation struct {
	ZoneID string          `json:"zone_id"`
	Weight float64         `json:"weight"`
	Amount decimal.Decimal `json:"amount"`
}

// LedgerSummary aggregates the cash consequences of the exit-record set.
type LedgerSummary struct {
	PrincipalDeployed   decimal.Decimal         `json:"principal_deployed"`
	PrincipalReturned   decimal.Decimal         `json:"principal_returned"`
	AppreciationIncome  decimal.Decimal         `json:"appreciation_income"`
	DefaultLosses       decimal.Decimal         `json:"default_losses"`
	ManagementFees      decimal.Decimal         `json:"management_fees"`
	PerformanceFees     decimal.Decimal         `json:"performance_fees"`
	NetProceeds         decimal.Decimal         `json:"net_proceeds"`
	ReinvestableByMonth map[int]decimal.Decimal `json:"reinvestable_by_month"`
}

// GuardrailFinding is one rule evaluation over the simulation result.
type GuardrailFinding struct {
	Rule     string  `json:"rule"`
	Passed   bool    `json:"passed"`
	Observed float64 `json:"observed"`
	Limit    float64 `json:"limit"`
	Message  string  `json:"message"`
}

// ZonePathStats summarizes one zone's simulated trajectory for the run
// report.
type ZonePathStats struct {
	ZoneID           string  `json:"zone_id"`
	FinalIndex       float64 `json:"final_index"`
	AnnualizedReturn float64 `json:"annualized_return"`
	AnnualizedVol    float64 `json:"annualized_vol"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	TrendSlope       float64 `json:"trend_slope"`
	BullShare        float64 `json:"bull_share,omitempty"`
}

// RunReport is the top-level output of one simulation run.
type RunReport struct {
	RunID       string              `json:"run_id"`
	Seed        uint64              `json:"seed"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Loans       int                 `json:"loans"`
	Allocations []CapitalAllocation `json:"allocations"`
	ExitRecords []ExitRecord        `json:"exit_records"`
	ExitsByType map[ExitType]int    `json:"exits_by_type"`
	Ledger      LedgerSummary       `json:"ledger"`
	Guardrails  []GuardrailFinding  `json:"guardrails"`
	ZoneStats   []ZonePathStats     `json:"zone_stats"`
	Cancelled   bool                `json:"cancelled"`
}
