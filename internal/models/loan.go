package models

import (
	"github.com/shopspring/decimal"
)

// Loan is one position in the fund's portfolio. Principal is the amount
// the fund advanced against the property.
type Loan struct {
	ID               string  `json:"id"`
	ZoneID           string  `json:"zone_id"`
	SuburbID         string  `json:"suburb_id"`
	PropertyID       string  `json:"property_id"`
	Principal        float64 `json:"principal"`
	LTV              float64 `json:"ltv"`
	InterestRate     float64 `json:"interest_rate"`
	TermMonths       int     `json:"term_months"`
	OriginationMonth int     `json:"origination_month"`
}

// PropertyValue returns the implied property value at origination
// (principal / LTV), or zero when the loan data is degenerate.
func (l Loan) PropertyValue() float64 {
	if l.LTV <= 0 {
		return 0
	}
	return l.Principal / l.LTV
}

// ExitType classifies how a loan left the portfolio.
type ExitType string

const (
	ExitSale           ExitType = "sale"
	ExitRefinance      ExitType = "refinance"
	ExitDefault        ExitType = "default"
	ExitTermCompletion ExitType = "term_completion"
)

// ExitHazardParameters tunes the monthly exit hazard and the competing
// exit-type weights. Weights need not sum to one; the selector
// normalizes the voluntary-exit weights after adjustment.
type ExitHazardParameters struct {
	BaseAnnualExitRate float64 `json:"base_annual_exit_rate"`
	TimeWeight         float64 `json:"time_weight"`
	PriceWeight        float64 `json:"price_weight"`
	MinHoldMonths      int     `json:"min_hold_months"`
	MaxHoldMonths      int     `json:"max_hold_months"`

	SaleWeight      float64 `json:"sale_weight"`
	RefinanceWeight float64 `json:"refinance_weight"`
	DefaultWeight   float64 `json:"default_weight"`

	AppreciationSaleMultiplier float64 `json:"appreciation_sale_multiplier"`
	RateRefinanceMultiplier    float64 `json:"rate_refinance_multiplier"`
	EconomicDefaultMultiplier  float64 `json:"economic_default_multiplier"`
	HighLTVDefaultMultiplier   float64 `json:"high_ltv_default_multiplier"`
}

// AppreciationWaterfallSpec configures how realized appreciation is
// split with the fund at exit. When Thresholds is empty the flat
// ShareRate applies; otherwise tier i's share applies once appreciation
// exceeds Thresholds[i-1] (tier 0 below the first threshold). Shares
// are clamped into [MinShare, MaxShare]. Thresholds must be ascending.
type AppreciationWaterfallSpec struct {
	ShareRate  float64   `json:"share_rate"`
	Thresholds []float64 `json:"thresholds"`
	TierShares []float64 `json:"tier_shares"`
	MinShare   float64   `json:"min_share"`
	MaxShare   float64   `json:"max_share"`

	RecoveryRate    float64 `json:"recovery_rate"`
	ForeclosureCost float64 `json:"foreclosure_cost"`
}

// Tiered reports whether a tier schedule is configured.
func (s AppreciationWaterfallSpec) Tiered() bool {
	return len(s.Thresholds) > 0
}

// ExitRecord is the immutable outcome of one loan's simulation. Cash
// amounts are decimals because they feed fee and waterfall accounting
// downstream; the rates stay as floats.
type ExitRecord struct {
	LoanID            string          `json:"loan_id"`
	ZoneID            string          `json:"zone_id"`
	ExitMonth         int             `json:"exit_month"`
	ExitType          ExitType        `json:"exit_type"`
	ExitValue         decimal.Decimal `json:"exit_value"`
	AppreciationShare decimal.Decimal `json:"appreciation_share"`
	Appreciation      float64         `json:"appreciation"`
	ROI               float64         `json:"roi"`
	AnnualizedROI     float64         `json:"annualized_roi"`
}

// TotalCash returns exit value plus appreciation share.
func (r ExitRecord) TotalCash() decimal.Decimal {
	return r.ExitValue.Add(r.AppreciationShare)
}
