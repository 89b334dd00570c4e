package services

import (
	"github.com/shopspring/decimal"

	"github.com/oakline/fundsim/internal/models"
)

// CapitalAllocator splits committed capital across zone buckets by
// their target weights. Weights are normalized first, and rounding
// residue is assigned by largest remainder so the allocations always
// sum exactly to the committed amount.
type CapitalAllocator struct{}

func NewCapitalAllocator() *CapitalAllocator {
	return &CapitalAllocator{}
}

func (a *CapitalAllocator) Allocate(committed decimal.Decimal, zones []models.ZoneInfo) []models.CapitalAllocation {
	if len(zones) == 0 {
		return nil
	}

	totalWeight := 0.0
	for _, z := range zones {
		if z.TargetWeight > 0 {
			totalWeight += z.TargetWeight
		}
	}

	allocations := make([]models.CapitalAllocation, len(zones))
	assigned := decimal.Zero
	remainders := make([]decimal.Decimal, len(zones))
	for i, z := range zones {
		weight := 0.0
		if totalWeight > 0 && z.TargetWeight > 0 {
			weight = z.TargetWeight / totalWeight
		} else if totalWeight == 0 {
			weight = 1.0 / float64(len(zones))
		}
		exact := committed.Mul(decimal.NewFromFloat(weight))
		amount := exact.RoundDown(2)
		remainders[i] = exact.Sub(amount)
		allocations[i] = models.CapitalAllocation{
			ZoneID: z.ID,
			Weight: weight,
			Amount: amount,
		}
		assigned = assigned.Add(amount)
	}

	// Hand out the leftover cents to the largest remainders.
	leftover := committed.Sub(assigned)
	cent := decimal.New(1, -2)
	for leftover.GreaterThanOrEqual(cent) {
		best := 0
		for i := 1; i < len(remainders); i++ {
			if remainders[i].GreaterThan(remainders[best]) {
				best = i
			}
		}
		allocations[best].Amount = allocations[best].Amount.Add(cent)
		remainders[best] = decimal.Zero
		leftover = leftover.Sub(cent)
	}
	if leftover.GreaterThan(decimal.Zero) {
		allocations[0].Amount = allocations[0].Amount.Add(leftover)
	}
	return allocations
}
