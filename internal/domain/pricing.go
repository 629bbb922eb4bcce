package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

type PricingSummary struct {
	TotalCost          float64 `json:"total_cost"`
	TotalSelling       float64 `json:"total_selling"`
	TotalMargin        float64 `json:"total_margin"`
	TotalTax           float64 `json:"total_tax"`
	FinalPrice         float64 `json:"final_price"`
	FinalMarginPercent float64 `json:"final_margin_percent"`
}

// CalculatePricing aggregates cost and selling over every weekly row using the
// rates frozen on each allocation. Tax applies to the selling total only.
// The margin percent is zero when there is no revenue.
func CalculatePricing(allocations []Allocation, taxRatePercent float64) PricingSummary {
	totalCost := decimal.Zero
	totalSelling := decimal.Zero
	for _, allocation := range allocations {
		cost, selling := allocationTotals(allocation)
		totalCost = totalCost.Add(cost)
		totalSelling = totalSelling.Add(selling)
	}

	tax := totalSelling.Mul(decimal.NewFromFloat(taxRatePercent)).Div(hundred)
	marginPercent := decimal.Zero
	if totalSelling.IsPositive() {
		marginPercent = decimal.NewFromInt(1).Sub(totalCost.Div(totalSelling)).Mul(hundred)
	}

	return PricingSummary{
		TotalCost:          totalCost.InexactFloat64(),
		TotalSelling:       totalSelling.InexactFloat64(),
		TotalMargin:        totalSelling.Sub(totalCost).InexactFloat64(),
		TotalTax:           tax.InexactFloat64(),
		FinalPrice:         totalSelling.Add(tax).InexactFloat64(),
		FinalMarginPercent: marginPercent.InexactFloat64(),
	}
}

// AllocationTotals returns the cost and selling amounts of one allocation.
func AllocationTotals(allocation Allocation) (float64, float64) {
	cost, selling := allocationTotals(allocation)
	return cost.InexactFloat64(), selling.InexactFloat64()
}

func allocationTotals(allocation Allocation) (decimal.Decimal, decimal.Decimal) {
	costRate := decimal.NewFromFloat(allocation.CostHourlyRate)
	sellingRate := decimal.NewFromFloat(allocation.SellingHourlyRate)
	cost := decimal.Zero
	selling := decimal.Zero
	for _, week := range allocation.Weeks {
		hours := decimal.NewFromFloat(week.HoursAllocated)
		cost = cost.Add(hours.Mul(costRate))
		selling = selling.Add(hours.Mul(sellingRate))
	}
	return cost, selling
}

// DeriveSellingRate picks the selling rate of a new allocation. A positive
// explicit rate wins. Otherwise marginRate (a fraction, or a percentage when
// above 1) is applied on top of the cost; a margin of 100 % or more yields the
// cost itself.
func DeriveSellingRate(costHourlyRate, marginRate float64, explicitRate *float64) float64 {
	if explicitRate != nil && *explicitRate > 0 {
		return *explicitRate
	}

	margin := marginRate
	if margin > 1 {
		margin = marginRate / 100
	}
	divisor := 1 - margin
	if divisor <= 0 {
		return costHourlyRate
	}
	return costHourlyRate / divisor
}
