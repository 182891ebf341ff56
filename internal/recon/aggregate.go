package recon

import (
	"math"

	"github.com/shopspring/decimal"
)

// accumulator sums monetary columns exactly and rounds only when read out.
// NaN cells (unparsable inputs) contribute nothing, matching the rule that
// malformed values flow through aggregates as zero.
type accumulator struct {
	total decimal.Decimal
}

func (a *accumulator) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	a.total = a.total.Add(decimal.NewFromFloat(v))
}

// value returns the exact running total.
func (a *accumulator) value() float64 {
	f, _ := a.total.Float64()
	return f
}

// rounded returns the total rounded half-up to 2 decimal places. Gross
// channel figures round here, at the aggregate, never per row.
func (a *accumulator) rounded() float64 {
	f, _ := a.total.Round(2).Float64()
	return f
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
