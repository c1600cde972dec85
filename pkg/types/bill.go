package types

import (
	"math"
	"time"
)

// LineItem is one row of the composed bill. Amount is kept unrounded;
// rounding to cents happens only at presentation so errors don't compound
// across items.
type LineItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// RoundCents rounds a dollar amount to the nearest cent for presentation.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// BillEstimate is the output of one estimation run: the resolved usage and
// HDD figures, the priced line items, and enough provenance to explain how
// much of the estimate is actual data versus assumption. Never mutated after
// construction.
type BillEstimate struct {
	Cycle BillingCycle `json:"cycle"`

	// Usage figures, in Ccf as the meter registers them. The exact total
	// carries the fractional projection; the metered total is floored to the
	// last fully-turned register digit.
	UsageElapsedCcf    float64 `json:"usageElapsedCcf"`
	UsageRemainingCcf  float64 `json:"usageRemainingCcf"`
	UsageTotalExactCcf float64 `json:"usageTotalExactCcf"`
	UsageTotalCcf      int64   `json:"usageTotalCcf"`

	// The true end-of-cycle register value is bounded, not a point estimate:
	// it lies in [ProjectedMeterLow, ProjectedMeterHigh).
	ProjectedMeterLow  int64 `json:"projectedMeterLow"`
	ProjectedMeterHigh int64 `json:"projectedMeterHigh"`

	// Degree-day figures. NormalHDD and ActualHDD cover the period the WNA
	// factor was computed over; CycleHDD is the full-cycle total.
	NormalHDD float64 `json:"normalHDD"`
	ActualHDD float64 `json:"actualHDD"`
	CycleHDD  float64 `json:"cycleHDD"`

	// WNAFactorPerMcf is positive for a surcharge (warmer than normal) and
	// negative for a credit (colder than normal).
	WNAFactorPerMcf  float64 `json:"wnaFactorPerMcf"`
	WNAAmount        float64 `json:"wnaAmount"`
	DegenerateTariff bool    `json:"degenerateTariff,omitempty"`

	Days       []DailyHDD       `json:"days"`
	Provenance ProvenanceCounts `json:"provenance"`

	LineItems []LineItem `json:"lineItems"`
	Total     float64    `json:"total"`

	GeneratedAt time.Time `json:"generatedAt"`
}
