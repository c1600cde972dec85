package types

import "time"

// Rider is a volumetric surcharge from the tariff, billed per Mcf.
type Rider struct {
	Name          string  `json:"name" yaml:"name"`
	DollarsPerMcf float64 `json:"dollarsPerMcf" yaml:"dollars_per_mcf"`
}

// Fee is a volumetric pass-through fee (school tax, franchise fee), billed
// per Ccf.
type Fee struct {
	Name          string  `json:"name" yaml:"name"`
	DollarsPerCcf float64 `json:"dollarsPerCcf" yaml:"dollars_per_ccf"`
}

// TariffParameters are the published rate figures for one jurisdiction and
// rate class. Loaded once at startup and read-only afterward. The tariff
// states R, HSF, and BL on an Mcf basis while the meter registers Ccf
// (1 Mcf = 10 Ccf); gas cost and fees are stated per Ccf, matching how the
// bill itemizes them.
type TariffParameters struct {
	Name string `json:"name" yaml:"name"`

	// DistributionRatePerMcf is R, the first-tier volumetric distribution
	// rate. Residential usage never reaches the higher tiers.
	DistributionRatePerMcf float64 `json:"distributionRatePerMcf" yaml:"distribution_rate_per_mcf"`

	// HeatSensitivityFactor is HSF on an Mcf basis.
	HeatSensitivityFactor float64 `json:"heatSensitivityFactor" yaml:"heat_sensitivity_factor"`

	// BaseLoadMcf is BL, weather-independent usage, on an Mcf basis.
	BaseLoadMcf float64 `json:"baseLoadMcf" yaml:"base_load_mcf"`

	// CustomerCharge is the flat monthly charge.
	CustomerCharge float64 `json:"customerCharge" yaml:"customer_charge"`

	Riders []Rider `json:"riders" yaml:"riders"`

	// GasCostPerCcf is the GCA pass-through rate.
	GasCostPerCcf float64 `json:"gasCostPerCcf" yaml:"gas_cost_per_ccf"`

	Fees []Fee `json:"fees" yaml:"fees"`

	// WNAMonths are the billing-cycle end months the weather normalization
	// adjustment applies to (November through April for Kentucky G-1).
	WNAMonths []time.Month `json:"wnaMonths" yaml:"wna_months"`
}

// WNAApplies reports whether the adjustment is in effect for a cycle ending
// in the given month. An empty list means the adjustment always applies.
func (p TariffParameters) WNAApplies(m time.Month) bool {
	if len(p.WNAMonths) == 0 {
		return true
	}
	for _, wm := range p.WNAMonths {
		if wm == m {
			return true
		}
	}
	return false
}
