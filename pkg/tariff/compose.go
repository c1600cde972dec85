package tariff

import (
	"github.com/billcast/billcast/pkg/types"
)

// Compose assembles the bill's line items in the order they appear on the
// printed bill: customer charge, volumetric distribution, the signed WNA
// adjustment, each rider, the gas-cost pass-through, then per-Ccf fees.
// Amounts are left unrounded; cents rounding happens at presentation only.
func Compose(usageCcf int64, p types.TariffParameters, wnaFactorPerMcf float64) ([]types.LineItem, float64) {
	usageMcf := float64(usageCcf) / 10

	items := []types.LineItem{
		{Name: "Customer Charge", Amount: p.CustomerCharge},
		{Name: "Distribution", Amount: usageMcf * p.DistributionRatePerMcf},
		{Name: "Weather Normalization Adjustment", Amount: usageMcf * wnaFactorPerMcf},
	}
	for _, r := range p.Riders {
		items = append(items, types.LineItem{Name: r.Name, Amount: usageMcf * r.DollarsPerMcf})
	}
	items = append(items, types.LineItem{Name: "Gas Cost", Amount: float64(usageCcf) * p.GasCostPerCcf})
	for _, f := range p.Fees {
		items = append(items, types.LineItem{Name: f.Name, Amount: float64(usageCcf) * f.DollarsPerCcf})
	}

	var total float64
	for _, li := range items {
		total += li.Amount
	}
	return items, total
}
