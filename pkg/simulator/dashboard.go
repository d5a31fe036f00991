package simulator

import "github.com/heliotrack/heliotrack/pkg/types"

// CO2KgPerKWH is the grid carbon intensity used for avoided emissions.
const CO2KgPerKWH = 0.4

// NewDashboard scales s to a panel of the given area and efficiency.
// Gains are 0 when the reference produced nothing.
func NewDashboard(s types.Summary, areaM2, efficiency float64) types.Dashboard {
	scale := areaM2 * efficiency
	d := types.Dashboard{
		PanelAreaM2:     areaM2,
		Efficiency:      efficiency,
		DualKWH:         s.DualKWHPerM2 * scale,
		SingleKWH:       s.SingleKWHPerM2 * scale,
		FixedKWH:        s.FixedKWHPerM2 * scale,
		WinterTriggered: s.WinterTicks > 0,
	}
	d.GainVsFixedPct = gainPct(d.DualKWH, d.FixedKWH)
	d.GainVsSinglePct = gainPct(d.DualKWH, d.SingleKWH)
	d.CO2AvoidedKg = d.DualKWH * CO2KgPerKWH
	return d
}

func gainPct(v, ref float64) float64 {
	if ref <= 0 {
		return 0
	}
	return (v - ref) / ref * 100
}
