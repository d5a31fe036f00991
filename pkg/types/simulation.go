package types

import (
	"time"
)

// SimulationRecord is one tick of a simulated day. Power values are W/m² of
// aperture; panel area and efficiency are applied by the caller.
type SimulationRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	HourFraction   float64   `json:"hourFraction"`
	Zenith         float64   `json:"zenith"`
	OptimalTilt    float64   `json:"optimalTilt"`
	OptimalAzimuth float64   `json:"optimalAzimuth"`
	DualTilt       float64   `json:"dualTilt"`
	DualAzimuth    float64   `json:"dualAzimuth"`
	WinterMode     bool      `json:"winterMode"`
	TemperatureC   float64   `json:"temperatureC"`
	CloudCoverPct  float64   `json:"cloudCoverPct"`
	Irradiance     float64   `json:"irradiance"`
	PowerDual      float64   `json:"powerDual"`
	PowerSingle    float64   `json:"powerSingle"`
	PowerFixed     float64   `json:"powerFixed"`
	Action         Action    `json:"action"`

	// Decision is only set when the movement controller was consulted.
	Decision *MoveDecision `json:"decision,omitempty"`
}

// Summary is the integrated energy of a simulated day, per m² of aperture.
type Summary struct {
	DualKWHPerM2   float64        `json:"dualKWHPerM2"`
	SingleKWHPerM2 float64        `json:"singleKWHPerM2"`
	FixedKWHPerM2  float64        `json:"fixedKWHPerM2"`
	Ticks          int            `json:"ticks"`
	Moves          int            `json:"moves"`
	Actions        map[Action]int `json:"actions"`
	WinterTicks    int            `json:"winterTicks"`
}

// RunParams are the inputs of a persisted run.
type RunParams struct {
	Date                string    `json:"date"`
	Location            Location  `json:"location"`
	HourlyTemperaturesC []float64 `json:"hourlyTemperaturesC"`
	HourlyCloudCoverPct []float64 `json:"hourlyCloudCoverPct,omitempty"`
	SnowDetected        bool      `json:"snowDetected"`
	FixedTilt           float64   `json:"fixedTilt"`
	FixedAzimuth        float64   `json:"fixedAzimuth"`
	Predictive          bool      `json:"predictive"`
}

// Run is a stored simulation.
type Run struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	Params    RunParams          `json:"params"`
	Summary   Summary            `json:"summary"`
	Records   []SimulationRecord `json:"records,omitempty"`
}

// Dashboard is a Summary scaled to a real panel.
type Dashboard struct {
	PanelAreaM2     float64 `json:"panelAreaM2"`
	Efficiency      float64 `json:"efficiency"`
	DualKWH         float64 `json:"dualKWH"`
	SingleKWH       float64 `json:"singleKWH"`
	FixedKWH        float64 `json:"fixedKWH"`
	GainVsFixedPct  float64 `json:"gainVsFixedPct"`
	GainVsSinglePct float64 `json:"gainVsSinglePct"`
	CO2AvoidedKg    float64 `json:"co2AvoidedKg"`
	WinterTriggered bool    `json:"winterTriggered"`
}
