package types

import (
	"fmt"
	"math"
	"time"
)

// Location is the site a simulation run is anchored to.
type Location struct {
	Latitude       float64 `json:"latitude" yaml:"latitude"`
	Longitude      float64 `json:"longitude" yaml:"longitude"`
	UTCOffsetHours float64 `json:"utcOffsetHours" yaml:"utc_offset_hours"`
}

// Validate returns an error wrapping ErrInvalidInput if any coordinate is out
// of range.
func (l Location) Validate() error {
	switch {
	case math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90:
		return fmt.Errorf("%w: latitude %v must be within [-90, 90]", ErrInvalidInput, l.Latitude)
	case math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180:
		return fmt.Errorf("%w: longitude %v must be within [-180, 180]", ErrInvalidInput, l.Longitude)
	case math.IsNaN(l.UTCOffsetHours) || l.UTCOffsetHours < -12 || l.UTCOffsetHours > 14:
		return fmt.Errorf("%w: utc offset %v must be within [-12, 14]", ErrInvalidInput, l.UTCOffsetHours)
	}
	return nil
}

// Zone returns a fixed time zone for the location's UTC offset.
func (l Location) Zone() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+g", l.UTCOffsetHours), int(math.Round(l.UTCOffsetHours*3600)))
}

// SolarGeometry is the sun's position for one instant. All angles are in
// degrees and SolarTime/EquationOfTime are in hours/minutes respectively.
type SolarGeometry struct {
	DayOfYear      int     `json:"dayOfYear"`
	Declination    float64 `json:"declination"`
	EquationOfTime float64 `json:"equationOfTime"`
	SolarTime      float64 `json:"solarTime"`
	HourAngle      float64 `json:"hourAngle"`
	Zenith         float64 `json:"zenith"`
	Azimuth        float64 `json:"azimuth"`

	// OptimalTilt and OptimalAzimuth point a dual-axis panel's normal
	// directly at the sun.
	OptimalTilt    float64 `json:"optimalTilt"`
	OptimalAzimuth float64 `json:"optimalAzimuth"`
}

// SunUp returns true if the sun is above the horizon.
func (g SolarGeometry) SunUp() bool {
	return g.Zenith < 90
}

// Action is the outcome of a single tracker tick.
type Action string

const (
	ActionTracking        Action = "tracking"
	ActionWinterOptimized Action = "winter_optimized"
	ActionStowed          Action = "stowed"
	ActionSkipped         Action = "skipped"
	// ActionDeferred is only produced by the simulator when the movement
	// controller rejected a tracking move.
	ActionDeferred Action = "deferred"
)

// IsValid returns true if the action is one of the known actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionTracking, ActionWinterOptimized, ActionStowed, ActionSkipped, ActionDeferred:
		return true
	}
	return false
}

// IsMove returns true if the action committed new angles.
func (a Action) IsMove() bool {
	switch a {
	case ActionTracking, ActionWinterOptimized, ActionStowed:
		return true
	}
	return false
}

// TrackerState is the mutable state of one tracker for one run.
type TrackerState struct {
	Tilt    float64 `json:"tilt"`
	Azimuth float64 `json:"azimuth"`
	// LastUpdate is zero if the tracker has never committed a move.
	LastUpdate time.Time `json:"lastUpdate,omitzero"`
	WinterMode bool      `json:"winterMode"`
}

// WeatherSample is the weather observed at a tick.
type WeatherSample struct {
	TemperatureC  float64 `json:"temperatureC"`
	SnowDetected  bool    `json:"snowDetected"`
	CloudCoverPct float64 `json:"cloudCoverPct,omitempty"`
	HumidityPct   float64 `json:"humidityPct,omitempty"`
}

// MoveDecision is the result of weighing a candidate move against the
// actuator's energy cost.
type MoveDecision struct {
	MoveApproved        bool    `json:"moveApproved"`
	Reason              string  `json:"reason"`
	PredictedIrradiance float64 `json:"predictedIrradiance"`
	EnergyGainWH        float64 `json:"energyGainWH"`
	FinalTilt           float64 `json:"finalTilt"`
	FinalAzimuth        float64 `json:"finalAzimuth"`
}
