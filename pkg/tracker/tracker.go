// Package tracker decides where a dual-axis tracker should point on each tick.
package tracker

import (
	"math"
	"time"

	"github.com/heliotrack/heliotrack/pkg/solar"
	"github.com/heliotrack/heliotrack/pkg/types"
)

const (
	// WinterTemperatureC is the temperature under which detected snow turns
	// on winter mode.
	WinterTemperatureC = 2.0
	// WinterTilt is the minimum tilt that still sheds snow.
	WinterTilt = 65.0
	// WinterUpdateInterval replaces the requested interval while winter mode
	// is active.
	WinterUpdateInterval = 60 * time.Minute
	// DefaultUpdateInterval is used when Input.MinUpdateInterval is zero.
	DefaultUpdateInterval = 10 * time.Minute

	StowTilt    = 0.0
	StowAzimuth = 180.0

	MinTilt = 0.0
	MaxTilt = 90.0
)

// Input is what the tracker observes on a tick.
type Input struct {
	Time              time.Time
	Weather           types.WeatherSample
	MinUpdateInterval time.Duration
}

// Output is the result of a tick. Zenith, SolarTime and Geometry are left
// zero when the tick was skipped.
type Output struct {
	Action     types.Action
	Tilt       float64
	Azimuth    float64
	WinterMode bool
	Zenith     float64
	SolarTime  float64
	Geometry   types.SolarGeometry
}

// Tracker holds the immutable configuration of one tracker. The state is
// owned by the caller and threaded through Advance.
type Tracker struct {
	location types.Location
}

// New returns a Tracker for loc.
func New(loc types.Location) *Tracker {
	return &Tracker{location: loc}
}

// Location returns the site the tracker is installed at.
func (t *Tracker) Location() types.Location {
	return t.location
}

// IsWinter returns true if the weather calls for snow-shedding.
func IsWinter(w types.WeatherSample) bool {
	return w.TemperatureC < WinterTemperatureC && w.SnowDetected
}

// EffectiveInterval returns the minimum time between committed moves.
func EffectiveInterval(requested time.Duration, winter bool) time.Duration {
	if winter {
		return WinterUpdateInterval
	}
	if requested <= 0 {
		return DefaultUpdateInterval
	}
	return requested
}

// Advance computes the tracker's next state for the tick described by in. It
// does not modify state and has no side effects.
func (t *Tracker) Advance(state types.TrackerState, in Input) (types.TrackerState, Output) {
	next := state
	next.WinterMode = IsWinter(in.Weather)

	interval := EffectiveInterval(in.MinUpdateInterval, next.WinterMode)
	if !state.LastUpdate.IsZero() && in.Time.Sub(state.LastUpdate) < interval {
		return next, Output{
			Action:     types.ActionSkipped,
			Tilt:       state.Tilt,
			Azimuth:    state.Azimuth,
			WinterMode: next.WinterMode,
		}
	}

	geo := solar.Position(in.Time, t.location)
	p := plan{
		current: state,
		winter:  next.WinterMode,
		geo:     geo,
		tilt:    geo.OptimalTilt,
		azimuth: geo.OptimalAzimuth,
		action:  types.ActionTracking,
	}
	for _, r := range policy {
		r.apply(&p)
	}

	next.Tilt = p.tilt
	next.Azimuth = p.azimuth
	next.LastUpdate = in.Time
	return next, Output{
		Action:     p.action,
		Tilt:       p.tilt,
		Azimuth:    p.azimuth,
		WinterMode: p.winter,
		Zenith:     geo.Zenith,
		SolarTime:  geo.SolarTime,
		Geometry:   geo,
	}
}

// Hold returns state with only the winter flag refreshed. It is used when a
// move computed by Advance is rejected after the fact.
func (t *Tracker) Hold(state types.TrackerState, in Input) types.TrackerState {
	state.WinterMode = IsWinter(in.Weather)
	return state
}

// plan is the working target while the policy rules run.
type plan struct {
	current types.TrackerState
	winter  bool
	geo     types.SolarGeometry

	tilt    float64
	azimuth float64
	action  types.Action
}

type rule struct {
	name  string
	apply func(p *plan)
}

// policy is evaluated in order; later rules override earlier ones. Night stow
// comes after winter so that stow wins at night, except that a snow covered
// tracker keeps its shedding tilt.
var policy = []rule{
	{name: "winter", apply: winterRule},
	{name: "night-stow", apply: nightStowRule},
	{name: "clamp", apply: clampRule},
}

// Policy returns the names of the policy rules in evaluation order.
func Policy() []string {
	names := make([]string, 0, len(policy))
	for _, r := range policy {
		names = append(names, r.name)
	}
	return names
}

func winterRule(p *plan) {
	if !p.winter {
		return
	}
	p.tilt = math.Max(p.tilt, WinterTilt)
	p.azimuth = p.current.Azimuth
	p.action = types.ActionWinterOptimized
}

func nightStowRule(p *plan) {
	if p.geo.Zenith <= 90 {
		return
	}
	p.tilt = StowTilt
	if p.winter {
		p.tilt = WinterTilt
	}
	p.azimuth = StowAzimuth
	p.action = types.ActionStowed
}

func clampRule(p *plan) {
	p.tilt = math.Max(MinTilt, math.Min(MaxTilt, p.tilt))
	p.azimuth = math.Mod(p.azimuth, 360)
	if p.azimuth < 0 {
		p.azimuth += 360
	}
}
