// Package simulator runs a tracker through one day and compares its output
// against single-axis and fixed-mount panels.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/heliotrack/heliotrack/pkg/controller"
	"github.com/heliotrack/heliotrack/pkg/log"
	"github.com/heliotrack/heliotrack/pkg/solar"
	"github.com/heliotrack/heliotrack/pkg/tracker"
	"github.com/heliotrack/heliotrack/pkg/types"
)

const (
	// Step is the time between two ticks.
	Step = 10 * time.Minute
	// Ticks is the number of ticks in a simulated day.
	Ticks = int(24 * time.Hour / Step)

	DefaultFixedTilt    = 30.0
	DefaultFixedAzimuth = 180.0
)

// Params describes one simulated day.
type Params struct {
	// Date is the calendar day to simulate. Only its year, month and day are
	// used; the day starts at local midnight at Location.
	Date                time.Time
	Location            types.Location
	HourlyTemperaturesC []float64
	// HourlyCloudCoverPct is optional and defaults to a clear sky.
	HourlyCloudCoverPct []float64
	SnowDetected        bool
	FixedTilt           float64
	FixedAzimuth        float64
	MinUpdateInterval   time.Duration
	// Predictive routes tracking moves through the movement controller.
	Predictive bool
}

// NewParams returns Params with the default fixed mount and update interval.
func NewParams(date time.Time, loc types.Location, temperaturesC []float64, snow bool) Params {
	return Params{
		Date:                date,
		Location:            loc,
		HourlyTemperaturesC: temperaturesC,
		SnowDetected:        snow,
		FixedTilt:           DefaultFixedTilt,
		FixedAzimuth:        DefaultFixedAzimuth,
		MinUpdateInterval:   tracker.DefaultUpdateInterval,
	}
}

// Validate returns an error wrapping types.ErrInvalidInput if the params
// cannot be simulated.
func (p Params) Validate() error {
	if p.Date.IsZero() {
		return fmt.Errorf("%w: date is required", types.ErrInvalidInput)
	}
	if err := p.Location.Validate(); err != nil {
		return err
	}
	if len(p.HourlyTemperaturesC) == 0 {
		return fmt.Errorf("%w: hourly temperatures must not be empty", types.ErrInvalidInput)
	}
	for i, t := range p.HourlyTemperaturesC {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: temperature at hour %d is not a number", types.ErrInvalidInput, i)
		}
	}
	for i, c := range p.HourlyCloudCoverPct {
		if math.IsNaN(c) || c < 0 || c > 100 {
			return fmt.Errorf("%w: cloud cover at hour %d must be within [0, 100]", types.ErrInvalidInput, i)
		}
	}
	if math.IsNaN(p.FixedTilt) || p.FixedTilt < tracker.MinTilt || p.FixedTilt > tracker.MaxTilt {
		return fmt.Errorf("%w: fixed tilt %v must be within [0, 90]", types.ErrInvalidInput, p.FixedTilt)
	}
	if math.IsNaN(p.FixedAzimuth) || p.FixedAzimuth < 0 || p.FixedAzimuth >= 360 {
		return fmt.Errorf("%w: fixed azimuth %v must be within [0, 360)", types.ErrInvalidInput, p.FixedAzimuth)
	}
	if p.MinUpdateInterval < 0 {
		return fmt.Errorf("%w: update interval must not be negative", types.ErrInvalidInput)
	}
	return nil
}

// Simulator runs simulated days. The controller is only needed for
// predictive runs.
type Simulator struct {
	controller *controller.Controller
}

// New returns a Simulator. c may be nil if predictive runs are not needed.
func New(c *controller.Controller) *Simulator {
	return &Simulator{controller: c}
}

// SimulateDay simulates the day without predictive gating. It is equivalent
// to New(nil).SimulateDay with NewParams and the given fixed mount.
func SimulateDay(
	date time.Time,
	latitude, longitude, utcOffsetHours float64,
	hourlyTemperaturesC []float64,
	snowDetected bool,
	fixedTilt, fixedAzimuth float64,
) ([]types.SimulationRecord, error) {
	p := NewParams(date, types.Location{
		Latitude:       latitude,
		Longitude:      longitude,
		UTCOffsetHours: utcOffsetHours,
	}, hourlyTemperaturesC, snowDetected)
	p.FixedTilt = fixedTilt
	p.FixedAzimuth = fixedAzimuth
	return New(nil).SimulateDay(context.Background(), p)
}

// hourly returns the value for hour, reusing the last value if the profile
// is too short.
func hourly(profile []float64, hour int) float64 {
	if len(profile) == 0 {
		return 0
	}
	if hour >= len(profile) {
		return profile[len(profile)-1]
	}
	return profile[hour]
}

// SimulateDay runs one tracker through Ticks ticks starting at local
// midnight of p.Date and returns one record per tick.
func (s *Simulator) SimulateDay(ctx context.Context, p Params) ([]types.SimulationRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Predictive && s.controller == nil {
		return nil, fmt.Errorf("predictive simulation requires a movement controller")
	}

	tr := tracker.New(p.Location)
	start := time.Date(p.Date.Year(), p.Date.Month(), p.Date.Day(), 0, 0, 0, 0, p.Location.Zone())

	var state types.TrackerState
	records := make([]types.SimulationRecord, 0, Ticks)
	for i := 0; i < Ticks; i++ {
		ts := start.Add(time.Duration(i) * Step)
		hourFraction := float64(ts.Hour()) + float64(ts.Minute())/60
		weather := types.WeatherSample{
			TemperatureC:  hourly(p.HourlyTemperaturesC, ts.Hour()),
			SnowDetected:  p.SnowDetected,
			CloudCoverPct: hourly(p.HourlyCloudCoverPct, ts.Hour()),
		}

		geo := solar.Position(ts, p.Location)
		irradiance := solar.DirectIrradiance(geo.Zenith)

		in := tracker.Input{Time: ts, Weather: weather, MinUpdateInterval: p.MinUpdateInterval}
		next, out := tr.Advance(state, in)
		action := out.Action

		var decision *types.MoveDecision
		if p.Predictive && out.Action == types.ActionTracking {
			d, err := s.controller.Decide(ctx, controller.Request{
				CurrentTilt:    state.Tilt,
				CurrentAzimuth: state.Azimuth,
				TargetTilt:     out.Tilt,
				TargetAzimuth:  out.Azimuth,
				Time:           ts,
				Weather:        weather,
				Zenith:         geo.Zenith,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to decide move at %s: %w", ts.Format(time.RFC3339), err)
			}
			decision = &d
			if !d.MoveApproved {
				next = tr.Hold(state, in)
				action = types.ActionDeferred
			}
		}
		state = next

		records = append(records, types.SimulationRecord{
			Timestamp:      ts,
			HourFraction:   hourFraction,
			Zenith:         geo.Zenith,
			OptimalTilt:    geo.OptimalTilt,
			OptimalAzimuth: geo.OptimalAzimuth,
			DualTilt:       state.Tilt,
			DualAzimuth:    state.Azimuth,
			WinterMode:     state.WinterMode,
			TemperatureC:   weather.TemperatureC,
			CloudCoverPct:  weather.CloudCoverPct,
			Irradiance:     irradiance,
			PowerDual:      irradiance * solar.IncidenceCosine(state.Tilt, state.Azimuth, geo.OptimalTilt, geo.OptimalAzimuth),
			// single-axis panels spin about the vertical axis so only the
			// tilt error counts; the tilt itself stays at the fixed mount's
			PowerSingle: irradiance * solar.IncidenceCosine(p.FixedTilt, 0, geo.OptimalTilt, 0),
			PowerFixed:  irradiance * solar.IncidenceCosine(p.FixedTilt, p.FixedAzimuth, geo.OptimalTilt, geo.OptimalAzimuth),
			Action:      action,
			Decision:    decision,
		})
	}

	summary := Summarize(records)
	log.Ctx(ctx).DebugContext(ctx, "simulated day",
		slog.String("date", start.Format(time.DateOnly)),
		slog.Float64("dualKWHPerM2", summary.DualKWHPerM2),
		slog.Float64("singleKWHPerM2", summary.SingleKWHPerM2),
		slog.Float64("fixedKWHPerM2", summary.FixedKWHPerM2),
		slog.Int("moves", summary.Moves),
	)
	return records, nil
}

// Summarize integrates the power of each strategy over the records with a
// Riemann sum at Step resolution.
func Summarize(records []types.SimulationRecord) types.Summary {
	hours := Step.Hours()
	s := types.Summary{
		Ticks:   len(records),
		Actions: make(map[types.Action]int),
	}
	var dual, single, fixed float64
	for _, r := range records {
		dual += r.PowerDual
		single += r.PowerSingle
		fixed += r.PowerFixed
		s.Actions[r.Action]++
		if r.Action.IsMove() {
			s.Moves++
		}
		if r.WinterMode {
			s.WinterTicks++
		}
	}
	s.DualKWHPerM2 = dual * hours / 1000
	s.SingleKWHPerM2 = single * hours / 1000
	s.FixedKWHPerM2 = fixed * hours / 1000
	return s
}
