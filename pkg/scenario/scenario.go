// Package scenario loads simulation scenarios from YAML files.
package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/heliotrack/heliotrack/pkg/simulator"
	"github.com/heliotrack/heliotrack/pkg/types"
	"gopkg.in/yaml.v3"
)

// Scenario is the on-disk shape of a simulated day.
type Scenario struct {
	Name       string         `yaml:"name"`
	Date       string         `yaml:"date"`
	Location   types.Location `yaml:"location"`
	Weather    WeatherConfig  `yaml:"weather"`
	FixedMount MountConfig    `yaml:"fixed_mount"`
	Predictive bool           `yaml:"predictive"`
	// UpdateInterval is a Go duration such as "10m".
	UpdateInterval string `yaml:"update_interval"`

	date     time.Time
	interval time.Duration
}

type WeatherConfig struct {
	HourlyTemperaturesC []float64 `yaml:"hourly_temperatures_c"`
	HourlyCloudCoverPct []float64 `yaml:"hourly_cloud_cover_pct"`
	SnowDetected        bool      `yaml:"snow_detected"`
}

// MountConfig uses pointers so that an explicit 0° tilt is not replaced by
// the default.
type MountConfig struct {
	Tilt    *float64 `yaml:"tilt"`
	Azimuth *float64 `yaml:"azimuth"`
}

// Load reads, defaults and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes, defaults and validates a YAML scenario.
func Parse(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	if s.FixedMount.Tilt == nil {
		tilt := simulator.DefaultFixedTilt
		s.FixedMount.Tilt = &tilt
	}
	if s.FixedMount.Azimuth == nil {
		azimuth := simulator.DefaultFixedAzimuth
		s.FixedMount.Azimuth = &azimuth
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario and parses its date and interval.
func (s *Scenario) Validate() error {
	date, err := time.Parse(time.DateOnly, s.Date)
	if err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", types.ErrInvalidInput, s.Date)
	}
	s.date = date

	s.interval = 0
	if s.UpdateInterval != "" {
		if s.interval, err = time.ParseDuration(s.UpdateInterval); err != nil {
			return fmt.Errorf("%w: update_interval: %v", types.ErrInvalidInput, err)
		}
	}
	return s.Params().Validate()
}

// Params converts the scenario into simulator parameters. Validate must have
// been called first.
func (s *Scenario) Params() simulator.Params {
	p := simulator.NewParams(s.date, s.Location, s.Weather.HourlyTemperaturesC, s.Weather.SnowDetected)
	p.HourlyCloudCoverPct = s.Weather.HourlyCloudCoverPct
	if s.FixedMount.Tilt != nil {
		p.FixedTilt = *s.FixedMount.Tilt
	}
	if s.FixedMount.Azimuth != nil {
		p.FixedAzimuth = *s.FixedMount.Azimuth
	}
	if s.interval > 0 {
		p.MinUpdateInterval = s.interval
	}
	p.Predictive = s.Predictive
	return p
}

// RunParams returns the scenario in the shape stored alongside runs.
func (s *Scenario) RunParams() types.RunParams {
	p := s.Params()
	return types.RunParams{
		Date:                s.Date,
		Location:            p.Location,
		HourlyTemperaturesC: p.HourlyTemperaturesC,
		HourlyCloudCoverPct: p.HourlyCloudCoverPct,
		SnowDetected:        p.SnowDetected,
		FixedTilt:           p.FixedTilt,
		FixedAzimuth:        p.FixedAzimuth,
		Predictive:          p.Predictive,
	}
}
