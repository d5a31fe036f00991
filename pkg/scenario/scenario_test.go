package scenario

import (
	"testing"
	"time"

	"github.com/heliotrack/heliotrack/pkg/simulator"
	"github.com/heliotrack/heliotrack/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Applies Defaults", func(t *testing.T) {
		s, err := Load("testdata/winter.yaml")
		require.NoError(t, err)
		assert.Equal(t, "snowy january day", s.Name)

		p := s.Params()
		assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), p.Date)
		assert.Equal(t, types.Location{Latitude: 35, Longitude: -118, UTCOffsetHours: -8}, p.Location)
		assert.Len(t, p.HourlyTemperaturesC, 24)
		assert.True(t, p.SnowDetected)
		assert.Equal(t, simulator.DefaultFixedTilt, p.FixedTilt)
		assert.Equal(t, simulator.DefaultFixedAzimuth, p.FixedAzimuth)
		assert.Equal(t, 10*time.Minute, p.MinUpdateInterval)
		assert.False(t, p.Predictive)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := Load("testdata/missing.yaml")
		assert.Error(t, err)
	})
}

func TestParse(t *testing.T) {
	t.Run("Explicit Flat Mount Is Kept", func(t *testing.T) {
		s, err := Parse([]byte(`
date: "2025-06-21"
location: {latitude: 48.1, longitude: 11.6, utc_offset_hours: 1}
weather:
  hourly_temperatures_c: [12, 14]
  hourly_cloud_cover_pct: [20]
fixed_mount: {tilt: 0, azimuth: 90}
predictive: true
update_interval: 15m
`))
		require.NoError(t, err)
		p := s.Params()
		assert.Equal(t, 0.0, p.FixedTilt)
		assert.Equal(t, 90.0, p.FixedAzimuth)
		assert.Equal(t, []float64{20}, p.HourlyCloudCoverPct)
		assert.Equal(t, 15*time.Minute, p.MinUpdateInterval)
		assert.True(t, p.Predictive)

		rp := s.RunParams()
		assert.Equal(t, "2025-06-21", rp.Date)
		assert.Equal(t, 0.0, rp.FixedTilt)
		assert.True(t, rp.Predictive)
	})

	tests := []struct {
		name string
		raw  string
	}{
		{"Bad Date", `date: "15/01/2025"
location: {latitude: 35}
weather: {hourly_temperatures_c: [1]}`},
		{"No Temperatures", `date: "2025-01-15"
location: {latitude: 35}`},
		{"Latitude Out Of Range", `date: "2025-01-15"
location: {latitude: 135}
weather: {hourly_temperatures_c: [1]}`},
		{"Bad Interval", `date: "2025-01-15"
weather: {hourly_temperatures_c: [1]}
update_interval: soon`},
		{"Not YAML", `date: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.ErrorIs(t, err, types.ErrInvalidInput)
		})
	}
}

func TestScenarioSimulates(t *testing.T) {
	s, err := Load("testdata/winter.yaml")
	require.NoError(t, err)

	records, err := simulator.SimulateDay(s.Params().Date, 35, -118, -8, s.Weather.HourlyTemperaturesC, true, 30, 180)
	require.NoError(t, err)
	assert.Len(t, records, simulator.Ticks)
}
