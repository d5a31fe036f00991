package simulator

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/heliotrack/heliotrack/pkg/controller"
	"github.com/heliotrack/heliotrack/pkg/predictor"
	"github.com/heliotrack/heliotrack/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var california = types.Location{Latitude: 35, Longitude: -118, UTCOffsetHours: -8}

func constant(v float64) []float64 {
	temps := make([]float64, 24)
	for i := range temps {
		temps[i] = v
	}
	return temps
}

type failingPredictor struct{}

func (failingPredictor) Predict(context.Context, predictor.Features) (float64, error) {
	return 0, fmt.Errorf("%w: no model", types.ErrPredictorUnavailable)
}

func TestSimulateDayWinter(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	records, err := SimulateDay(date, 35, -118, -8, constant(-5), true, 30, 180)
	require.NoError(t, err)
	require.Len(t, records, 144)

	t.Run("Covers The Day In Ten Minute Steps", func(t *testing.T) {
		start := time.Date(2025, 1, 15, 0, 0, 0, 0, california.Zone())
		for i, r := range records {
			assert.True(t, start.Add(time.Duration(i)*10*time.Minute).Equal(r.Timestamp), "record %d", i)
		}
		assert.Equal(t, 0.0, records[0].HourFraction)
		assert.InDelta(t, 23+50.0/60, records[143].HourFraction, 1e-9)
	})

	t.Run("Winter Mode Holds All Day", func(t *testing.T) {
		for i, r := range records {
			assert.True(t, r.WinterMode, "record %d", i)
			assert.GreaterOrEqual(t, r.DualTilt, 65.0, "record %d", i)
			assert.Equal(t, -5.0, r.TemperatureC)
		}
	})

	t.Run("Azimuth Stays Frozen", func(t *testing.T) {
		for i := 2; i < len(records); i++ {
			assert.Equal(t, records[i-1].DualAzimuth, records[i].DualAzimuth, "record %d", i)
		}
		assert.Equal(t, 180.0, records[143].DualAzimuth)
	})

	t.Run("Updates Hourly", func(t *testing.T) {
		for i, r := range records {
			if i%6 == 0 {
				assert.True(t, r.Action.IsMove(), "record %d", i)
			} else {
				assert.Equal(t, types.ActionSkipped, r.Action, "record %d", i)
			}
		}
	})

	t.Run("Tracker Beats Fixed Mount", func(t *testing.T) {
		s := Summarize(records)
		assert.Greater(t, s.FixedKWHPerM2, 0.0)
		assert.GreaterOrEqual(t, s.DualKWHPerM2, s.FixedKWHPerM2)
		assert.Equal(t, 144, s.WinterTicks)
		assert.Equal(t, 24, s.Moves)
		assert.Equal(t, 120, s.Actions[types.ActionSkipped])
	})

	t.Run("No Power At Night", func(t *testing.T) {
		for _, r := range records {
			if r.Zenith >= 90 {
				assert.Equal(t, 0.0, r.Irradiance)
				assert.Equal(t, 0.0, r.PowerDual)
				assert.Equal(t, 0.0, r.PowerSingle)
				assert.Equal(t, 0.0, r.PowerFixed)
			}
		}
	})
}

func TestSimulateDaySummer(t *testing.T) {
	ctx := context.Background()
	p := NewParams(time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC), california, constant(25), false)
	records, err := New(nil).SimulateDay(ctx, p)
	require.NoError(t, err)
	require.Len(t, records, Ticks)

	t.Run("Tracks Every Tick", func(t *testing.T) {
		for i, r := range records {
			if r.Zenith > 90 {
				assert.Equal(t, types.ActionStowed, r.Action, "record %d", i)
				assert.Equal(t, 0.0, r.DualTilt)
				assert.Equal(t, 180.0, r.DualAzimuth)
				continue
			}
			assert.Equal(t, types.ActionTracking, r.Action, "record %d", i)
			assert.InDelta(t, r.Irradiance, r.PowerDual, 1e-9, "record %d", i)
			assert.LessOrEqual(t, r.PowerFixed, r.PowerDual+1e-9)
			assert.LessOrEqual(t, r.PowerSingle, r.PowerDual+1e-9)
		}
	})

	t.Run("Energy Ordering", func(t *testing.T) {
		s := Summarize(records)
		assert.Greater(t, s.DualKWHPerM2, s.FixedKWHPerM2)
		assert.Zero(t, s.WinterTicks)
		assert.Nil(t, records[72].Decision)
	})
}

func TestSimulateDayInput(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Empty Temperatures", func(t *testing.T) {
		_, err := SimulateDay(date, 35, -118, -8, nil, false, 30, 180)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("Latitude Out Of Range", func(t *testing.T) {
		_, err := SimulateDay(date, 95, -118, -8, constant(10), false, 30, 180)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("Fixed Tilt Out Of Range", func(t *testing.T) {
		_, err := SimulateDay(date, 35, -118, -8, constant(10), false, 120, 180)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("Cloud Cover Out Of Range", func(t *testing.T) {
		p := NewParams(date, california, constant(10), false)
		p.HourlyCloudCoverPct = []float64{10, 120}
		_, err := New(nil).SimulateDay(ctx, p)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("Missing Date", func(t *testing.T) {
		_, err := New(nil).SimulateDay(ctx, NewParams(time.Time{}, california, constant(10), false))
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	})

	t.Run("Short Profiles Reuse The Last Hour", func(t *testing.T) {
		p := NewParams(date, california, []float64{10, 11, 12}, false)
		p.HourlyCloudCoverPct = []float64{5}
		records, err := New(nil).SimulateDay(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, 10.0, records[0].TemperatureC)
		assert.Equal(t, 11.0, records[6].TemperatureC)
		assert.Equal(t, 12.0, records[12].TemperatureC)
		assert.Equal(t, 12.0, records[143].TemperatureC)
		assert.Equal(t, 5.0, records[143].CloudCoverPct)
	})

	t.Run("Predictive Needs A Controller", func(t *testing.T) {
		p := NewParams(date, california, constant(10), false)
		p.Predictive = true
		_, err := New(nil).SimulateDay(ctx, p)
		assert.Error(t, err)
	})
}

func TestSimulateDayPredictive(t *testing.T) {
	ctx := context.Background()
	p := NewParams(time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC), california, constant(25), false)

	baseline, err := New(nil).SimulateDay(ctx, p)
	require.NoError(t, err)

	p.Predictive = true
	records, err := New(controller.NewController(predictor.Synthetic{})).SimulateDay(ctx, p)
	require.NoError(t, err)
	require.Len(t, records, Ticks)

	t.Run("Small Moves Are Deferred", func(t *testing.T) {
		s := Summarize(records)
		assert.Greater(t, s.Actions[types.ActionDeferred], 0)
		assert.Greater(t, s.Actions[types.ActionTracking], 0)
	})

	t.Run("Only Tracking Moves Are Gated", func(t *testing.T) {
		for i, r := range records {
			switch r.Action {
			case types.ActionTracking:
				require.NotNil(t, r.Decision, "record %d", i)
				assert.True(t, r.Decision.MoveApproved)
			case types.ActionDeferred:
				require.NotNil(t, r.Decision, "record %d", i)
				assert.False(t, r.Decision.MoveApproved)
				assert.Equal(t, records[i-1].DualTilt, r.DualTilt)
				assert.Equal(t, records[i-1].DualAzimuth, r.DualAzimuth)
			default:
				assert.Nil(t, r.Decision, "record %d", i)
			}
		}
	})

	t.Run("Gating Never Beats Perfect Tracking", func(t *testing.T) {
		for i := range records {
			assert.LessOrEqual(t, records[i].PowerDual, baseline[i].PowerDual+1e-9, "record %d", i)
		}
		assert.LessOrEqual(t, Summarize(records).DualKWHPerM2, Summarize(baseline).DualKWHPerM2)
	})

	t.Run("Predictor Failure Aborts The Run", func(t *testing.T) {
		_, err := New(controller.NewController(failingPredictor{})).SimulateDay(ctx, p)
		assert.ErrorIs(t, err, types.ErrPredictorUnavailable)
	})
}

func TestSimulateDayConcurrent(t *testing.T) {
	p := NewParams(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), california, constant(18), false)
	s := New(nil)

	var wg sync.WaitGroup
	results := make([][]types.SimulationRecord, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records, err := s.SimulateDay(context.Background(), p)
			assert.NoError(t, err)
			results[i] = records
		}(i)
	}
	wg.Wait()
	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
}

func TestSummarize(t *testing.T) {
	records := make([]types.SimulationRecord, 6)
	for i := range records {
		records[i] = types.SimulationRecord{
			PowerDual:   1000,
			PowerSingle: 500,
			Action:      types.ActionTracking,
		}
	}
	records[5].Action = types.ActionSkipped

	s := Summarize(records)
	assert.InDelta(t, 1.0, s.DualKWHPerM2, 1e-9)
	assert.InDelta(t, 0.5, s.SingleKWHPerM2, 1e-9)
	assert.Equal(t, 0.0, s.FixedKWHPerM2)
	assert.Equal(t, 6, s.Ticks)
	assert.Equal(t, 5, s.Moves)
	assert.Equal(t, 1, s.Actions[types.ActionSkipped])
}

func TestWriteCSV(t *testing.T) {
	records, err := SimulateDay(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 35, -118, -8, constant(-5), true, 30, 180)
	require.NoError(t, err)
	records[0].Decision = &types.MoveDecision{MoveApproved: true, Reason: "Energy gain (3.00 Wh) justifies move"}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 145)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "0", rows[1][0])
	assert.Equal(t, "2025-01-15T00:00:00-08:00", rows[1][1])
	assert.Equal(t, "true", rows[1][8])
	assert.Equal(t, "stowed", rows[1][15])
	assert.Equal(t, "true", rows[1][16])
	assert.Equal(t, "Energy gain (3.00 Wh) justifies move", rows[1][17])
	assert.Equal(t, "skipped", rows[2][15])
	assert.Equal(t, "", rows[2][16])
}
