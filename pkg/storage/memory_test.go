package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/heliotrack/heliotrack/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRun(id string, created time.Time) types.Run {
	return types.Run{
		ID:        id,
		CreatedAt: created,
		Params:    types.RunParams{Date: "2025-01-15", FixedTilt: 30, FixedAzimuth: 180},
		Summary:   types.Summary{DualKWHPerM2: 4.2, Ticks: 2},
		Records: []types.SimulationRecord{
			{HourFraction: 0, Action: types.ActionStowed},
			{HourFraction: 1.0 / 6, Action: types.ActionSkipped},
		},
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("Save And Get", func(t *testing.T) {
		m := NewMemory()
		run := testRun("a", now)
		require.NoError(t, m.SaveRun(ctx, run))

		got, err := m.GetRun(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, run, got)
	})

	t.Run("Returned Records Are Copies", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.SaveRun(ctx, testRun("a", now)))

		got, err := m.GetRun(ctx, "a")
		require.NoError(t, err)
		got.Records[0].Action = types.ActionTracking

		again, err := m.GetRun(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, types.ActionStowed, again.Records[0].Action)
	})

	t.Run("Missing Run", func(t *testing.T) {
		_, err := NewMemory().GetRun(ctx, "nope")
		assert.ErrorIs(t, err, ErrRunNotFound)
		assert.ErrorIs(t, err, types.ErrRunNotFound)
	})

	t.Run("Empty ID", func(t *testing.T) {
		assert.Error(t, NewMemory().SaveRun(ctx, types.Run{}))
	})

	t.Run("List Is Ranged And Ordered", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.SaveRun(ctx, testRun("late", now.Add(2*time.Hour))))
		require.NoError(t, m.SaveRun(ctx, testRun("early", now)))
		require.NoError(t, m.SaveRun(ctx, testRun("before", now.Add(-time.Hour))))
		require.NoError(t, m.SaveRun(ctx, testRun("end", now.Add(3*time.Hour))))

		runs, err := m.ListRuns(ctx, now, now.Add(3*time.Hour))
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "early", runs[0].ID)
		assert.Equal(t, "late", runs[1].ID)
		for _, r := range runs {
			assert.Nil(t, r.Records)
			assert.Equal(t, 4.2, r.Summary.DualKWHPerM2)
		}
	})

	t.Run("Concurrent Saves", func(t *testing.T) {
		m := NewMemory()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, m.SaveRun(ctx, testRun(fmt.Sprintf("run-%d", i), now.Add(time.Duration(i)*time.Minute))))
			}(i)
		}
		wg.Wait()

		runs, err := m.ListRuns(ctx, now, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, runs, 16)
	})
}
