package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocationValidate(t *testing.T) {
	t.Run("Valid Location", func(t *testing.T) {
		assert.NoError(t, Location{Latitude: 35, Longitude: -118, UTCOffsetHours: -8}.Validate())
		assert.NoError(t, Location{Latitude: -90, Longitude: 180, UTCOffsetHours: 14}.Validate())
	})

	tests := []struct {
		name string
		loc  Location
	}{
		{"Latitude Too High", Location{Latitude: 90.5}},
		{"Latitude NaN", Location{Latitude: math.NaN()}},
		{"Longitude Too Low", Location{Longitude: -180.1}},
		{"UTC Offset Too Low", Location{UTCOffsetHours: -13}},
		{"UTC Offset Too High", Location{UTCOffsetHours: 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.loc.Validate(), ErrInvalidInput)
		})
	}
}

func TestLocationZone(t *testing.T) {
	t.Run("Whole Hours", func(t *testing.T) {
		_, offset := time.Date(2025, 1, 15, 0, 0, 0, 0, Location{UTCOffsetHours: -8}.Zone()).Zone()
		assert.Equal(t, -8*3600, offset)
	})

	t.Run("Half Hours", func(t *testing.T) {
		_, offset := time.Date(2025, 1, 15, 0, 0, 0, 0, Location{UTCOffsetHours: 5.5}.Zone()).Zone()
		assert.Equal(t, 5*3600+1800, offset)
	})
}

func TestAction(t *testing.T) {
	t.Run("Moves", func(t *testing.T) {
		assert.True(t, ActionTracking.IsMove())
		assert.True(t, ActionWinterOptimized.IsMove())
		assert.True(t, ActionStowed.IsMove())
		assert.False(t, ActionSkipped.IsMove())
		assert.False(t, ActionDeferred.IsMove())
	})

	t.Run("Validity", func(t *testing.T) {
		assert.True(t, ActionDeferred.IsValid())
		assert.False(t, Action("spinning").IsValid())
		assert.False(t, Action("").IsValid())
	})
}
