// Package solar computes the sun's position for a site using the standard
// low-precision approximations for declination and the equation of time.
package solar

import (
	"math"
	"time"

	"github.com/heliotrack/heliotrack/pkg/types"
)

const (
	// minSinZenith is the threshold under which the sun is considered to be
	// directly overhead and its azimuth is undefined.
	minSinZenith = 0.001

	maxDeclination = 23.45

	// ClearSkyIrradiance is the direct irradiance on a surface facing the
	// sun, in W/m².
	ClearSkyIrradiance = 1000.0
)

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// fixAngle wraps a into [0, 360).
func fixAngle(a float64) float64 {
	a = a - 360.0*math.Floor(a/360.0)
	if a >= 360 {
		return 0
	}
	return a
}

// clampUnit guards acos/asin arguments against floating point overshoot.
func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// DayOfYear returns the ordinal day of t's wall clock date, in [1, 366].
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// EquationOfTime returns the difference between apparent and mean solar time
// in minutes for day n.
func EquationOfTime(n int) float64 {
	b := degToRad(float64(n-1) * 360.0 / 365.0)
	return 229.18 * (0.000075 +
		0.001868*math.Cos(b) -
		0.032077*math.Sin(b) -
		0.014615*math.Cos(2*b) -
		0.040849*math.Sin(2*b))
}

// Declination returns the sun's declination in degrees for day n.
func Declination(n int) float64 {
	return maxDeclination * math.Sin(degToRad(360.0/365.0*float64(284+n)))
}

// StandardMeridian returns the longitude of the time zone's reference
// meridian.
func StandardMeridian(utcOffsetHours float64) float64 {
	return utcOffsetHours * 15.0
}

// TimeCorrection returns the minutes to add to local clock time to get local
// solar time.
func TimeCorrection(longitude, utcOffsetHours float64, n int) float64 {
	return 4.0*(longitude-StandardMeridian(utcOffsetHours)) + EquationOfTime(n)
}

// SolarTime returns the local solar time in hours, in [0, 24). t is read by
// its wall clock which must already be local to utcOffsetHours.
func SolarTime(t time.Time, longitude, utcOffsetHours float64) float64 {
	clock := float64(t.Hour()) +
		float64(t.Minute())/60.0 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600.0
	st := math.Mod(clock+TimeCorrection(longitude, utcOffsetHours, DayOfYear(t))/60.0, 24.0)
	if st < 0 {
		st += 24
	}
	if st >= 24 {
		st = 0
	}
	return st
}

// HourAngle returns the hour angle in degrees; negative in the morning.
func HourAngle(solarTime float64) float64 {
	return 15.0 * (solarTime - 12.0)
}

// ZenithAzimuth returns the zenith angle in [0, 180] and the azimuth in
// [0, 360), measured clockwise from north.
func ZenithAzimuth(latitude, declination, hourAngle float64) (float64, float64) {
	lat := degToRad(latitude)
	dec := degToRad(declination)
	ha := degToRad(hourAngle)

	cosZenith := math.Sin(lat)*math.Sin(dec) + math.Cos(lat)*math.Cos(dec)*math.Cos(ha)
	zenith := math.Acos(clampUnit(cosZenith))

	sinZenith := math.Sin(zenith)
	if sinZenith <= minSinZenith {
		return radToDeg(zenith), 0
	}

	cosAzimuth := (math.Sin(dec)*math.Cos(lat) - math.Cos(dec)*math.Sin(lat)*math.Cos(ha)) / sinZenith
	azimuth := radToDeg(math.Acos(clampUnit(cosAzimuth)))
	// acos only covers the eastern half of the sky
	if hourAngle > 0 {
		azimuth = 360.0 - azimuth
	}
	return radToDeg(zenith), fixAngle(azimuth)
}

// Position returns the sun's geometry at t for loc along with the optimal
// dual-axis orientation. t is converted into loc's zone first.
func Position(t time.Time, loc types.Location) types.SolarGeometry {
	local := t.In(loc.Zone())
	n := DayOfYear(local)
	dec := Declination(n)
	st := SolarTime(local, loc.Longitude, loc.UTCOffsetHours)
	ha := HourAngle(st)
	zenith, azimuth := ZenithAzimuth(loc.Latitude, dec, ha)
	return types.SolarGeometry{
		DayOfYear:      n,
		Declination:    dec,
		EquationOfTime: EquationOfTime(n),
		SolarTime:      st,
		HourAngle:      ha,
		Zenith:         zenith,
		Azimuth:        azimuth,
		OptimalTilt:    zenith,
		OptimalAzimuth: azimuth,
	}
}

// DirectIrradiance returns the clear-sky irradiance on a horizontal surface
// by the cosine law, or 0 when the sun is below the horizon.
func DirectIrradiance(zenith float64) float64 {
	if zenith >= 90 {
		return 0
	}
	return ClearSkyIrradiance * math.Cos(degToRad(zenith))
}

// IncidenceCosine returns the clamped cosine loss between a panel at
// (tilt, azimuth) and the optimal orientation.
func IncidenceCosine(tilt, azimuth, optimalTilt, optimalAzimuth float64) float64 {
	return math.Max(0, math.Cos(degToRad(optimalTilt-tilt))*math.Cos(degToRad(optimalAzimuth-azimuth)))
}
