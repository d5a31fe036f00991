package solar

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	meeussolar "github.com/soniakeys/meeus/v3/solar"
)

// ApparentDeclination returns the sun's apparent declination in degrees at t
// using Meeus' higher accuracy series. The difference between TT and UT is
// ignored, which is well below a hundredth of a degree.
func ApparentDeclination(t time.Time) float64 {
	_, dec := meeussolar.ApparentEquatorial(julian.TimeToJD(t.UTC()))
	return dec.Deg()
}
