package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/heliotrack/heliotrack/pkg/solar"
	"github.com/heliotrack/heliotrack/pkg/types"
)

type positionResponse struct {
	types.SolarGeometry
	// ApparentDeclination is the ephemeris declination, for comparison with
	// the Cooper approximation in Declination.
	ApparentDeclination float64 `json:"apparentDeclination"`
}

func queryFloat(q url.Values, name string) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", types.ErrInvalidInput, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", types.ErrInvalidInput, name, err)
	}
	return v, nil
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var at time.Time
	if raw := q.Get("time"); raw == "" {
		at = s.now()
	} else {
		var err error
		if at, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: time must be RFC3339: %v", types.ErrInvalidInput, err))
			return
		}
	}

	var loc types.Location
	var err error
	if loc.Latitude, err = queryFloat(q, "latitude"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if loc.Longitude, err = queryFloat(q, "longitude"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if q.Get("utcOffsetHours") != "" {
		if loc.UTCOffsetHours, err = queryFloat(q, "utcOffsetHours"); err != nil {
			writeError(ctx, w, err)
			return
		}
	}
	if err := loc.Validate(); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, positionResponse{
		SolarGeometry:       solar.Position(at, loc),
		ApparentDeclination: solar.ApparentDeclination(at),
	})
}
