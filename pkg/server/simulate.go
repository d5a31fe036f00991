package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heliotrack/heliotrack/pkg/controller"
	"github.com/heliotrack/heliotrack/pkg/log"
	"github.com/heliotrack/heliotrack/pkg/simulator"
	"github.com/heliotrack/heliotrack/pkg/types"
)

type simulateRequest struct {
	Date                string    `json:"date"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	UTCOffsetHours      float64   `json:"utcOffsetHours"`
	HourlyTemperaturesC []float64 `json:"hourlyTemperaturesC"`
	HourlyCloudCoverPct []float64 `json:"hourlyCloudCoverPct"`
	SnowDetected        bool      `json:"snowDetected"`
	FixedTilt           *float64  `json:"fixedTilt"`
	FixedAzimuth        *float64  `json:"fixedAzimuth"`
	Predictive          bool      `json:"predictive"`
	Save                bool      `json:"save"`
	PanelAreaM2         *float64  `json:"panelAreaM2"`
	PanelEfficiency     *float64  `json:"panelEfficiency"`
}

type simulateResponse struct {
	ID        string                   `json:"id,omitempty"`
	Summary   types.Summary            `json:"summary"`
	Dashboard types.Dashboard          `json:"dashboard"`
	Records   []types.SimulationRecord `json:"records"`
}

// params converts the request into simulator params and the stored form.
func (req simulateRequest) params() (simulator.Params, types.RunParams, error) {
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return simulator.Params{}, types.RunParams{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", types.ErrInvalidInput, req.Date)
	}
	loc := types.Location{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		UTCOffsetHours: req.UTCOffsetHours,
	}
	p := simulator.NewParams(date, loc, req.HourlyTemperaturesC, req.SnowDetected)
	p.HourlyCloudCoverPct = req.HourlyCloudCoverPct
	if req.FixedTilt != nil {
		p.FixedTilt = *req.FixedTilt
	}
	if req.FixedAzimuth != nil {
		p.FixedAzimuth = *req.FixedAzimuth
	}
	p.Predictive = req.Predictive

	return p, types.RunParams{
		Date:                req.Date,
		Location:            loc,
		HourlyTemperaturesC: p.HourlyTemperaturesC,
		HourlyCloudCoverPct: p.HourlyCloudCoverPct,
		SnowDetected:        p.SnowDetected,
		FixedTilt:           p.FixedTilt,
		FixedAzimuth:        p.FixedAzimuth,
		Predictive:          p.Predictive,
	}, nil
}

func (s *Server) panel(req simulateRequest) (float64, float64, error) {
	area, efficiency := controller.DefaultPanelAreaM2, controller.DefaultEfficiency
	if s.controller != nil {
		area, efficiency = s.controller.PanelAreaM2, s.controller.Efficiency
	}
	if req.PanelAreaM2 != nil {
		if *req.PanelAreaM2 < 0 {
			return 0, 0, fmt.Errorf("%w: panelAreaM2 must not be negative", types.ErrInvalidInput)
		}
		area = *req.PanelAreaM2
	}
	if req.PanelEfficiency != nil {
		if *req.PanelEfficiency < 0 || *req.PanelEfficiency > 1 {
			return 0, 0, fmt.Errorf("%w: panelEfficiency must be within [0, 1]", types.ErrInvalidInput)
		}
		efficiency = *req.PanelEfficiency
	}
	return area, efficiency, nil
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req simulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	p, runParams, err := req.params()
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	area, efficiency, err := s.panel(req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	start := time.Now()
	records, err := s.simulator.SimulateDay(ctx, p)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	s.metrics.recordSimulation(time.Since(start))
	for _, rec := range records {
		if rec.Decision != nil {
			s.metrics.recordDecision(rec.Decision.MoveApproved)
		}
	}

	summary := simulator.Summarize(records)
	resp := simulateResponse{
		Summary:   summary,
		Dashboard: simulator.NewDashboard(summary, area, efficiency),
		Records:   records,
	}

	if req.Save {
		run := types.Run{
			ID:        s.newID(),
			CreatedAt: s.now().UTC(),
			Params:    runParams,
			Summary:   summary,
			Records:   records,
		}
		if err := s.storage.SaveRun(ctx, run); err != nil {
			writeError(ctx, w, fmt.Errorf("failed to save run: %w", err))
			return
		}
		log.Ctx(ctx).InfoContext(ctx, "saved run", slog.String("runID", run.ID))
		resp.ID = run.ID
	}

	writeJSON(w, resp)
}
