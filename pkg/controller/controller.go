package controller

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/heliotrack/heliotrack/pkg/log"
	"github.com/heliotrack/heliotrack/pkg/predictor"
	"github.com/heliotrack/heliotrack/pkg/solar"
	"github.com/heliotrack/heliotrack/pkg/types"
	"github.com/levenlabs/go-lflag"
)

const (
	DefaultActuatorCostWH = 2.5
	DefaultPanelAreaM2    = 2.0
	DefaultEfficiency     = 0.2
	DefaultInterval       = 10 * time.Minute
)

// Request describes a candidate move.
type Request struct {
	CurrentTilt    float64             `json:"currentTilt"`
	CurrentAzimuth float64             `json:"currentAzimuth"`
	TargetTilt     float64             `json:"targetTilt"`
	TargetAzimuth  float64             `json:"targetAzimuth"`
	Time           time.Time           `json:"time"`
	Weather        types.WeatherSample `json:"weather"`
	// Zenith is the sun's zenith angle at Time.
	Zenith float64 `json:"zenith"`
}

// Controller decides whether moving the tracker is worth the energy the
// actuators spend on it.
type Controller struct {
	predictor predictor.Predictor

	ActuatorCostWH float64
	PanelAreaM2    float64
	Efficiency     float64
	// Interval is how long the energy gain of a move is counted for.
	Interval time.Duration
}

// NewController returns a Controller with the default panel and actuator.
func NewController(p predictor.Predictor) *Controller {
	return &Controller{
		predictor:      p,
		ActuatorCostWH: DefaultActuatorCostWH,
		PanelAreaM2:    DefaultPanelAreaM2,
		Efficiency:     DefaultEfficiency,
		Interval:       DefaultInterval,
	}
}

// Configured returns a Controller configured from flags.
func Configured(p predictor.Predictor) *Controller {
	c := NewController(p)

	cost := lflag.String("actuator-cost-wh", strconv.FormatFloat(DefaultActuatorCostWH, 'f', -1, 64), "Energy spent by the actuators on a full move, in Wh")
	area := lflag.String("panel-area-m2", strconv.FormatFloat(DefaultPanelAreaM2, 'f', -1, 64), "Panel aperture area in m²")
	efficiency := lflag.String("panel-efficiency", strconv.FormatFloat(DefaultEfficiency, 'f', -1, 64), "Panel conversion efficiency (0-1)")

	lflag.Do(func() {
		var err error
		if c.ActuatorCostWH, err = parseNonNegative(*cost); err != nil {
			panic(fmt.Sprintf("invalid actuator-cost-wh: %v", err))
		}
		if c.PanelAreaM2, err = parseNonNegative(*area); err != nil {
			panic(fmt.Sprintf("invalid panel-area-m2: %v", err))
		}
		if c.Efficiency, err = parseNonNegative(*efficiency); err != nil || c.Efficiency > 1 {
			panic(fmt.Sprintf("invalid panel-efficiency: %s", *efficiency))
		}
	})

	return c
}

func parseNonNegative(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsNaN(v) {
		return 0, fmt.Errorf("%v must not be negative", v)
	}
	return v, nil
}

// EnergyGain returns the extra energy in Wh collected over the controller's
// interval by moving from the current to the target orientation instead of
// staying, given the predicted irradiance.
func (c *Controller) EnergyGain(irradiance float64, req Request) float64 {
	hours := c.Interval.Hours()
	powerMoving := irradiance * c.PanelAreaM2 * c.Efficiency
	powerStaying := powerMoving * solar.IncidenceCosine(req.CurrentTilt, req.CurrentAzimuth, req.TargetTilt, req.TargetAzimuth)
	return powerMoving*hours - powerStaying*hours
}

// Decide approves the move only if its energy gain strictly exceeds the
// actuator cost. A rejected move keeps the current angles.
func (c *Controller) Decide(ctx context.Context, req Request) (types.MoveDecision, error) {
	irr, err := c.predictor.Predict(ctx, predictor.Features{
		Hour:          float64(req.Time.Hour()) + float64(req.Time.Minute())/60,
		TemperatureC:  req.Weather.TemperatureC,
		CloudCoverPct: req.Weather.CloudCoverPct,
		Zenith:        req.Zenith,
	})
	if err != nil {
		return types.MoveDecision{}, fmt.Errorf("failed to predict irradiance: %w", err)
	}

	gain := c.EnergyGain(irr, req)
	log.Ctx(ctx).DebugContext(ctx, "evaluated move",
		slog.Float64("predictedIrradiance", irr),
		slog.Float64("gainWH", gain),
		slog.Float64("costWH", c.ActuatorCostWH),
		slog.Float64("currentTilt", req.CurrentTilt),
		slog.Float64("targetTilt", req.TargetTilt),
	)

	if gain <= c.ActuatorCostWH {
		return types.MoveDecision{
			MoveApproved:        false,
			Reason:              fmt.Sprintf("Energy gain (%.2f Wh) < motor cost (%v Wh)", gain, c.ActuatorCostWH),
			PredictedIrradiance: irr,
			EnergyGainWH:        gain,
			FinalTilt:           req.CurrentTilt,
			FinalAzimuth:        req.CurrentAzimuth,
		}, nil
	}
	return types.MoveDecision{
		MoveApproved:        true,
		Reason:              fmt.Sprintf("Energy gain (%.2f Wh) justifies move", gain),
		PredictedIrradiance: irr,
		EnergyGainWH:        gain,
		FinalTilt:           req.TargetTilt,
		FinalAzimuth:        req.TargetAzimuth,
	}, nil
}
