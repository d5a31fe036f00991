package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/heliotrack/heliotrack/pkg/controller"
	"github.com/heliotrack/heliotrack/pkg/log"
	"github.com/heliotrack/heliotrack/pkg/predictor"
	"github.com/heliotrack/heliotrack/pkg/scenario"
	"github.com/heliotrack/heliotrack/pkg/simulator"
	"github.com/heliotrack/heliotrack/pkg/storage"
	"github.com/heliotrack/heliotrack/pkg/types"

	"github.com/levenlabs/go-lflag"
)

type output struct {
	ID        string          `json:"id,omitempty"`
	Scenario  string          `json:"scenario,omitempty"`
	Summary   types.Summary   `json:"summary"`
	Dashboard types.Dashboard `json:"dashboard"`
}

func main() {
	// stdout may carry the CSV
	log.SetOutput(os.Stderr)

	scenarioPath := lflag.RequiredString("scenario", "Path to a YAML scenario file")
	csvPath := lflag.String("csv", "", "Write per-tick records as CSV to this path (- for stdout)")
	predictive := lflag.Bool("predictive", false, "Gate tracking moves through the movement controller")
	save := lflag.Bool("save", false, "Store the run in the configured storage")

	p := predictor.Configured()
	c := controller.Configured(p)
	s := storage.Configured()

	lflag.Configure()

	if err := log.ConfigureFromFlags(); err != nil {
		panic(err)
	}

	ctx := context.Background()
	defer s.Close()

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load scenario", slog.Any("error", err))
		os.Exit(1)
	}
	params := sc.Params()
	if *predictive {
		params.Predictive = true
	}

	records, err := simulator.New(c).SimulateDay(ctx, params)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "simulation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if *csvPath != "" {
		if err := simulator.WriteCSVFile(*csvPath, records); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to write csv", slog.Any("error", err))
			os.Exit(1)
		}
	}

	summary := simulator.Summarize(records)
	out := output{
		Scenario:  sc.Name,
		Summary:   summary,
		Dashboard: simulator.NewDashboard(summary, c.PanelAreaM2, c.Efficiency),
	}

	if *save {
		runParams := sc.RunParams()
		runParams.Predictive = params.Predictive
		run := types.Run{
			ID:        uuid.NewString(),
			CreatedAt: time.Now().UTC(),
			Params:    runParams,
			Summary:   summary,
			Records:   records,
		}
		if err := s.SaveRun(ctx, run); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to save run", slog.Any("error", err))
			os.Exit(1)
		}
		log.Ctx(ctx).InfoContext(ctx, "saved run", slog.String("runID", run.ID))
		out.ID = run.ID
	}

	var w io.Writer = os.Stdout
	if *csvPath == "-" {
		w = os.Stderr
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write summary", slog.Any("error", err))
		os.Exit(1)
	}
}
