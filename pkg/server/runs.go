package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/heliotrack/heliotrack/pkg/types"
)

// defaultRunsWindow is how far back ListRuns looks without a start.
const defaultRunsWindow = 7 * 24 * time.Hour

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	end := s.now()
	if raw := q.Get("end"); raw != "" {
		var err error
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: end must be RFC3339: %v", types.ErrInvalidInput, err))
			return
		}
	}
	start := end.Add(-defaultRunsWindow)
	if raw := q.Get("start"); raw != "" {
		var err error
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: start must be RFC3339: %v", types.ErrInvalidInput, err))
			return
		}
	}
	if !start.Before(end) {
		writeError(ctx, w, fmt.Errorf("%w: start must be before end", types.ErrInvalidInput))
		return
	}

	runs, err := s.storage.ListRuns(ctx, start, end)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("failed to list runs: %w", err))
		return
	}
	if runs == nil {
		runs = []types.Run{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	run, err := s.storage.GetRun(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, run)
}
