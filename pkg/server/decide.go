package server

import (
	"fmt"
	"net/http"

	"github.com/heliotrack/heliotrack/pkg/controller"
	"github.com/heliotrack/heliotrack/pkg/types"
)

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.controller == nil {
		writeError(ctx, w, fmt.Errorf("%w: no movement controller", types.ErrPredictorUnavailable))
		return
	}

	var req controller.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.Time.IsZero() {
		writeError(ctx, w, fmt.Errorf("%w: time is required", types.ErrInvalidInput))
		return
	}

	decision, err := s.controller.Decide(ctx, req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	s.metrics.recordDecision(decision.MoveApproved)
	writeJSON(w, decision)
}
