package api

import (
	"context"
	"net/http"

	"github.com/okian/tipping/internal/domain/flips"
	"github.com/okian/tipping/internal/domain/model"
)

// FlipsDependencies analyzes flip scenarios.
type FlipsDependencies interface {
	LatestYear() int
	Flips(ctx context.Context, year int) (flips.Summary, []*model.FlipScenario)
}

// FlipsHandler handles flip analysis requests.
type FlipsHandler struct {
	deps FlipsDependencies
}

// NewFlipsHandler creates a new flips handler.
func NewFlipsHandler(deps FlipsDependencies) *FlipsHandler {
	return &FlipsHandler{deps: deps}
}

type flipsResponse struct {
	Summary   flips.Summary         `json:"summary"`
	Scenarios []*model.FlipScenario `json:"scenarios"`
}

// HandleGetFlips handles GET /api/flips?year=Y.
func (h *FlipsHandler) HandleGetFlips(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	year, err := yearParam(r, h.deps.LatestYear())
	if err != nil {
		badRequest(w, err)
		return
	}
	sum, scenarios := h.deps.Flips(r.Context(), year)
	if scenarios == nil {
		scenarios = []*model.FlipScenario{}
	}
	writeJSON(w, http.StatusOK, flipsResponse{Summary: sum, Scenarios: scenarios})
}
