package api

import (
	"context"
	"net/http"

	"github.com/okian/tipping/internal/domain/trends"
	"github.com/okian/tipping/internal/domain/viewstate"
)

// SeriesDependencies builds trend series.
type SeriesDependencies interface {
	DefaultState() viewstate.State
	Series(ctx context.Context, st viewstate.State) trends.Result
}

// SeriesHandler handles trend chart requests.
type SeriesHandler struct {
	deps SeriesDependencies
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(deps SeriesDependencies) *SeriesHandler {
	return &SeriesHandler{deps: deps}
}

// HandleGetSeries handles GET /api/series?<state>.
func (h *SeriesHandler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	st, err := viewstate.Parse(r.URL.Query(), h.deps.DefaultState())
	if err != nil {
		badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Series(r.Context(), st))
}
