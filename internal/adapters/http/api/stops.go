package api

import (
	"net/http"

	"github.com/okian/tipping/internal/domain/stops"
)

// StopsDependencies resolves stop sets.
type StopsDependencies interface {
	StopSet(year int) stops.Set
	LatestYear() int
}

// StopsHandler handles stop list requests.
type StopsHandler struct {
	deps StopsDependencies
}

// NewStopsHandler creates a new stops handler.
func NewStopsHandler(deps StopsDependencies) *StopsHandler {
	return &StopsHandler{deps: deps}
}

// HandleGetStops handles GET /api/stops?year=Y. A missing year means the
// latest one; unknown years return an empty list.
func (h *StopsHandler) HandleGetStops(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	year, err := yearParam(r, h.deps.LatestYear())
	if err != nil {
		badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStopsResponse(h.deps.StopSet(year)))
}
