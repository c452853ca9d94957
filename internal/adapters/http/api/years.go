package api

import (
	"net/http"
)

// YearsDependencies lists the loaded years.
type YearsDependencies interface {
	Years() []int
	LatestYear() int
}

// YearsHandler handles year list requests.
type YearsHandler struct {
	deps YearsDependencies
}

// NewYearsHandler creates a new years handler.
func NewYearsHandler(deps YearsDependencies) *YearsHandler {
	return &YearsHandler{deps: deps}
}

type yearsResponse struct {
	Years  []int `json:"years"`
	Latest int   `json:"latest"`
}

// HandleGetYears handles GET /api/years requests.
func (h *YearsHandler) HandleGetYears(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	years := h.deps.Years()
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, yearsResponse{Years: years, Latest: h.deps.LatestYear()})
}
