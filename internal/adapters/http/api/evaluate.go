package api

import (
	"context"
	"net/http"

	"github.com/okian/tipping/internal/domain/evaluate"
	"github.com/okian/tipping/internal/domain/selection"
	"github.com/okian/tipping/internal/domain/viewstate"
)

// EvaluateDependencies evaluates one selection.
type EvaluateDependencies interface {
	selection.Env
	DefaultState() viewstate.State
	Evaluate(ctx context.Context, sel selection.Selection) evaluate.Result
}

// EvaluateHandler handles single evaluations.
type EvaluateHandler struct {
	deps EvaluateDependencies
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(deps EvaluateDependencies) *EvaluateHandler {
	return &EvaluateHandler{deps: deps}
}

// HandleGetEvaluate handles GET /api/evaluate?year=Y&pv=I&flip=M.
//
// Unlike /api/view the year is taken as given, so unknown years yield an
// empty result. A missing pv selects the year's default stop and a flip
// mode is applied the way the viewer applies it, pinning the stop to Actual.
func (h *EvaluateHandler) HandleGetEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	st, err := viewstate.Parse(r.URL.Query(), h.deps.DefaultState())
	if err != nil {
		badRequest(w, err)
		return
	}
	if st.Year == 0 {
		st.Year = h.deps.DefaultState().YearEnd
	}

	sel := selection.Selection{Year: st.Year, StopIndex: st.PV}
	if sel.StopIndex < 0 {
		sel.StopIndex = h.deps.StopSet(st.Year).DefaultIndex()
	}
	if st.Flip != "" {
		sel = selection.Reduce(sel, selection.ApplyScenario(st.Flip), h.deps)
	}
	writeJSON(w, http.StatusOK, h.deps.Evaluate(r.Context(), sel))
}
