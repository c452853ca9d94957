package api

import (
	"context"
	"net/http"

	"github.com/okian/tipping/internal/domain/evaluate"
	"github.com/okian/tipping/internal/domain/selection"
	"github.com/okian/tipping/internal/domain/stops"
	"github.com/okian/tipping/internal/domain/viewstate"
)

// Query keys for the action carried by a view request.
const (
	keyDo    = "do"
	keyValue = "value"
)

// ViewDependencies runs the selection reducer over a URL state.
type ViewDependencies interface {
	DefaultState() viewstate.State
	StopSet(year int) stops.Set
	View(ctx context.Context, st viewstate.State, action *selection.Action) (viewstate.State, evaluate.Result)
}

// ViewHandler handles view transitions.
type ViewHandler struct {
	deps ViewDependencies
}

// NewViewHandler creates a new view handler.
func NewViewHandler(deps ViewDependencies) *ViewHandler {
	return &ViewHandler{deps: deps}
}

type viewResponse struct {
	Query  string          `json:"query"`
	Year   int             `json:"year"`
	PV     int             `json:"pv"`
	Flip   string          `json:"flip,omitempty"`
	Stops  stopsResponse   `json:"stops"`
	Result evaluate.Result `json:"result"`
}

// HandleGetView handles GET /api/view?<state>[&do=A&value=V]. The state is
// normalized, the optional action is reduced into it, and the response
// carries the canonical query string for the next request.
func (h *ViewHandler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	st, err := viewstate.Parse(q, h.deps.DefaultState())
	if err != nil {
		badRequest(w, err)
		return
	}

	var action *selection.Action
	if do := q.Get(keyDo); do != "" {
		a, err := selection.ParseAction(do, q.Get(keyValue))
		if err != nil {
			badRequest(w, err)
			return
		}
		action = &a
	}

	next, res := h.deps.View(r.Context(), st, action)
	writeJSON(w, http.StatusOK, viewResponse{
		Query:  next.Encode().Encode(),
		Year:   next.Year,
		PV:     next.PV,
		Flip:   string(next.Flip),
		Stops:  newStopsResponse(h.deps.StopSet(next.Year)),
		Result: res,
	})
}
