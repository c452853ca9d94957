// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/tipping/internal/domain/evaluate"
	"github.com/okian/tipping/internal/domain/flips"
	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/selection"
	"github.com/okian/tipping/internal/domain/stops"
	"github.com/okian/tipping/internal/domain/trends"
	"github.com/okian/tipping/internal/domain/viewstate"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	selection.Env

	LatestYear() int
	DefaultState() viewstate.State

	Evaluate(ctx context.Context, sel selection.Selection) evaluate.Result
	View(ctx context.Context, st viewstate.State, action *selection.Action) (viewstate.State, evaluate.Result)
	Flips(ctx context.Context, year int) (flips.Summary, []*model.FlipScenario)
	Series(ctx context.Context, st viewstate.State) trends.Result
}

// Server wires HTTP routes for the viewer API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	yearsHandler     *YearsHandler
	stopsHandler     *StopsHandler
	evaluateHandler  *EvaluateHandler
	viewHandler      *ViewHandler
	flipsHandler     *FlipsHandler
	seriesHandler    *SeriesHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		yearsHandler:     NewYearsHandler(deps),
		stopsHandler:     NewStopsHandler(deps),
		evaluateHandler:  NewEvaluateHandler(deps),
		viewHandler:      NewViewHandler(deps),
		flipsHandler:     NewFlipsHandler(deps),
		seriesHandler:    NewSeriesHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/years", MetricsMiddleware(s.yearsHandler.HandleGetYears, "years"))
	mux.HandleFunc("/api/stops", MetricsMiddleware(s.stopsHandler.HandleGetStops, "stops"))
	mux.HandleFunc("/api/evaluate", MetricsMiddleware(s.evaluateHandler.HandleGetEvaluate, "evaluate"))
	mux.HandleFunc("/api/view", MetricsMiddleware(s.viewHandler.HandleGetView, "view"))
	mux.HandleFunc("/api/flips", MetricsMiddleware(s.flipsHandler.HandleGetFlips, "flips"))
	mux.HandleFunc("/api/series", MetricsMiddleware(s.seriesHandler.HandleGetSeries, "series"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// badRequest reports a malformed parameter.
func badRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
}

// yearParam reads ?year=, falling back to def when absent.
func yearParam(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("year")
	if v == "" {
		return def, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, ErrInvalidYear
	}
	return y, nil
}

// stopView is a stop as the viewer renders it.
type stopView struct {
	stops.Stop
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Actual bool   `json:"actual"`
}

// stopsResponse is the stop list of one year.
type stopsResponse struct {
	Year        int        `json:"year"`
	National    float64    `json:"national"`
	EvenIndex   int        `json:"even_index"`
	ActualIndex int        `json:"actual_index"`
	Default     int        `json:"default_index"`
	Stops       []stopView `json:"stops"`
}

func newStopsResponse(set stops.Set) stopsResponse {
	out := stopsResponse{
		Year:        set.Year,
		National:    set.National,
		EvenIndex:   set.EvenIndex,
		ActualIndex: set.ActualIndex,
		Default:     set.DefaultIndex(),
		Stops:       make([]stopView, 0, set.Len()),
	}
	for i, st := range set.Stops {
		out.Stops = append(out.Stops, stopView{Stop: st, Index: i, Label: set.Label(i), Actual: set.IsActual(i)})
	}
	return out
}
