// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the offline tool.
package service

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	repository "github.com/okian/tipping/internal/adapters/repository"
	"github.com/okian/tipping/internal/domain/evaluate"
	"github.com/okian/tipping/internal/domain/flips"
	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/selection"
	"github.com/okian/tipping/internal/domain/stops"
	"github.com/okian/tipping/internal/domain/trends"
	"github.com/okian/tipping/internal/domain/viewstate"
	"github.com/okian/tipping/pkg/logger"
	"github.com/okian/tipping/pkg/metrics"
)

// derived is everything computed from one snapshot. It is replaced whole on
// every reload, like the snapshot itself.
type derived struct {
	snap  *repository.Snapshot
	stops map[int]stops.Set
	count int
}

// pinned is one derived state bound to the deriver. A request that resolves
// a selection and evaluates it uses one pinned value so a concurrent reload
// cannot mix records of one snapshot with stop sets of another.
type pinned struct {
	*derived
	deriver *stops.Deriver
}

// Years implements selection.Env.
func (p pinned) Years() []int { return p.snap.Years() }

// StopSet implements selection.Env. Unknown years hold only the Even stop.
func (p pinned) StopSet(year int) stops.Set {
	if set, ok := p.stops[year]; ok {
		return set
	}
	return p.deriver.Derive(year, nil)
}

// Scenario implements selection.Env.
func (p pinned) Scenario(year int, mode model.Mode) (*model.FlipScenario, bool) {
	return p.snap.Scenario(year, mode)
}

// Service implements the API dependencies for the tipping-point viewer.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     *repository.MemoryStore
	watcher   *repository.Watcher
	deriver   *stops.Deriver
	evaluator *evaluate.Evaluator
	state     atomic.Pointer[derived]

	// Configuration
	dataDir     string
	files       repository.Files
	deriveFlips bool
	watch       bool
	debounce    time.Duration
	params      stops.Params
	yearStart   int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDataDir sets the directory holding the dataset files.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		s.dataDir = dir
	}
}

// WithFiles overrides individual dataset paths.
func WithFiles(f repository.Files) Option {
	return func(s *Service) {
		s.files = f
	}
}

// WithDerivedFlips enables computing flip scenarios when no flip file exists.
func WithDerivedFlips(enabled bool) Option {
	return func(s *Service) {
		s.deriveFlips = enabled
	}
}

// WithWatch reloads the dataset whenever its files change.
func WithWatch(enabled bool, debounce time.Duration) Option {
	return func(s *Service) {
		s.watch = enabled
		if debounce > 0 {
			s.debounce = debounce
		}
	}
}

// WithStopParams sets the stop model parameters.
func WithStopParams(p stops.Params) Option {
	return func(s *Service) {
		s.params = p
	}
}

// WithYearStart sets the first year of the default trend range.
func WithYearStart(year int) Option {
	return func(s *Service) {
		if year > 0 {
			s.yearStart = year
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:   "data",
		params:    stops.DefaultParams(),
		yearStart: viewstate.DefaultYearStart,
		debounce:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.deriver = stops.NewDeriver(stops.WithParams(s.params))
	s.params = s.deriver.Params()
	s.evaluator = evaluate.New(s.params)
	s.store = repository.NewMemoryStore(
		repository.WithFiles(s.files),
		repository.WithDataDir(s.dataDir),
		repository.WithDerivedFlips(s.deriveFlips),
		repository.WithDebounce(s.debounce),
		repository.WithOnLoad(s.rebuild),
	)
	s.state.Store(&derived{snap: s.store.Snapshot(), stops: map[int]stops.Set{}})
	return s
}

// Start loads the dataset and, when enabled, starts the file watcher. A
// failed load is logged and reported by GetStats; the service keeps serving
// an empty dataset until a later load succeeds.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting tipping service...",
		logger.String("margins", s.store.Files().Margins),
	)
	if err := s.store.Load(ctx); err != nil {
		s.logger.Warn(ctx, "initial dataset load failed, serving empty dataset", logger.Error(err))
	}

	if s.watch {
		w, err := repository.NewWatcher(s.store)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		s.watcher = w
	}

	s.started = true
	s.logger.Info(ctx, "tipping service started",
		logger.Int("years", len(s.Years())),
		logger.Bool("watch", s.watch),
	)
	return nil
}

// Stop stops the watcher. The loaded dataset stays readable.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
	s.started = false
	s.logger.Info(context.Background(), "tipping service stopped")
}

// Reload reads the dataset again.
func (s *Service) Reload(ctx context.Context) error {
	return s.store.Load(ctx)
}

// rebuild derives the stop sets of every year in a freshly loaded snapshot.
func (s *Service) rebuild(snap *repository.Snapshot) {
	start := time.Now()
	d := &derived{snap: snap, stops: make(map[int]stops.Set)}
	for _, y := range snap.Years() {
		set := s.deriver.Derive(y, snap.Records(y))
		d.stops[y] = set
		d.count += set.Len()
	}
	s.state.Store(d)
	metrics.RecordStopDerivation(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateStopsTotal(d.count)
}

// Params returns the stop model parameters in effect.
func (s *Service) Params() stops.Params { return s.params }

// Snapshot returns the active dataset snapshot.
func (s *Service) Snapshot() *repository.Snapshot { return s.state.Load().snap }

// Years implements selection.Env and trends.Source.
func (s *Service) Years() []int { return s.state.Load().snap.Years() }

// Records implements trends.Source.
func (s *Service) Records(year int) []model.Record { return s.state.Load().snap.Records(year) }

// pin returns the current derived state.
func (s *Service) pin() pinned {
	return pinned{derived: s.state.Load(), deriver: s.deriver}
}

// StopSet implements selection.Env.
func (s *Service) StopSet(year int) stops.Set { return s.pin().StopSet(year) }

// Scenario implements selection.Env.
func (s *Service) Scenario(year int, mode model.Mode) (*model.FlipScenario, bool) {
	return s.pin().Scenario(year, mode)
}

// Scenarios returns the year's scenarios in mode order.
func (s *Service) Scenarios(year int) []*model.FlipScenario {
	return s.state.Load().snap.Scenarios(year)
}

// LatestYear returns the most recent loaded year, or 0.
func (s *Service) LatestYear() int {
	years := s.Years()
	if len(years) == 0 {
		return 0
	}
	return years[len(years)-1]
}

// Stops returns the stop set of a year.
func (s *Service) Stops(_ context.Context, year int) stops.Set {
	return s.StopSet(year)
}

// Evaluate classifies every unit of the selection's year at its stop, with
// the selection's scenario applied when it exists.
func (s *Service) Evaluate(_ context.Context, sel selection.Selection) evaluate.Result {
	return s.evaluate(s.pin(), sel)
}

func (s *Service) evaluate(p pinned, sel selection.Selection) evaluate.Result {
	start := time.Now()
	sc := selection.Active(sel, p)
	res := s.evaluator.Evaluate(evaluate.Input{
		Year:      sel.Year,
		Records:   p.snap.Records(sel.Year),
		Stops:     p.StopSet(sel.Year),
		StopIndex: sel.StopIndex,
		Electoral: p.snap.Electoral(sel.Year),
		Scenario:  sc,
	})
	metrics.RecordEvaluation(float64(time.Since(start).Microseconds()) / 1000)
	if sc != nil {
		metrics.RecordScenarioApplied(string(sc.Mode))
	}
	return res
}

// DefaultState returns the view state used when a query omits a key.
func (s *Service) DefaultState() viewstate.State {
	def := viewstate.Defaults(s.LatestYear())
	def.YearStart = s.yearStart
	return def
}

// View normalizes the state's selection, applies the optional action and
// evaluates the result. The returned state is canonical and can be encoded
// back into a URL.
func (s *Service) View(_ context.Context, st viewstate.State, action *selection.Action) (viewstate.State, evaluate.Result) {
	p := s.pin()
	sel := selection.Normalize(st.Selection(), p)
	if action != nil {
		sel = selection.Reduce(sel, *action, p)
		metrics.RecordSelectionAction(string(action.Kind))
	}
	st = st.WithSelection(sel)
	return st, s.evaluate(p, sel)
}

// Flips analyzes the year's flip scenarios from its margins and returns the
// analysis together with the scenarios the viewer can apply.
func (s *Service) Flips(_ context.Context, year int) (flips.Summary, []*model.FlipScenario) {
	d := s.state.Load()
	return flips.Analyze(year, d.snap.Records(year), d.snap.Electoral(year)), d.snap.Scenarios(year)
}

// Series builds the trend chart data for a view state.
func (s *Service) Series(_ context.Context, st viewstate.State) trends.Result {
	return trends.Build(s, trends.RequestFromState(st))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := s.state.Load()
	entry := d.snap.Stats()
	stats := map[string]interface{}{
		"started":           s.started,
		"watching":          s.watcher != nil,
		"records":           entry.Records,
		"years":             entry.Years,
		"scenarios":         entry.Scenarios,
		"derived_scenarios": entry.DerivedScenarios,
		"duplicates":        entry.Duplicates,
		"stops":             d.count,
		"files":             s.store.Files().Paths(),
	}
	if !entry.LoadedAt.IsZero() {
		stats["loaded_at"] = entry.LoadedAt.UTC().Format(time.RFC3339)
	}
	if err, at := s.store.LastError(); err != nil {
		stats["last_error"] = err.Error()
		stats["last_error_at"] = at.UTC().Format(time.RFC3339)
	}
	if s.watcher != nil {
		stats["reloads"] = s.watcher.Reloads()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	return stats
}
