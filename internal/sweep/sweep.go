// Package sweep walks every year and stop of a running viewer and checks the
// served stop lists and evaluations for consistency.
package sweep

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/tipping/pkg/logger"
	"github.com/okian/tipping/pkg/metrics"
)

// Run executes a complete sweep. Transport failures abort the run; failed
// checks are collected in the report and surface as ErrChecksFailed.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	log := logger.Get().Named("sweep")
	rep := &Report{RunID: cfg.RunID, StartTime: time.Now()}

	log.Info(ctx, "starting sweep",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("run", cfg.RunID),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	c := newClient(cfg.BaseURL, cfg.Timeout, cfg.RunID)

	// Step 1: Check viewer health
	if err := c.health(ctx); err != nil {
		return rep, fmt.Errorf("viewer health check failed: %w", err)
	}

	// Step 2: Resolve years
	years := cfg.Years
	if len(years) == 0 {
		var err error
		if years, err = c.years(ctx); err != nil {
			return rep, fmt.Errorf("year listing failed: %w", err)
		}
	}
	rep.Years = len(years)

	// Step 3: Fetch and check stop lists concurrently
	sets := make([]stopsPayload, len(years))
	var mu sync.Mutex
	record := func(checks int, failures []Failure) {
		mu.Lock()
		defer mu.Unlock()
		rep.Failed += len(failures)
		rep.Passed += max(0, checks-len(failures))
		rep.Failures = append(rep.Failures, failures...)
		for range failures {
			metrics.RecordSweepCheck("fail")
		}
		for i := len(failures); i < checks; i++ {
			metrics.RecordSweepCheck("pass")
		}
		if cfg.Verbose {
			for _, f := range failures {
				log.Warn(ctx, "check failed",
					logger.Int("year", f.Year),
					logger.Int("index", f.Index),
					logger.String("check", f.Check),
					logger.String("detail", f.Detail))
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, y := range years {
		g.Go(func() error {
			p, err := c.stops(gctx, y)
			if err != nil {
				return fmt.Errorf("stops %d: %w", y, err)
			}
			sets[i] = p
			record(stopChecks, verifyStops(cfg, p))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	// Step 4: Evaluate every stop concurrently
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, set := range sets {
		rep.Stops += len(set.Stops)
		for idx := range set.Stops {
			g.Go(func() error {
				p, err := c.evaluate(gctx, set.Year, idx)
				if err != nil {
					return fmt.Errorf("evaluate %d/%d: %w", set.Year, idx, err)
				}
				record(evaluationChecks, verifyEvaluation(set, idx, p))
				mu.Lock()
				rep.Evaluations++
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	sort.Slice(rep.Failures, func(i, j int) bool {
		a, b := rep.Failures[i], rep.Failures[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Check < b.Check
	})
	rep.EndTime = time.Now()
	rep.Duration = rep.EndTime.Sub(rep.StartTime)
	log.Info(ctx, "sweep finished",
		logger.String("run", rep.RunID),
		logger.Int("years", rep.Years),
		logger.Int("stops", rep.Stops),
		logger.Int("evaluations", rep.Evaluations),
		logger.Int("passed", rep.Passed),
		logger.Int("failed", rep.Failed),
		logger.Duration("duration", rep.Duration))

	if !rep.OK() {
		return rep, fmt.Errorf("%w: %d of %d", ErrChecksFailed, rep.Failed, rep.Passed+rep.Failed)
	}
	return rep, nil
}

// Checks counted per stop list and per evaluation.
const (
	stopChecks       = 3
	evaluationChecks = 4
)
