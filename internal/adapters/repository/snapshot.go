// Package repository loads the election dataset into immutable in-memory
// snapshots and serves read-only lookups from the active one.
package repository

import (
	"sort"
	"time"

	"github.com/okian/tipping/internal/domain/model"
)

// Snapshot is one fully loaded dataset. It is never mutated after
// construction; a reload builds a new one.
type Snapshot struct {
	years      []int
	byYear     map[int][]model.Record
	byYearUnit map[int]map[string]model.Record
	electoral  map[int]map[string]int
	scenarios  map[int]map[model.Mode]*model.FlipScenario
	duplicates int
	derived    bool
	loadedAt   time.Time
}

// Entry summarizes a snapshot for stats endpoints.
type Entry struct {
	Records          int       `json:"records"`
	Years            int       `json:"years"`
	Scenarios        int       `json:"scenarios"`
	Duplicates       int       `json:"duplicates"`
	DerivedScenarios bool      `json:"derived_scenarios"`
	LoadedAt         time.Time `json:"loaded_at"`
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		byYear:     map[int][]model.Record{},
		byYearUnit: map[int]map[string]model.Record{},
		electoral:  map[int]map[string]int{},
		scenarios:  map[int]map[model.Mode]*model.FlipScenario{},
	}
}

// NewSnapshot builds a snapshot from already parsed rows. Records are grouped
// by year and sorted by unit; the first row for a (year, unit) wins.
func NewSnapshot(records []model.Record, electoral map[int]map[string]int, scenarios []*model.FlipScenario) *Snapshot {
	s := emptySnapshot()
	s.loadedAt = time.Now()
	for _, r := range records {
		if r.Year == 0 {
			continue
		}
		units, ok := s.byYearUnit[r.Year]
		if !ok {
			units = make(map[string]model.Record)
			s.byYearUnit[r.Year] = units
		}
		if _, dup := units[r.Unit]; dup {
			s.duplicates++
			continue
		}
		units[r.Unit] = r
		s.byYear[r.Year] = append(s.byYear[r.Year], r)
	}
	for y, recs := range s.byYear {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Unit < recs[j].Unit })
		s.years = append(s.years, y)
	}
	sort.Ints(s.years)

	for y, m := range electoral {
		cp := make(map[string]int, len(m))
		for k, v := range m {
			cp[k] = v
		}
		s.electoral[y] = cp
	}
	for _, sc := range scenarios {
		if sc == nil {
			continue
		}
		byMode, ok := s.scenarios[sc.Year]
		if !ok {
			byMode = make(map[model.Mode]*model.FlipScenario)
			s.scenarios[sc.Year] = byMode
		}
		byMode[sc.Mode] = sc
	}
	return s
}

// Years returns the loaded years in ascending order.
func (s *Snapshot) Years() []int {
	return append([]int(nil), s.years...)
}

// HasYear reports whether year has any records.
func (s *Snapshot) HasYear(year int) bool {
	_, ok := s.byYear[year]
	return ok
}

// Records returns the year's records sorted by unit. Callers must not modify
// the returned slice.
func (s *Snapshot) Records(year int) []model.Record {
	return s.byYear[year]
}

// Record looks up one (year, unit).
func (s *Snapshot) Record(year int, unit string) (model.Record, bool) {
	r, ok := s.byYearUnit[year][unit]
	return r, ok
}

// Electoral returns the electoral table for a year. Callers must not modify it.
func (s *Snapshot) Electoral(year int) map[string]int {
	return s.electoral[year]
}

// ElectoralVotes resolves a unit's EV: the electoral table first, then the
// record column.
func (s *Snapshot) ElectoralVotes(year int, unit string) (int, bool) {
	if ev, ok := s.electoral[year][unit]; ok {
		return ev, true
	}
	if r, ok := s.Record(year, unit); ok {
		return r.ElectoralVotes, true
	}
	return 0, false
}

// Scenario returns the scenario for (year, mode).
func (s *Snapshot) Scenario(year int, mode model.Mode) (*model.FlipScenario, bool) {
	sc, ok := s.scenarios[year][mode]
	return sc, ok
}

// Scenarios returns the year's scenarios in mode order.
func (s *Snapshot) Scenarios(year int) []*model.FlipScenario {
	var out []*model.FlipScenario
	for _, m := range model.Modes {
		if sc, ok := s.scenarios[year][m]; ok {
			out = append(out, sc)
		}
	}
	return out
}

// Stats summarizes the snapshot.
func (s *Snapshot) Stats() Entry {
	e := Entry{
		Years:            len(s.years),
		Duplicates:       s.duplicates,
		DerivedScenarios: s.derived,
		LoadedAt:         s.loadedAt,
	}
	for _, recs := range s.byYear {
		e.Records += len(recs)
	}
	for _, m := range s.scenarios {
		e.Scenarios += len(m)
	}
	return e
}
