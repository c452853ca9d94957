// Package evaluate classifies every unit of a year at a selected PV stop and
// aggregates electoral and popular votes by outcome.
package evaluate

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/palette"
	"github.com/okian/tipping/internal/domain/stops"
)

// Outcome is a unit's discrete result.
type Outcome string

// Outcomes. First is the positive-margin party, second the negative one.
const (
	OutcomeFirst  Outcome = "first"
	OutcomeSecond Outcome = "second"
	OutcomeThird  Outcome = "third"
)

// StopMatchTolerance is how close a unit's own effective stop must be to the
// evaluated value for the unit to be named in the PV label.
const StopMatchTolerance = 0.00005

// maxLabelMatches bounds the unit codes named in the PV label.
const maxLabelMatches = 6

// Input is everything one evaluation reads.
type Input struct {
	Year      int
	Records   []model.Record
	Stops     stops.Set
	StopIndex int
	// Electoral overrides the records' EV column by unit code.
	Electoral map[string]int
	// Scenario, when non-nil, swaps the major-party outcome of listed units.
	Scenario *model.FlipScenario
}

// UnitResult is one unit's classification.
type UnitResult struct {
	Unit           string  `json:"unit"`
	Outcome        Outcome `json:"outcome"`
	Margin         float64 `json:"margin"`
	Lean           string  `json:"lean"`
	Color          string  `json:"color"`
	ElectoralVotes int     `json:"electoral_votes"`
	Flipped        bool    `json:"flipped,omitempty"`
}

// Totals are electoral votes by outcome.
type Totals struct {
	First  int `json:"first"`
	Second int `json:"second"`
	Other  int `json:"other"`
}

// Votes is a national popular-vote aggregate.
type Votes struct {
	Dem   float64 `json:"dem"`
	Rep   float64 `json:"rep"`
	Third float64 `json:"third"`
	Total float64 `json:"total"`
}

// FlipSummary describes what an active scenario changed.
type FlipSummary struct {
	Mode           model.Mode `json:"mode"`
	VotesChanged   int64      `json:"votes_changed"`
	PctOfNational  float64    `json:"pct_of_national"`
	Units          []string   `json:"units"`
	ElectoralVotes int        `json:"electoral_votes"`
}

// Result is the full evaluation of one (year, stop, scenario).
type Result struct {
	Year        int               `json:"year"`
	StopIndex   int               `json:"stop_index"`
	Stop        float64           `json:"stop"`
	Effective   float64           `json:"effective"`
	Actual      bool              `json:"actual"`
	PVLabel     string            `json:"pv_label"`
	Totals      Totals            `json:"totals"`
	Units       []UnitResult      `json:"units"`
	StateColors map[string]string `json:"state_colors"`
	Votes       Votes             `json:"votes"`
	Flip        *FlipSummary      `json:"flip,omitempty"`
}

// Evaluator applies the classification rules under fixed parameters.
type Evaluator struct {
	params stops.Params
}

// New creates an evaluator. Zero cap or epsilon fall back to the defaults.
func New(p stops.Params) *Evaluator {
	def := stops.DefaultParams()
	if p.Cap <= 0 {
		p.Cap = def.Cap
	}
	if p.Epsilon <= 0 {
		p.Epsilon = def.Epsilon
	}
	return &Evaluator{params: p}
}

// Evaluate computes the result for in. It has no side effects.
func (e *Evaluator) Evaluate(in Input) Result {
	eps := e.params.Epsilon
	set := in.Stops
	idx := set.Clamp(in.StopIndex)
	stopVal, pv := 0.0, eps
	if st, ok := set.At(idx); ok {
		stopVal, pv = st.Value, st.Effective
	}
	nat := set.National
	// Even always settles ties toward the first party.
	tieSide := OutcomeSecond
	if stopVal-nat >= 0 || idx == set.EvenIndex {
		tieSide = OutcomeFirst
	}

	res := Result{
		Year:        in.Year,
		StopIndex:   idx,
		Stop:        stopVal,
		Effective:   pv,
		Actual:      set.IsActual(idx),
		StateColors: make(map[string]string),
	}
	// The Actual stop reproduces stored winners, so only an exact zero is a tie.
	band := eps
	if res.Actual {
		band = 0
	}

	recs := sortedByUnit(in.Records)
	type stateBest struct {
		m     float64
		color string
	}
	best := make(map[string]stateBest)

	for _, r := range recs {
		if r.IsNational() || r.Unit == "" {
			continue
		}
		m := r.RelativeMargin + pv
		ur := UnitResult{Unit: r.Unit, Margin: m, ElectoralVotes: electoralVotes(r, in.Electoral)}

		lower, upper, windowed := e.params.Window(r)
		switch {
		case windowed && pv > lower+eps && pv < upper-eps:
			ur.Outcome = OutcomeThird
			ur.Color = palette.ThirdParty
		case m > band:
			ur.Outcome = OutcomeFirst
		case m < -band:
			ur.Outcome = OutcomeSecond
		default:
			ur.Outcome = tieSide
		}
		if ur.Outcome != OutcomeThird && in.Scenario.Lists(r.Unit) {
			ur.Flipped = true
			if ur.Outcome == OutcomeFirst {
				ur.Outcome, ur.Margin, ur.Color = OutcomeSecond, -eps, palette.FlippedSecond
			} else {
				ur.Outcome, ur.Margin, ur.Color = OutcomeFirst, eps, palette.FlippedFirst
			}
		}
		if ur.Color == "" {
			ur.Color = palette.MarginColor(m)
		}
		ur.Lean = palette.Lean(ur.Margin)

		switch ur.Outcome {
		case OutcomeFirst:
			res.Totals.First += ur.ElectoralVotes
		case OutcomeSecond:
			res.Totals.Second += ur.ElectoralVotes
		default:
			res.Totals.Other += ur.ElectoralVotes
		}

		st := model.State(r.Unit)
		if prev, ok := best[st]; !ok || math.Abs(m) > math.Abs(prev.m) {
			best[st] = stateBest{m: m, color: ur.Color}
		}
		res.Units = append(res.Units, ur)
	}
	for st, b := range best {
		res.StateColors[st] = b.color
	}

	res.PVLabel = e.pvLabel(recs, set, stopVal, pv, res.Actual)
	res.Votes = e.nationalVotes(recs, res.Units, pv, res.Actual, in.Scenario)
	res.Flip = flipSummary(in.Scenario, res.Units, recs)
	return res
}

// Evaluate is shorthand for New(p).Evaluate(in).
func Evaluate(p stops.Params, in Input) Result {
	return New(p).Evaluate(in)
}

func (e *Evaluator) pvLabel(recs []model.Record, set stops.Set, stopVal, pv float64, actual bool) string {
	var b strings.Builder
	if actual {
		b.WriteString("Actual ")
	}
	b.WriteString(palette.Lean(pv))
	if math.Abs(stopVal) < StopMatchTolerance {
		return b.String()
	}

	var matches []string
	for _, r := range recs {
		if r.IsNational() || r.Unit == "" {
			continue
		}
		for _, s := range e.unitStops(r) {
			eff, ok := set.Effective(s)
			if ok && math.Abs(pv-eff) <= StopMatchTolerance {
				u := r.Unit
				if len(u) > 5 {
					u = u[:5]
				}
				matches = append(matches, u)
				break
			}
		}
	}
	if len(matches) == 0 {
		return b.String()
	}
	b.WriteString(" (")
	if len(matches) > maxLabelMatches {
		b.WriteString(strings.Join(matches[:maxLabelMatches], ","))
		b.WriteString("…")
	} else {
		b.WriteString(strings.Join(matches, ","))
	}
	b.WriteString(")")
	return b.String()
}

// unitStops are the threshold values a unit can contribute.
func (e *Evaluator) unitStops(r model.Record) []float64 {
	if lower, upper, ok := e.params.Window(r); ok {
		return []float64{lower, upper}
	}
	return []float64{-r.RelativeMargin}
}

func (e *Evaluator) nationalVotes(recs []model.Record, units []UnitResult, pv float64, actual bool, sc *model.FlipScenario) Votes {
	flipped := make(map[string]bool)
	for _, u := range units {
		if u.Flipped {
			flipped[u.Unit] = true
		}
	}

	var v Votes
	for _, r := range recs {
		if r.IsNational() || r.Unit == "" || model.IsSubDistrict(r.Unit) {
			continue
		}
		if actual {
			dem, rep, third := r.DemVotes, r.RepVotes, r.ThirdVotes
			if flipped[r.Unit] {
				moved := float64(sc.VotesToFlip(r.Unit))
				winner, _, _ := r.Winner()
				dem, rep, third = move(dem, rep, third, winner, -moved)
				dem, rep, third = move(dem, rep, third, r.RunnerUp(), moved)
			}
			v.Dem += dem
			v.Rep += rep
			v.Third += third
			v.Total += r.TotalVotes
			continue
		}
		m := r.RelativeMargin + pv
		t := r.ThirdPartyShare
		v.Dem += clamp01((1-t)*(0.5+m/2)) * r.TotalVotes
		v.Rep += clamp01((1-t)*(0.5-m/2)) * r.TotalVotes
		v.Third += clamp01(t) * r.TotalVotes
		v.Total += r.TotalVotes
	}
	return v
}

func flipSummary(sc *model.FlipScenario, units []UnitResult, recs []model.Record) *FlipSummary {
	if sc == nil {
		return nil
	}
	fs := &FlipSummary{Mode: sc.Mode, Units: []string{}}
	for _, u := range units {
		if !u.Flipped {
			continue
		}
		fs.Units = append(fs.Units, u.Unit)
		fs.VotesChanged += sc.VotesToFlip(u.Unit)
		fs.ElectoralVotes += u.ElectoralVotes
	}
	total := 0.0
	for _, r := range recs {
		if !r.IsNational() && !model.IsSubDistrict(r.Unit) {
			total += r.TotalVotes
		}
	}
	if total > 0 {
		fs.PctOfNational = float64(fs.VotesChanged) / total * 100
	}
	return fs
}

func move(dem, rep, third float64, p model.Party, delta float64) (float64, float64, float64) {
	switch p {
	case model.PartyDem:
		dem += delta
	case model.PartyRep:
		rep += delta
	default:
		third += delta
	}
	return dem, rep, third
}

func electoralVotes(r model.Record, table map[string]int) int {
	if ev, ok := table[r.Unit]; ok {
		return ev
	}
	return r.ElectoralVotes
}

func sortedByUnit(recs []model.Record) []model.Record {
	out := append([]model.Record(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
