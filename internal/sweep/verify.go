package sweep

import (
	"fmt"
	"math"
)

// verifyStops checks one year's stop list: strictly ascending values, an Even
// stop at 0 and, when present, an Actual stop equal to the national margin.
func verifyStops(cfg Config, p stopsPayload) []Failure {
	var out []Failure
	fail := func(check, format string, args ...any) {
		out = append(out, Failure{Year: p.Year, Index: -1, Check: check, Detail: fmt.Sprintf(format, args...)})
	}

	if len(p.Stops) == 0 {
		fail(CheckEven, "year has no stops")
		return out
	}
	for i := 1; i < len(p.Stops); i++ {
		if !(p.Stops[i-1].Value < p.Stops[i].Value) {
			fail(CheckSorted, "stop %d (%g) is not above stop %d (%g)", i, p.Stops[i].Value, i-1, p.Stops[i-1].Value)
		}
	}

	switch {
	case p.EvenIndex < 0 || p.EvenIndex >= len(p.Stops):
		fail(CheckEven, "even index %d out of range", p.EvenIndex)
	case p.Stops[p.EvenIndex].Value != 0:
		fail(CheckEven, "even stop holds %g", p.Stops[p.EvenIndex].Value)
	}

	switch {
	case p.ActualIndex >= len(p.Stops):
		fail(CheckActual, "actual index %d out of range", p.ActualIndex)
	case p.ActualIndex >= 0:
		if v := p.Stops[p.ActualIndex].Value; v != p.National {
			fail(CheckActual, "actual stop %g differs from national margin %g", v, p.National)
		}
	case len(p.Stops) > 1 && math.Abs(p.National) <= cfg.Cap:
		fail(CheckActual, "national margin %g is within cap but has no stop", p.National)
	}
	return out
}

// verifyEvaluation checks one evaluated stop against its stop list. At the
// Actual stop every major-party outcome must match the sign of the unit's
// margin, which is the stored result.
func verifyEvaluation(set stopsPayload, index int, p evaluatePayload) []Failure {
	var out []Failure
	fail := func(check, format string, args ...any) {
		out = append(out, Failure{Year: set.Year, Index: index, Check: check, Detail: fmt.Sprintf(format, args...)})
	}

	if p.StopIndex != index || p.Stop != set.Stops[index].Value {
		fail(CheckIndex, "evaluated stop %d (%g), want %d (%g)", p.StopIndex, p.Stop, index, set.Stops[index].Value)
	}

	ev := 0
	for _, u := range p.Units {
		ev += u.ElectoralVotes
	}
	if sum := p.Totals.First + p.Totals.Second + p.Totals.Other; sum != ev {
		fail(CheckTotals, "totals add up to %d, units hold %d", sum, ev)
	}

	actual := index == set.ActualIndex
	if p.Actual != actual {
		fail(CheckActual, "actual flag is %v, want %v", p.Actual, actual)
	}
	if !actual {
		return out
	}
	for _, u := range p.Units {
		var want string
		switch {
		case u.Outcome == "third":
			continue
		case u.Margin > 0:
			want = "first"
		case u.Margin < 0:
			want = "second"
		default:
			continue
		}
		if u.Outcome != want {
			fail(CheckWinners, "%s: outcome %s with margin %g", u.Unit, u.Outcome, u.Margin)
		}
	}
	return out
}
