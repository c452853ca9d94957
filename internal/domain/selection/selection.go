// Package selection holds the viewer's current (year, stop, scenario) choice
// and the single reducer that moves it between states.
package selection

import (
	"fmt"
	"strconv"

	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/stops"
)

// ScenarioRef names an active flip scenario.
type ScenarioRef struct {
	Year int        `json:"year"`
	Mode model.Mode `json:"mode"`
}

// Selection is an immutable view choice. Reduce returns new values and never
// modifies its input.
type Selection struct {
	Year      int          `json:"year"`
	StopIndex int          `json:"stop_index"`
	Scenario  *ScenarioRef `json:"scenario,omitempty"`
}

// Mode returns the active scenario mode, or "" when none is active.
func (s Selection) Mode() model.Mode {
	if s.Scenario == nil {
		return ""
	}
	return s.Scenario.Mode
}

// Env is the read-only data a reducer consults.
type Env interface {
	Years() []int
	StopSet(year int) stops.Set
	Scenario(year int, mode model.Mode) (*model.FlipScenario, bool)
}

// ActionKind enumerates reducer inputs.
type ActionKind string

// Action kinds, named by their query value.
const (
	ActionSelectYear    ActionKind = "year"
	ActionSelectStop    ActionKind = "stop"
	ActionApplyScenario ActionKind = "apply"
	ActionClearScenario ActionKind = "clear"
)

// Action is one user interaction.
type Action struct {
	Kind      ActionKind
	Year      int
	StopIndex int
	Mode      model.Mode
}

// SelectYear moves to year at its default stop.
func SelectYear(year int) Action { return Action{Kind: ActionSelectYear, Year: year} }

// SelectStop moves the PV slider.
func SelectStop(idx int) Action { return Action{Kind: ActionSelectStop, StopIndex: idx} }

// ApplyScenario activates the scenario for the current year.
func ApplyScenario(mode model.Mode) Action { return Action{Kind: ActionApplyScenario, Mode: mode} }

// ClearScenario deactivates any scenario.
func ClearScenario() Action { return Action{Kind: ActionClearScenario} }

// ParseAction builds an action from its query form, e.g. do=stop&value=3.
func ParseAction(kind, value string) (Action, error) {
	switch ActionKind(kind) {
	case ActionSelectYear:
		y, err := strconv.Atoi(value)
		if err != nil {
			return Action{}, fmt.Errorf("%w: year %q", ErrInvalidValue, value)
		}
		return SelectYear(y), nil
	case ActionSelectStop:
		i, err := strconv.Atoi(value)
		if err != nil {
			return Action{}, fmt.Errorf("%w: stop %q", ErrInvalidValue, value)
		}
		return SelectStop(i), nil
	case ActionApplyScenario:
		m, err := model.ParseMode(value)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return ApplyScenario(m), nil
	case ActionClearScenario:
		return ClearScenario(), nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
}

// Reduce applies a to sel.
func Reduce(sel Selection, a Action, env Env) Selection {
	switch a.Kind {
	case ActionSelectYear:
		return Selection{Year: a.Year, StopIndex: env.StopSet(a.Year).DefaultIndex()}
	case ActionSelectStop:
		idx := env.StopSet(sel.Year).Clamp(a.StopIndex)
		next := Selection{Year: sel.Year, StopIndex: idx, Scenario: sel.Scenario}
		if idx != sel.StopIndex {
			next.Scenario = nil
		}
		return next
	case ActionApplyScenario:
		set := env.StopSet(sel.Year)
		if set.ActualIndex < 0 {
			return sel
		}
		if _, ok := env.Scenario(sel.Year, a.Mode); !ok {
			return sel
		}
		// The snap to Actual happens in the same transition, so it never
		// counts as a stop change that would clear the scenario.
		return Selection{
			Year:      sel.Year,
			StopIndex: set.ActualIndex,
			Scenario:  &ScenarioRef{Year: sel.Year, Mode: a.Mode},
		}
	case ActionClearScenario:
		return Selection{Year: sel.Year, StopIndex: sel.StopIndex}
	default:
		return sel
	}
}

// Normalize repairs a selection decoded from a URL: an unknown year becomes
// the latest one, an out-of-range stop becomes the year's default, and a
// scenario that does not exist for the year is dropped. A kept scenario pins
// the stop to Actual.
func Normalize(sel Selection, env Env) Selection {
	years := env.Years()
	if len(years) > 0 && !contains(years, sel.Year) {
		sel = Selection{Year: years[len(years)-1], StopIndex: -1, Scenario: sel.Scenario}
	}
	set := env.StopSet(sel.Year)
	out := Selection{Year: sel.Year, StopIndex: sel.StopIndex}
	if out.StopIndex < 0 || out.StopIndex >= set.Len() {
		out.StopIndex = set.DefaultIndex()
	}
	if sc := sel.Scenario; sc != nil && sc.Year == sel.Year && set.ActualIndex >= 0 {
		if _, ok := env.Scenario(sel.Year, sc.Mode); ok {
			out.Scenario = &ScenarioRef{Year: sc.Year, Mode: sc.Mode}
			out.StopIndex = set.ActualIndex
		}
	}
	return out
}

// Active resolves the selection's scenario, or nil.
func Active(sel Selection, env Env) *model.FlipScenario {
	if sel.Scenario == nil || sel.Scenario.Year != sel.Year {
		return nil
	}
	sc, ok := env.Scenario(sel.Year, sel.Scenario.Mode)
	if !ok {
		return nil
	}
	return sc
}

func contains(years []int, y int) bool {
	for _, v := range years {
		if v == y {
			return true
		}
	}
	return false
}
