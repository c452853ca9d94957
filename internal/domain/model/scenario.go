package model

import "fmt"

// Mode names a precomputed flip scenario.
type Mode string

// Known scenario modes.
const (
	// ModeClassic flips the fewest votes needed for the runner-up to win.
	ModeClassic Mode = "classic"
	// ModeNoMajority flips the fewest votes needed to deny the winner a majority.
	ModeNoMajority Mode = "no_majority"
)

// Modes lists the closed set of scenario modes in display order.
var Modes = []Mode{ModeClassic, ModeNoMajority}

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// FlipUnit is one unit a scenario flips.
type FlipUnit struct {
	Unit           string  `json:"unit"`
	VotesToFlip    int64   `json:"votes_to_flip"`
	ElectoralVotes int     `json:"electoral_votes"`
	PctOfUnitVotes float64 `json:"pct_of_unit_votes"`
}

// FlipScenario is a read-only set of units whose outcome is swapped.
type FlipScenario struct {
	Year  int        `json:"year"`
	Mode  Mode       `json:"mode"`
	Units []FlipUnit `json:"units"`
}

// Lists reports whether the scenario flips unit.
func (s *FlipScenario) Lists(unit string) bool {
	if s == nil {
		return false
	}
	for _, u := range s.Units {
		if u.Unit == unit {
			return true
		}
	}
	return false
}

// VotesToFlip returns the votes moved for unit, or 0 if it is not listed.
func (s *FlipScenario) VotesToFlip(unit string) int64 {
	if s == nil {
		return 0
	}
	for _, u := range s.Units {
		if u.Unit == unit {
			return u.VotesToFlip
		}
	}
	return 0
}

// TotalVotes sums votes moved across all listed units.
func (s *FlipScenario) TotalVotes() int64 {
	if s == nil {
		return 0
	}
	var n int64
	for _, u := range s.Units {
		n += u.VotesToFlip
	}
	return n
}

// TotalElectoralVotes sums EV across all listed units.
func (s *FlipScenario) TotalElectoralVotes() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, u := range s.Units {
		n += u.ElectoralVotes
	}
	return n
}
