// Package model contains domain models passed between layers.
package model

import (
	"strings"
)

// DefaultEpsilon is the tie tolerance used for stop nudges and margin
// classification. Stops are nudged by one epsilon, third-party window
// boundaries by two, and adjusted margins within ±epsilon count as ties.
const DefaultEpsilon = 1e-5

// DefaultPVCap bounds the absolute PV shift considered when deriving stops.
const DefaultPVCap = 0.25

// Unit codes used for the national aggregate row.
const (
	UnitNational      = "NATIONAL"
	UnitNationalShort = "NAT"
)

// Record is one unit's result for one year. Records are immutable once loaded.
type Record struct {
	Year            int     // election year
	Unit            string  // state code, NATIONAL, or district code like ME-01
	RelativeMargin  float64 // unit margin minus national margin (D positive)
	NationalMargin  float64 // national margin for the year (D positive)
	ElectoralVotes  int     // EV carried by the unit
	ThirdPartyShare float64 // third-party share of the unit's total vote, in [0,1]
	DemVotes        float64
	RepVotes        float64
	ThirdVotes      float64
	TotalVotes      float64
}

// IsNational reports whether r is the national aggregate row.
func (r Record) IsNational() bool {
	return IsNationalUnit(r.Unit)
}

// IsNationalUnit reports whether unit names the national aggregate row.
func IsNationalUnit(unit string) bool {
	return unit == UnitNational || unit == UnitNationalShort
}

// State returns the two-letter state prefix of a unit code ("ME" for "ME-02").
func State(unit string) string {
	if len(unit) < 2 {
		return unit
	}
	return unit[:2]
}

// IsSubDistrict reports whether unit is a congressional district of a state
// whose at-large row is counted separately, e.g. "NE-02". Statewide rows such
// as "ME-AL" are not sub-districts.
func IsSubDistrict(unit string) bool {
	idx := strings.IndexByte(unit, '-')
	if idx < 0 || idx == len(unit)-1 {
		return false
	}
	for _, c := range unit[idx+1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Party identifies a vote column.
type Party string

// Parties in column order.
const (
	PartyDem   Party = "D"
	PartyRep   Party = "R"
	PartyThird Party = "T"
)

// Winner returns the party with the most votes in r and the runner-up's vote
// count. Ties resolve toward D, then R.
func (r Record) Winner() (winner Party, winnerVotes, runnerUpVotes float64) {
	d, rep, t := r.DemVotes, r.RepVotes, r.ThirdVotes
	switch {
	case d >= rep && d >= t:
		return PartyDem, d, max(rep, t)
	case rep >= d && rep >= t:
		return PartyRep, rep, max(d, t)
	default:
		return PartyThird, t, max(d, rep)
	}
}

// RunnerUp returns the party with the second most votes in r.
func (r Record) RunnerUp() Party {
	w, _, _ := r.Winner()
	switch w {
	case PartyDem:
		if r.RepVotes >= r.ThirdVotes {
			return PartyRep
		}
		return PartyThird
	case PartyRep:
		if r.DemVotes >= r.ThirdVotes {
			return PartyDem
		}
		return PartyThird
	default:
		if r.DemVotes >= r.RepVotes {
			return PartyDem
		}
		return PartyRep
	}
}
