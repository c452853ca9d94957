// Package flips computes, per year, the fewest popular votes whose move would
// change the electoral outcome, as ready-to-apply flip scenarios.
package flips

import (
	"math"
	"sort"

	"github.com/okian/tipping/internal/domain/model"
)

// Candidate is a unit that can be flipped and what it costs.
type Candidate struct {
	Unit           string
	ElectoralVotes int
	VotesToFlip    int64
	TotalVotes     float64
	From           model.Party
}

// Outcome is the cheapest flip set found for one mode. MinVotes is -1 when
// the target cannot be reached.
type Outcome struct {
	MinVotes       int64            `json:"min_votes"`
	ElectoralVotes int              `json:"electoral_votes"`
	Units          []model.FlipUnit `json:"units"`
}

// Summary is one year's analysis.
type Summary struct {
	Year        int         `json:"year"`
	WinnerParty model.Party `json:"winner_party"`
	WinnerEV    int         `json:"winner_ev"`
	RunnerParty model.Party `json:"runner_party"`
	RunnerEV    int         `json:"runner_ev"`
	Need        int         `json:"need"`
	TotalEV     int         `json:"total_ev"`
	Classic     Outcome     `json:"classic"`
	NoMajority  Outcome     `json:"no_majority"`
}

// Outcome returns the outcome for mode.
func (s Summary) Outcome(mode model.Mode) Outcome {
	if mode == model.ModeNoMajority {
		return s.NoMajority
	}
	return s.Classic
}

// Scenarios converts the summary into applicable scenarios, skipping modes
// with nothing to flip.
func (s Summary) Scenarios() []*model.FlipScenario {
	var out []*model.FlipScenario
	for _, m := range model.Modes {
		o := s.Outcome(m)
		if len(o.Units) == 0 {
			continue
		}
		out = append(out, &model.FlipScenario{
			Year:  s.Year,
			Mode:  m,
			Units: append([]model.FlipUnit(nil), o.Units...),
		})
	}
	return out
}

var partyOrder = []model.Party{model.PartyDem, model.PartyRep, model.PartyThird}

// Analyze finds both scenarios for one year. Electoral overrides the records'
// EV column by unit. The national row is ignored.
func Analyze(year int, records []model.Record, electoral map[string]int) Summary {
	evByParty := make(map[model.Party]int)
	total := 0
	var cands []Candidate

	recs := append([]model.Record(nil), records...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Unit < recs[j].Unit })

	type held struct {
		rec   model.Record
		party model.Party
		ev    int
	}
	var units []held
	for _, r := range recs {
		if r.IsNational() {
			continue
		}
		ev := r.ElectoralVotes
		if v, ok := electoral[r.Unit]; ok {
			ev = v
		}
		w, _, _ := r.Winner()
		evByParty[w] += ev
		total += ev
		units = append(units, held{rec: r, party: w, ev: ev})
	}

	s := Summary{Year: year, TotalEV: total, Need: total/2 + 1}
	s.WinnerParty, s.WinnerEV = leader(evByParty, "")
	s.RunnerParty, s.RunnerEV = leader(evByParty, s.WinnerParty)

	for _, u := range units {
		if u.party == s.RunnerParty || u.ev <= 0 {
			continue
		}
		_, wv, rv := u.rec.Winner()
		cands = append(cands, Candidate{
			Unit:           u.rec.Unit,
			ElectoralVotes: u.ev,
			VotesToFlip:    int64(math.Floor(wv-rv))/2 + 1,
			TotalVotes:     u.rec.TotalVotes,
			From:           u.party,
		})
	}

	s.Classic = solve(cands, max(0, s.Need-s.RunnerEV))

	var fromWinner []Candidate
	for _, c := range cands {
		if c.From == s.WinnerParty {
			fromWinner = append(fromWinner, c)
		}
	}
	s.NoMajority = solve(fromWinner, max(0, s.WinnerEV-(s.Need-1)))
	return s
}

// leader returns the party with the most EV other than skip. Ties go to the
// earlier party in D, R, T order.
func leader(ev map[model.Party]int, skip model.Party) (model.Party, int) {
	var best model.Party
	bestEV := -1
	for _, p := range partyOrder {
		if p == skip {
			continue
		}
		if ev[p] > bestEV {
			best, bestEV = p, ev[p]
		}
	}
	return best, bestEV
}

func solve(cands []Candidate, target int) Outcome {
	chosen, cost, ev, ok := Knapsack(cands, target)
	if !ok {
		return Outcome{MinVotes: -1, Units: []model.FlipUnit{}}
	}
	out := Outcome{MinVotes: cost, ElectoralVotes: ev, Units: make([]model.FlipUnit, 0, len(chosen))}
	for _, c := range chosen {
		pct := 0.0
		if c.TotalVotes > 0 {
			pct = math.Round(float64(c.VotesToFlip)/c.TotalVotes*100*1000) / 1000
		}
		out.Units = append(out.Units, model.FlipUnit{
			Unit:           c.Unit,
			VotesToFlip:    c.VotesToFlip,
			ElectoralVotes: c.ElectoralVotes,
			PctOfUnitVotes: pct,
		})
	}
	return out
}

// Knapsack picks the candidates with the smallest total VotesToFlip whose EV
// sum is at least target. Among sums reaching the target the cheapest wins,
// then the smallest sum. ok is false when no subset reaches target.
func Knapsack(cands []Candidate, target int) (chosen []Candidate, cost int64, ev int, ok bool) {
	if target <= 0 {
		return nil, 0, 0, true
	}
	sorted := append([]Candidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a := float64(sorted[i].VotesToFlip) / float64(max(1, sorted[i].ElectoralVotes))
		b := float64(sorted[j].VotesToFlip) / float64(max(1, sorted[j].ElectoralVotes))
		if a != b {
			return a < b
		}
		return sorted[i].Unit < sorted[j].Unit
	})

	maxEV := 0
	for _, c := range sorted {
		maxEV += c.ElectoralVotes
	}
	if target > maxEV {
		return nil, 0, 0, false
	}

	const inf = math.MaxInt64
	dp := make([]int64, maxEV+1)
	for i := range dp {
		dp[i] = inf
	}
	dp[0] = 0
	// take[i][v] records that item i improved dp[v] in its pass.
	take := make([][]bool, len(sorted))
	for i, c := range sorted {
		take[i] = make([]bool, maxEV+1)
		for v := maxEV; v >= c.ElectoralVotes; v-- {
			prev := dp[v-c.ElectoralVotes]
			if prev == inf {
				continue
			}
			if cand := prev + c.VotesToFlip; cand < dp[v] {
				dp[v] = cand
				take[i][v] = true
			}
		}
	}

	best, bestCost := -1, int64(inf)
	for v := target; v <= maxEV; v++ {
		if dp[v] < bestCost {
			best, bestCost = v, dp[v]
		}
	}
	if best < 0 {
		return nil, 0, 0, false
	}

	v := best
	for i := len(sorted) - 1; i >= 0 && v > 0; i-- {
		if take[i][v] {
			chosen = append(chosen, sorted[i])
			v -= sorted[i].ElectoralVotes
		}
	}
	for l, r := 0, len(chosen)-1; l < r; l, r = l+1, r-1 {
		chosen[l], chosen[r] = chosen[r], chosen[l]
	}
	return chosen, bestCost, best, true
}
