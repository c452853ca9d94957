package evaluate_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	evaluate "github.com/okian/tipping/internal/domain/evaluate"
	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/palette"
	"github.com/okian/tipping/internal/domain/stops"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	nat = 0.005
	eps = model.DefaultEpsilon
)

func unit(name string, rm float64, ev int, dem, rep float64) model.Record {
	return model.Record{
		Year:           2000,
		Unit:           name,
		RelativeMargin: rm,
		NationalMargin: nat,
		ElectoralVotes: ev,
		DemVotes:       dem,
		RepVotes:       rep,
		TotalVotes:     dem + rep,
	}
}

func year2000() []model.Record {
	return []model.Record{
		{Year: 2000, Unit: "NATIONAL", NationalMargin: nat, DemVotes: 5000, RepVotes: 4950, TotalVotes: 9950},
		unit("OH", 0.02, 20, 520, 480),
		unit("FL", -0.03, 25, 480, 520),
		unit("NV", 0, 4, 500, 500),
		unit("ME-AL", 0.1, 2, 300, 250),
		unit("ME-01", 0.15, 1, 160, 120),
	}
}

func outcomes(res evaluate.Result) map[string]evaluate.Outcome {
	out := make(map[string]evaluate.Outcome)
	for _, u := range res.Units {
		out[u.Unit] = u.Outcome
	}
	return out
}

func TestEvaluateActual(t *testing.T) {
	Convey("Given an ordinary year evaluated at the Actual stop", t, func() {
		p := stops.DefaultParams()
		recs := year2000()
		set := stops.Derive(2000, recs, p)
		res := evaluate.Evaluate(p, evaluate.Input{Year: 2000, Records: recs, Stops: set, StopIndex: set.ActualIndex})

		Convey("Then every unit keeps its stored winner", func() {
			for _, r := range recs {
				if r.IsNational() {
					continue
				}
				want := evaluate.OutcomeFirst
				if r.RelativeMargin+nat < 0 {
					want = evaluate.OutcomeSecond
				}
				So(outcomes(res)[r.Unit], ShouldEqual, want)
			}
		})

		Convey("Then electoral votes are split by outcome", func() {
			So(res.Totals, ShouldResemble, evaluate.Totals{First: 27, Second: 25, Other: 0})
			So(res.Actual, ShouldBeTrue)
			So(res.PVLabel, ShouldEqual, "Actual D+0.5")
		})

		Convey("Then national votes are the stored totals without sub-districts", func() {
			So(res.Votes.Dem, ShouldEqual, 520+480+500+300)
			So(res.Votes.Rep, ShouldEqual, 480+520+500+250)
			So(res.Votes.Total, ShouldEqual, 1000+1000+1000+550)
		})

		Convey("Then a state takes the color of its most lopsided unit", func() {
			So(res.StateColors["ME"], ShouldEqual, palette.MarginColor(0.15+nat))
			So(res.StateColors["FL"], ShouldEqual, palette.MarginColor(-0.03+nat))
		})

		Convey("Then there is no flip summary", func() {
			So(res.Flip, ShouldBeNil)
		})
	})
}

func TestEvaluateActualRazorThin(t *testing.T) {
	Convey("Given units decided by less than epsilon", t, func() {
		p := stops.DefaultParams()
		recs := []model.Record{
			{Year: 2000, Unit: "NATIONAL", NationalMargin: nat},
			unit("FL", -nat-5e-6, 25, 490, 491),
			unit("NH", -nat+5e-6, 4, 201, 200),
		}
		set := stops.Derive(2000, recs, p)
		res := evaluate.Evaluate(p, evaluate.Input{Year: 2000, Records: recs, Stops: set, StopIndex: set.ActualIndex})

		Convey("Then the Actual stop keeps the stored winner of each", func() {
			So(res.Actual, ShouldBeTrue)
			So(outcomes(res)["FL"], ShouldEqual, evaluate.OutcomeSecond)
			So(outcomes(res)["NH"], ShouldEqual, evaluate.OutcomeFirst)
			So(res.Totals, ShouldResemble, evaluate.Totals{First: 4, Second: 25})
		})
	})
}

func TestEvaluateStops(t *testing.T) {
	p := stops.DefaultParams()
	recs := year2000()
	set := stops.Derive(2000, recs, p)
	ev := evaluate.New(p)

	Convey("Given the Even stop", t, func() {
		res := ev.Evaluate(evaluate.Input{Year: 2000, Records: recs, Stops: set, StopIndex: set.EvenIndex})

		Convey("Then a unit tied at zero resolves to the first party", func() {
			So(outcomes(res)["NV"], ShouldEqual, evaluate.OutcomeFirst)
			So(res.Effective, ShouldEqual, eps)
			So(res.Actual, ShouldBeFalse)
		})

		Convey("Then the PV label names no units", func() {
			So(res.PVLabel, ShouldEqual, "D+0.0")
		})

		Convey("Then national votes follow the share formula", func() {
			m := 0.02 + eps
			So(res.Votes.Dem, ShouldBeGreaterThan, 0)
			So(res.Votes.Total, ShouldEqual, 1000+1000+1000+550)
			oh := (0.5 + m/2) * 1000
			So(oh, ShouldBeLessThan, res.Votes.Dem)
		})
	})

	Convey("Given a unit's own flip stop", t, func() {
		idx := set.IndexOf(-0.02)
		So(idx, ShouldBeGreaterThanOrEqualTo, 0)
		res := ev.Evaluate(evaluate.Input{Year: 2000, Records: recs, Stops: set, StopIndex: idx})

		Convey("Then that unit has flipped", func() {
			So(outcomes(res)["OH"], ShouldEqual, evaluate.OutcomeSecond)
			So(outcomes(res)["ME-AL"], ShouldEqual, evaluate.OutcomeFirst)
		})

		Convey("Then the PV label names it", func() {
			So(res.PVLabel, ShouldEqual, "R+2.0 (OH)")
		})
	})

	Convey("Given an out-of-range stop index", t, func() {
		res := ev.Evaluate(evaluate.Input{Year: 2000, Records: recs, Stops: set, StopIndex: 99})

		Convey("Then the last stop is used", func() {
			So(res.StopIndex, ShouldEqual, set.Len()-1)
		})
	})

	Convey("Given an electoral table", t, func() {
		res := ev.Evaluate(evaluate.Input{
			Year: 2000, Records: recs, Stops: set, StopIndex: set.ActualIndex,
			Electoral: map[string]int{"FL": 29},
		})

		Convey("Then the table wins over the record column", func() {
			So(res.Totals.Second, ShouldEqual, 29)
		})
	})
}

func TestEvaluateScenario(t *testing.T) {
	p := stops.DefaultParams()
	recs := year2000()
	set := stops.Derive(2000, recs, p)
	ev := evaluate.New(p)
	base := evaluate.Input{Year: 2000, Records: recs, Stops: set, StopIndex: set.ActualIndex}
	before := ev.Evaluate(base)

	sc := &model.FlipScenario{
		Year:  2000,
		Mode:  model.ModeClassic,
		Units: []model.FlipUnit{{Unit: "FL", VotesToFlip: 21, ElectoralVotes: 25}},
	}

	Convey("Given a scenario applied at the Actual stop", t, func() {
		in := base
		in.Scenario = sc
		res := ev.Evaluate(in)

		Convey("Then exactly the listed unit is swapped", func() {
			got, orig := outcomes(res), outcomes(before)
			for u, o := range orig {
				if u == "FL" {
					So(got[u], ShouldEqual, evaluate.OutcomeFirst)
					continue
				}
				So(got[u], ShouldEqual, o)
			}
		})

		Convey("Then the flipped unit is drawn bright with an epsilon margin", func() {
			for _, u := range res.Units {
				if u.Unit != "FL" {
					So(u.Flipped, ShouldBeFalse)
					continue
				}
				So(u.Flipped, ShouldBeTrue)
				So(u.Color, ShouldEqual, palette.FlippedFirst)
				So(u.Margin, ShouldEqual, eps)
			}
		})

		Convey("Then votes move from the winner to the runner-up", func() {
			So(res.Votes.Dem, ShouldEqual, before.Votes.Dem+21)
			So(res.Votes.Rep, ShouldEqual, before.Votes.Rep-21)
			So(res.Votes.Total, ShouldEqual, before.Votes.Total)
		})

		Convey("Then the summary reports the change", func() {
			So(res.Flip, ShouldNotBeNil)
			So(res.Flip.Units, ShouldResemble, []string{"FL"})
			So(res.Flip.VotesChanged, ShouldEqual, 21)
			So(res.Flip.ElectoralVotes, ShouldEqual, 25)
			So(res.Flip.PctOfNational, ShouldAlmostEqual, 21.0/3550*100, 1e-9)
			So(res.Totals.First, ShouldEqual, 52)
			So(res.Totals.Second, ShouldEqual, 0)
		})

		Convey("Then evaluating without it is bit-for-bit the original", func() {
			So(cmp.Diff(before, ev.Evaluate(base)), ShouldBeEmpty)
		})
	})
}

func TestEvaluateExceptionYear(t *testing.T) {
	recs := []model.Record{
		{Year: 1968, Unit: "NATIONAL", NationalMargin: -0.007},
		{Year: 1968, Unit: "GA", RelativeMargin: 0.05, NationalMargin: -0.007, ThirdPartyShare: 0.4, ElectoralVotes: 12},
		{Year: 1968, Unit: "NY", RelativeMargin: 0.02, NationalMargin: -0.007, ThirdPartyShare: 0.1, ElectoralVotes: 43},
	}

	Convey("Given the exception year with a wide cap", t, func() {
		p := stops.DefaultParams()
		p.Cap = 0.6
		set := stops.Derive(1968, recs, p)
		ev := evaluate.New(p)

		Convey("When evaluating at PV zero", func() {
			res := ev.Evaluate(evaluate.Input{Year: 1968, Records: recs, Stops: set, StopIndex: set.EvenIndex})

			Convey("Then the flagged unit is won by the third party", func() {
				So(outcomes(res)["GA"], ShouldEqual, evaluate.OutcomeThird)
				So(res.Totals.Other, ShouldEqual, 12)
				So(res.StateColors["GA"], ShouldEqual, palette.ThirdParty)
			})
		})

		Convey("When evaluating at either window bound", func() {
			for _, idx := range []int{0, set.Len() - 1} {
				res := ev.Evaluate(evaluate.Input{Year: 1968, Records: recs, Stops: set, StopIndex: idx})
				So(outcomes(res)["GA"], ShouldEqual, evaluate.OutcomeThird)
			}
		})

		Convey("When a scenario lists a third-party unit", func() {
			sc := &model.FlipScenario{Year: 1968, Mode: model.ModeClassic, Units: []model.FlipUnit{{Unit: "GA", VotesToFlip: 5}}}
			res := ev.Evaluate(evaluate.Input{Year: 1968, Records: recs, Stops: set, StopIndex: set.ActualIndex, Scenario: sc})

			Convey("Then the third-party outcome is untouched", func() {
				So(outcomes(res)["GA"], ShouldEqual, evaluate.OutcomeThird)
				So(res.Flip.Units, ShouldBeEmpty)
			})
		})
	})
}
