package stops_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/tipping/internal/domain/model"
	stops "github.com/okian/tipping/internal/domain/stops"
	. "github.com/smartystreets/goconvey/convey"
)

const eps = model.DefaultEpsilon

func rec(year int, unit string, rm, nat, tp float64) model.Record {
	return model.Record{
		Year:            year,
		Unit:            unit,
		RelativeMargin:  rm,
		NationalMargin:  nat,
		ThirdPartyShare: tp,
		ElectoralVotes:  10,
	}
}

func ordinaryYear() []model.Record {
	return []model.Record{
		rec(2000, "NATIONAL", 0, 0.005, 0),
		rec(2000, "OH", 0.02, 0.005, 0),
		rec(2000, "FL", -0.03, 0.005, 0),
		rec(2000, "UT", 0.3, 0.005, 0),
		rec(2000, "PA", 0.02, 0.005, 0),
	}
}

func TestDerive(t *testing.T) {
	Convey("Given an ordinary year", t, func() {
		d := stops.NewDeriver()
		set := d.Derive(2000, ordinaryYear())

		Convey("Then the stops include 0, the national margin and each in-cap threshold", func() {
			So(set.Values(), ShouldResemble, []float64{-0.02, 0, 0.005, 0.03})
			So(set.National, ShouldEqual, 0.005)
			So(set.EvenIndex, ShouldEqual, 1)
			So(set.ActualIndex, ShouldEqual, 2)
		})

		Convey("Then stops are strictly ascending", func() {
			vals := set.Values()
			for i := 1; i < len(vals); i++ {
				So(vals[i], ShouldBeGreaterThan, vals[i-1])
			}
		})

		Convey("Then effective values are nudged away from the national margin", func() {
			eff := set.EffectiveByValue()
			So(eff[0], ShouldEqual, 0+eps)
			So(eff[0.005], ShouldEqual, 0.005)
			So(eff[-0.02], ShouldEqual, -0.02-eps)
			So(eff[0.03], ShouldEqual, 0.03+eps)
		})

		Convey("Then a shared threshold lists every unit in code order", func() {
			st, ok := set.At(0)
			So(ok, ShouldBeTrue)
			So(st.Units, ShouldResemble, []string{"OH", "PA"})
			So(st.Kind, ShouldEqual, stops.KindFlip)
		})

		Convey("Then labels follow the chip rules", func() {
			So(set.Label(set.EvenIndex), ShouldEqual, "EVEN")
			So(set.Label(set.ActualIndex), ShouldEqual, "D+0.5 Actual")
			So(set.Label(0), ShouldEqual, "R+2.0 OH,PA")
		})

		Convey("Then deriving again, in any record order, is identical", func() {
			again := d.Derive(2000, ordinaryYear())
			So(cmp.Diff(set, again), ShouldBeEmpty)

			recs := ordinaryYear()
			for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
				recs[i], recs[j] = recs[j], recs[i]
			}
			So(cmp.Diff(set, d.Derive(2000, recs)), ShouldBeEmpty)
		})
	})

	Convey("Given a year whose national margin is 0", t, func() {
		recs := []model.Record{rec(2004, "NAT", 0, 0, 0), rec(2004, "NV", 0.01, 0, 0)}
		set := stops.NewDeriver().Derive(2004, recs)

		Convey("Then Even and Actual share the stop and the effective value is exact", func() {
			So(set.EvenIndex, ShouldEqual, set.ActualIndex)
			eff, ok := set.Effective(0)
			So(ok, ShouldBeTrue)
			So(eff, ShouldEqual, 0)
		})
	})

	Convey("Given a year with a national margin beyond the cap", t, func() {
		recs := []model.Record{rec(1936, "NATIONAL", 0, 0.24, 0), rec(1936, "ME", -0.3, 0.24, 0)}
		set := stops.NewDeriver(stops.WithCap(0.2)).Derive(1936, recs)

		Convey("Then there is no Actual stop and the default is Even", func() {
			So(set.ActualIndex, ShouldEqual, -1)
			So(set.Values(), ShouldResemble, []float64{0})
			So(set.DefaultIndex(), ShouldEqual, set.EvenIndex)
		})
	})

	Convey("Given a year with no records", t, func() {
		set := stops.NewDeriver().Derive(1700, nil)

		Convey("Then only the Even stop exists", func() {
			So(set.Values(), ShouldResemble, []float64{0})
			So(set.ActualIndex, ShouldEqual, -1)
			So(set.EvenIndex, ShouldEqual, 0)
			So(set.National, ShouldEqual, 0)
		})
	})
}

func TestDeriveExceptionYear(t *testing.T) {
	recs := []model.Record{
		rec(1968, "NATIONAL", 0, -0.007, 0),
		rec(1968, "GA", 0.05, -0.007, 0.4),
		rec(1968, "TN", 0.04, -0.007, 0.2),
		rec(1968, "NY", 0.02, -0.007, 0.1),
	}

	Convey("Given the exception year and a wide cap", t, func() {
		set := stops.NewDeriver(stops.WithCap(0.6)).Derive(1968, recs)

		Convey("Then the flagged unit contributes both window bounds and no naive stop", func() {
			So(set.IndexOf(-0.05), ShouldEqual, -1)
			vals := set.Values()
			So(len(vals), ShouldEqual, 5)
			So(vals[0], ShouldAlmostEqual, -0.25, 1e-9)
			So(vals[4], ShouldAlmostEqual, 0.15, 1e-9)
		})

		Convey("Then window bounds are nudged two epsilons inside", func() {
			lower, _ := set.At(0)
			upper, _ := set.At(4)
			So(lower.Kind, ShouldEqual, stops.KindWindowLower)
			So(upper.Kind, ShouldEqual, stops.KindWindowUpper)
			So(lower.Effective, ShouldAlmostEqual, lower.Value+2*eps, 1e-12)
			So(upper.Effective, ShouldAlmostEqual, upper.Value-2*eps, 1e-12)
		})

		Convey("Then the split-electorate unit adds nothing and ordinary units keep their naive stop", func() {
			So(set.IndexOf(-0.04), ShouldEqual, -1)
			So(set.IndexOf(-0.02), ShouldBeGreaterThanOrEqualTo, 0)
		})
	})

	Convey("Given the exception year and the default cap", t, func() {
		set := stops.NewDeriver().Derive(1968, recs)

		Convey("Then a lower bound past the cap is clipped", func() {
			vals := set.Values()
			So(vals[0], ShouldEqual, -0.02)
			So(vals[len(vals)-1], ShouldAlmostEqual, 0.15, 1e-9)
		})
	})

	Convey("Given the exception disabled", t, func() {
		set := stops.NewDeriver(stops.WithException(0, nil, "")).Derive(1968, recs)

		Convey("Then every unit gets its naive stop", func() {
			So(set.IndexOf(-0.05), ShouldBeGreaterThanOrEqualTo, 0)
			So(set.IndexOf(-0.04), ShouldBeGreaterThanOrEqualTo, 0)
		})
	})
}

func TestNationalMargin(t *testing.T) {
	Convey("Given records without a national row", t, func() {
		recs := []model.Record{rec(1990, "AA", 0, 0.02, 0), rec(1990, "BB", 0, 0.04, 0)}

		Convey("Then the mean national margin is used", func() {
			So(stops.NationalMargin(recs), ShouldAlmostEqual, 0.03, 1e-12)
		})
	})

	Convey("Given no records", t, func() {
		So(stops.NationalMargin(nil), ShouldEqual, 0)
	})
}

func TestSetHelpers(t *testing.T) {
	Convey("Given a derived set", t, func() {
		set := stops.NewDeriver().Derive(2000, ordinaryYear())

		Convey("Then Clamp keeps indexes in range", func() {
			So(set.Clamp(-3), ShouldEqual, 0)
			So(set.Clamp(99), ShouldEqual, set.Len()-1)
			So(set.Clamp(1), ShouldEqual, 1)
		})

		Convey("Then unknown values have no effective value", func() {
			_, ok := set.Effective(0.123)
			So(ok, ShouldBeFalse)
			_, ok = set.At(42)
			So(ok, ShouldBeFalse)
		})

		Convey("Then Params returns an independent copy", func() {
			d := stops.NewDeriver()
			p := d.Params()
			p.Exception.Units[0] = "ZZ"
			So(d.Params().Exception.Units[0], ShouldEqual, "GA")
		})
	})
}
