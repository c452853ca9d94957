// Package trends builds per-unit time series for the trend charts.
package trends

import (
	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/viewstate"
)

// Source gives read access to records by year.
type Source interface {
	Years() []int
	Records(year int) []model.Record
}

// Request selects units, a metric and its modifiers.
type Request struct {
	Units     []string
	Metric    viewstate.Metric
	Relative  bool
	Delta     bool
	TwoParty  bool
	Overlay   bool
	Chart     viewstate.Chart
	Points    bool
	YearStart int
	YearEnd   int
}

// RequestFromState copies the trend fields of a view state.
func RequestFromState(s viewstate.State) Request {
	return Request{
		Units:     s.States,
		Metric:    s.Metric,
		Relative:  s.Relative,
		Delta:     s.Delta,
		TwoParty:  s.TwoParty,
		Overlay:   s.Overlay,
		Chart:     s.Chart,
		Points:    s.Points,
		YearStart: s.YearStart,
		YearEnd:   s.YearEnd,
	}
}

// Point is one year's value.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Series is one unit's points in year order.
type Series struct {
	Unit   string  `json:"unit"`
	Points []Point `json:"points"`
}

// Result holds the requested series and, when applicable, the national overlay.
type Result struct {
	Description string   `json:"description"`
	Chart       string   `json:"chart"`
	Markers     bool     `json:"markers"`
	Series      []Series `json:"series"`
	National    *Series  `json:"national,omitempty"`
}

// measure picks a unit's raw value and, when it exists, the national one.
type measure struct {
	desc     string
	unit     func(r model.Record, nat model.Record) float64
	national func(nat model.Record) float64
}

func pickMeasure(req Request) measure {
	if req.Metric == viewstate.MetricThirdParty {
		if req.Relative {
			return measure{
				desc: "State third-party share minus national.",
				unit: func(r, nat model.Record) float64 { return r.ThirdPartyShare - thirdShare(nat) },
			}
		}
		return measure{
			desc:     "Share of all votes for third-party candidates.",
			unit:     func(r, _ model.Record) float64 { return r.ThirdPartyShare },
			national: thirdShare,
		}
	}
	if req.TwoParty {
		if req.Relative {
			return measure{
				desc: "Two-party margin, state minus national.",
				unit: func(r, nat model.Record) float64 { return twoParty(r) - twoParty(nat) },
			}
		}
		return measure{
			desc:     "Two-party margin (excludes third-party votes).",
			unit:     func(r, _ model.Record) float64 { return twoParty(r) },
			national: twoParty,
		}
	}
	if req.Relative {
		return measure{
			desc: "State minus national.",
			unit: func(r, _ model.Record) float64 { return r.RelativeMargin },
		}
	}
	return measure{
		desc:     "Dem minus Rep vote share.",
		unit:     func(r, _ model.Record) float64 { return r.RelativeMargin + r.NationalMargin },
		national: func(nat model.Record) float64 { return nat.NationalMargin },
	}
}

// Build computes the series for req. Units with no data produce empty series.
func Build(src Source, req Request) Result {
	m := pickMeasure(req)
	res := Result{Description: m.desc, Chart: string(chartKind(req)), Markers: req.Points}
	if req.Delta {
		res.Description = "Cycle-over-cycle change: " + m.desc
	}

	type row struct {
		year int
		byU  map[string]model.Record
		nat  model.Record
	}
	var rows []row
	for _, y := range src.Years() {
		if (req.YearStart != 0 && y < req.YearStart) || (req.YearEnd != 0 && y > req.YearEnd) {
			continue
		}
		rw := row{year: y, byU: make(map[string]model.Record)}
		recs := src.Records(y)
		for _, r := range recs {
			rw.byU[r.Unit] = r
			if r.IsNational() {
				rw.nat = r
			}
		}
		if !rw.nat.IsNational() {
			rw.nat = syntheticNational(y, recs)
		}
		rows = append(rows, rw)
	}

	for _, u := range req.Units {
		s := Series{Unit: u, Points: []Point{}}
		var prev float64
		havePrev := false
		for _, rw := range rows {
			r, ok := rw.byU[u]
			if !ok {
				continue
			}
			v := m.unit(r, rw.nat)
			out := v
			if req.Delta {
				out = 0
				if havePrev {
					out = v - prev
				}
			}
			prev, havePrev = v, true
			s.Points = append(s.Points, Point{Year: rw.year, Value: out})
		}
		res.Series = append(res.Series, s)
	}

	if req.Overlay && m.national != nil {
		nat := &Series{Unit: model.UnitNational, Points: []Point{}}
		var prev float64
		for i, rw := range rows {
			v := m.national(rw.nat)
			out := v
			if req.Delta {
				out = 0
				if i > 0 {
					out = v - prev
				}
			}
			prev = v
			nat.Points = append(nat.Points, Point{Year: rw.year, Value: out})
		}
		res.National = nat
	}
	return res
}

// chartKind returns the requested chart, or for auto and unset the kind that
// suits the series: bars for relative or delta values, lines otherwise.
func chartKind(req Request) viewstate.Chart {
	switch req.Chart {
	case viewstate.ChartLine, viewstate.ChartBar:
		return req.Chart
	}
	if req.Delta || req.Relative {
		return viewstate.ChartBar
	}
	return viewstate.ChartLine
}

// syntheticNational sums unit votes when a year has no national row.
// Sub-districts are skipped.
func syntheticNational(year int, recs []model.Record) model.Record {
	n := model.Record{Year: year, Unit: model.UnitNational}
	count := 0
	for _, r := range recs {
		n.NationalMargin += r.NationalMargin
		count++
		if model.IsSubDistrict(r.Unit) {
			continue
		}
		n.DemVotes += r.DemVotes
		n.RepVotes += r.RepVotes
		n.ThirdVotes += r.ThirdVotes
		n.TotalVotes += r.TotalVotes
	}
	if count > 0 {
		n.NationalMargin /= float64(count)
	}
	if n.TotalVotes > 0 {
		n.ThirdPartyShare = n.ThirdVotes / n.TotalVotes
	}
	return n
}

func twoParty(r model.Record) float64 {
	if d := r.DemVotes + r.RepVotes; d > 0 {
		return (r.DemVotes - r.RepVotes) / d
	}
	return 0
}

func thirdShare(r model.Record) float64 {
	if r.ThirdPartyShare > 0 {
		return r.ThirdPartyShare
	}
	if r.TotalVotes > 0 {
		return r.ThirdVotes / r.TotalVotes
	}
	return 0
}
