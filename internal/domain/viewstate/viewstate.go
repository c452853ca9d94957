// Package viewstate encodes the whole viewer state in URL query parameters so
// a shared link reproduces a view exactly.
package viewstate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/selection"
)

// Query keys.
const (
	KeyYear      = "year"
	KeyPV        = "pv"
	KeyFlip      = "flip"
	KeyStates    = "states"
	KeyChart     = "chart"
	KeyMetric    = "metric"
	KeyRelative  = "relative"
	KeyDelta     = "delta"
	KeyTwoParty  = "twoParty"
	KeyOverlay   = "overlay"
	KeyPoints    = "points"
	KeyYearStart = "yearStart"
	KeyYearEnd   = "yearEnd"
)

// Chart is the trend chart kind.
type Chart string

// Chart kinds. Auto picks bars for relative or delta series and lines
// otherwise.
const (
	ChartAuto Chart = "auto"
	ChartLine Chart = "line"
	ChartBar  Chart = "bar"
)

// Metric is the trend metric family.
type Metric string

// Metrics.
const (
	MetricMargin     Metric = "margin"
	MetricThirdParty Metric = "thirdParty"
)

// DefaultYearStart is the first year shown in trend charts.
const DefaultYearStart = 1968

// State is everything a shareable URL carries. Year 0 and PV -1 mean unset.
type State struct {
	Year      int
	PV        int
	Flip      model.Mode
	States    []string
	Chart     Chart
	Metric    Metric
	Relative  bool
	Delta     bool
	TwoParty  bool
	Overlay   bool
	Points    bool
	YearStart int
	YearEnd   int
}

// Defaults returns the state used for keys absent from a query.
func Defaults(yearEnd int) State {
	return State{
		PV:        -1,
		Chart:     ChartAuto,
		Metric:    MetricMargin,
		Relative:  true,
		Overlay:   true,
		YearStart: DefaultYearStart,
		YearEnd:   yearEnd,
	}
}

// Parse reads q over def. Malformed values are errors; absent keys keep def.
func Parse(q url.Values, def State) (State, error) {
	s := def
	s.States = append([]string(nil), def.States...)

	var err error
	if s.Year, err = intParam(q, KeyYear, s.Year); err != nil {
		return State{}, err
	}
	if s.PV, err = intParam(q, KeyPV, s.PV); err != nil {
		return State{}, err
	}
	if s.YearStart, err = intParam(q, KeyYearStart, s.YearStart); err != nil {
		return State{}, err
	}
	if s.YearEnd, err = intParam(q, KeyYearEnd, s.YearEnd); err != nil {
		return State{}, err
	}
	if v := q.Get(KeyFlip); v != "" {
		if s.Flip, err = model.ParseMode(v); err != nil {
			return State{}, fmt.Errorf("%w: %s: %w", ErrInvalidParam, KeyFlip, err)
		}
	}
	if v := q.Get(KeyChart); v != "" {
		switch Chart(v) {
		case ChartAuto, ChartLine, ChartBar:
			s.Chart = Chart(v)
		default:
			return State{}, fmt.Errorf("%w: %s=%q", ErrInvalidParam, KeyChart, v)
		}
	}
	if v := q.Get(KeyMetric); v != "" {
		switch Metric(v) {
		case MetricMargin, MetricThirdParty:
			s.Metric = Metric(v)
		default:
			return State{}, fmt.Errorf("%w: %s=%q", ErrInvalidParam, KeyMetric, v)
		}
	}
	flags := []struct {
		key string
		dst *bool
	}{
		{KeyRelative, &s.Relative},
		{KeyDelta, &s.Delta},
		{KeyTwoParty, &s.TwoParty},
		{KeyOverlay, &s.Overlay},
		{KeyPoints, &s.Points},
	}
	for _, f := range flags {
		if *f.dst, err = boolParam(q, f.key, *f.dst); err != nil {
			return State{}, err
		}
	}
	if q.Has(KeyStates) {
		s.States = splitStates(q.Get(KeyStates))
	}
	return s, nil
}

// Encode writes s as query parameters. Unset year, stop and scenario are
// omitted; flags are always written so they survive non-default defaults.
func (s State) Encode() url.Values {
	q := url.Values{}
	if s.Year != 0 {
		q.Set(KeyYear, strconv.Itoa(s.Year))
	}
	if s.PV >= 0 {
		q.Set(KeyPV, strconv.Itoa(s.PV))
	}
	if s.Flip != "" {
		q.Set(KeyFlip, string(s.Flip))
	}
	if len(s.States) > 0 {
		q.Set(KeyStates, strings.Join(s.States, ","))
	}
	q.Set(KeyChart, string(s.Chart))
	q.Set(KeyMetric, string(s.Metric))
	q.Set(KeyRelative, bit(s.Relative))
	q.Set(KeyDelta, bit(s.Delta))
	q.Set(KeyTwoParty, bit(s.TwoParty))
	q.Set(KeyOverlay, bit(s.Overlay))
	q.Set(KeyPoints, bit(s.Points))
	q.Set(KeyYearStart, strconv.Itoa(s.YearStart))
	q.Set(KeyYearEnd, strconv.Itoa(s.YearEnd))
	return q
}

// Selection extracts the map selection.
func (s State) Selection() selection.Selection {
	sel := selection.Selection{Year: s.Year, StopIndex: s.PV}
	if s.Flip != "" {
		sel.Scenario = &selection.ScenarioRef{Year: s.Year, Mode: s.Flip}
	}
	return sel
}

// WithSelection returns s with the map selection replaced.
func (s State) WithSelection(sel selection.Selection) State {
	s.Year = sel.Year
	s.PV = sel.StopIndex
	s.Flip = sel.Mode()
	return s
}

func intParam(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, key, v)
	}
	return n, nil
}

func boolParam(q url.Values, key string, def bool) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrInvalidParam, key, v)
	}
	return b, nil
}

func splitStates(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
