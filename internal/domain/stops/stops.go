// Package stops derives the national PV-shift values at which some unit's
// projected winner changes, together with the nudged value each stop is
// evaluated at.
package stops

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/palette"
)

// Kind tells why a value is a stop.
type Kind string

// Stop kinds. A value shared by several causes keeps the first kind assigned.
const (
	KindEven        Kind = "even"
	KindActual      Kind = "actual"
	KindFlip        Kind = "flip"
	KindWindowUpper Kind = "window_upper"
	KindWindowLower Kind = "window_lower"
)

// windowNudge is the multiple of epsilon used to land inside a third-party window.
const windowNudge = 2

// maxLabelUnits bounds the unit codes listed in a stop label.
const maxLabelUnits = 3

// Stop is one PV-shift value and the value it is evaluated at.
type Stop struct {
	Value     float64  `json:"value"`
	Effective float64  `json:"effective"`
	Kind      Kind     `json:"kind"`
	Units     []string `json:"units,omitempty"`
}

// Set is a year's stops sorted strictly ascending.
type Set struct {
	Year        int     `json:"year"`
	National    float64 `json:"national"`
	Stops       []Stop  `json:"stops"`
	EvenIndex   int     `json:"even_index"`
	ActualIndex int     `json:"actual_index"`
}

// Deriver computes stop sets under fixed parameters. It is safe for
// concurrent use.
type Deriver struct {
	params Params
}

// NewDeriver creates a deriver with the canonical constants unless overridden.
func NewDeriver(opts ...Option) *Deriver {
	d := &Deriver{params: DefaultParams()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Params returns a copy of the deriver's parameters.
func (d *Deriver) Params() Params {
	p := d.params
	p.Exception.Units = append([]string(nil), p.Exception.Units...)
	return p
}

// Derive is shorthand for NewDeriver(WithParams(p)).Derive(year, records).
func Derive(year int, records []model.Record, p Params) Set {
	return NewDeriver(WithParams(p)).Derive(year, records)
}

// NationalMargin returns the NATIONAL (or NAT) row's national margin, the mean
// national margin of all rows when no such row exists, or 0 for no rows.
func NationalMargin(records []model.Record) float64 {
	for _, r := range records {
		if r.IsNational() {
			return finiteOrZero(r.NationalMargin)
		}
	}
	sum, n := 0.0, 0
	for _, r := range records {
		if isFinite(r.NationalMargin) {
			sum += r.NationalMargin
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Flagged reports whether unit never gets a single-threshold stop in the
// exception year.
func (e Exception) Flagged(unit string) bool {
	st := model.State(unit)
	if st == "" {
		return false
	}
	if e.SplitUnit != "" && st == e.SplitUnit {
		return true
	}
	for _, u := range e.Units {
		if u == st {
			return true
		}
	}
	return false
}

// Window returns the PV bounds between which r's third party holds a
// plurality. ok is false outside the exception year or when the third-party
// share is at most one third.
func (p Params) Window(r model.Record) (lower, upper float64, ok bool) {
	if p.Exception.Year == 0 || r.Year != p.Exception.Year {
		return 0, 0, false
	}
	a := 3*r.ThirdPartyShare - 1
	if !(a > 0) || !isFinite(a) {
		return 0, 0, false
	}
	rm := finiteOrZero(r.RelativeMargin)
	return -rm - a, -rm + a, true
}

// Derive computes the stop set for one year. records should hold only that
// year's rows; the output does not depend on their order.
func (d *Deriver) Derive(year int, records []model.Record) Set {
	p := d.params
	eps := p.Epsilon
	nat := NationalMargin(records)

	b := newBuilder()
	b.add(0, eps, KindEven, "")
	actualIn := len(records) > 0 && math.Abs(nat) <= p.Cap
	if actualIn {
		// Actual is exact, and wins over Even when the national margin is 0.
		b.force(nat, nat, KindActual)
	}

	sorted := append([]model.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Unit < sorted[j].Unit })

	exceptionYear := p.Exception.Year != 0 && year == p.Exception.Year
	for _, r := range sorted {
		if r.IsNational() {
			continue
		}
		lower, upper, windowed := p.Window(r)
		naive := !(exceptionYear && (windowed || p.Exception.Flagged(r.Unit)))
		if v := -finiteOrZero(r.RelativeMargin); naive && math.Abs(v) <= p.Cap {
			b.add(v, v+eps*sign(v-nat), KindFlip, r.Unit)
		}
		if !windowed {
			continue
		}
		if math.Abs(upper) <= p.Cap {
			b.add(upper, upper-windowNudge*eps, KindWindowUpper, r.Unit)
		}
		if math.Abs(lower) <= p.Cap {
			b.add(lower, lower+windowNudge*eps, KindWindowLower, r.Unit)
		}
	}

	set := Set{Year: year, National: nat, Stops: b.sorted(), EvenIndex: -1, ActualIndex: -1}
	for i, s := range set.Stops {
		if s.Value == 0 {
			set.EvenIndex = i
		}
		if actualIn && s.Value == nat {
			set.ActualIndex = i
		}
	}
	return set
}

// Len returns the number of stops.
func (s Set) Len() int { return len(s.Stops) }

// At returns the stop at index i.
func (s Set) At(i int) (Stop, bool) {
	if i < 0 || i >= len(s.Stops) {
		return Stop{}, false
	}
	return s.Stops[i], true
}

// Values returns the stop values in ascending order.
func (s Set) Values() []float64 {
	out := make([]float64, len(s.Stops))
	for i, st := range s.Stops {
		out[i] = st.Value
	}
	return out
}

// Effective returns the evaluation value for an exact stop value.
func (s Set) Effective(v float64) (float64, bool) {
	if i := s.IndexOf(v); i >= 0 {
		return s.Stops[i].Effective, true
	}
	return 0, false
}

// EffectiveByValue returns the stop-to-effective map.
func (s Set) EffectiveByValue() map[float64]float64 {
	out := make(map[float64]float64, len(s.Stops))
	for _, st := range s.Stops {
		out[st.Value] = st.Effective
	}
	return out
}

// IndexOf returns the index of the exact value v, or -1.
func (s Set) IndexOf(v float64) int {
	i := sort.SearchFloat64s(s.Values(), v)
	if i < len(s.Stops) && s.Stops[i].Value == v {
		return i
	}
	return -1
}

// DefaultIndex is the stop selected when a year is entered: Actual, else
// Even, else the first stop.
func (s Set) DefaultIndex() int {
	if s.ActualIndex >= 0 {
		return s.ActualIndex
	}
	if s.EvenIndex >= 0 {
		return s.EvenIndex
	}
	return 0
}

// Clamp forces i into the valid index range.
func (s Set) Clamp(i int) int {
	if i < 0 || len(s.Stops) == 0 {
		return 0
	}
	if i >= len(s.Stops) {
		return len(s.Stops) - 1
	}
	return i
}

// IsActual reports whether index i is the Actual stop.
func (s Set) IsActual(i int) bool {
	return s.ActualIndex >= 0 && i == s.ActualIndex
}

// Label renders the chip text for stop i.
func (s Set) Label(i int) string {
	st, ok := s.At(i)
	if !ok {
		return ""
	}
	if i == s.ActualIndex {
		return palette.Lean(st.Value) + " Actual"
	}
	if i == s.EvenIndex {
		return "EVEN"
	}
	base := palette.Lean(st.Value)
	if len(st.Units) == 0 {
		return base
	}
	units := st.Units
	if len(units) > maxLabelUnits {
		units = units[:maxLabelUnits]
	}
	short := make([]string, len(units))
	for j, u := range units {
		if len(u) > 5 {
			u = u[:5]
		}
		short[j] = u
	}
	return base + " " + strings.Join(short, ",")
}

type builder struct {
	order []float64
	byVal map[float64]*Stop
}

func newBuilder() *builder {
	return &builder{byVal: make(map[float64]*Stop)}
}

// add records v, keeping any effective value and kind already assigned.
func (b *builder) add(v, eff float64, kind Kind, unit string) {
	st, ok := b.byVal[v]
	if !ok {
		st = &Stop{Value: v, Effective: eff, Kind: kind}
		b.byVal[v] = st
		b.order = append(b.order, v)
	}
	if unit != "" {
		st.Units = append(st.Units, unit)
	}
}

func (b *builder) force(v, eff float64, kind Kind) {
	b.add(v, eff, kind, "")
	st := b.byVal[v]
	st.Effective = eff
	st.Kind = kind
}

func (b *builder) sorted() []Stop {
	vals := append([]float64(nil), b.order...)
	sort.Float64s(vals)
	out := make([]Stop, len(vals))
	for i, v := range vals {
		out[i] = *b.byVal[v]
	}
	return out
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func finiteOrZero(x float64) float64 {
	if !isFinite(x) {
		return 0
	}
	return x
}
