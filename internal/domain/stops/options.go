package stops

import "github.com/okian/tipping/internal/domain/model"

// Default historical exception: the 1968 third-party plurality year.
const (
	DefaultExceptionYear      = 1968
	DefaultExceptionSplitUnit = "TN"
)

// DefaultExceptionUnits are the states flagged for the exception year.
var DefaultExceptionUnits = []string{"GA", "LA", "AL", "MS", "AR"}

// Exception describes the one year whose units may be won by a third party.
type Exception struct {
	Year      int
	Units     []string
	SplitUnit string
}

// Params holds the tunable constants used by the deriver and evaluator.
type Params struct {
	Cap       float64
	Epsilon   float64
	Exception Exception
}

// DefaultParams returns the canonical constants.
func DefaultParams() Params {
	return Params{
		Cap:     model.DefaultPVCap,
		Epsilon: model.DefaultEpsilon,
		Exception: Exception{
			Year:      DefaultExceptionYear,
			Units:     append([]string(nil), DefaultExceptionUnits...),
			SplitUnit: DefaultExceptionSplitUnit,
		},
	}
}

// Option applies a configuration option to the Deriver.
type Option func(*Deriver)

// WithCap sets the maximum absolute PV shift considered.
func WithCap(c float64) Option {
	return func(d *Deriver) {
		if c > 0 {
			d.params.Cap = c
		}
	}
}

// WithEpsilon sets the tie tolerance.
func WithEpsilon(eps float64) Option {
	return func(d *Deriver) {
		if eps > 0 {
			d.params.Epsilon = eps
		}
	}
}

// WithException replaces the historical exception. A zero year disables it.
func WithException(year int, units []string, splitUnit string) Option {
	return func(d *Deriver) {
		d.params.Exception = Exception{
			Year:      year,
			Units:     append([]string(nil), units...),
			SplitUnit: splitUnit,
		}
	}
}

// WithParams replaces all parameters at once.
func WithParams(p Params) Option {
	return func(d *Deriver) {
		if p.Cap > 0 {
			d.params.Cap = p.Cap
		}
		if p.Epsilon > 0 {
			d.params.Epsilon = p.Epsilon
		}
		d.params.Exception = p.Exception
	}
}
