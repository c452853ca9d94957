// Package palette maps margins to display colors and lean labels.
package palette

import (
	"fmt"
	"math"
)

// Fixed colors outside the stepped margin scale.
const (
	ThirdParty    = "#FFD700"
	FlippedFirst  = "#0000FF"
	FlippedSecond = "#FF0000"
	NoData        = "#2F2F2F"
	Even          = "#FFFFFF"
)

// evenBand is the magnitude below which a lean prints as EVEN.
const evenBand = 0.000005

// step is one band of the stepped scale: margins at or below upper (or
// strictly below, when strict) take color.
type step struct {
	upper  float64
	strict bool
	color  string
}

// scale runs from strong second party (negative) to strong first party.
var scale = []step{
	{upper: -0.20, color: "#8B0000"},
	{upper: -0.12, color: "#B22222"},
	{upper: -0.06, color: "#CD5C5C"},
	{upper: -0.01, strict: true, color: "#F08080"},
	{upper: 0, strict: true, color: "#FFC0CB"},
	{upper: 0, color: Even},
	{upper: 0.01, strict: true, color: "#8AA7BA"},
	{upper: 0.06, strict: true, color: "#87CEFA"},
	{upper: 0.12, strict: true, color: "#6495ED"},
	{upper: 0.20, strict: true, color: "#4169E1"},
}

// MarginColor returns the map color for an adjusted margin.
func MarginColor(m float64) string {
	if math.IsNaN(m) {
		return NoData
	}
	for _, s := range scale {
		if s.strict && m < s.upper {
			return s.color
		}
		if !s.strict && m <= s.upper {
			return s.color
		}
	}
	return "#00008B"
}

// Lean formats a margin as D+x.x, R+x.x, or EVEN.
func Lean(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ""
	}
	if math.Abs(x) < evenBand {
		return "EVEN"
	}
	prefix := "D+"
	if x < 0 {
		prefix = "R+"
	}
	return fmt.Sprintf("%s%.1f", prefix, math.Abs(x)*100)
}

// ColorName returns the coarse color bucket used in exported stop tables.
func ColorName(outcome string) string {
	switch outcome {
	case "first":
		return "BLUE"
	case "second":
		return "RED"
	default:
		return "YELLOW"
	}
}

// ColorCSS returns the CSS color name paired with ColorName.
func ColorCSS(outcome string) string {
	switch outcome {
	case "first":
		return "blue"
	case "second":
		return "red"
	default:
		return "gold"
	}
}
