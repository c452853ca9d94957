package palette_test

import (
	"math"
	"testing"

	palette "github.com/okian/tipping/internal/domain/palette"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMarginColor(t *testing.T) {
	Convey("Given the stepped margin scale", t, func() {
		cases := map[float64]string{
			-0.30:  "#8B0000",
			-0.20:  "#8B0000",
			-0.15:  "#B22222",
			-0.08:  "#CD5C5C",
			-0.02:  "#F08080",
			-0.01:  "#FFC0CB",
			-0.001: "#FFC0CB",
			0:      "#FFFFFF",
			0.001:  "#8AA7BA",
			0.03:   "#87CEFA",
			0.10:   "#6495ED",
			0.15:   "#4169E1",
			0.20:   "#00008B",
			0.45:   "#00008B",
		}
		for m, want := range cases {
			So(palette.MarginColor(m), ShouldEqual, want)
		}

		Convey("Then missing data is drawn dark", func() {
			So(palette.MarginColor(math.NaN()), ShouldEqual, palette.NoData)
		})
	})
}

func TestLean(t *testing.T) {
	Convey("Given margins on both sides", t, func() {
		So(palette.Lean(0.0234), ShouldEqual, "D+2.3")
		So(palette.Lean(-0.1), ShouldEqual, "R+10.0")
		So(palette.Lean(0.000004), ShouldEqual, "EVEN")
		So(palette.Lean(-0.000004), ShouldEqual, "EVEN")
		So(palette.Lean(math.Inf(1)), ShouldEqual, "")
	})
}

func TestColorName(t *testing.T) {
	Convey("Given outcome names", t, func() {
		So(palette.ColorName("first"), ShouldEqual, "BLUE")
		So(palette.ColorName("second"), ShouldEqual, "RED")
		So(palette.ColorName("third"), ShouldEqual, "YELLOW")
		So(palette.ColorCSS("first"), ShouldEqual, "blue")
		So(palette.ColorCSS("second"), ShouldEqual, "red")
		So(palette.ColorCSS("third"), ShouldEqual, "gold")
	})
}
