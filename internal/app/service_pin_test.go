package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tipping/internal/domain/selection"
)

func TestPinnedStateSurvivesReload(t *testing.T) {
	Convey("Given a service pinned to its first dataset", t, func() {
		dir := t.TempDir()
		body, err := os.ReadFile(filepath.Join("testdata", "presidential_margins.csv"))
		So(err, ShouldBeNil)
		margins := filepath.Join(dir, "presidential_margins.csv")
		So(os.WriteFile(margins, body, 0o600), ShouldBeNil)

		svc := New(WithDataDir(dir))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		p := svc.pin()
		So(p.Years(), ShouldResemble, []int{1996, 2000})

		Convey("When the dataset is replaced by another year", func() {
			next := "year,abbr,relative_margin,national_margin,electoral_votes,third_party_share,D_votes,R_votes,T_votes,total_votes\n" +
				"2004,NATIONAL,0,-0.024,0,0.01,59028444,62040610,1200000,122269054\n" +
				"2004,OH,0.003,-0.024,20,0.01,2741167,2859768,30000,5630935\n"
			So(os.WriteFile(margins, []byte(next), 0o600), ShouldBeNil)
			So(svc.Reload(context.Background()), ShouldBeNil)

			Convey("Then the service sees only the new year", func() {
				So(svc.Years(), ShouldResemble, []int{2004})
				So(svc.StopSet(2000).Len(), ShouldEqual, 1)
			})

			Convey("And the pinned state still pairs old records with old stops", func() {
				set := p.StopSet(2000)
				So(set.Len(), ShouldEqual, 7)
				res := svc.evaluate(p, selection.Selection{Year: 2000, StopIndex: set.ActualIndex})
				So(res.Actual, ShouldBeTrue)
				So(res.Units, ShouldNotBeEmpty)
				So(res.Totals.First+res.Totals.Second+res.Totals.Other, ShouldEqual, 165)
			})
		})
	})
}
