package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/tipping/internal/adapters/http/api"
	repository "github.com/okian/tipping/internal/adapters/repository"
	service "github.com/okian/tipping/internal/app"
	"github.com/okian/tipping/internal/domain/evaluate"
	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/stops"
	"github.com/okian/tipping/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleData = "../app/testdata"

func init() {
	_ = logger.Init()
}

// run executes tippingctl with args and returns its standard output.
func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestStopsCommand(t *testing.T) {
	Convey("Given the sample dataset", t, func() {
		Convey("When listing the stops of 2000 as a table", func() {
			out, err := run("stops", "--data", sampleData, "--year", "2000")

			Convey("Then every stop is printed with Even and Actual labels", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Stops for 2000")
				So(out, ShouldContainSubstring, "EVEN")
				So(out, ShouldContainSubstring, "D+0.5 Actual")
				So(strings.Count(out, "\n"), ShouldEqual, 10)
			})
		})

		Convey("When listing the latest year as JSON", func() {
			out, err := run("stops", "--data", sampleData, "--json")
			So(err, ShouldBeNil)

			var set stops.Set
			So(json.Unmarshal([]byte(out), &set), ShouldBeNil)

			Convey("Then the stop set decodes", func() {
				So(set.Year, ShouldEqual, 2000)
				So(set.EvenIndex, ShouldEqual, 2)
				So(set.ActualIndex, ShouldEqual, 3)
				So(set.Stops, ShouldHaveLength, 7)
			})
		})

		Convey("When asking for a year that is not loaded", func() {
			_, err := run("stops", "--data", sampleData, "--year", "1900")

			Convey("Then the command fails", func() {
				So(errors.Is(err, ErrUnknownYear), ShouldBeTrue)
			})
		})
	})

	Convey("Given a directory without a dataset", t, func() {
		_, err := run("stops", "--data", t.TempDir())

		Convey("Then the load error is returned", func() {
			So(errors.Is(err, repository.ErrMarginsMissing), ShouldBeTrue)
		})
	})
}

func TestEvaluateCommand(t *testing.T) {
	Convey("Given the sample dataset", t, func() {
		Convey("When evaluating 2000 at its default stop", func() {
			out, err := run("evaluate", "--data", sampleData, "--year", "2000")

			Convey("Then the table ends with the Actual totals", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "UNIT")
				So(out, ShouldContainSubstring, "Totals: first 87, second 78, other 0")
			})
		})

		Convey("When applying the classic scenario from Even", func() {
			out, err := run("evaluate", "--data", sampleData, "--year", "2000", "--pv", "2", "--flip", "classic", "--json")
			So(err, ShouldBeNil)

			var res evaluate.Result
			So(json.Unmarshal([]byte(out), &res), ShouldBeNil)

			Convey("Then the stop moves to Actual and the flip is summarized", func() {
				So(res.Actual, ShouldBeTrue)
				So(res.StopIndex, ShouldEqual, 3)
				So(res.Flip, ShouldNotBeNil)
				So(res.Flip.Mode, ShouldEqual, model.ModeClassic)
			})
		})

		Convey("When the flip mode is unknown", func() {
			_, err := run("evaluate", "--data", sampleData, "--flip", "sideways")

			Convey("Then the command fails", func() {
				So(errors.Is(err, model.ErrUnknownMode), ShouldBeTrue)
			})
		})
	})
}

func TestExportCommands(t *testing.T) {
	Convey("Given the sample dataset and an output directory", t, func() {
		dir := t.TempDir()

		Convey("When exporting stop colors", func() {
			path := filepath.Join(dir, "docs", "stop_colors.csv")
			out, err := run("export-stops", "--data", sampleData, "--out", path)
			So(err, ShouldBeNil)
			rows := readCSV(t, path)

			Convey("Then every unit of every stop has a row", func() {
				So(out, ShouldContainSubstring, "Wrote 38 rows")
				So(rows[0], ShouldResemble, stopColorsHeader)
				So(rows, ShouldHaveLength, 39)
			})

			Convey("And the Actual stop keeps the stored winners", func() {
				var found bool
				for _, r := range rows[1:] {
					if r[0] == "2000" && r[2] == "0.005000" && r[4] == "FL" {
						found = true
						So(r[5:], ShouldResemble, []string{"R", "RED", "red"})
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When building flip files", func() {
			summary := filepath.Join(dir, "flip_results.csv")
			details := filepath.Join(dir, "flip_details.csv")
			out, err := run("build-flips", "--data", sampleData, "--summary", summary, "--details", details)
			So(err, ShouldBeNil)

			Convey("Then the summary has one row per year", func() {
				So(out, ShouldContainSubstring, "(2 years)")
				rows := readCSV(t, summary)
				So(rows, ShouldHaveLength, 3)
				So(rows[0], ShouldResemble, flipSummaryHeader)
				So(rows[2][0], ShouldEqual, "2000")
			})

			Convey("And the details load back as the viewer's flip file", func() {
				snap, err := repository.LoadSnapshot(context.Background(), repository.Files{
					Margins: filepath.Join(sampleData, repository.DefaultMarginsFile),
					Flips:   details,
				}, false)
				So(err, ShouldBeNil)
				sc, ok := snap.Scenario(2000, model.ModeClassic)
				So(ok, ShouldBeTrue)
				So(sc.Units, ShouldNotBeEmpty)
			})
		})
	})
}

func TestSweepCommand(t *testing.T) {
	Convey("Given a running viewer", t, func() {
		svc := service.New(service.WithDataDir(sampleData))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When sweeping it", func() {
			out, err := run("sweep", "--url", srv.URL, "--workers", "2", "--run-id", "cli-run")

			Convey("Then the summary reports no failures", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Run cli-run: 2 years, 10 stops")
				So(out, ShouldContainSubstring, ", 0 failed")
			})
		})
	})
}
