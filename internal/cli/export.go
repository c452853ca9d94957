package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	service "github.com/okian/tipping/internal/app"
	"github.com/okian/tipping/internal/domain/evaluate"
	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/palette"
	"github.com/okian/tipping/internal/domain/selection"
)

const (
	directoryPermission = 0o750
	stopKeyPrecision    = 6
)

var stopColorsHeader = []string{"year", "stop", "stop_key", "effective_pv", "unit", "winner", "result_color_name", "color_css"}

var flipSummaryHeader = []string{
	"year", "winner_party", "winner_ev", "runner_party", "runner_ev", "need",
	"classic_min_votes", "classic_ev", "classic_states",
	"no_majority_min_votes", "no_majority_ev", "no_majority_states", "total_ev",
}

var flipDetailsHeader = []string{"year", "mode", "abbr", "ev", "votes_to_flip", "pct_of_state_votes"}

func newExportStopsCmd(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-stops",
		Short: "Write the per-stop unit color table",
		Long: `Evaluate every unit at every stop of every year and write one CSV row
per (year, stop, unit) with the winning party and its color.

Examples:
  tippingctl export-stops
  tippingctl export-stops --out docs/stop_colors.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := g.openService(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := writeCSV(out, stopColorsHeader, func(w *csv.Writer) (int, error) {
				return writeStopColors(cmd.Context(), svc, w)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", rows, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "stop_colors.csv", "output file")
	return cmd
}

func newBuildFlipsCmd(g *globals) *cobra.Command {
	var summary, details string
	cmd := &cobra.Command{
		Use:   "build-flips",
		Short: "Compute the minimum-vote flip scenarios of every year",
		Long: `Solve the classic and no-majority flip scenarios of every year and write
a per-year summary and the per-unit details. The details file can be used
as the viewer's flip file.

Examples:
  tippingctl build-flips
  tippingctl build-flips --summary out/flip_results.csv --details data/flip_details.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := g.openService(cmd.Context())
			if err != nil {
				return err
			}
			years, err := writeCSV(summary, flipSummaryHeader, func(w *csv.Writer) (int, error) {
				return writeFlipSummary(cmd.Context(), svc, w)
			})
			if err != nil {
				return err
			}
			rows, err := writeCSV(details, flipDetailsHeader, func(w *csv.Writer) (int, error) {
				return writeFlipDetails(cmd.Context(), svc, w)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d years) and %s (%d rows)\n", summary, years, details, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "flip_results.csv", "per-year summary output file")
	cmd.Flags().StringVar(&details, "details", "flip_details.csv", "per-unit details output file")
	return cmd
}

// writeCSV creates path, writes header and lets fill write the rows.
func writeCSV(path string, header []string, fill func(*csv.Writer) (int, error)) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return 0, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // operator-supplied output path
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return 0, err
	}
	n, err := fill(w)
	if err != nil {
		return 0, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}
	return n, f.Close()
}

func writeStopColors(ctx context.Context, svc *service.Service, w *csv.Writer) (int, error) {
	rows := 0
	for _, year := range svc.Years() {
		set := svc.StopSet(year)
		for i, st := range set.Stops {
			res := svc.Evaluate(ctx, selection.Selection{Year: year, StopIndex: i})
			for _, u := range res.Units {
				rec := []string{
					strconv.Itoa(year),
					strconv.FormatFloat(st.Value, 'f', 12, 64),
					strconv.FormatFloat(st.Value, 'f', stopKeyPrecision, 64),
					strconv.FormatFloat(st.Effective, 'f', 12, 64),
					u.Unit,
					string(winnerParty(u.Outcome)),
					palette.ColorName(string(u.Outcome)),
					palette.ColorCSS(string(u.Outcome)),
				}
				if err := w.Write(rec); err != nil {
					return rows, err
				}
				rows++
			}
		}
	}
	return rows, nil
}

func winnerParty(o evaluate.Outcome) model.Party {
	switch o {
	case evaluate.OutcomeFirst:
		return model.PartyDem
	case evaluate.OutcomeSecond:
		return model.PartyRep
	default:
		return model.PartyThird
	}
}

func writeFlipSummary(ctx context.Context, svc *service.Service, w *csv.Writer) (int, error) {
	years := svc.Years()
	for _, year := range years {
		s, _ := svc.Flips(ctx, year)
		rec := []string{
			strconv.Itoa(year),
			string(s.WinnerParty), strconv.Itoa(s.WinnerEV),
			string(s.RunnerParty), strconv.Itoa(s.RunnerEV),
			strconv.Itoa(s.Need),
			strconv.FormatInt(s.Classic.MinVotes, 10), strconv.Itoa(s.Classic.ElectoralVotes), strconv.Itoa(len(s.Classic.Units)),
			strconv.FormatInt(s.NoMajority.MinVotes, 10), strconv.Itoa(s.NoMajority.ElectoralVotes), strconv.Itoa(len(s.NoMajority.Units)),
			strconv.Itoa(s.TotalEV),
		}
		if err := w.Write(rec); err != nil {
			return 0, err
		}
	}
	return len(years), nil
}

func writeFlipDetails(ctx context.Context, svc *service.Service, w *csv.Writer) (int, error) {
	rows := 0
	for _, year := range svc.Years() {
		s, _ := svc.Flips(ctx, year)
		for _, mode := range model.Modes {
			for _, u := range s.Outcome(mode).Units {
				rec := []string{
					strconv.Itoa(year),
					string(mode),
					u.Unit,
					strconv.Itoa(u.ElectoralVotes),
					strconv.FormatInt(u.VotesToFlip, 10),
					strconv.FormatFloat(u.PctOfUnitVotes, 'f', -1, 64),
				}
				if err := w.Write(rec); err != nil {
					return rows, err
				}
				rows++
			}
		}
	}
	return rows, nil
}
