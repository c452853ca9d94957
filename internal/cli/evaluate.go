package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/selection"
)

func newEvaluateCmd(g *globals) *cobra.Command {
	var (
		year   int
		pv     int
		flip   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate every unit of a year at one stop",
		Long: `Evaluate every unit of a year at one stop. Without --pv the year's
default stop (Actual, else Even) is used. --flip applies a flip scenario,
which moves the stop to Actual.

Examples:
  tippingctl evaluate --year 2000
  tippingctl evaluate --year 2000 --pv 0
  tippingctl evaluate --year 2000 --flip classic`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := g.openService(ctx)
			if err != nil {
				return err
			}
			if year, err = yearOrLatest(svc, year); err != nil {
				return err
			}
			sel := selection.Selection{Year: year, StopIndex: pv}
			if pv < 0 {
				sel.StopIndex = svc.StopSet(year).DefaultIndex()
			}
			if flip != "" {
				mode, err := model.ParseMode(flip)
				if err != nil {
					return err
				}
				sel = selection.Reduce(sel, selection.ApplyScenario(mode), svc)
			}
			res := svc.Evaluate(ctx, sel)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d at %s (stop %d, effective %+.6f)\n\n", res.Year, res.PVLabel, res.StopIndex, res.Effective)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "UNIT\tOUTCOME\tLEAN\tEV\tFLIPPED")
			for _, u := range res.Units {
				flipped := ""
				if u.Flipped {
					flipped = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", u.Unit, u.Outcome, u.Lean, u.ElectoralVotes, flipped)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTotals: first %d, second %d, other %d\n", res.Totals.First, res.Totals.Second, res.Totals.Other)
			if res.Flip != nil {
				fmt.Fprintf(out, "Flip %s: %d votes in %d units (%d EV)\n",
					res.Flip.Mode, res.Flip.VotesChanged, len(res.Flip.Units), res.Flip.ElectoralVotes)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "election year (default latest)")
	cmd.Flags().IntVar(&pv, "pv", -1, "stop index (default: the year's default stop)")
	cmd.Flags().StringVar(&flip, "flip", "", "flip scenario to apply (classic or no_majority)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
