package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStopsCmd(g *globals) *cobra.Command {
	var (
		year   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stops",
		Short: "List the PV stops of a year",
		Long: `List the PV stops of a year in ascending order.

Examples:
  tippingctl stops
  tippingctl stops --year 1968
  tippingctl stops --year 2000 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := g.openService(cmd.Context())
			if err != nil {
				return err
			}
			if year, err = yearOrLatest(svc, year); err != nil {
				return err
			}
			set := svc.Stops(cmd.Context(), year)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(set)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stops for %d (national %+.4f):\n\n", year, set.National)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tVALUE\tEFFECTIVE\tKIND\tLABEL")
			for i, st := range set.Stops {
				fmt.Fprintf(tw, "%d\t%+.6f\t%+.6f\t%s\t%s\n", i, st.Value, st.Effective, st.Kind, set.Label(i))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "election year (default latest)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
