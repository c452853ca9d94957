package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/tipping/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	var (
		cfg    sweep.Config
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Check every year and stop of a running viewer",
		Long: `Request the stop list and the evaluation of every stop of every year
from a running viewer and check that stops are sorted, hold Even and Actual,
and that the Actual stop reproduces each unit's stored winner.

Examples:
  tippingctl sweep
  tippingctl sweep --url http://localhost:8080 --workers 16
  tippingctl sweep --year 1968 --year 2000 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := sweep.Run(cmd.Context(), cfg)
			if rep != nil {
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if encErr := enc.Encode(rep); encErr != nil {
						return encErr
					}
				} else {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Run %s: %d years, %d stops, %d checks passed, %d failed\n",
						rep.RunID, rep.Years, rep.Stops, rep.Passed, rep.Failed)
					for _, f := range rep.Failures {
						fmt.Fprintf(out, "  %d #%d %s: %s\n", f.Year, f.Index, f.Check, f.Detail)
					}
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", sweep.DefaultBaseURL, "base URL of the viewer")
	cmd.Flags().IntSliceVar(&cfg.Years, "year", nil, "years to sweep (default all)")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "concurrent workers (default CPU cores * 2)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	cmd.Flags().Float64Var(&cfg.Cap, "cap", sweep.DefaultCap, "PV cap the viewer runs with")
	cmd.Flags().Float64Var(&cfg.Epsilon, "epsilon", sweep.DefaultEpsilon, "tie tolerance the viewer runs with")
	cmd.Flags().StringVar(&cfg.RunID, "run-id", "", "run id sent as X-Run-ID (default random)")
	cmd.Flags().BoolVar(&cfg.Verbose, "log-failures", false, "log every failed check")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
