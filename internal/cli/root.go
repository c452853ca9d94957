// Package cli provides the command-line interface for tippingctl.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	repository "github.com/okian/tipping/internal/adapters/repository"
	service "github.com/okian/tipping/internal/app"
	"github.com/okian/tipping/internal/config"
	"github.com/okian/tipping/pkg/logger"
)

// Version is set at build time.
var Version = "0.1.0"

// globals are the persistent flags shared by every command.
type globals struct {
	configFile string
	dataDir    string
	verbose    bool
}

// NewRootCmd builds the tippingctl command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "tippingctl",
		Short: "Offline tools for the PV-stop tipping-point viewer",
		Long: `tippingctl reads the same dataset as the viewer and prints stops and
evaluations, exports the stop color table and the flip scenario files, and
sweeps a running viewer for consistency.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			level := "warn"
			if g.verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "YAML config file (overrides "+config.EnvConfig+")")
	root.PersistentFlags().StringVarP(&g.dataDir, "data", "d", "", "dataset directory")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newStopsCmd(g))
	root.AddCommand(newEvaluateCmd(g))
	root.AddCommand(newExportStopsCmd(g))
	root.AddCommand(newBuildFlipsCmd(g))
	root.AddCommand(newSweepCmd())
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads configuration the way the server does and applies the
// command-line overrides.
func (g *globals) loadConfig(ctx context.Context) (*config.Config, error) {
	if g.configFile != "" {
		if err := os.Setenv(config.EnvConfig, g.configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if g.dataDir != "" {
		cfg.DataDir = g.dataDir
		cfg.MarginsFile, cfg.ElectoralFile, cfg.FlipsFile = "", "", ""
	}
	return cfg, nil
}

// openService loads the dataset once. Unlike the server, a missing or
// unreadable dataset is an error here.
func (g *globals) openService(ctx context.Context) (*service.Service, error) {
	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	svc := service.New(
		service.WithLogger(logger.Get().Named("tippingctl")),
		service.WithDataDir(cfg.DataDir),
		service.WithFiles(repository.Files{
			Margins:   cfg.MarginsFile,
			Electoral: cfg.ElectoralFile,
			Flips:     cfg.FlipsFile,
		}),
		service.WithDerivedFlips(cfg.DeriveFlips),
		service.WithStopParams(cfg.StopParams()),
		service.WithYearStart(cfg.YearStart),
	)
	if err := svc.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return svc, nil
}

// yearOrLatest resolves a --year flag; 0 means the latest loaded year.
func yearOrLatest(svc *service.Service, year int) (int, error) {
	if year == 0 {
		year = svc.LatestYear()
	}
	if !svc.Snapshot().HasYear(year) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}
	return year, nil
}
