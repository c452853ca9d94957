// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a .env file, an optional YAML file and TIPPING_ env vars on top.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/tipping/internal/domain/model"
	"github.com/okian/tipping/internal/domain/stops"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, receives a JSON copy of every log line.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds the dataset files under their default names.
	DataDir string `koanf:"data_dir"`

	// MarginsFile, ElectoralFile and FlipsFile override individual paths.
	MarginsFile   string `koanf:"margins_file"`
	ElectoralFile string `koanf:"electoral_file"`
	FlipsFile     string `koanf:"flips_file"`

	// DeriveFlips computes flip scenarios from the margins when no flip file exists.
	DeriveFlips bool `koanf:"derive_flips"`

	// WatchData reloads the dataset when its files change.
	WatchData bool `koanf:"watch_data"`

	// WatchDebounceMS is how long writes must settle before a reload.
	WatchDebounceMS int `koanf:"watch_debounce_ms"`

	// PVCap bounds the absolute PV shift considered when deriving stops.
	PVCap float64 `koanf:"pv_cap"`

	// Epsilon is the tie tolerance used for nudging and classification.
	Epsilon float64 `koanf:"epsilon"`

	// ExceptionYear enables third-party windows for one year; 0 disables them.
	ExceptionYear int `koanf:"exception_year"`

	// ExceptionUnits is a comma-separated list of flagged units.
	ExceptionUnits string `koanf:"exception_units"`

	// ExceptionSplitUnit is windowed but keeps its naive stop.
	ExceptionSplitUnit string `koanf:"exception_split_unit"`

	// YearStart is the first year of the default trend range.
	YearStart int `koanf:"year_start"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DataDir:            "data",
		DeriveFlips:        true,
		WatchData:          false,
		WatchDebounceMS:    500,
		PVCap:              model.DefaultPVCap,
		Epsilon:            model.DefaultEpsilon,
		ExceptionYear:      stops.DefaultExceptionYear,
		ExceptionUnits:     strings.Join(stops.DefaultExceptionUnits, ","),
		ExceptionSplitUnit: stops.DefaultExceptionSplitUnit,
		YearStart:          1968,
	}
}

// Units returns ExceptionUnits split, trimmed and upper-cased.
func (c *Config) Units() []string {
	var out []string
	for _, u := range strings.Split(c.ExceptionUnits, ",") {
		if u = strings.ToUpper(strings.TrimSpace(u)); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// StopParams converts the model settings into deriver parameters.
func (c *Config) StopParams() stops.Params {
	return stops.Params{
		Cap:     c.PVCap,
		Epsilon: c.Epsilon,
		Exception: stops.Exception{
			Year:      c.ExceptionYear,
			Units:     c.Units(),
			SplitUnit: strings.ToUpper(strings.TrimSpace(c.ExceptionSplitUnit)),
		},
	}
}

// WatchDebounce returns the watcher debounce as a duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// Validate checks the values Load cannot repair.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "" && c.MarginsFile == "":
		return fmt.Errorf("%w: data_dir or margins_file is required", ErrInvalidConfig)
	case c.PVCap <= 0:
		return fmt.Errorf("%w: pv_cap must be positive, got %v", ErrInvalidConfig, c.PVCap)
	case c.Epsilon <= 0 || c.Epsilon >= c.PVCap:
		return fmt.Errorf("%w: epsilon must be in (0, pv_cap), got %v", ErrInvalidConfig, c.Epsilon)
	case c.WatchDebounceMS <= 0:
		return fmt.Errorf("%w: watch_debounce_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
