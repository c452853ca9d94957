package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/tipping/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DataDir, convey.ShouldEqual, "data")
			convey.So(cfg.PVCap, convey.ShouldEqual, 0.25)
			convey.So(cfg.Epsilon, convey.ShouldEqual, 1e-5)
			convey.So(cfg.ExceptionYear, convey.ShouldEqual, 1968)
			convey.So(cfg.DeriveFlips, convey.ShouldBeTrue)
			convey.So(cfg.WatchData, convey.ShouldBeFalse)
			convey.So(cfg.WatchDebounce(), convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the stop parameters mirror the model settings", func() {
			p := cfg.StopParams()
			convey.So(p.Cap, convey.ShouldEqual, 0.25)
			convey.So(p.Exception.Year, convey.ShouldEqual, 1968)
			convey.So(p.Exception.Units, convey.ShouldResemble, []string{"GA", "LA", "AL", "MS", "AR"})
			convey.So(p.Exception.SplitUnit, convey.ShouldEqual, "TN")
		})
	})
}

func TestConfig_Units(t *testing.T) {
	convey.Convey("Given a messy exception unit list", t, func() {
		cfg := config.New()
		cfg.ExceptionUnits = " ga, la ,,ms "

		convey.Convey("Then it is split, trimmed and upper-cased", func() {
			convey.So(cfg.Units(), convey.ShouldResemble, []string{"GA", "LA", "MS"})
		})

		convey.Convey("Then an empty list yields no units", func() {
			cfg.ExceptionUnits = ""
			convey.So(cfg.Units(), convey.ShouldBeEmpty)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid values", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"no data", func(c *config.Config) { c.DataDir = ""; c.MarginsFile = "" }},
			{"zero cap", func(c *config.Config) { c.PVCap = 0 }},
			{"negative epsilon", func(c *config.Config) { c.Epsilon = -1 }},
			{"epsilon above cap", func(c *config.Config) { c.Epsilon = 0.5 }},
			{"zero debounce", func(c *config.Config) { c.WatchDebounceMS = 0 }},
		}
		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)
			convey.Convey("When "+tc.name, func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When only a margins file is given", func() {
			cfg := config.New()
			cfg.DataDir = ""
			cfg.MarginsFile = "m.csv"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
