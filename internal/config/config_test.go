package config_test

import (
	"errors"
	"testing"

	"github.com/okian/clutch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.MatchThreshold, convey.ShouldEqual, 0.5)
			convey.So(cfg.ClutchWindowSeconds, convey.ShouldEqual, 30)
			convey.So(cfg.OvertimeSeconds, convey.ShouldEqual, 300)
			convey.So(cfg.MaxResults, convey.ShouldEqual, 0)
			convey.So(cfg.Assisted, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid fields", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"threshold above 1", func(c *config.Config) { c.MatchThreshold = 1.2 }},
			{"negative max", func(c *config.Config) { c.MaxResults = -1 }},
			{"zero window", func(c *config.Config) { c.ClutchWindowSeconds = 0 }},
			{"zero overtime", func(c *config.Config) { c.OvertimeSeconds = 0 }},
			{"unknown store", func(c *config.Config) { c.Store = "redis" }},
			{"neo4j without uri", func(c *config.Config) { c.Store = config.StoreNeo4j }},
			{"sqlite without path", func(c *config.Config) { c.Store = config.StoreSQLite; c.SQLitePath = "" }},
		}
		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)
			convey.Convey("Then "+tc.name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
