package config_test

import (
	"errors"
	"context"
	"os"
	"testing"

	"github.com/okian/clutch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.QueryTimeoutMS, convey.ShouldEqual, 5_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CLUTCH_ADDR", ":8080")
			_ = os.Setenv("CLUTCH_MATCH_THRESHOLD", "0.75")
			_ = os.Setenv("CLUTCH_MAX_RESULTS", "10")
			_ = os.Setenv("CLUTCH_ASSISTED", "true")
			_ = os.Setenv("CLUTCH_CLUTCH_WINDOW_SECONDS", "24")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MatchThreshold, convey.ShouldEqual, 0.75)
				convey.So(cfg.MaxResults, convey.ShouldEqual, 10)
				convey.So(cfg.Assisted, convey.ShouldBeTrue)
				convey.So(cfg.ClutchWindowSeconds, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When the unprefixed database and model variables are set", func() {
			_ = os.Setenv("NEO4J_URI", "bolt://localhost:7687")
			_ = os.Setenv("NEO4J_USER", "reader")
			_ = os.Setenv("NEO4J_PASSWORD", "secret")
			_ = os.Setenv("OPENAI_API_KEY", "sk-test")
			_ = os.Setenv("CLUTCH_STORE", "neo4j")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then they land on the matching keys", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreNeo4j)
				convey.So(cfg.Neo4jURI, convey.ShouldEqual, "bolt://localhost:7687")
				convey.So(cfg.Neo4jUser, convey.ShouldEqual, "reader")
				convey.So(cfg.Neo4jPassword, convey.ShouldEqual, "secret")
				convey.So(cfg.LLMAPIKey, convey.ShouldEqual, "sk-test")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
store: sqlite
sqlite_path: /tmp/clutch-test.db
max_results: 5
data_files:
  - a.csv
  - b.csv.gz
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CLUTCH_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/clutch-test.db")
				convey.So(cfg.MaxResults, convey.ShouldEqual, 5)
				convey.So(cfg.DataFiles, convey.ShouldResemble, []string{"a.csv", "b.csv.gz"})
			})
		})

		convey.Convey("When env overrides the file", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nmax_results: 5\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CLUTCH_CONFIG", tmpFile)
			_ = os.Setenv("CLUTCH_MAX_RESULTS", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars take precedence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MaxResults, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("CLUTCH_CONFIG", "/nonexistent/clutch.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail to load", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("CLUTCH_MATCH_THRESHOLD", "3")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should report an invalid config", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "clutch-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

func clearConfigEnvVars() {
	for _, v := range []string{
		"CLUTCH_CONFIG",
		"CLUTCH_ADDR",
		"CLUTCH_STORE",
		"CLUTCH_MATCH_THRESHOLD",
		"CLUTCH_MAX_RESULTS",
		"CLUTCH_ASSISTED",
		"CLUTCH_CLUTCH_WINDOW_SECONDS",
		"NEO4J_URI",
		"NEO4J_USER",
		"NEO4J_PASSWORD",
		"OPENAI_API_KEY",
	} {
		_ = os.Unsetenv(v)
	}
}
