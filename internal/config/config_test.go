package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/swing/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDSN, convey.ShouldEqual, "memory://")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.DefaultSport, convey.ShouldEqual, "basketball")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestStoreScheme(t *testing.T) {
	cases := map[string]string{
		"memory://":                       "memory",
		"sqlite://./swing.db":             "sqlite",
		"POSTGRES://user@localhost/swing": "postgres",
		"no-scheme":                       "",
	}
	for dsn, want := range cases {
		if got := config.StoreScheme(dsn); got != want {
			t.Errorf("StoreScheme(%q) = %q, want %q", dsn, got, want)
		}
	}
}
