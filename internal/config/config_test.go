package config_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/okian/skins/internal/config"
	"github.com/okian/skins/internal/domain/course"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.Category, convey.ShouldEqual, course.DefaultCategory)
			convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 10*time.Second)
		})
	})

	convey.Convey("Given an explicit course", t, func() {
		cfg := config.New()
		c := course.Default9()
		cfg.Course = &c

		convey.Convey("Then it wins over the preset and is copied", func() {
			p, err := cfg.Profile()
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Holes, convey.ShouldEqual, 9)
			p.Par[0] = 99
			convey.So(cfg.Course.Par[0], convey.ShouldNotEqual, 99)
		})
	})
}
