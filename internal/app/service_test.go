package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/skins/internal/app"
	"github.com/okian/skins/internal/adapters/mq/queue"
	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func shortCourse() course.Profile {
	return course.Profile{
		Name:  "short",
		Holes: 3,
		Par:   []int{4, 4, 3},
		Ranks: map[string][]int{course.DefaultCategory: {1, 2, 3}},
	}
}

func scenarioA(id string) model.Settlement {
	return model.Settlement{
		Game: model.Game{
			ID: id, Holes: 3, CTPHole: 2, EntryFee: 10,
			Participants: []model.Participant{
				{Player: model.Player{ID: "X", Name: "Xavier"}},
				{Player: model.Player{ID: "Y", Name: "Yolanda", Handicap: model.HandicapFromFloat(10)}},
			},
		},
		Scores: model.ScoreSheet{"X": {1: 4, 2: 5, 3: 3}, "Y": {1: 5, 2: 4, 3: 3}},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it plays the default course", func() {
			So(svc.Course().Holes, ShouldEqual, 18)
			So(svc.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(8),
			service.WithDedupeSize(16),
			service.WithCourse(shortCourse()),
			service.WithEngineOptions(skins.WithDisplayRounding(skins.RoundHalfEven)),
		)

		Convey("Then the options are reported", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueSize"], ShouldEqual, 8)
			So(stats["holes"], ShouldEqual, 3)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithCourse(shortCourse()), service.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When it is not started", func() {
			err := svc.Enqueue(ctx, scenarioA("g-1"))

			Convey("Then submissions are refused as closed", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(err, queue.ErrClosed), ShouldBeTrue)
			})

			Convey("And reads report it", func() {
				_, err := svc.TopN(ctx, 1)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When it is started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})

		Convey("When the course is broken", func() {
			bad := shortCourse()
			bad.Par = []int{4}
			svc := service.New(service.WithCourse(bad))

			Convey("Then Start fails", func() {
				So(errors.Is(svc.Start(ctx), course.ErrInvalidConfiguration), ShouldBeTrue)
			})
		})
	})
}

func TestService_Preview(t *testing.T) {
	Convey("Given a service on a three hole course", t, func() {
		svc := service.New(service.WithCourse(shortCourse()))
		ctx := context.Background()

		Convey("Then previews need no started service", func() {
			res, err := svc.Preview(ctx, scenarioA("preview"))
			So(err, ShouldBeNil)
			So(res.TotalSkins, ShouldEqual, 3)
			So(res.Payouts, ShouldResemble, []model.PayoutEntry{
				{PlayerID: "Y", Skins: 2, Amount: 14},
				{PlayerID: "X", Skins: 1, Amount: 6},
			})
		})

		Convey("And invalid games are rejected", func() {
			g := scenarioA("bad")
			g.Game.Holes = 9
			_, err := svc.Preview(ctx, g)
			So(errors.Is(err, skins.ErrInvalidConfiguration), ShouldBeTrue)

			_, err = svc.Game(ctx, "bad")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Enqueue(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := service.New(service.WithCourse(shortCourse()), service.WithQueueSize(1), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When the same game is enqueued twice", func() {
			So(svc.Enqueue(ctx, scenarioA("g-dup")), ShouldBeNil)
			err := svc.Enqueue(ctx, scenarioA("g-dup"))

			Convey("Then the second is an invalid state", func() {
				So(errors.Is(err, repository.ErrInvalidState), ShouldBeTrue)
			})
		})
	})
}
