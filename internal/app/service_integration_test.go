package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	service "github.com/okian/skins/internal/app"
	"github.com/okian/skins/internal/adapters/mq/queue"
	"github.com/okian/skins/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func settled(ctx context.Context, svc *service.Service, id string) func() bool {
	return func() bool {
		rec, err := svc.Game(ctx, id)
		return err == nil && rec.Status != repository.StatusPending
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		svc := service.New(service.WithCourse(shortCourse()), service.WithWorkerCount(4))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a game is settled", func() {
			So(svc.Enqueue(ctx, scenarioA("g-1")), ShouldBeNil)
			So(waitFor(settled(ctx, svc, "g-1")), ShouldBeTrue)

			Convey("Then its result is recorded", func() {
				rec, err := svc.Game(ctx, "g-1")
				So(err, ShouldBeNil)
				So(rec.Status, ShouldEqual, repository.StatusSettled)
				So(rec.Result, ShouldNotBeNil)
				So(rec.Result.Pot, ShouldEqual, 20)
				So(rec.SettledAt, ShouldNotBeNil)
			})

			Convey("And the money list is credited", func() {
				top, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 2)
				So(top[0].PlayerID, ShouldEqual, "Y")
				So(top[0].Winnings, ShouldEqual, 14)
				So(top[0].Name, ShouldEqual, "Yolanda")

				x, err := svc.Rank(ctx, "X")
				So(err, ShouldBeNil)
				So(x.Rank, ShouldEqual, 2)
				So(x.Games, ShouldEqual, 1)
			})
		})

		Convey("When a game cannot be scored on the course", func() {
			g := scenarioA("g-bad")
			g.Game.CTPHole = 3
			g.Game.Holes = 18
			So(svc.Enqueue(ctx, g), ShouldBeNil)
			So(waitFor(settled(ctx, svc, "g-bad")), ShouldBeTrue)

			Convey("Then it is marked failed with the reason", func() {
				rec, err := svc.Game(ctx, "g-bad")
				So(err, ShouldBeNil)
				So(rec.Status, ShouldEqual, repository.StatusFailed)
				So(rec.Error, ShouldContainSubstring, "holes")
				So(svc.GetStats()["gamesFailed"], ShouldEqual, int64(1))
			})
		})

		Convey("When unknown games and players are looked up", func() {
			_, err := svc.Game(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.Rank(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service receiving games from many goroutines", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		svc := service.New(service.WithCourse(shortCourse()), service.WithWorkerCount(8), service.WithQueueSize(1000))
		So(svc.Start(ctx), ShouldBeNil)

		const games = 200
		var wg sync.WaitGroup
		for i := range games {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = svc.Enqueue(ctx, scenarioA(fmt.Sprintf("g-%03d", i)))
			}(i)
		}
		wg.Wait()
		So(svc.Stop(ctx), ShouldBeNil)

		Convey("Then every game settles and the money list holds every pot", func() {
			for i := range games {
				rec, err := svc.Game(ctx, fmt.Sprintf("g-%03d", i))
				So(err, ShouldBeNil)
				So(rec.Status, ShouldEqual, repository.StatusSettled)
			}
			stats := svc.GetStats()
			So(stats["totalWinnings"], ShouldEqual, int64(games*20))
			So(stats["gamesSettled"], ShouldEqual, int64(games))

			y, err := svc.Rank(ctx, "Y")
			So(err, ShouldBeNil)
			So(y.Winnings, ShouldEqual, int64(games*14))
			So(y.Skins, ShouldEqual, games*2)
		})

		Convey("And later submissions are refused", func() {
			So(errors.Is(svc.Enqueue(ctx, scenarioA("late")), queue.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a service with a one slot queue and one worker", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		svc := service.New(service.WithCourse(shortCourse()), service.WithQueueSize(1), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When games arrive in a burst", func() {
			refused := map[string]error{}
			for i := range 500 {
				id := fmt.Sprintf("bp-%d", i)
				if err := svc.Enqueue(ctx, scenarioA(id)); err != nil {
					refused[id] = err
				}
			}

			Convey("Then every refusal is backpressure and leaves no record", func() {
				for id, err := range refused {
					So(errors.Is(err, queue.ErrFull), ShouldBeTrue)
					_, gerr := svc.Game(ctx, id)
					So(errors.Is(gerr, repository.ErrNotFound), ShouldBeTrue)
				}
			})
		})
	})
}
