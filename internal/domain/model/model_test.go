package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/skins/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func TestHandicap(t *testing.T) {
	convey.Convey("Given a player handicap", t, func() {
		convey.Convey("When it is absent", func() {
			p := model.Player{ID: "x", Name: "X"}
			data, err := json.Marshal(p)

			convey.Convey("Then it encodes as null", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldEqual, `{"id":"x","name":"X","handicap":null}`)
				convey.So(p.Handicap.IsSet(), convey.ShouldBeFalse)
				convey.So(p.Handicap.String(), convey.ShouldEqual, "none")
			})
		})

		convey.Convey("When it is present", func() {
			p := model.Player{ID: "y", Handicap: model.HandicapFromFloat(10.4)}
			data, err := json.Marshal(p)

			convey.Convey("Then it encodes as a bare number", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, `"handicap":10.4`)
			})
		})

		convey.Convey("When decoding", func() {
			var a, b, c model.Player
			errA := json.Unmarshal([]byte(`{"id":"a","handicap":null}`), &a)
			errB := json.Unmarshal([]byte(`{"id":"b","handicap":12.5}`), &b)
			errC := json.Unmarshal([]byte(`{"id":"c"}`), &c)

			convey.Convey("Then presence is preserved", func() {
				convey.So(errA, convey.ShouldBeNil)
				convey.So(errB, convey.ShouldBeNil)
				convey.So(errC, convey.ShouldBeNil)
				convey.So(a.Handicap.IsSet(), convey.ShouldBeFalse)
				convey.So(c.Handicap.IsSet(), convey.ShouldBeFalse)
				v, ok := b.Handicap.Value()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v.Equal(decimal.RequireFromString("12.5")), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When decoding garbage", func() {
			var p model.Player
			err := json.Unmarshal([]byte(`{"handicap":"abc"}`), &p)

			convey.Convey("Then an error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestGame(t *testing.T) {
	convey.Convey("Given a game with three participants", t, func() {
		g := model.Game{
			ID:       "g1",
			Holes:    9,
			EntryFee: 5,
			Participants: []model.Participant{
				{Player: model.Player{ID: "a"}},
				{Player: model.Player{ID: "b"}, Wolf: true},
				{Player: model.Player{ID: "c"}},
			},
		}

		convey.Convey("Then the pot is fee times participants", func() {
			convey.So(g.Pot(), convey.ShouldEqual, 15)
		})

		convey.Convey("And the participant JSON flattens the player", func() {
			data, err := json.Marshal(g.Participants[1])
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldEqual, `{"id":"b","name":"","handicap":null,"wolf":true}`)
		})
	})

	convey.Convey("Given a score sheet", t, func() {
		s := model.ScoreSheet{"a": {1: 4, 2: 5}}

		convey.Convey("Then recorded and missing holes are distinguished", func() {
			g, ok := s.Gross("a", 2)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(g, convey.ShouldEqual, 5)
			_, ok = s.Gross("a", 3)
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = s.Gross("z", 1)
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then it survives a JSON round trip with numeric hole keys", func() {
			data, err := json.Marshal(s)
			convey.So(err, convey.ShouldBeNil)
			var back model.ScoreSheet
			convey.So(json.Unmarshal(data, &back), convey.ShouldBeNil)
			convey.So(back["a"][1], convey.ShouldEqual, 4)
		})
	})
}
