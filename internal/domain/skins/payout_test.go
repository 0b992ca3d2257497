package skins_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/internal/domain/skins"
	. "github.com/smartystreets/goconvey/convey"
)

func awards(ids ...string) []model.SkinAward {
	out := make([]model.SkinAward, len(ids))
	for i, id := range ids {
		out[i] = model.SkinAward{Hole: i + 1, PlayerID: id, Kind: model.SkinRegular}
	}
	return out
}

func TestAllocatePayouts(t *testing.T) {
	roster := []model.Participant{
		player("b", model.NoHandicap()),
		player("a", model.NoHandicap()),
		player("c", model.NoHandicap()),
	}

	Convey("Given three winners with one skin each and pot 10", t, func() {
		p, err := skins.AllocatePayouts(10, awards("a", "b", "c"), roster, skins.RoundHalfUp)
		So(err, ShouldBeNil)

		Convey("Then the leftover unit follows roster position", func() {
			So(p.Entries, ShouldResemble, []model.PayoutEntry{
				{PlayerID: "b", Skins: 1, Amount: 4},
				{PlayerID: "a", Skins: 1, Amount: 3},
				{PlayerID: "c", Skins: 1, Amount: 3},
			})
		})
	})

	Convey("Given winners missing from the roster", t, func() {
		p, err := skins.AllocatePayouts(11, awards("z", "y", "b"), roster, skins.RoundHalfUp)
		So(err, ShouldBeNil)

		Convey("Then they follow roster players and break ties by ID", func() {
			So(p.Entries, ShouldResemble, []model.PayoutEntry{
				{PlayerID: "b", Skins: 1, Amount: 4},
				{PlayerID: "y", Skins: 1, Amount: 4},
				{PlayerID: "z", Skins: 1, Amount: 3},
			})
		})
	})

	Convey("Given a pot of 10 and 4 skins", t, func() {
		up, err := skins.AllocatePayouts(10, awards("a", "a", "b", "c"), roster, skins.RoundHalfUp)
		So(err, ShouldBeNil)
		even, err := skins.AllocatePayouts(10, awards("a", "a", "b", "c"), roster, skins.RoundHalfEven)
		So(err, ShouldBeNil)

		Convey("Then display rounding differs but amounts do not", func() {
			So(up.SkinValue, ShouldEqual, 3)
			So(even.SkinValue, ShouldEqual, 2)
			So(up.SkinValueExact.String(), ShouldEqual, "2.5")
			So(up.Entries, ShouldResemble, even.Entries)
			So(up.Entries[0], ShouldResemble, model.PayoutEntry{PlayerID: "a", Skins: 2, Amount: 6})
		})
	})

	Convey("Given a pot of 7 and 2 skins", t, func() {
		up, _ := skins.AllocatePayouts(7, awards("a", "b"), roster, skins.RoundHalfUp)
		even, _ := skins.AllocatePayouts(7, awards("a", "b"), roster, skins.RoundHalfEven)

		Convey("Then 3.5 rounds to 4 both ways", func() {
			So(up.SkinValue, ShouldEqual, 4)
			So(even.SkinValue, ShouldEqual, 4)
		})
	})

	Convey("Given a zero pot with skins", t, func() {
		p, err := skins.AllocatePayouts(0, awards("a", "b"), roster, skins.RoundHalfUp)

		Convey("Then every winner gets zero", func() {
			So(err, ShouldBeNil)
			So(p.Entries, ShouldHaveLength, 2)
			So(p.Entries[0].Amount, ShouldEqual, 0)
			So(p.Entries[1].Amount, ShouldEqual, 0)
			So(p.Undistributed, ShouldBeFalse)
		})
	})

	Convey("Given a negative pot", t, func() {
		_, err := skins.AllocatePayouts(-1, awards("a"), roster, skins.RoundHalfUp)
		So(errors.Is(err, skins.ErrInvalidConfiguration), ShouldBeTrue)
	})

	Convey("Given a pot that would overflow a winner's share", t, func() {
		_, err := skins.AllocatePayouts(math.MaxInt64, awards("a", "b"), roster, skins.RoundHalfUp)
		So(errors.Is(err, skins.ErrInvalidConfiguration), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "too large")
	})

	Convey("Given no awards", t, func() {
		p, err := skins.AllocatePayouts(30, nil, roster, skins.RoundHalfUp)
		So(err, ShouldBeNil)
		So(p.Entries, ShouldBeEmpty)
		So(p.Undistributed, ShouldBeTrue)
	})
}

func TestParseDisplayRounding(t *testing.T) {
	Convey("Given rounding names", t, func() {
		r, err := skins.ParseDisplayRounding("")
		So(err, ShouldBeNil)
		So(r, ShouldEqual, skins.RoundHalfUp)
		r, err = skins.ParseDisplayRounding("HALF_EVEN")
		So(err, ShouldBeNil)
		So(r, ShouldEqual, skins.RoundHalfEven)
		_, err = skins.ParseDisplayRounding("ceil")
		So(errors.Is(err, skins.ErrInvalidConfiguration), ShouldBeTrue)
	})
}
