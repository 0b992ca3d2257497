package course_test

import (
	"errors"
	"testing"

	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func threeHole() course.Profile {
	return course.Profile{
		Name:  "short",
		Holes: 3,
		Par:   []int{4, 4, 3},
		Ranks: map[string][]int{course.DefaultCategory: {1, 2, 3}},
	}
}

func TestValidate(t *testing.T) {
	Convey("Given course profiles", t, func() {
		Convey("The built-in courses are valid", func() {
			So(course.Default18().ValidateStandard(), ShouldBeNil)
			So(course.Default9().ValidateStandard(), ShouldBeNil)
		})

		Convey("A short course is structurally valid but not standard", func() {
			p := threeHole()
			So(p.Validate(), ShouldBeNil)
			So(errors.Is(p.ValidateStandard(), course.ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("Malformed profiles are rejected", func() {
			cases := map[string]func(p *course.Profile){
				"zero holes":       func(p *course.Profile) { p.Holes = 0 },
				"too many holes":   func(p *course.Profile) { p.Holes = 19 },
				"par length":       func(p *course.Profile) { p.Par = []int{4, 4} },
				"non-positive par": func(p *course.Profile) { p.Par[1] = 0 },
				"no categories":    func(p *course.Profile) { p.Ranks = nil },
				"rank repeated":    func(p *course.Profile) { p.Ranks[course.DefaultCategory] = []int{1, 1, 3} },
				"rank range":       func(p *course.Profile) { p.Ranks[course.DefaultCategory] = []int{1, 2, 4} },
				"rank length":      func(p *course.Profile) { p.Ranks["forward"] = []int{1, 2} },
			}
			for _, mutate := range cases {
				p := threeHole()
				mutate(&p)
				err := p.Validate()
				So(err, ShouldNotBeNil)
				So(errors.Is(err, course.ErrInvalidConfiguration), ShouldBeTrue)
			}
		})
	})
}

func TestHandicapStroke(t *testing.T) {
	Convey("Given a three hole course ranked 1,2,3", t, func() {
		p := threeHole()

		Convey("When the player has no handicap", func() {
			Convey("Then no stroke is given even on an unknown category", func() {
				s, err := p.HandicapStroke(model.NoHandicap(), 1, "nope")
				So(err, ShouldBeNil)
				So(s.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When the handicap is 2.9", func() {
			h := model.HandicapFromFloat(2.9)

			Convey("Then holes ranked at most 2 get a half stroke", func() {
				for hole, want := range map[int]string{1: "0.5", 2: "0.5", 3: "0"} {
					s, err := p.HandicapStroke(h, hole, "")
					So(err, ShouldBeNil)
					So(s.Equal(decimal.RequireFromString(want)), ShouldBeTrue)
				}
			})
		})

		Convey("When the handicap is enormous", func() {
			h := model.HandicapFromFloat(54)

			Convey("Then a hole never gets more than half a stroke", func() {
				for hole := 1; hole <= 3; hole++ {
					s, err := p.HandicapStroke(h, hole, course.DefaultCategory)
					So(err, ShouldBeNil)
					So(s.Equal(course.HalfStroke), ShouldBeTrue)
				}
			})
		})

		Convey("When the handicap is below one", func() {
			s, err := p.HandicapStroke(model.HandicapFromFloat(0.9), 1, "")

			Convey("Then no hole qualifies", func() {
				So(err, ShouldBeNil)
				So(s.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When the lookup is invalid", func() {
			h := model.HandicapFromFloat(5)
			_, errCat := p.HandicapStroke(h, 1, "ladies")
			_, errLow := p.HandicapStroke(h, 0, "")
			_, errHigh := p.HandicapStroke(h, 4, "")

			Convey("Then ErrInvalidInput is returned", func() {
				So(errors.Is(errCat, course.ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(errLow, course.ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(errHigh, course.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestStrokePolicy(t *testing.T) {
	Convey("Given stroke policy strings", t, func() {
		p, err := course.ParseStrokePolicy("")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, course.StrokeStrict)

		p, err = course.ParseStrokePolicy(" Lenient ")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, course.StrokeLenient)

		_, err = course.ParseStrokePolicy("loose")
		So(errors.Is(err, course.ErrInvalidConfiguration), ShouldBeTrue)
	})
}

func TestClone(t *testing.T) {
	Convey("Given a cloned profile", t, func() {
		orig := course.Default9()
		c := orig.Clone()
		c.Par[0] = 99
		c.Ranks[course.DefaultCategory][0] = 99

		Convey("Then the original is untouched", func() {
			So(orig.Par[0], ShouldEqual, 4)
			So(orig.Ranks[course.DefaultCategory][0], ShouldEqual, 4)
			So(course.Default18().Categories(), ShouldResemble, []string{course.DefaultCategory, "forward"})
		})
	})
}
