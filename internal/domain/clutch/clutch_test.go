package clutch_test

import (
	"testing"

	"github.com/okian/clutch/internal/domain/clutch"
	"github.com/okian/clutch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func event(period, secLeft int, et model.EventType) model.Event {
	return model.Event{
		GameID:      "0049600088",
		Type:        et,
		Period:      period,
		SecondsLeft: secLeft,
		Score:       model.Score{Home: 88, Visitor: 86},
	}
}

func TestClassifyBoundaries(t *testing.T) {
	Convey("Given the default policy", t, func() {
		gc := clutch.GameContext{GameID: "0049600088"}

		Convey("Then a made shot at period 4 with 30 seconds left is clutch", func() {
			So(clutch.Classify(event(4, 30, model.EventShotMade), gc).IsClutch, ShouldBeTrue)
		})

		Convey("Then 31 seconds left is not clutch", func() {
			So(clutch.Classify(event(4, 31, model.EventShotMade), gc).IsClutch, ShouldBeFalse)
		})

		Convey("Then period 3 with 5 seconds left is not clutch", func() {
			So(clutch.Classify(event(3, 5, model.EventShotMade), gc).IsClutch, ShouldBeFalse)
		})

		Convey("Then overtime periods qualify", func() {
			So(clutch.Classify(event(5, 2, model.EventFreeThrowMade), gc).IsClutch, ShouldBeTrue)
			So(clutch.Classify(event(7, 0, model.EventShotMade), gc).IsClutch, ShouldBeTrue)
		})

		Convey("Then non-scoring events are never clutch", func() {
			for _, et := range []model.EventType{
				model.EventShotMissed, model.EventFreeThrowMissed, model.EventTurnover, model.EventFoul,
			} {
				So(clutch.Classify(event(4, 1, et), gc).IsClutch, ShouldBeFalse)
			}
		})

		Convey("Then the margin is home minus visitor", func() {
			res := clutch.Classify(event(4, 5, model.EventShotMade), gc)
			So(res.ScoreMargin, ShouldEqual, 2)
		})
	})
}

func TestClassifyIsIdempotent(t *testing.T) {
	Convey("Given a grid of event attributes", t, func() {
		c := clutch.New()
		for period := 1; period <= 6; period++ {
			for sec := 0; sec <= 720; sec += 7 {
				for et := model.EventOther; et <= model.EventPeriodEnd; et++ {
					ev := event(period, sec, et)
					first := c.Classify(ev, clutch.GameContext{})
					second := c.Classify(ev, clutch.GameContext{})
					if first != second {
						So(second, ShouldResemble, first)
					}
				}
			}
		}
		So(true, ShouldBeTrue)
	})
}

func TestClassifierOptions(t *testing.T) {
	Convey("Given a classifier with a wider window and fouls counted", t, func() {
		c := clutch.New(
			clutch.WithWindowSeconds(60),
			clutch.WithScoringTypes(model.EventShotMade, model.EventFreeThrowMade, model.EventFoul),
		)

		Convey("Then the policy reflects the options", func() {
			So(c.Policy().WindowSeconds, ShouldEqual, 60)
			So(c.Classify(event(4, 45, model.EventShotMade), clutch.GameContext{}).IsClutch, ShouldBeTrue)
			So(c.Classify(event(4, 10, model.EventFoul), clutch.GameContext{}).IsClutch, ShouldBeTrue)
		})

		Convey("Then the returned policy is a copy", func() {
			p := c.Policy()
			p.Scoring[model.EventRebound] = true
			So(c.Classify(event(4, 10, model.EventRebound), clutch.GameContext{}).IsClutch, ShouldBeFalse)
		})

		Convey("Then non-positive windows are ignored", func() {
			So(clutch.New(clutch.WithWindowSeconds(0)).Policy().WindowSeconds, ShouldEqual, clutch.DefaultWindowSeconds)
		})
	})
}
