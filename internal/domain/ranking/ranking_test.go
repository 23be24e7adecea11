package ranking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/query"
	"github.com/okian/clutch/internal/domain/ranking"
	"github.com/okian/clutch/internal/domain/timeout"
	. "github.com/smartystreets/goconvey/convey"
)

type querierFunc func(ctx context.Context, q query.Query) ([]query.Tuple, error)

func (f querierFunc) Query(ctx context.Context, q query.Query) ([]query.Tuple, error) { return f(ctx, q) }

func staticStore(tuples ...query.Tuple) ranking.Querier {
	return querierFunc(func(context.Context, query.Query) ([]query.Tuple, error) { return tuples, nil })
}

func tuple(game string, period, secLeft int, scorer string, home, visitor int) query.Tuple {
	return query.Tuple{
		query.ColGame:         game,
		query.ColPeriod:       int64(period),
		query.ColSecLeft:      int64(secLeft),
		query.ColScorer:       scorer,
		query.ColScoreHome:    int64(home),
		query.ColScoreVisitor: int64(visitor),
		query.ColHomeDesc:     nil,
		query.ColVisitDesc:    nil,
		query.ColRole:         string(model.RolePlayer1),
	}
}

func TestRankOrdering(t *testing.T) {
	Convey("Given rows from the same game", t, func() {
		rows, err := ranking.Rank([]query.Tuple{
			tuple("49600088", 4, 15, "Michael Jordan", 86, 86),
			tuple("49600088", 4, 5, "Steve Kerr", 88, 86),
		}, 0)

		Convey("Then fewer seconds left sorts first", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].SecLeft, ShouldEqual, 5)
			So(rows[1].SecLeft, ShouldEqual, 15)
		})
	})

	Convey("Given rows across games with mixed id spellings", t, func() {
		rows, err := ranking.Rank([]query.Tuple{
			tuple("0049600088", 4, 5, "Steve Kerr", 88, 86),
			tuple("49600087", 4, 6, "Greg Ostertag", 88, 90),
			tuple("0049600083", 4, 0, "Michael Jordan", 84, 82),
		}, 0)

		Convey("Then games order numerically", func() {
			So(err, ShouldBeNil)
			So([]string{rows[0].Scorer, rows[1].Scorer, rows[2].Scorer}, ShouldResemble,
				[]string{"Michael Jordan", "Greg Ostertag", "Steve Kerr"})
		})
	})

	Convey("Given ties on game and seconds left", t, func() {
		rows, _ := ranking.Rank([]query.Tuple{
			tuple("G2", 5, 3, "B", 1, 0),
			tuple("G1", 4, 3, "B", 1, 0),
			tuple("G1", 4, 3, "A", 1, 0),
			tuple("G1", 5, 3, "A", 1, 0),
		}, 0)

		Convey("Then non-numeric ids order lexically and period then scorer break ties", func() {
			got := make([]string, len(rows))
			for i, r := range rows {
				got[i] = r.Game + "/" + r.Scorer
			}
			So(got, ShouldResemble, []string{"G1/A", "G1/B", "G1/A", "G2/B"})
			So(rows[2].Period, ShouldEqual, 5)
		})
	})
}

func TestRankShaping(t *testing.T) {
	Convey("Given two tuples differing only in role", t, func() {
		a := tuple("49600083", 4, 0, "Michael Jordan", 84, 82)
		b := tuple("49600083", 4, 0, "Michael Jordan", 84, 82)
		b[query.ColRole] = string(model.RolePlayer2)

		rows, err := ranking.Rank([]query.Tuple{a, b}, 0)

		Convey("Then they collapse into one row", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Role, ShouldEqual, model.RolePlayer1)
		})
	})

	Convey("Given descriptions on either side", t, func() {
		both := tuple("1", 4, 1, "A", 2, 0)
		both[query.ColHomeDesc] = "home text"
		both[query.ColVisitDesc] = "visit text"
		visitOnly := tuple("2", 4, 1, "B", 0, 2)
		visitOnly[query.ColVisitDesc] = "visit text"
		neither := tuple("3", 4, 1, "C", 1, 1)

		rows, err := ranking.Rank([]query.Tuple{both, visitOnly, neither}, 0)

		Convey("Then home wins, visitor is the fallback, else empty", func() {
			So(err, ShouldBeNil)
			So(rows[0].Desc, ShouldEqual, "home text")
			So(rows[1].Desc, ShouldEqual, "visit text")
			So(rows[2].Desc, ShouldEqual, "")
		})

		Convey("Then margin and lead follow the score", func() {
			for _, r := range rows {
				So(r.Margin, ShouldEqual, r.Score.Home-r.Score.Visitor)
			}
			So(rows[0].Lead, ShouldEqual, model.LeadHome)
			So(rows[1].Lead, ShouldEqual, model.LeadVisitor)
			So(rows[2].Lead, ShouldEqual, model.LeadTied)
		})
	})

	Convey("Given a store-provided margin that disagrees", t, func() {
		tp := tuple("1", 4, 1, "A", 90, 88)
		tp["margin"] = int64(7)
		rows, _ := ranking.Rank([]query.Tuple{tp}, 0)

		Convey("Then the recomputed margin is used", func() {
			So(rows[0].Margin, ShouldEqual, 2)
		})
	})

	Convey("Given float-typed numbers from a driver", t, func() {
		tp := tuple("1", 4, 1, "A", 0, 0)
		tp[query.ColSecLeft] = 12.0
		tp[query.ColScoreHome] = 3
		rows, err := ranking.Rank([]query.Tuple{tp}, 0)

		Convey("Then whole values are accepted", func() {
			So(err, ShouldBeNil)
			So(rows[0].SecLeft, ShouldEqual, 12)
			So(rows[0].Score.Home, ShouldEqual, 3)
		})
	})

	Convey("Given more rows than the cap", t, func() {
		var tuples []query.Tuple
		for i := 0; i < 5; i++ {
			tuples = append(tuples, tuple("1", 4, i, "A", 1, 0))
		}
		rows, _ := ranking.Rank(tuples, 2)

		Convey("Then the first rows after ordering are kept", func() {
			So(rows, ShouldHaveLength, 2)
			So(rows[1].SecLeft, ShouldEqual, 1)
		})
	})
}

func TestRankMalformed(t *testing.T) {
	Convey("Given malformed tuples", t, func() {
		missing := tuple("1", 4, 1, "A", 1, 0)
		delete(missing, query.ColScorer)
		wrongType := tuple("1", 4, 1, "A", 1, 0)
		wrongType[query.ColPeriod] = "four"
		fractional := tuple("1", 4, 1, "A", 1, 0)
		fractional[query.ColSecLeft] = 1.5
		badDesc := tuple("1", 4, 1, "A", 1, 0)
		badDesc[query.ColHomeDesc] = 42

		for _, tp := range []query.Tuple{missing, wrongType, fractional, badDesc} {
			_, err := ranking.Rank([]query.Tuple{tp}, 0)
			So(errors.Is(err, ranking.ErrMalformedResult), ShouldBeTrue)
		}
	})
}

func TestLimit(t *testing.T) {
	Convey("Given a configured cap and a query limit", t, func() {
		So(ranking.Limit(0, 0), ShouldEqual, 0)
		So(ranking.Limit(10, 0), ShouldEqual, 10)
		So(ranking.Limit(0, 3), ShouldEqual, 3)
		So(ranking.Limit(10, 3), ShouldEqual, 3)
		So(ranking.Limit(2, 3), ShouldEqual, 2)
	})
}

func TestExecute(t *testing.T) {
	Convey("Given an executor", t, func() {
		ctx := context.Background()
		q := query.Query{Template: "clutch_scoring", Limit: 1}

		Convey("When the store returns tuples", func() {
			e := ranking.New(staticStore(
				tuple("49600088", 4, 5, "Steve Kerr", 88, 86),
				tuple("49600083", 4, 0, "Michael Jordan", 84, 82),
			), ranking.WithMaxResults(5))
			rows, err := e.Execute(ctx, q)

			Convey("Then the query limit applies after ranking", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].Scorer, ShouldEqual, "Michael Jordan")
			})
		})

		Convey("When the store is unavailable", func() {
			e := ranking.New(querierFunc(func(context.Context, query.Query) ([]query.Tuple, error) {
				return nil, ranking.ErrStoreUnavailable
			}))
			rows, err := e.Execute(ctx, q)

			Convey("Then it is an execution error", func() {
				So(rows, ShouldBeNil)
				So(errors.Is(err, ranking.ErrExecution), ShouldBeTrue)
				So(errors.Is(err, ranking.ErrStoreUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the store returns malformed tuples", func() {
			_, err := ranking.New(staticStore(query.Tuple{"game": "1"})).Execute(ctx, q)

			Convey("Then it is an execution error", func() {
				So(errors.Is(err, ranking.ErrExecution), ShouldBeTrue)
				So(errors.Is(err, ranking.ErrMalformedResult), ShouldBeTrue)
			})
		})

		Convey("When the store is slower than the timeout", func() {
			e := ranking.New(querierFunc(func(ctx context.Context, _ query.Query) ([]query.Tuple, error) {
				<-ctx.Done()
				return []query.Tuple{tuple("1", 4, 1, "A", 1, 0)}, nil
			}), ranking.WithTimeout(10*time.Millisecond))
			rows, err := e.Execute(ctx, q)

			Convey("Then it times out with no partial rows", func() {
				So(rows, ShouldBeNil)
				So(errors.Is(err, timeout.ErrTimeout), ShouldBeTrue)
				So(errors.Is(err, ranking.ErrExecution), ShouldBeFalse)
			})
		})
	})
}
