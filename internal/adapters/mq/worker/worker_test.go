package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/clutch/internal/adapters/mq/queue"
	worker "github.com/okian/clutch/internal/adapters/mq/worker"
	model "github.com/okian/clutch/internal/domain/model"
	logging "github.com/okian/clutch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu   sync.Mutex
	nums []int
	fail map[int]error
}

func (r *recorder) Handle(_ context.Context, p model.Play) error { //nolint:gocritic // hugeParam
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[p.Num]; err != nil {
		return err
	}
	r.nums = append(r.nums, p.Num)
	return nil
}

func (r *recorder) seen() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.nums...)
}

func fill(q *queue.InMemoryQueue, nums ...int) {
	for _, n := range nums {
		_ = q.Enqueue(context.Background(), model.Play{GameID: "49600083", Num: n})
	}
}

func TestWorkerRun(t *testing.T) {
	convey.Convey("Given a worker over a closed, filled queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		fill(q, 1, 2, 3)
		_ = q.Close()
		rec := &recorder{}
		w := worker.New(q, rec, worker.WithName("test"), worker.WithLogger(logging.Nop()))

		convey.Convey("When it runs", func() {
			err := w.Run(context.Background())

			convey.Convey("Then every play is handled in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.seen(), convey.ShouldResemble, []int{1, 2, 3})
				convey.So(w.Processed(), convey.ShouldEqual, 3)
			})
		})
	})

	convey.Convey("Given a handler that fails on one play", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		fill(q, 1, 2, 3)
		_ = q.Close()
		boom := errors.New("store down")
		rec := &recorder{fail: map[int]error{2: boom}}
		w := worker.New(q, rec, worker.WithLogger(logging.Nop()))

		convey.Convey("Then the worker stops with that error", func() {
			err := w.Run(context.Background())
			convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
			convey.So(rec.seen(), convey.ShouldResemble, []int{1})
		})
	})

	convey.Convey("Given a worker waiting on an open queue", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.New(q, worker.HandlerFunc(func(context.Context, model.Play) error { return nil }),
			worker.WithLogger(logging.Nop()))
		errc := make(chan error, 1)
		go func() { errc <- w.Run(context.Background()) }()

		convey.Convey("When shut down", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(<-errc, convey.ShouldBeNil)
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a cancelled context", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.New(q, &recorder{}, worker.WithLogger(logging.Nop()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		convey.So(errors.Is(w.Run(ctx), context.Canceled), convey.ShouldBeTrue)
	})
}
