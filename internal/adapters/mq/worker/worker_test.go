package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/swing/internal/adapters/mq/queue"
	worker "github.com/okian/swing/internal/adapters/mq/worker"
	logging "github.com/okian/swing/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 128)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func (mq *mockQueue) add(gameID string) {
	mq.jobs <- queue.Job{BatchID: "b1", GameID: gameID}
}

// recorder remembers processed games and fails the ones it is told to.
type recorder struct {
	mu        sync.Mutex
	processed map[string]int
	fail      map[string]error
	delay     time.Duration
}

func newRecorder() *recorder {
	return &recorder{processed: map[string]int{}, fail: map[string]error{}}
}

func (r *recorder) Process(ctx context.Context, job worker.Job) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[job.GameID]; ok {
		return err
	}
	r.processed[job.GameID]++
	return nil
}

func (r *recorder) count(gameID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed[gameID]
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.processed {
		n += c
	}
	return n
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		rec := newRecorder()

		convey.Convey("When created with and without a name", func() {
			convey.So(worker.NewInMemoryWorker(q, rec).Name(), convey.ShouldEqual, "worker")
			named := worker.NewInMemoryWorker(q, rec, worker.WithName("w-1"), worker.WithLogger(logging.Get()), worker.WithName(""))
			convey.So(named.Name(), convey.ShouldEqual, "w-1")
		})

		convey.Convey("When running until the queue is drained", func() {
			w := worker.NewInMemoryWorker(q, rec)
			rec.fail["g2"] = errors.New("generation failed")
			q.add("g1")
			q.add("g2")
			q.add("g3")
			_ = q.Close()

			finished := make(chan struct{})
			go func() {
				w.Run(context.Background())
				close(finished)
			}()

			select {
			case <-finished:
			case <-time.After(time.Second):
				convey.So("worker did not stop", convey.ShouldBeEmpty)
			}

			convey.Convey("Then every job was offered and a failure did not stop the worker", func() {
				convey.So(rec.count("g1"), convey.ShouldEqual, 1)
				convey.So(rec.count("g2"), convey.ShouldEqual, 0)
				convey.So(rec.count("g3"), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When shutting down an idle worker", func() {
			w := worker.NewInMemoryWorker(q, rec)
			go w.Run(context.Background())

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then a second shutdown is harmless", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When its context is cancelled it stops", func() {
			w := worker.NewInMemoryWorker(q, rec)
			ctx, cancel := context.WithCancel(context.Background())
			finished := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(finished)
			}()
			cancel()

			select {
			case <-finished:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("worker did not stop", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		rec := newRecorder()

		convey.Convey("A non-positive count falls back to a CPU based default", func() {
			pool := worker.NewPool(0, q, rec)
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			convey.So(worker.NewPool(3, q, rec).Size(), convey.ShouldEqual, 3)
		})

		convey.Convey("Pool workers are named after the pool", func() {
			convey.So(worker.NewPool(2, q, rec).Names(), convey.ShouldResemble, []string{"worker-0", "worker-1"})
			convey.So(worker.NewPool(3, q, rec, worker.WithName("batch")).Names(), convey.ShouldResemble,
				[]string{"batch-0", "batch-1", "batch-2"})
		})

		convey.Convey("When the queue is closed the pool drains it and Wait returns", func() {
			pool := worker.NewPool(4, q, rec)
			pool.Start(context.Background())

			for i := 0; i < 100; i++ {
				q.add(fmt.Sprintf("g%03d", i))
			}
			_ = q.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			convey.So(pool.Wait(ctx), convey.ShouldBeNil)
			convey.So(rec.total(), convey.ShouldEqual, 100)
		})

		convey.Convey("Wait gives up when its context ends first", func() {
			pool := worker.NewPool(2, q, rec)
			pool.Start(context.Background())
			defer func() { _ = pool.Shutdown(context.Background()) }()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			convey.So(errors.Is(pool.Wait(ctx), context.DeadlineExceeded), convey.ShouldBeTrue)
		})

		convey.Convey("Shutdown closes the queue and stops the workers", func() {
			pool := worker.NewPool(2, q, rec)
			pool.Start(context.Background())
			q.add("g1")

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(pool.Wait(ctx), convey.ShouldBeNil)
			convey.So(rec.total(), convey.ShouldEqual, 1)
		})

		convey.Convey("Shutdown stops slow workers once its deadline passes", func() {
			rec.delay = 50 * time.Millisecond
			pool := worker.NewPool(1, q, rec)
			pool.Start(context.Background())
			for i := 0; i < 20; i++ {
				q.add(fmt.Sprintf("g%02d", i))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
			defer cancel()
			err := pool.Shutdown(ctx)
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			convey.So(rec.total(), convey.ShouldBeLessThan, 20)

			done, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			convey.So(pool.Wait(done), convey.ShouldBeNil)
		})
	})
}

func TestWorkerConcurrency(t *testing.T) {
	convey.Convey("Given a pool with slow jobs", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		rec := newRecorder()
		rec.delay = 20 * time.Millisecond

		pool := worker.NewPool(8, q, rec)
		pool.Start(context.Background())

		for i := 0; i < 16; i++ {
			q.add(fmt.Sprintf("g%d", i))
		}
		_ = q.Close()

		convey.Convey("Workers run jobs in parallel", func() {
			start := time.Now()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			convey.So(pool.Wait(ctx), convey.ShouldBeNil)
			convey.So(rec.total(), convey.ShouldEqual, 16)
			// Serial execution would take 320ms.
			convey.So(time.Since(start), convey.ShouldBeLessThan, 300*time.Millisecond)
		})
	})
}
