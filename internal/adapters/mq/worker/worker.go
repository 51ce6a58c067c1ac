// Package worker drains batch generation jobs with a fixed pool of workers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/swing/internal/adapters/mq/queue"
	"github.com/okian/swing/pkg/logger"
	"github.com/okian/swing/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Processor handles one job. Errors are logged and counted; they never stop
// the worker.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job Job) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, job Job) error { return f(ctx, job) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for one goroutine.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	// busy is shared across a pool so the active gauge counts every worker.
	busy *atomic.Int64

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading queue.
func NewInMemoryWorker(queue Queue, processor Processor, opts ...Option) *InMemoryWorker {
	return newWorker(queue, processor, newSettings(opts), new(atomic.Int64))
}

func newWorker(queue Queue, processor Processor, s settings, busy *atomic.Int64) *InMemoryWorker {
	return &InMemoryWorker{
		queue:     queue,
		processor: processor,
		name:      s.name,
		busy:      busy,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    s.logger.Named(s.name),
	}
}

// Name returns the worker name.
func (w *InMemoryWorker) Name() string { return w.name }

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job",
					logger.String("batch_id", job.BatchID),
					logger.String("game_id", job.GameID),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signal()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) signal() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	metrics.UpdateWorkerActiveCount(int(w.busy.Add(1)))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.busy.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.processor.Process(ctx, job); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "process_error")
		return fmt.Errorf("processing game %s: %w", job.GameID, err)
	}
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers (NumCPU*2 when < 1).
func NewPool(workerCount int, queue Queue, processor Processor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	s := newSettings(opts)
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  s.logger.Named(s.name + "-pool"),
	}
	busy := new(atomic.Int64)
	for i := range workerCount {
		ws := s
		ws.name = s.name + "-" + strconv.Itoa(i)
		pool.workers[i] = newWorker(queue, processor, ws, busy)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Names lists the worker names in index order.
func (p *Pool) Names() []string {
	names := make([]string, len(p.workers))
	for i, w := range p.workers {
		names[i] = w.name
	}
	return names
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has exited, which happens once the queue
// is closed and drained, or until ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Shutdown closes the queue, when it can be closed, and waits for the workers
// to drain it. When ctx or the pool deadline ends first, every worker stops
// after the job in hand and the jobs still queued are dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	var closeErr error
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			closeErr = fmt.Errorf("closing queue: %w", err)
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	drainErr := p.Wait(drainCtx)
	if drainErr != nil {
		p.logger.Warn(ctx, "drain timed out, stopping workers", logger.Int("workers", len(p.workers)))
		for _, w := range p.workers {
			w.signal()
		}
		for _, w := range p.workers {
			select {
			case <-w.done:
			case <-time.After(workerShutdownTimeout):
				p.logger.Warn(ctx, "worker shutdown timed out", logger.String("worker", w.name))
			}
		}
		drainErr = fmt.Errorf("draining queue: %w", drainErr)
	}
	return errors.Join(closeErr, drainErr)
}
