// Package scheduler provides flow.Scheduler implementations: Inline, already
// in the parent package for tests, and Pool here, a bounded worker pool for
// production pipelines that need to spread node steps across goroutines
// without letting an unbounded number of them run (or queue) at once.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relaypipe/flow/throttle"
)

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Submitted  int64
	Completed  int64
	Panicked   int64
	Overflowed int64
	InFlight   int64
	Workers    int
}

// Option configures a Pool.
type Option func(*poolConfig)

type poolConfig struct {
	queueSize       int64
	onPanic         func(recovered any)
	onMetrics       func(Stats)
	metricsInterval time.Duration
}

// WithQueueSize bounds the number of tasks that may be submitted but not yet
// started, on top of the n that can already be running. Default is n.
func WithQueueSize(size int64) Option {
	return func(c *poolConfig) { c.queueSize = size }
}

// WithPanicHandler registers a callback invoked (instead of the pool
// crashing the calling goroutine) when a submitted task panics.
func WithPanicHandler(fn func(recovered any)) Option {
	return func(c *poolConfig) { c.onPanic = fn }
}

// WithMetrics registers a periodic snapshot callback, fired every interval
// until the pool is closed.
func WithMetrics(interval time.Duration, fn func(Stats)) Option {
	return func(c *poolConfig) {
		c.onMetrics = fn
		c.metricsInterval = interval
	}
}

// Pool is a fixed-size worker pool that implements flow.Scheduler. Under
// normal load, total outstanding work (running plus queued) is bounded by a
// golang.org/x/sync/semaphore-backed throttle.Semaphore sized n+queueSize,
// admitting a task onto the bounded path only via a non-blocking TryAcquire.
//
// Submit itself never blocks the calling goroutine. flow's node engine
// submits reentrantly — a broadcast's downstream dispatch and a node's own
// cts self-resubmission both call Submit from inside a task a worker is
// already executing (see node.go's scheduleStep) — so a worker can be the
// very goroutine asking the pool for another slot while still holding one of
// its own. A blocking admission there can deadlock every worker waiting on a
// slot that only a running worker's completion can free. When the bounded
// path is saturated, Submit instead runs the task on its own goroutine,
// outside the n+queueSize bound; Stats.Overflowed counts how often this
// happens; sustained overflow means the pool is undersized for its load.
type Pool struct {
	tasks chan func()
	sem   *throttle.Semaphore

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	submitted  atomic.Int64
	completed  atomic.Int64
	panicked   atomic.Int64
	overflowed atomic.Int64
	inFlight   atomic.Int64
	workers    int

	onPanic func(recovered any)
}

// NewPool starts n worker goroutines and returns a Pool ready to accept
// Submit calls. Panics if n <= 0.
func NewPool(ctx context.Context, n int, opts ...Option) *Pool {
	if n <= 0 {
		panic("scheduler: NewPool requires n > 0")
	}
	cfg := poolConfig{queueSize: int64(n)}
	for _, o := range opts {
		o(&cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	capacity := int64(n) + cfg.queueSize
	p := &Pool{
		tasks:   make(chan func(), capacity),
		sem:     throttle.NewSemaphore(capacity),
		ctx:     ctx,
		cancel:  cancel,
		workers: n,
		onPanic: cfg.onPanic,
	}

	p.wg.Add(n)
	for range n {
		go p.worker()
	}

	if cfg.onMetrics != nil {
		go p.reportMetrics(cfg.metricsInterval, cfg.onMetrics)
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for fn := range p.tasks {
		p.runTask(fn)
		p.sem.Release()
	}
}

// runOverflow runs fn on its own goroutine, bypassing the semaphore and the
// task channel entirely: it never held a slot, so nothing needs releasing.
func (p *Pool) runOverflow(fn func()) {
	p.overflowed.Add(1)
	go p.runTask(fn)
}

func (p *Pool) runTask(fn func()) {
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.completed.Add(1)
	}()
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			if p.onPanic != nil {
				p.onPanic(r)
			}
		}
	}()
	fn()
}

func (p *Pool) reportMetrics(interval time.Duration, fn func(Stats)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if p.closed.Load() {
				return
			}
			fn(p.Stats())
		case <-p.ctx.Done():
			return
		}
	}
}

// Stats returns a point-in-time snapshot of pool activity.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Panicked:   p.panicked.Load(),
		Overflowed: p.overflowed.Load(),
		InFlight:   p.inFlight.Load(),
		Workers:    p.workers,
	}
}

// Submit implements flow.Scheduler. It never blocks: task is admitted onto
// the bounded worker+queue path when a slot is available without waiting,
// and otherwise runs on its own goroutine immediately. See the Pool doc
// comment for why blocking here is unsafe.
func (p *Pool) Submit(task func()) {
	if p.closed.Load() {
		return
	}
	if !p.sem.TryAcquire() {
		p.runOverflow(task)
		return
	}

	// Guard against the race between the closed check above and Close()
	// closing the channel: if Close fires in between, the send below
	// panics; recover and fall back to running the task directly.
	defer func() {
		if r := recover(); r != nil {
			p.sem.Release()
			p.runOverflow(task)
		}
	}()
	select {
	case p.tasks <- task:
		p.submitted.Add(1)
	default:
		// The channel is sized to match the semaphore, so a successful
		// TryAcquire always has room; guard anyway rather than block.
		p.sem.Release()
		p.runOverflow(task)
	}
}

// Close stops accepting new tasks, waits for in-flight tasks to finish, and
// releases the pool's workers. Safe to call more than once. Does not wait
// for overflow goroutines spawned by Submit, since those were never bounded
// by this pool to begin with.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.tasks)
	}
	p.wg.Wait()
	p.cancel()
}
