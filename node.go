package flow

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

// ctsNotifier is the "continue to send" contract a node exposes to whatever
// feeds it: a downstream node, once it has drained the value it was just
// given, calls cts() on its upstream to signal it may queue another.
type ctsNotifier interface {
	cts()
}

// senderSurface is the non-owning façade a node exposes to whatever is
// allowed to push values into it. It mirrors a shared_process's sender side:
// enqueue a value, and track how many live Sender handles still reference it.
type senderSurface[T any] interface {
	send(v T)
	addSender()
	removeSender()
}

// receiverNode is what a Receiver[T] and Pipe/Transform need from the
// concrete *node[Arg, T] that backs it, named only by the node's own result
// type so a Receiver doesn't need to know the node's argument type.
type receiverNode[T any] interface {
	ctsNotifier
	addReceiver()
	removeReceiver()
	mapDownstream(s senderSurface[T])
	schedulerOf() Scheduler
	describe() string
}

// node is the shared process engine: a mutex-protected queue feeding a
// single process, broadcasting each yielded value to a weakly-held set of
// downstream senders, and propagating close once its upstream is gone and
// its queue has drained. At most one step runs for a given node at a time.
type node[Arg, R any] struct {
	name string

	proc      *procAdapter[Arg, R]
	upstream  ctsNotifier // strong reference: keeps the upstream node alive
	scheduler Scheduler

	downstreamMu sync.Mutex
	downstream   []senderSurface[R] // weak references: do not keep children alive

	mu           sync.Mutex
	queue        []Arg
	running      bool
	suspendCount int
	closeQueue   bool
	final        bool

	senderCount   atomic.Int64
	receiverCount atomic.Int64

	logger  Logger
	metrics MetricsCollector
}

func newNode[Arg, R any](proc *procAdapter[Arg, R], upstream ctsNotifier, sch Scheduler, opts ...Option[Arg, R]) *node[Arg, R] {
	var cfg nodeConfig[Arg, R]
	for _, o := range opts {
		o(&cfg)
	}
	n := &node[Arg, R]{
		name:      cfg.name,
		proc:      proc,
		upstream:  upstream,
		scheduler: sch,
		logger:    cfg.logger,
	}
	if len(cfg.metrics) == 1 {
		n.metrics = cfg.metrics[0]
	} else if len(cfg.metrics) > 1 {
		n.metrics = newMetricsDistributor(cfg.metrics...)
	}
	n.senderCount.Store(1)
	if !isUnitType[R]() {
		n.receiverCount.Store(1)
	}
	return n
}

func (n *node[Arg, R]) describe() string {
	if n.name != "" {
		return n.name
	}
	return fmt.Sprintf("node@%p", n)
}

func (n *node[Arg, R]) schedulerOf() Scheduler { return n.scheduler }

func (n *node[Arg, R]) mapDownstream(s senderSurface[R]) {
	n.downstreamMu.Lock()
	n.downstream = append(n.downstream, s)
	n.downstreamMu.Unlock()
}

// send enqueues v. If no receiver placeholder is outstanding and the node
// isn't already running, this kicks off a step.
func (n *node[Arg, R]) send(v Arg) {
	n.mu.Lock()
	n.queue = append(n.queue, v)
	doRun := n.receiverCount.Load() == 0 && !n.running
	if doRun {
		n.running = true
	}
	n.mu.Unlock()
	if doRun {
		n.scheduleStep()
	}
}

func (n *node[Arg, R]) addSender() { n.senderCount.Add(1) }

// removeSender drops one sender reference; once the last sender is gone the
// queue is marked for close and, if idle, a final draining step is kicked
// off.
func (n *node[Arg, R]) removeSender() {
	if n.senderCount.Add(-1) != 0 {
		return
	}
	n.mu.Lock()
	n.closeQueue = true
	doRun := n.receiverCount.Load() == 0 && !n.running
	if doRun {
		n.running = true
	}
	n.mu.Unlock()
	if doRun {
		n.scheduleStep()
	}
}

func (n *node[Arg, R]) addReceiver() {
	if isUnitType[R]() {
		return
	}
	n.receiverCount.Add(1)
}

// removeReceiver retires one receiver placeholder. A node with a non-Unit
// result type starts with receiverCount 1 and never autonomously steps
// until that placeholder is retired (via Receiver.SetReady, which every
// Pipe/Transform call does for its input automatically) — this is the
// node's way of waiting until someone has actually committed to reading it.
func (n *node[Arg, R]) removeReceiver() {
	if isUnitType[R]() {
		return
	}
	if n.receiverCount.Add(-1) != 0 {
		return
	}
	n.mu.Lock()
	doRun := (len(n.queue) > 0 || n.closeQueue) && !n.running
	if doRun {
		n.running = true
	}
	n.mu.Unlock()
	if doRun {
		n.scheduleStep()
	}
}

// cts acknowledges that a downstream consumer drained the value handed to
// it during the most recent broadcast. Once every downstream (and the node
// itself) has acked, suspendCount returns to zero and the node may step
// again. The process's State is read here with n.mu held; see Stater.
func (n *node[Arg, R]) cts() {
	doRun := false
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		panic(newInvariantError("cts called on a node with no step in flight"))
	}
	n.suspendCount--
	if n.suspendCount < 0 {
		n.mu.Unlock()
		panic(newInvariantError("cts called more times than broadcast dispatched"))
	}
	if n.suspendCount == 0 {
		if n.proc.state() == Yield || len(n.queue) > 0 || n.closeQueue {
			doRun = true
		} else {
			n.running = false
		}
	}
	n.mu.Unlock()
	if doRun {
		n.scheduleStep()
	}
}

// broadcast fans v out to every live downstream sender, then suspends the
// node until each one (plus the node's own self-ack) has called cts back.
func (n *node[Arg, R]) broadcast(v R) {
	n.downstreamMu.Lock()
	targets := make([]senderSurface[R], len(n.downstream))
	copy(targets, n.downstream)
	n.downstreamMu.Unlock()

	n.mu.Lock()
	if n.suspendCount != 0 {
		n.mu.Unlock()
		panic(newInvariantError("broadcast while a prior broadcast is still unacked"))
	}
	n.suspendCount = len(targets) + 1
	n.mu.Unlock()

	if n.logger != nil {
		n.logger.Debug("flow: broadcast", "node", n.describe(), "downstream", len(targets))
	}
	for _, d := range targets {
		d.send(v)
	}
}

// dequeue pops the front of the queue under the process mutex, cts's the
// upstream if that drained the queue, and hands the message (or a close
// notification) to the process. It returns whether a message was popped.
func (n *node[Arg, R]) dequeue() bool {
	var ctsUpstream, hasMsg, doClose bool
	var msg Arg
	n.mu.Lock()
	if len(n.queue) == 0 {
		doClose = n.closeQueue
		n.closeQueue = false
		n.final = doClose
	} else {
		msg = n.queue[0]
		n.queue = n.queue[1:]
		hasMsg = true
		ctsUpstream = len(n.queue) == 0
	}
	n.mu.Unlock()

	if ctsUpstream && n.upstream != nil {
		n.upstream.cts()
	}
	switch {
	case hasMsg:
		n.proc.awaitFn(msg)
	case doClose && n.proc.closeFn != nil:
		n.proc.closeFn()
	}
	return hasMsg
}

// step runs one iteration of whichever step algorithm this node's process
// requires. It always runs on the Scheduler, never inline from send/cts.
func (n *node[Arg, R]) step() {
	if n.proc.transform {
		n.stepTransform()
	} else {
		n.stepYielding()
	}
}

// stepYielding implements the yielding step algorithm (section 4.1.3): keep
// draining the queue until the process reports Yield or the queue goes dry;
// if it's ready, yield, broadcast, and self-ack; otherwise this step is done.
func (n *node[Arg, R]) stepYielding() {
	start := time.Now()
	for n.proc.state() != Yield {
		if !n.dequeue() {
			break
		}
	}
	if n.proc.state() != Yield {
		n.taskDone()
		n.report(start, false)
		return
	}
	v := n.proc.yieldFn()
	n.broadcast(v)
	n.cts()
	n.report(start, true)
}

// stepTransform implements the non-yielding transform step algorithm
// (section 4.1.4): pop at most one message, call the process directly, and
// broadcast its result — no internal state, no Stater needed.
func (n *node[Arg, R]) stepTransform() {
	start := time.Now()
	var ctsUpstream, hasMsg, doClose bool
	var msg Arg
	n.mu.Lock()
	if len(n.queue) == 0 {
		doClose = n.closeQueue
		n.closeQueue = false
		n.final = doClose
	} else {
		msg = n.queue[0]
		n.queue = n.queue[1:]
		hasMsg = true
		ctsUpstream = len(n.queue) == 0
	}
	n.mu.Unlock()

	if ctsUpstream && n.upstream != nil {
		n.upstream.cts()
	}
	if hasMsg {
		v := n.proc.callFn(msg)
		n.broadcast(v)
		n.cts()
		n.report(start, true)
		return
	}
	if doClose && n.proc.closeFn != nil {
		n.proc.closeFn()
	}
	n.taskDone()
	n.report(start, false)
}

// taskDone is reached whenever a step produces nothing to broadcast. If
// there's nothing left queued and no close pending, the node goes idle
// until send/removeSender/removeReceiver wakes it again. If this was the
// final drain, every downstream is told its sender is gone and the node's
// own downstream list is released.
func (n *node[Arg, R]) taskDone() {
	n.mu.Lock()
	doRun := len(n.queue) > 0 || n.closeQueue
	n.running = doRun
	doFinal := n.final
	n.mu.Unlock()

	if doRun && doFinal {
		panic(newInvariantError("node is both scheduled to run again and marked final"))
	}
	if doRun {
		n.scheduleStep()
		return
	}
	if doFinal {
		n.downstreamMu.Lock()
		targets := n.downstream
		n.downstream = nil
		n.downstreamMu.Unlock()
		if n.logger != nil {
			n.logger.Info("flow: closed", "node", n.describe(), "downstream", len(targets))
		}
		for _, d := range targets {
			d.removeSender()
		}
	}
}

func (n *node[Arg, R]) report(start time.Time, broadcasted bool) {
	if n.metrics == nil {
		return
	}
	n.mu.Lock()
	depth := len(n.queue)
	final := n.final
	n.mu.Unlock()
	n.metrics(&Metrics{
		Node:        n.describe(),
		Start:       start,
		Duration:    time.Since(start),
		QueueDepth:  depth,
		Broadcasted: broadcasted,
		Final:       final,
	})
}

// scheduleStep submits a step to the scheduler via a weak reference to n,
// so an unreachable node (every Sender closed, every Receiver dropped, no
// downstream pointing at it) can be collected even while a step is still
// pending — the scheduler holds no strong reference of its own.
func (n *node[Arg, R]) scheduleStep() {
	wp := weak.Make(n)
	n.scheduler.Submit(func() {
		if p := wp.Value(); p != nil {
			p.step()
		}
	})
}

// weakSender is a non-owning senderSurface[Arg] wrapping a *node[Arg, R].
// It is used both for a root node's public Sender handle and for every
// downstream link recorded in an upstream node's downstream list.
type weakSender[Arg, R any] struct {
	ref weak.Pointer[node[Arg, R]]
}

func (w weakSender[Arg, R]) send(v Arg) {
	if n := w.ref.Value(); n != nil {
		n.send(v)
	}
}

func (w weakSender[Arg, R]) addSender() {
	if n := w.ref.Value(); n != nil {
		n.addSender()
	}
}

func (w weakSender[Arg, R]) removeSender() {
	if n := w.ref.Value(); n != nil {
		n.removeSender()
	}
}
