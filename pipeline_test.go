package flow

import (
	"sync"
	"testing"
)

func collector[T any]() (func(T), func() []T) {
	var mu sync.Mutex
	var got []T
	return func(v T) {
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
		}, func() []T {
			mu.Lock()
			defer mu.Unlock()
			out := make([]T, len(got))
			copy(out, got)
			return out
		}
}

func TestIdentityPipeline(t *testing.T) {
	sender, r := New[int](Inline)
	add, result := collector[int]()
	sink := Sink(r, add)
	_ = sink

	sender.Send(1)
	sender.Send(2)
	sender.Send(3)
	sender.Close()

	got := result()
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// sumEvery3 yields the sum of every three values it is given.
type sumEvery3 struct {
	sum   int
	count int
}

func (p *sumEvery3) Await(v int) {
	p.sum += v
	p.count++
}

func (p *sumEvery3) Yield() int {
	v := p.sum
	p.sum, p.count = 0, 0
	return v
}

func (p *sumEvery3) State() Readiness {
	if p.count >= 3 {
		return Yield
	}
	return Await
}

func TestYieldingSum(t *testing.T) {
	sender, r := New[int](Inline)
	summed := Pipe(r, &sumEvery3{})
	add, result := collector[int]()
	_ = Sink(summed, add)

	for v := 1; v <= 9; v++ {
		sender.Send(v)
	}
	sender.Close()

	got := result()
	want := []int{6, 15, 24}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFanOutBroadcastsToEveryClone(t *testing.T) {
	sender, r := New[int](Inline)
	r2 := r.Clone()

	addA, resultA := collector[int]()
	addB, resultB := collector[int]()
	_ = Sink(r, addA)
	_ = Sink(r2, addB)

	sender.Send(10)
	sender.Send(20)
	sender.Close()

	a, b := resultA(), resultB()
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected both branches to see both values, got a=%v b=%v", a, b)
	}
	if a[0] != 10 || a[1] != 20 || b[0] != 10 || b[1] != 20 {
		t.Fatalf("unexpected fan-out contents: a=%v b=%v", a, b)
	}
}

func TestCloseBeforeReadyHoldsBackSteps(t *testing.T) {
	sender, r := New[int](Inline)
	sender.Send(1) // root's receiver placeholder is still outstanding
	sender.Close()

	n := r.n.(*node[int, int])
	n.mu.Lock()
	running := n.running
	queued := len(n.queue)
	n.mu.Unlock()
	if running {
		t.Fatal("node should not be running before its receiver placeholder is retired")
	}
	if queued != 1 {
		t.Fatalf("queue depth = %d, want 1 (value held back)", queued)
	}

	add, result := collector[int]()
	_ = Sink(r, add) // retires the placeholder and lets the held value (plus close) drain

	got := result()
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1]", got)
	}
}

func TestDrainThenCloseDeliversQueuedValuesBeforeClosing(t *testing.T) {
	sender, r := New[int](Inline)
	add, result := collector[int]()
	closed := false
	closedFn := func() { closed = true }

	out := TransformClosing(r, func(v int) int { return v * 2 }, closedFn)
	_ = Sink(out, add)

	sender.Send(1)
	sender.Send(2)
	sender.Close()

	got := result()
	want := []int{2, 4}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !closed {
		t.Fatal("expected the close hook to fire after the queue drained")
	}
}

func TestSenderCloneRequiresBothClosesBeforeClose(t *testing.T) {
	sender, r := New[int](Inline)
	clone := sender.Clone()

	add, result := collector[int]()
	_ = Sink(r, add)

	sender.Send(1)
	sender.Close()
	if got := result(); len(got) != 1 {
		t.Fatalf("got %v, want one value so far", got)
	}

	clone.Send(2)
	clone.Close()

	got := result()
	if len(got) != 2 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

func TestFuncProcessThroughPipe(t *testing.T) {
	sender, r := New[int](Inline)
	doubled := Pipe(r, NewFuncProcess(func(v int) int { return v * 2 }))
	add, result := collector[int]()
	_ = Sink(doubled, add)

	sender.Send(3)
	sender.Send(4)
	sender.Close()

	got := result()
	if len(got) != 2 || got[0] != 6 || got[1] != 8 {
		t.Fatalf("got %v, want [6 8]", got)
	}
}

// deferredScheduler queues submitted tasks instead of running them, so a
// test can drive a pipeline's steps one at a time and inspect node state
// between them.
type deferredScheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func (s *deferredScheduler) Submit(task func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
}

// runOne runs the oldest queued task, reporting whether there was one.
func (s *deferredScheduler) runOne() bool {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return false
	}
	task := s.tasks[0]
	s.tasks = s.tasks[1:]
	s.mu.Unlock()
	task()
	return true
}

// TestBackpressureSuspendsUpstreamUntilDownstreamAcks exercises the CTS
// protocol directly: a node's suspendCount goes to 1 (itself plus its one
// downstream, self-acked immediately) once it broadcasts, a second value
// queued behind that broadcast is held back rather than stepped again, and
// the node only resumes once the downstream's own step runs and calls cts
// back — never before, regardless of how long that takes.
func TestBackpressureSuspendsUpstreamUntilDownstreamAcks(t *testing.T) {
	sch := &deferredScheduler{}
	sender, r := New[int](sch)
	doubled := Transform(r, func(v int) int { return v * 2 })
	add, result := collector[int]()
	_ = Sink(doubled, add)

	root := r.n.(*node[int, int])

	sender.Send(1)
	if !sch.runOne() {
		t.Fatal("expected root's step to be queued after Send")
	}

	root.mu.Lock()
	suspend := root.suspendCount
	root.mu.Unlock()
	if suspend != 1 {
		t.Fatalf("root.suspendCount = %d, want 1 (suspended awaiting its downstream's ack)", suspend)
	}

	// A second value queues behind the suspended broadcast; root must not
	// step again on its own.
	sender.Send(2)
	root.mu.Lock()
	running, queued := root.running, len(root.queue)
	root.mu.Unlock()
	if !running || queued != 1 {
		t.Fatalf("root should hold the second value queued while suspended, got running=%v queued=%d", running, queued)
	}
	if got := result(); len(got) != 0 {
		t.Fatalf("expected nothing collected yet, got %v", got)
	}

	// Running the downstream Transform's step acks root (via cts), which is
	// what lets root resume and schedule its next step.
	if !sch.runOne() {
		t.Fatal("expected downstream's step to be queued after root's broadcast")
	}

	root.mu.Lock()
	suspend = root.suspendCount
	root.mu.Unlock()
	if suspend != 0 {
		t.Fatalf("root.suspendCount = %d, want 0 once downstream acked", suspend)
	}

	sender.Close()
	for sch.runOne() {
	}

	got := result()
	want := []int{2, 4}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCtsWithoutBroadcastPanics(t *testing.T) {
	sender, r := New[int](Inline)
	_ = sender
	n := r.n.(*node[int, int])

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic calling cts with no step in flight")
		}
	}()
	n.cts()
}
