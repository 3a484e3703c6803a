package flow

import "weak"

// Pipe attaches a stateful Yielder downstream of r, via the yielding step
// algorithm (section 4.1.3): proc accumulates input across however many
// Await calls it needs and decides for itself, through Stater, when it has
// something to Yield. r's placeholder reference is retired as part of the
// call, equivalent to r.SetReady() — if r must also feed a second
// downstream stage, call r.Clone() first and pipe the clone.
func Pipe[Arg, R any](r Receiver[Arg], proc Yielder[Arg, R], opts ...Option[Arg, R]) Receiver[R] {
	adapter := newYieldingAdapter[Arg, R](proc)
	return attach[Arg, R](r, adapter, opts...)
}

// Transform attaches a stateless function downstream of r via the
// non-yielding transform step algorithm (section 4.1.4): one input in, one
// output out, no Stater required. This is the common case and should be
// preferred over Pipe(r, NewFuncProcess(fn)) — it skips the extra
// indirection of a Yielder wrapper.
func Transform[Arg, R any](r Receiver[Arg], fn func(Arg) R, opts ...Option[Arg, R]) Receiver[R] {
	adapter := newTransformAdapter[Arg, R](fn)
	return attach[Arg, R](r, adapter, opts...)
}

// TransformClosing is Transform plus a hook invoked once r's upstream has
// closed and drained, for stateless transforms that still need to react to
// end-of-stream (flushing a downstream Sender, say).
func TransformClosing[Arg, R any](r Receiver[Arg], fn func(Arg) R, onClose func(), opts ...Option[Arg, R]) Receiver[R] {
	adapter := newClosingTransformAdapter[Arg, R](fn, onClose)
	return attach[Arg, R](r, adapter, opts...)
}

// Sink drains r by calling fn for every value the pipeline produces. It
// returns a Receiver[Unit]: since Unit nodes never wait on a receiver
// placeholder of their own, the pipeline runs to completion on its own once
// fed, but the returned Receiver must still be kept alive by the caller for
// as long as the pipeline should keep running — it is what holds the whole
// upstream chain reachable.
func Sink[Arg any](r Receiver[Arg], fn func(Arg), opts ...Option[Arg, Unit]) Receiver[Unit] {
	return Transform(r, func(v Arg) Unit {
		fn(v)
		return Unit{}
	}, opts...)
}

func attach[Arg, R any](r Receiver[Arg], adapter *procAdapter[Arg, R], opts ...Option[Arg, R]) Receiver[R] {
	n2 := newNode[Arg, R](adapter, r.n, r.n.schedulerOf(), opts...)
	r.n.mapDownstream(weakSender[Arg, R]{ref: weak.Make(n2)})
	r.SetReady()
	return newReceiver[R](n2)
}
