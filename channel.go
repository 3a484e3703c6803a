package flow

import "weak"

// New creates a root node whose process is the identity function and
// returns a Sender/Receiver pair bound to it. Values pushed through the
// Sender arrive unchanged at the Receiver, which is the entry point for
// building a pipeline with Pipe and Transform.
func New[T any](sch Scheduler, opts ...Option[T, T]) (Sender[T], Receiver[T]) {
	n := newNode[T, T](newTransformAdapter(identity[T]), nil, sch, opts...)
	return Sender[T]{target: weakSender[T, T]{ref: weak.Make(n)}}, newReceiver[T](n)
}

func identity[T any](v T) T { return v }
