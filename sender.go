package flow

// Sender is a handle that pushes values into a node's queue. It is
// deliberately non-owning (a weak reference to the node) the same way the
// node's downstream links are: a Sender alone never keeps a pipeline alive,
// only a live Receiver chain does.
type Sender[T any] struct {
	target senderSurface[T]
	closed bool
}

// Send pushes v into the node. Sending after Close, or on a Sender whose
// node has already been collected, is a silent no-op.
func (s Sender[T]) Send(v T) {
	if s.closed || s.target == nil {
		return
	}
	s.target.send(v)
}

// Clone returns an independent Sender handle sharing the same node. Each
// clone must be closed exactly once.
func (s Sender[T]) Clone() Sender[T] {
	if s.target != nil {
		s.target.addSender()
	}
	return Sender[T]{target: s.target}
}

// Close retires this handle. Once every Sender (including the one implicit
// in the node's upstream link, if any) has been closed, the node's queue is
// marked for a final drain and close propagates downstream.
func (s *Sender[T]) Close() {
	if s.closed || s.target == nil {
		return
	}
	s.target.removeSender()
	s.closed = true
}
