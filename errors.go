package flow

import "errors"

// ErrInvariant marks the error family behind the engine's internal panics —
// cts() called without a matching broadcast, a second broadcast dispatched
// before the first was fully acked, or a node left both runnable and final.
// These indicate a broken invariant in the engine or a misbehaving process
// (a Yielder that lies about its own State), not a recoverable runtime
// condition, which is why node.go raises them as panics rather than
// returning them; ErrInvariant exists so tests can assert on the panic
// value with errors.Is after recovering it.
var ErrInvariant = errors.New("flow: invariant violation")

// invariantError wraps ErrInvariant with the specific condition that broke,
// and is what node.go actually panics with.
type invariantError struct {
	msg string
}

func (e *invariantError) Error() string { return e.msg }

func (e *invariantError) Unwrap() error { return ErrInvariant }

func newInvariantError(msg string) error {
	return &invariantError{msg: "flow: invariant violation: " + msg}
}
