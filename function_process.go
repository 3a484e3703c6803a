package flow

// FuncProcess adapts a plain function into a Yielder that always yields
// immediately after one Await: it binds the argument, then on Yield invokes
// the function and marks itself Await again. Use it when a caller wants
// uniform yielding behavior over what is really a stateless transform —
// Transform (see pipe.go) takes the more direct non-yielding path and
// should be preferred unless a Yielder is specifically required.
type FuncProcess[Arg, R any] struct {
	fn   func(Arg) R
	arg  Arg
	done bool
}

// NewFuncProcess wraps fn as a FuncProcess, ready to Await its first value.
func NewFuncProcess[Arg, R any](fn func(Arg) R) *FuncProcess[Arg, R] {
	return &FuncProcess[Arg, R]{fn: fn, done: true}
}

// Await binds arg for the next Yield call.
func (p *FuncProcess[Arg, R]) Await(arg Arg) {
	p.arg = arg
	p.done = false
}

// Yield invokes the wrapped function with the last bound argument.
func (p *FuncProcess[Arg, R]) Yield() R {
	p.done = true
	return p.fn(p.arg)
}

// State reports Yield once an argument has been bound and not yet consumed.
func (p *FuncProcess[Arg, R]) State() Readiness {
	if p.done {
		return Await
	}
	return Yield
}
