package flow

// Unit is the result type for processes that exist for their side effects
// and never produce a meaningful value. A node whose result type is Unit
// is treated as having no receivers: nothing downstream ever awaits it, so
// the engine never blocks a step waiting for a Receiver to appear.
type Unit struct{}

func isUnitType[T any]() bool {
	var zero T
	_, ok := any(zero).(Unit)
	return ok
}
