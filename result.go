package plugboard

// Result is returned by every Handler to steer the dispatch pass that
// invoked it. The zero value is Continue: dispatch proceeds to the next
// handler in registration order. A Result built with Stop halts the pass
// immediately and is returned to the Trigger caller, optionally carrying a
// value.
type Result struct {
	stop  bool
	value any
}

// Continue is the zero Result. Returning it lets dispatch proceed.
var Continue = Result{}

// Stop builds a Result that halts the current dispatch pass. The value is
// carried back to the Trigger caller and may be nil.
func Stop(value any) Result {
	return Result{stop: true, value: value}
}

// Stopped reports whether this Result halts dispatch.
func (r Result) Stopped() bool {
	return r.stop
}

// Value returns the value carried by a stopped Result, nil otherwise.
func (r Result) Value() any {
	return r.value
}
