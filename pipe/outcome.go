package pipe

// OutcomeKind tags the result of one pipe invocation.
type OutcomeKind int

const (
	// OutcomeProduced carries one unit of output.
	OutcomeProduced OutcomeKind = iota
	// OutcomeExhausted signals no further output for this execution. It
	// is normal termination of the invocation loop, not a failure.
	OutcomeExhausted
	// OutcomeFailed carries the error that aborted the invocation.
	OutcomeFailed
)

// Outcome is the tagged result of a pipe invocation. The scheduler's
// exhaustion loop switches on the tag; exhaustion is a control signal,
// never an error value.
type Outcome struct {
	kind  OutcomeKind
	value any
	err   error
}

// Produced wraps one unit of output.
func Produced(v any) Outcome {
	return Outcome{kind: OutcomeProduced, value: v}
}

// Exhausted signals the pipe has no further output.
func Exhausted() Outcome {
	return Outcome{kind: OutcomeExhausted}
}

// Fail wraps the error that aborted the invocation.
func Fail(err error) Outcome {
	return Outcome{kind: OutcomeFailed, err: err}
}

// Kind returns the outcome tag.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// Value returns the produced value; nil unless Kind is OutcomeProduced.
func (o Outcome) Value() any { return o.value }

// Err returns the failure; nil unless Kind is OutcomeFailed.
func (o Outcome) Err() error { return o.err }
