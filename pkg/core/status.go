package core

// StepStatus represents the execution status of an assertion
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusRunning                   // Attempts in progress
	StatusPassed                    // Expectation held
	StatusFailed                    // Expectation did not hold before the timeout
	StatusErrored                   // Fatal error (construction, lookup, type mismatch)
	StatusSkipped                   // Not evaluated
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed
}

// StatusForError maps an evaluation outcome to a status.
func StatusForError(err error) StepStatus {
	if err == nil {
		return StatusPassed
	}
	if IsFatal(err) {
		return StatusErrored
	}
	return StatusFailed
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone         ErrorCategory = iota // No error
	ErrCategoryConstruction                      // Malformed serialized predicate or expectation
	ErrCategoryLookup                            // Type name not resolvable by the host
	ErrCategoryTypeMismatch                      // Element is not of the kind the assertion needs
	ErrCategoryAssertion                         // Attempt evaluated false (retried)
	ErrCategoryTimeout                           // Deadline reached while attempts kept failing
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryConstruction:
		return "construction"
	case ErrCategoryLookup:
		return "lookup"
	case ErrCategoryTypeMismatch:
		return "type_mismatch"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// IsFatal returns true for categories that are never retried
func (c ErrorCategory) IsFatal() bool {
	switch c {
	case ErrCategoryConstruction, ErrCategoryLookup, ErrCategoryTypeMismatch:
		return true
	default:
		return false
	}
}
