package grading

import "errors"

// Taxonomy of recoverable grading errors. Handlers map these to HTTP statuses;
// none of them should take the process down.
var (
	// ErrInvalidState signals an operation against a submission that is not in
	// the state the operation requires.
	ErrInvalidState = errors.New("submission is in an invalid state for this operation")

	// ErrInconsistentHistory signals an attempt history that matches no known
	// aggregation pattern. It is always surfaced, never coerced into a score.
	ErrInconsistentHistory = errors.New("grading history matches no known pattern")

	// ErrUnknownGraderType signals a grader type absent from the routing table.
	ErrUnknownGraderType = errors.New("unknown grader type")
)
