package grading

import (
	"github.com/gradeflow/gradeflow-api/internal/models"
)

// RoutingRule describes how a submission advances after an attempt by one
// grader type. The table is configuration data, not code: policy changes are
// new rules, not new branches.
type RoutingRule struct {
	// RequiredSuccesses is how many successful attempts of this grader type
	// must exist before the success path is taken. Peer grading typically
	// requires several; every other type requires one.
	RequiredSuccesses int

	// Terminal finishes the submission once RequiredSuccesses is met.
	Terminal bool

	// SuccessNext is the grader type queued after a non-terminal success.
	// Ignored when SuccessToPreferred is set.
	SuccessNext GraderType

	// SuccessToPreferred routes a non-terminal success to the submission's
	// preferred grader type (the basic-check handoff).
	SuccessToPreferred bool

	// FailureNext is the grader type queued after a failed attempt. A failure
	// may demote to a cheaper grader type (ML falls back to instructor).
	FailureNext GraderType

	// FailureTerminal finishes the submission on failure instead of requeuing.
	// The basic check works this way: its failure feedback is the result.
	FailureTerminal bool
}

// GraderType aliases the model enum so rule literals stay short.
type GraderType = models.GraderType

// RoutingTable maps a grader type to the rule applied after its attempts.
type RoutingTable map[GraderType]RoutingRule

// DefaultRoutingTable builds the standard routing policy. requiredPeerGrades
// is the number of successful peer attempts needed before peer grading is
// considered complete.
func DefaultRoutingTable(requiredPeerGrades int) RoutingTable {
	if requiredPeerGrades < 1 {
		requiredPeerGrades = 1
	}

	return RoutingTable{
		models.GraderTypeBasicCheck: {
			RequiredSuccesses:  1,
			SuccessToPreferred: true,
			FailureTerminal:    true,
		},
		models.GraderTypeML: {
			RequiredSuccesses: 1,
			Terminal:          true,
			FailureNext:       models.GraderTypeInstructor,
		},
		models.GraderTypeInstructor: {
			RequiredSuccesses: 1,
			Terminal:          true,
			FailureNext:       models.GraderTypeInstructor,
		},
		models.GraderTypePeer: {
			RequiredSuccesses: requiredPeerGrades,
			Terminal:          true,
			FailureNext:       models.GraderTypePeer,
		},
		models.GraderTypeSelf: {
			RequiredSuccesses: 1,
			Terminal:          true,
			FailureNext:       models.GraderTypeSelf,
		},
		models.GraderTypeNone: {
			RequiredSuccesses: 1,
			Terminal:          true,
			FailureNext:       models.GraderTypeNone,
		},
	}
}
