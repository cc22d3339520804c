package grading

import (
	"github.com/gradeflow/gradeflow-api/internal/models"
)

// Transition is the submission mutation decided by the state machine. It is a
// plain value: persisting it atomically is the caller's job.
type Transition struct {
	State              models.SubmissionState
	NextGraderType     models.GraderType
	PreviousGraderType models.GraderType
}

// Claim decides the waiting -> being-graded transition used by the dispatch
// selector. Claiming anything but a waiting submission is an invalid state.
func Claim(sub models.Submission) (Transition, error) {
	if sub.State != models.StateWaitingToBeGraded {
		return Transition{}, ErrInvalidState
	}

	return Transition{
		State:              models.StateBeingGraded,
		NextGraderType:     sub.NextGraderType,
		PreviousGraderType: sub.PreviousGraderType,
	}, nil
}

// Skip returns a claimed submission to the waiting queue without recording an
// attempt. The routing fields are left untouched so the submission stays
// eligible for the same grader class.
func Skip(sub models.Submission) (Transition, error) {
	if sub.State != models.StateBeingGraded {
		return Transition{}, ErrInvalidState
	}

	return Transition{
		State:              models.StateWaitingToBeGraded,
		NextGraderType:     sub.NextGraderType,
		PreviousGraderType: sub.PreviousGraderType,
	}, nil
}

// Flag holds a submission for manual review from any state. Flagged
// submissions are excluded from normal dispatch.
func Flag(sub models.Submission) Transition {
	return Transition{
		State:              models.StateFlagged,
		NextGraderType:     sub.NextGraderType,
		PreviousGraderType: sub.PreviousGraderType,
	}
}

// AfterAttempt decides the transition that follows a freshly recorded attempt.
// history must contain every attempt for the submission including the new one;
// the submission snapshot must still show the pre-attempt state.
func (t RoutingTable) AfterAttempt(sub models.Submission, attempt models.GradingAttempt, history []models.GradingAttempt) (Transition, error) {
	if sub.State != models.StateBeingGraded {
		return Transition{}, ErrInvalidState
	}

	rule, ok := t[attempt.GraderType]
	if !ok {
		return Transition{}, ErrUnknownGraderType
	}

	next := Transition{PreviousGraderType: attempt.GraderType}

	if !attempt.Succeeded() {
		if rule.FailureTerminal {
			next.State = models.StateFinished
			next.NextGraderType = models.GraderTypeNone
			return next, nil
		}

		next.State = models.StateWaitingToBeGraded
		next.NextGraderType = rule.FailureNext
		if next.NextGraderType == "" {
			next.NextGraderType = attempt.GraderType
		}
		return next, nil
	}

	successes := countSuccesses(history, attempt.GraderType)
	if rule.Terminal && successes >= rule.RequiredSuccesses {
		next.State = models.StateFinished
		next.NextGraderType = models.GraderTypeNone
		return next, nil
	}

	next.State = models.StateWaitingToBeGraded
	switch {
	case rule.SuccessToPreferred:
		next.NextGraderType = sub.PreferredGraderType
		if next.NextGraderType == models.GraderTypeNone || next.NextGraderType == "" {
			// Nothing left to route to; the check itself is the verdict.
			next.State = models.StateFinished
		}
	case rule.SuccessNext != "":
		next.NextGraderType = rule.SuccessNext
	default:
		// More successes of the same type still required.
		next.NextGraderType = attempt.GraderType
	}

	return next, nil
}

func countSuccesses(history []models.GradingAttempt, graderType models.GraderType) int {
	count := 0
	for _, attempt := range history {
		if attempt.GraderType == graderType && attempt.Succeeded() {
			count++
		}
	}
	return count
}
