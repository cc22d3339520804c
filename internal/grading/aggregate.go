package grading

import (
	"sort"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// AggregateConfig holds the policy knobs for result aggregation.
type AggregateConfig struct {
	// MaxGraderCount caps how many peer verdicts are included in a peer
	// aggregate. Peer verdicts are reported newest first.
	MaxGraderCount int
}

// RubricSummary carries the structured rubric content of one attempt.
type RubricSummary struct {
	Complete   bool                           `json:"complete"`
	Headers    []string                       `json:"headers"`
	Scores     []float64                      `json:"scores"`
	Categories []models.RubricCategoryPayload `json:"categories"`
}

// PeerVerdict is one peer grader's contribution to a peer aggregate.
type PeerVerdict struct {
	AttemptID uint           `json:"attempt_id"`
	Score     int            `json:"score"`
	Feedback  string         `json:"feedback"`
	Rubric    *RubricSummary `json:"rubric,omitempty"`
}

// Result is the single consolidated outcome reported for a submission. For
// peer-terminal histories Peers holds the parallel verdict list and the
// top-level score/feedback mirror the newest peer entry.
type Result struct {
	SubmissionID uint              `json:"submission_id"`
	StudentID    string            `json:"student_id"`
	GraderType   models.GraderType `json:"grader_type"`
	Success      bool              `json:"success"`
	Score        int               `json:"score"`
	Feedback     string            `json:"feedback"`
	AttemptID    uint              `json:"attempt_id,omitempty"`
	Rubric       *RubricSummary    `json:"rubric,omitempty"`
	Peers        []PeerVerdict     `json:"peers,omitempty"`
}

// InstructorResult is the outcome of the secondary instructor-only lookup.
type InstructorResult struct {
	Found    bool           `json:"found"`
	Score    int            `json:"score"`
	Feedback string         `json:"feedback"`
	Rubric   *RubricSummary `json:"rubric,omitempty"`
}

// Aggregate collapses the full attempt history of a submission into the one
// reportable result. Precedence, first match wins:
//
//  1. no successful attempt: the newest failure's feedback, success false,
//     score 0. A history with no attempts at all is an invalid state.
//  2. newest success is instructor or ML, or is a basic check with no peer
//     success in the history: that single attempt is authoritative.
//  3. routing ended in peer grading (or a basic check coexists with peer
//     successes): up to MaxGraderCount peer verdicts, newest first.
//  4. anything else is an inconsistent history: success false, score -1,
//     surfaced as ErrInconsistentHistory rather than guessed around.
func Aggregate(sub models.Submission, attempts []models.GradingAttempt, cfg AggregateConfig) (Result, error) {
	if len(attempts) == 0 {
		return Result{}, ErrInvalidState
	}

	successes := filterByStatus(attempts, models.GraderStatusSuccess)
	sortNewestFirst(successes)

	base := Result{SubmissionID: sub.ID, StudentID: sub.StudentID}

	if len(successes) == 0 {
		failures := filterByStatus(attempts, models.GraderStatusFailure)
		if len(failures) == 0 {
			// Rows with a status outside success/failure match no rule.
			return inconsistent(base), ErrInconsistentHistory
		}
		sortNewestFirst(failures)
		last := failures[0]

		result := base
		result.GraderType = last.GraderType
		result.Success = false
		result.Score = 0
		result.Feedback = last.Feedback
		result.AttemptID = last.ID
		result.Rubric = summarizeRubric(last)
		return result, nil
	}

	newest := successes[0]
	peerSucceeded := hasGraderType(successes, models.GraderTypePeer)

	authoritative := newest.GraderType == models.GraderTypeInstructor ||
		newest.GraderType == models.GraderTypeML ||
		(newest.GraderType == models.GraderTypeBasicCheck && !peerSucceeded)

	if authoritative {
		result := base
		result.GraderType = newest.GraderType
		result.Success = true
		result.Score = newest.Score
		result.Feedback = newest.Feedback
		result.AttemptID = newest.ID
		result.Rubric = summarizeRubric(newest)
		return result, nil
	}

	peerTerminal := sub.PreviousGraderType == models.GraderTypePeer ||
		(newest.GraderType == models.GraderTypeBasicCheck && peerSucceeded)

	if peerTerminal {
		limit := cfg.MaxGraderCount
		if limit <= 0 {
			limit = len(successes)
		}

		peers := make([]PeerVerdict, 0, limit)
		for _, attempt := range successes {
			if attempt.GraderType != models.GraderTypePeer {
				continue
			}
			peers = append(peers, PeerVerdict{
				AttemptID: attempt.ID,
				Score:     attempt.Score,
				Feedback:  attempt.Feedback,
				Rubric:    summarizeRubric(attempt),
			})
			if len(peers) == limit {
				break
			}
		}

		result := base
		result.GraderType = models.GraderTypePeer
		result.Success = true
		result.Peers = peers
		if len(peers) > 0 {
			result.Score = peers[0].Score
			result.Feedback = peers[0].Feedback
			result.AttemptID = peers[0].AttemptID
			result.Rubric = peers[0].Rubric
		}
		return result, nil
	}

	result := inconsistent(base)
	result.GraderType = sub.PreviousGraderType
	return result, ErrInconsistentHistory
}

func inconsistent(base Result) Result {
	base.Success = false
	base.Score = -1
	base.Feedback = "There was an error with your submission."
	return base
}

// LastInstructorResult returns the newest successful instructor verdict,
// independent of the general aggregation policy. Used by calibration and
// cross-checking flows.
func LastInstructorResult(attempts []models.GradingAttempt) InstructorResult {
	successes := filterByStatus(attempts, models.GraderStatusSuccess)
	sortNewestFirst(successes)

	for _, attempt := range successes {
		if attempt.GraderType != models.GraderTypeInstructor {
			continue
		}
		return InstructorResult{
			Found:    true,
			Score:    attempt.Score,
			Feedback: attempt.Feedback,
			Rubric:   summarizeRubric(attempt),
		}
	}

	return InstructorResult{Score: -1}
}

func summarizeRubric(attempt models.GradingAttempt) *RubricSummary {
	if !attempt.HasCompleteRubric() {
		return nil
	}

	rubric := *attempt.Rubric
	return &RubricSummary{
		Complete:   true,
		Headers:    rubric.Headers(),
		Scores:     rubric.Scores(),
		Categories: rubric.Payload(),
	}
}

func filterByStatus(attempts []models.GradingAttempt, status models.GraderStatus) []models.GradingAttempt {
	filtered := make([]models.GradingAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		if attempt.Status == status {
			filtered = append(filtered, attempt)
		}
	}
	return filtered
}

func hasGraderType(attempts []models.GradingAttempt, graderType models.GraderType) bool {
	for _, attempt := range attempts {
		if attempt.GraderType == graderType {
			return true
		}
	}
	return false
}

func sortNewestFirst(attempts []models.GradingAttempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].CreatedAt.Equal(attempts[j].CreatedAt) {
			return attempts[i].ID > attempts[j].ID
		}
		return attempts[i].CreatedAt.After(attempts[j].CreatedAt)
	})
}
