package dto

import (
	"github.com/gradeflow/gradeflow-api/internal/models"
)

// ClaimRequest asks the dispatch selector for the next submission to grade.
// Either a course or a specific problem location must be given.
type ClaimRequest struct {
	GraderID string `query:"grader_id" validate:"required"`
	CourseID string `query:"course_id" validate:"required_without=Location"`
	Location string `query:"location" validate:"required_without=CourseID"`

	// GraderClass selects which queue the caller sees; it is derived from
	// the caller's role, never from the request itself.
	GraderClass string `query:"-" validate:"required,oneof=staff peer machine self"`
}

// ClaimResponse hands one claimed submission to a grader. Found is false when
// no eligible submission exists; that is a normal outcome, not an error.
type ClaimResponse struct {
	Found        bool   `json:"found"`
	Message      string `json:"message,omitempty"`
	SubmissionID uint   `json:"submission_id,omitempty"`
	Submission   string `json:"submission,omitempty"`
	Rubric       string `json:"rubric,omitempty"`
	Prompt       string `json:"prompt,omitempty"`
	MaxScore     int    `json:"max_score,omitempty"`
	ProblemName  string `json:"problem_name,omitempty"`
	NumGraded    int64  `json:"num_graded"`
	NumPending   int64  `json:"num_pending"`
}

// RecordAttemptRequest carries one grader's verdict back to the controller.
type RecordAttemptRequest struct {
	SubmissionID uint              `json:"submission_id" validate:"required,gt=0"`
	GraderID     string            `json:"grader_id" validate:"required"`
	GraderType   models.GraderType `json:"grader_type" validate:"required,oneof=ML IN PE SE BC NA"`

	Score    int    `json:"score"`
	Feedback string `json:"feedback"`

	// Success is false when the grader itself failed (a model error, not a
	// low score); the feedback then carries the diagnostic message.
	Success    bool    `json:"success"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`

	RubricScores         []float64 `json:"rubric_scores"`
	RubricScoresComplete bool      `json:"rubric_scores_complete"`

	Flagged       bool `json:"submission_flagged"`
	Skipped       bool `json:"skipped"`
	IsCalibration bool `json:"is_calibration"`
}

// RecordAttemptResponse acknowledges a recorded attempt and reports where the
// submission was routed next.
type RecordAttemptResponse struct {
	AttemptID      uint                   `json:"attempt_id,omitempty"`
	State          models.SubmissionState `json:"state"`
	NextGraderType models.GraderType      `json:"next_grader_type"`
}

// AttemptResponse serializes a grading attempt.
type AttemptResponse struct {
	ID           uint                `json:"id"`
	SubmissionID uint                `json:"submission_id"`
	GraderID     string              `json:"grader_id"`
	GraderType   models.GraderType   `json:"grader_type"`
	Status       models.GraderStatus `json:"status"`
	Score        int                 `json:"score"`
	Feedback     string              `json:"feedback"`
	Confidence   float64             `json:"confidence"`
}

// NewAttemptResponse converts a GradingAttempt model into a DTO.
func NewAttemptResponse(model models.GradingAttempt) AttemptResponse {
	return AttemptResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		GraderID:     model.GraderID,
		GraderType:   model.GraderType,
		Status:       model.Status,
		Score:        model.Score,
		Feedback:     model.Feedback,
		Confidence:   model.Confidence,
	}
}
