package dto

import (
	"encoding/json"
	"time"

	"github.com/gradeflow/gradeflow-api/internal/grading"
	"github.com/gradeflow/gradeflow-api/internal/models"
)

// SubmissionCreateRequest is the intake payload posted by the originating
// queue when a student response arrives for grading.
type SubmissionCreateRequest struct {
	QueueSubmissionID  string `json:"queue_submission_id" validate:"required"`
	QueueSubmissionKey string `json:"queue_submission_key"`
	QueueName          string `json:"queue_name"`

	CourseID  string `json:"course_id" validate:"required"`
	Location  string `json:"location" validate:"required"`
	ProblemID string `json:"problem_id"`
	StudentID string `json:"student_id" validate:"required"`

	StudentResponse string `json:"student_response" validate:"required"`
	Prompt          string `json:"prompt"`
	RubricText      string `json:"rubric"`
	InitialDisplay  string `json:"initial_display"`
	MaxScore        int    `json:"max_score" validate:"required,gt=0"`

	PreferredGraderType models.GraderType `json:"preferred_grader_type" validate:"required,oneof=ML IN PE SE BC NA"`
	SkipBasicChecks     bool              `json:"skip_basic_checks"`

	RubricItems   []grading.RubricItemSpec `json:"rubric_items"`
	ControlFields json.RawMessage          `json:"control_fields"`

	StudentSubmissionTime *time.Time `json:"student_submission_time"`
}

// SubmissionCreateResponse acknowledges an accepted submission.
type SubmissionCreateResponse struct {
	SubmissionID uint                   `json:"submission_id"`
	State        models.SubmissionState `json:"state"`
	NextGrader   models.GraderType      `json:"next_grader_type"`
}

// SubmissionResponse serializes a submission for API clients.
type SubmissionResponse struct {
	ID                  uint                   `json:"id"`
	State               models.SubmissionState `json:"state"`
	PreferredGraderType models.GraderType      `json:"preferred_grader_type"`
	NextGraderType      models.GraderType      `json:"next_grader_type"`
	PreviousGraderType  models.GraderType      `json:"previous_grader_type"`
	CourseID            string                 `json:"course_id"`
	Location            string                 `json:"location"`
	ProblemID           string                 `json:"problem_id"`
	StudentID           string                 `json:"student_id"`
	MaxScore            int                    `json:"max_score"`
	IsDuplicate         bool                   `json:"is_duplicate"`
	IsPlagiarized       bool                   `json:"is_plagiarized"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:                  model.ID,
		State:               model.State,
		PreferredGraderType: model.PreferredGraderType,
		NextGraderType:      model.NextGraderType,
		PreviousGraderType:  model.PreviousGraderType,
		CourseID:            model.CourseID,
		Location:            model.Location,
		ProblemID:           model.ProblemID,
		StudentID:           model.StudentID,
		MaxScore:            model.MaxScore,
		IsDuplicate:         model.IsDuplicate,
		IsPlagiarized:       model.IsPlagiarized,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}
