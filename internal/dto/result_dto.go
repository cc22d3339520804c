package dto

import (
	"github.com/gradeflow/gradeflow-api/internal/grading"
	"github.com/gradeflow/gradeflow-api/internal/models"
)

// AggregateResultResponse is the consolidated outcome for a submission.
type AggregateResultResponse struct {
	SubmissionID uint                   `json:"submission_id"`
	StudentID    string                 `json:"student_id"`
	GraderType   models.GraderType      `json:"grader_type"`
	Success      bool                   `json:"success"`
	Score        int                    `json:"score"`
	Feedback     string                 `json:"feedback"`
	AttemptID    uint                   `json:"attempt_id,omitempty"`
	Rubric       *grading.RubricSummary `json:"rubric,omitempty"`
	Peers        []grading.PeerVerdict  `json:"peers,omitempty"`
}

// NewAggregateResultResponse converts a policy result into a DTO.
func NewAggregateResultResponse(result grading.Result) AggregateResultResponse {
	return AggregateResultResponse{
		SubmissionID: result.SubmissionID,
		StudentID:    result.StudentID,
		GraderType:   result.GraderType,
		Success:      result.Success,
		Score:        result.Score,
		Feedback:     result.Feedback,
		AttemptID:    result.AttemptID,
		Rubric:       result.Rubric,
		Peers:        result.Peers,
	}
}

// InstructorResultResponse is the secondary instructor-only lookup payload.
type InstructorResultResponse struct {
	Found    bool                   `json:"found"`
	Score    int                    `json:"score"`
	Feedback string                 `json:"feedback"`
	Rubric   *grading.RubricSummary `json:"rubric,omitempty"`
}
