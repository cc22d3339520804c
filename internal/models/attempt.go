package models

import "time"

// GraderStatus is the outcome of a single grading attempt.
type GraderStatus string

const (
	GraderStatusSuccess GraderStatus = "S"
	GraderStatusFailure GraderStatus = "F"
)

// GradingAttempt is one grader's verdict against a submission. Attempts are
// immutable once created; corrections arrive as new attempts.
type GradingAttempt struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	SubmissionID uint         `gorm:"index;not null" json:"submission_id"`
	Score        int          `gorm:"not null" json:"score"`
	Feedback     string       `gorm:"type:text" json:"feedback"`
	Status       GraderStatus `gorm:"size:1;not null" json:"status"`

	// GraderID is the LMS user id for human grading, or the name and version
	// of the algorithm for machine grading.
	GraderID   string     `gorm:"size:1024;not null" json:"grader_id"`
	GraderType GraderType `gorm:"size:2;not null;index" json:"grader_type"`

	// Confidence is between 0 and 1, with 1 being most confident.
	Confidence    float64 `gorm:"not null;default:0" json:"confidence"`
	IsCalibration bool    `gorm:"not null;default:false" json:"is_calibration"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Rubric *Rubric `gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"rubric,omitempty"`
}

// Succeeded reports whether the attempt produced a usable verdict.
func (a GradingAttempt) Succeeded() bool {
	return a.Status == GraderStatusSuccess
}

// HasCompleteRubric reports whether the attempt carries a fully scored rubric.
func (a GradingAttempt) HasCompleteRubric() bool {
	return a.Rubric != nil && a.Rubric.FinishedScoring
}
