package models

import (
	"time"

	"gorm.io/datatypes"
)

// GraderType identifies the class of grader that produces an attempt against a
// submission. The two-letter codes are the persisted representation.
type GraderType string

const (
	GraderTypeML         GraderType = "ML"
	GraderTypeInstructor GraderType = "IN"
	GraderTypePeer       GraderType = "PE"
	GraderTypeSelf       GraderType = "SE"
	GraderTypeNone       GraderType = "NA"
	GraderTypeBasicCheck GraderType = "BC"
)

// Valid reports whether the grader type is one of the known codes.
func (g GraderType) Valid() bool {
	switch g {
	case GraderTypeML, GraderTypeInstructor, GraderTypePeer, GraderTypeSelf, GraderTypeNone, GraderTypeBasicCheck:
		return true
	}
	return false
}

// SubmissionState is the lifecycle state of a submission.
type SubmissionState string

const (
	StateBeingGraded       SubmissionState = "C"
	StateWaitingToBeGraded SubmissionState = "W"
	StateFinished          SubmissionState = "F"
	StateFlagged           SubmissionState = "L"
	StateSkipped           SubmissionState = "S"
)

// Terminal reports whether the state ends normal routing.
func (s SubmissionState) Terminal() bool {
	return s == StateFinished || s == StateFlagged
}

// Submission represents one essay response working its way through the grading
// pipeline. Rows are never deleted; the attempt history is append-only.
type Submission struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// routing state
	PreferredGraderType GraderType      `gorm:"size:2;not null;default:NA" json:"preferred_grader_type"`
	NextGraderType      GraderType      `gorm:"size:2;not null;default:NA;index" json:"next_grader_type"`
	PreviousGraderType  GraderType      `gorm:"size:2;not null;default:NA" json:"previous_grader_type"`
	State               SubmissionState `gorm:"size:1;not null;index" json:"state"`
	GraderSettings      datatypes.JSON  `gorm:"type:json" json:"grader_settings"`

	// submission content
	Prompt          string         `gorm:"type:text" json:"prompt"`
	RubricText      string         `gorm:"type:text" json:"rubric_text"`
	RubricSpec      datatypes.JSON `gorm:"type:json" json:"rubric_spec"`
	InitialDisplay  string         `gorm:"type:text" json:"initial_display"`
	StudentResponse string         `gorm:"type:text" json:"student_response"`
	StudentID       string         `gorm:"size:128;index;not null" json:"student_id"`

	// identifiers passed by the LMS
	ProblemID             string    `gorm:"size:1024" json:"problem_id"`
	Location              string    `gorm:"size:128;index" json:"location"`
	CourseID              string    `gorm:"size:128;index" json:"course_id"`
	MaxScore              int       `gorm:"default:1" json:"max_score"`
	StudentSubmissionTime time.Time `json:"student_submission_time"`

	// originating queue details
	QueueSubmissionID        string `gorm:"size:128;uniqueIndex;not null" json:"queue_submission_id"`
	QueueSubmissionKey       string `gorm:"size:1024" json:"queue_submission_key"`
	QueueName                string `gorm:"size:128" json:"queue_name"`
	PostedResultsBackToQueue bool   `gorm:"not null;default:false" json:"posted_results_back_to_queue"`

	// duplicate/plagiarism flags, written by an external checker
	IsDuplicate             bool  `gorm:"not null;default:false" json:"is_duplicate"`
	IsPlagiarized           bool  `gorm:"not null;default:false" json:"is_plagiarized"`
	DuplicateSubmissionID   *uint `json:"duplicate_submission_id"`
	HasBeenDuplicateChecked bool  `gorm:"not null;default:false" json:"has_been_duplicate_checked"`

	// control logic passed from the LMS
	SkipBasicChecks bool           `gorm:"not null;default:false" json:"skip_basic_checks"`
	ControlFields   datatypes.JSON `gorm:"type:json" json:"control_fields"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Attempts []GradingAttempt `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"attempts"`
}

// Claimed reports whether the submission is currently handed to a grader.
func (s Submission) Claimed() bool {
	return s.State == StateBeingGraded
}
