package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gradeflow/gradeflow-api/internal/grading"
	"github.com/gradeflow/gradeflow-api/internal/models"
)

// ErrStateConflict indicates a compare-and-swap transition lost a race: the
// submission was no longer in the expected state when the update ran.
var ErrStateConflict = errors.New("submission state changed concurrently")

// SubmissionScope narrows queue queries to a course or a single problem
// location. Location wins when both are set. StudentID additionally pins the
// query to one student's submissions (the self-assessment queue).
type SubmissionScope struct {
	CourseID  string
	Location  string
	StudentID string
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetWithAttempts(ctx context.Context, id uint) (models.Submission, error)
	FirstAtLocation(ctx context.Context, location string) (models.Submission, error)

	// ClaimNext atomically selects the oldest waiting submission routed to
	// graderType within scope and flips it to being-graded. Selection and
	// claim are one step: two concurrent callers can never claim the same
	// row. excludeGraderID removes submissions the requester already graded
	// (peer fairness); empty means no exclusion. Returns
	// gorm.ErrRecordNotFound when nothing is eligible.
	ClaimNext(ctx context.Context, graderType models.GraderType, scope SubmissionScope, excludeGraderID string) (models.Submission, error)

	// Transition applies a state-machine decision with a CAS precondition on
	// the current state. ErrStateConflict when the precondition fails.
	Transition(ctx context.Context, id uint, from models.SubmissionState, t grading.Transition) error

	MarkResultsPosted(ctx context.Context, id uint) error

	PendingCount(ctx context.Context, graderType models.GraderType, scope SubmissionScope) (int64, error)
	GradedCount(ctx context.Context, graderType models.GraderType, scope SubmissionScope) (int64, error)
	FlaggedCount(ctx context.Context, scope SubmissionScope) (int64, error)
	CountPreferredML(ctx context.Context, location string) (int64, error)
	LocationsForCourse(ctx context.Context, courseID string) ([]string, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) GetWithAttempts(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Attempts").
		Preload("Attempts.Rubric").
		Preload("Attempts.Rubric.Items").
		Preload("Attempts.Rubric.Items.Options").
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) FirstAtLocation(ctx context.Context, location string) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("location = ?", location).
		Order("created_at ASC").
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) ClaimNext(ctx context.Context, graderType models.GraderType, scope SubmissionScope, excludeGraderID string) (models.Submission, error) {
	var claimed models.Submission

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Submission{}).
			Where("state = ?", models.StateWaitingToBeGraded).
			Where("next_grader_type = ?", graderType)

		// Row locks keep concurrent selectors off the same candidate; the
		// CAS below is the safety net for stores without SKIP LOCKED.
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		query = applyScope(query, scope)

		if excludeGraderID != "" {
			query = query.Where(
				"NOT EXISTS (SELECT 1 FROM grading_attempts WHERE grading_attempts.submission_id = submissions.id AND grading_attempts.grader_id = ?)",
				excludeGraderID,
			)
		}

		var candidate models.Submission
		if err := query.Order("created_at ASC").First(&candidate).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Submission{}).
			Where("id = ? AND state = ?", candidate.ID, models.StateWaitingToBeGraded).
			Update("state", models.StateBeingGraded)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateConflict
		}

		candidate.State = models.StateBeingGraded
		claimed = candidate
		return nil
	})
	if err != nil {
		return models.Submission{}, err
	}

	return claimed, nil
}

func (r *submissionRepository) Transition(ctx context.Context, id uint, from models.SubmissionState, t grading.Transition) error {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND state = ?", id, from).
		Updates(map[string]interface{}{
			"state":                t.State,
			"next_grader_type":     t.NextGraderType,
			"previous_grader_type": t.PreviousGraderType,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *submissionRepository) MarkResultsPosted(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("posted_results_back_to_queue", true).Error
}

func (r *submissionRepository) PendingCount(ctx context.Context, graderType models.GraderType, scope SubmissionScope) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("state IN ?", []models.SubmissionState{models.StateWaitingToBeGraded, models.StateBeingGraded}).
		Where("next_grader_type = ?", graderType)
	if err := applyScope(query, scope).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *submissionRepository) GradedCount(ctx context.Context, graderType models.GraderType, scope SubmissionScope) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("state = ?", models.StateFinished).
		Where("previous_grader_type = ?", graderType)
	if err := applyScope(query, scope).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *submissionRepository) FlaggedCount(ctx context.Context, scope SubmissionScope) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("state = ?", models.StateFlagged)
	if err := applyScope(query, scope).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *submissionRepository) CountPreferredML(ctx context.Context, location string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("location = ?", location).
		Where("preferred_grader_type = ?", models.GraderTypeML).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *submissionRepository) LocationsForCourse(ctx context.Context, courseID string) ([]string, error) {
	var locations []string
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("course_id = ?", courseID).
		Distinct().
		Order("location ASC").
		Pluck("location", &locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func applyScope(query *gorm.DB, scope SubmissionScope) *gorm.DB {
	if scope.StudentID != "" {
		query = query.Where("student_id = ?", scope.StudentID)
	}
	if scope.Location != "" {
		return query.Where("location = ?", scope.Location)
	}
	if scope.CourseID != "" {
		return query.Where("course_id = ?", scope.CourseID)
	}
	return query
}
