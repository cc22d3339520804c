package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// AttemptRepository handles persistence for grading attempts. Attempts are
// append-only: there is deliberately no update operation.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.GradingAttempt) error
	GetByID(ctx context.Context, id uint) (models.GradingAttempt, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.GradingAttempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository constructs a repository backed by GORM.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.GradingAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) GetByID(ctx context.Context, id uint) (models.GradingAttempt, error) {
	var attempt models.GradingAttempt
	if err := r.baseQuery(ctx).First(&attempt, id).Error; err != nil {
		return models.GradingAttempt{}, err
	}
	return attempt, nil
}

func (r *attemptRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.GradingAttempt, error) {
	var attempts []models.GradingAttempt
	if err := r.baseQuery(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.GradingAttempt{}).
		Preload("Rubric").
		Preload("Rubric.Items").
		Preload("Rubric.Items.Options")
}
