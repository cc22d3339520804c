package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

func TestAttemptRepositoryListOrdersByCreation(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewAttemptRepository(db)
	subs := NewSubmissionRepository(db)
	ctx := context.Background()

	sub := waitingSubmission(models.GraderTypePeer, "course-1", "loc-1")
	require.NoError(t, subs.Create(ctx, sub))

	first := models.GradingAttempt{SubmissionID: sub.ID, GraderID: "peer-1", GraderType: models.GraderTypePeer, Status: models.GraderStatusSuccess}
	second := models.GradingAttempt{SubmissionID: sub.ID, GraderID: "peer-2", GraderType: models.GraderTypePeer, Status: models.GraderStatusFailure}
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))

	attempts, err := repo.ListBySubmission(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	require.Equal(t, "peer-1", attempts[0].GraderID)
	require.Equal(t, "peer-2", attempts[1].GraderID)
}

func TestAttemptRepositoryGetByIDIncludesRubric(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewAttemptRepository(db)
	subs := NewSubmissionRepository(db)
	ctx := context.Background()

	sub := waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")
	require.NoError(t, subs.Create(ctx, sub))

	attempt := models.GradingAttempt{
		SubmissionID: sub.ID,
		GraderID:     "instructor-1",
		GraderType:   models.GraderTypeInstructor,
		Status:       models.GraderStatusSuccess,
		Rubric: &models.Rubric{
			FinishedScoring: true,
			Items: []models.RubricItem{
				{Text: "Grammar", Score: 1, MaxScore: 2, ItemNumber: 0,
					Options: []models.RubricOption{{Points: 2, Text: "Perfect", ItemNumber: 0}}},
			},
		},
	}
	require.NoError(t, repo.Create(ctx, &attempt))

	got, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rubric)
	require.Len(t, got.Rubric.Items, 1)
	require.Len(t, got.Rubric.Items[0].Options, 1)

	_, err = repo.GetByID(ctx, 9999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
