package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/grading"
	"github.com/gradeflow/gradeflow-api/internal/models"
)

func setupSubmissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Submission{},
		&models.GradingAttempt{},
		&models.Rubric{},
		&models.RubricItem{},
		&models.RubricOption{},
	))
	return db
}

var queueSeq int

func waitingSubmission(graderType models.GraderType, courseID, location string) *models.Submission {
	queueSeq++
	return &models.Submission{
		State:               models.StateWaitingToBeGraded,
		PreferredGraderType: graderType,
		NextGraderType:      graderType,
		PreviousGraderType:  models.GraderTypeNone,
		StudentID:           "student-1",
		StudentResponse:     "An essay about testing.",
		CourseID:            courseID,
		Location:            location,
		MaxScore:            4,
		QueueSubmissionID:   fmt.Sprintf("queue-%d", queueSeq),
	}
}

func TestClaimNextExclusiveUnderConcurrency(t *testing.T) {
	db := setupSubmissionTestDB(t)
	// sqlite cannot interleave writers; a single connection forces the
	// claim transactions to queue, so every caller still races through
	// the same select-and-flip path.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	sub := waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")
	require.NoError(t, repo.Create(ctx, sub))

	const claimers = 10
	results := make(chan error, claimers)
	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ClaimNext(ctx, models.GraderTypeInstructor, SubmissionScope{CourseID: "course-1"}, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrStateConflict):
			lost++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	require.Equal(t, 1, won)
	require.Equal(t, claimers-1, lost)

	var stored models.Submission
	require.NoError(t, db.First(&stored, sub.ID).Error)
	require.Equal(t, models.StateBeingGraded, stored.State)
}

func TestClaimNextPicksOldestWaiting(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	first := waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")
	second := waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")
	first.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	claimed, err := repo.ClaimNext(ctx, models.GraderTypeInstructor, SubmissionScope{CourseID: "course-1"}, "")
	require.NoError(t, err)
	require.Equal(t, first.ID, claimed.ID)
	require.Equal(t, models.StateBeingGraded, claimed.State)

	// The claimed row is no longer eligible.
	next, err := repo.ClaimNext(ctx, models.GraderTypeInstructor, SubmissionScope{CourseID: "course-1"}, "")
	require.NoError(t, err)
	require.Equal(t, second.ID, next.ID)

	_, err = repo.ClaimNext(ctx, models.GraderTypeInstructor, SubmissionScope{CourseID: "course-1"}, "")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestClaimNextHonorsScopeAndGraderType(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, waitingSubmission(models.GraderTypePeer, "course-1", "loc-1")))
	require.NoError(t, repo.Create(ctx, waitingSubmission(models.GraderTypeInstructor, "course-2", "loc-2")))

	_, err := repo.ClaimNext(ctx, models.GraderTypeInstructor, SubmissionScope{CourseID: "course-1"}, "")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	claimed, err := repo.ClaimNext(ctx, models.GraderTypePeer, SubmissionScope{Location: "loc-1"}, "")
	require.NoError(t, err)
	require.Equal(t, "loc-1", claimed.Location)
}

func TestClaimNextExcludesPriorGrader(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	attempts := NewAttemptRepository(db)
	ctx := context.Background()

	sub := waitingSubmission(models.GraderTypePeer, "course-1", "loc-1")
	require.NoError(t, repo.Create(ctx, sub))
	require.NoError(t, attempts.Create(ctx, &models.GradingAttempt{
		SubmissionID: sub.ID,
		GraderID:     "peer-7",
		GraderType:   models.GraderTypePeer,
		Status:       models.GraderStatusSuccess,
	}))

	_, err := repo.ClaimNext(ctx, models.GraderTypePeer, SubmissionScope{CourseID: "course-1"}, "peer-7")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	claimed, err := repo.ClaimNext(ctx, models.GraderTypePeer, SubmissionScope{CourseID: "course-1"}, "peer-8")
	require.NoError(t, err)
	require.Equal(t, sub.ID, claimed.ID)
}

func TestTransitionEnforcesExpectedState(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	sub := waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")
	require.NoError(t, repo.Create(ctx, sub))

	err := repo.Transition(ctx, sub.ID, models.StateWaitingToBeGraded, grading.Transition{
		State:              models.StateBeingGraded,
		NextGraderType:     models.GraderTypeInstructor,
		PreviousGraderType: models.GraderTypeNone,
	})
	require.NoError(t, err)

	// Same precondition again: the row already moved on.
	err = repo.Transition(ctx, sub.ID, models.StateWaitingToBeGraded, grading.Transition{
		State: models.StateBeingGraded,
	})
	require.ErrorIs(t, err, ErrStateConflict)

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, models.StateBeingGraded, got.State)
}

func TestTransitionSkipMakesSubmissionClaimableAgain(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	sub := waitingSubmission(models.GraderTypePeer, "course-1", "loc-1")
	require.NoError(t, repo.Create(ctx, sub))

	claimed, err := repo.ClaimNext(ctx, models.GraderTypePeer, SubmissionScope{Location: "loc-1"}, "")
	require.NoError(t, err)

	skip, err := grading.Skip(claimed)
	require.NoError(t, err)
	require.NoError(t, repo.Transition(ctx, claimed.ID, models.StateBeingGraded, skip))

	again, err := repo.ClaimNext(ctx, models.GraderTypePeer, SubmissionScope{Location: "loc-1"}, "")
	require.NoError(t, err)
	require.Equal(t, claimed.ID, again.ID)
}

func TestMarkResultsPosted(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	sub := waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")
	require.NoError(t, repo.Create(ctx, sub))
	require.NoError(t, repo.MarkResultsPosted(ctx, sub.ID))

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	require.True(t, got.PostedResultsBackToQueue)
}

func TestQueueCounts(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	waiting := waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")
	require.NoError(t, repo.Create(ctx, waiting))

	finished := waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")
	finished.State = models.StateFinished
	finished.PreviousGraderType = models.GraderTypeInstructor
	require.NoError(t, repo.Create(ctx, finished))

	flagged := waitingSubmission(models.GraderTypePeer, "course-1", "loc-2")
	flagged.State = models.StateFlagged
	require.NoError(t, repo.Create(ctx, flagged))

	pending, err := repo.PendingCount(ctx, models.GraderTypeInstructor, SubmissionScope{CourseID: "course-1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)

	graded, err := repo.GradedCount(ctx, models.GraderTypeInstructor, SubmissionScope{CourseID: "course-1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), graded)

	flaggedCount, err := repo.FlaggedCount(ctx, SubmissionScope{CourseID: "course-1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), flaggedCount)

	locations, err := repo.LocationsForCourse(ctx, "course-1")
	require.NoError(t, err)
	require.Equal(t, []string{"loc-1", "loc-2"}, locations)
}

func TestCountPreferredML(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	ml := waitingSubmission(models.GraderTypeML, "course-1", "loc-1")
	require.NoError(t, repo.Create(ctx, ml))
	require.NoError(t, repo.Create(ctx, waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")))

	count, err := repo.CountPreferredML(ctx, "loc-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestGetWithAttemptsPreloadsRubric(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	attempts := NewAttemptRepository(db)
	ctx := context.Background()

	sub := waitingSubmission(models.GraderTypeInstructor, "course-1", "loc-1")
	require.NoError(t, repo.Create(ctx, sub))

	attempt := models.GradingAttempt{
		SubmissionID: sub.ID,
		GraderID:     "instructor-1",
		GraderType:   models.GraderTypeInstructor,
		Status:       models.GraderStatusSuccess,
		Score:        3,
		Rubric: &models.Rubric{
			FinishedScoring: true,
			Items: []models.RubricItem{
				{Text: "Clarity", Score: 2, MaxScore: 3, ItemNumber: 0},
			},
		},
	}
	require.NoError(t, attempts.Create(ctx, &attempt))

	got, err := repo.GetWithAttempts(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, got.Attempts, 1)
	require.NotNil(t, got.Attempts[0].Rubric)
	require.Len(t, got.Attempts[0].Rubric.Items, 1)
}
