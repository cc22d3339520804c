package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

func TestProgressProblemListComputesRequiredGrades(t *testing.T) {
	graded := claimedSubmission(1, models.GraderTypeInstructor)
	graded.State = models.StateFinished
	graded.PreviousGraderType = models.GraderTypeInstructor
	graded.ProblemID = "Essay One"

	pending := waitingForDispatch(2, models.GraderTypeInstructor)
	pending.ProblemID = "Essay One"

	repo := newFakeSubmissionRepo(graded, pending)
	svc := NewProgressService(repo, nil, ProgressConfig{MinToUseML: 20, MinToUsePeer: 10}, testLogger())

	resp, err := svc.ProblemList(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, resp.ProblemList, 1)

	problem := resp.ProblemList[0]
	require.Equal(t, "loc-1", problem.Location)
	require.Equal(t, "Essay One", problem.ProblemName)
	require.Equal(t, int64(1), problem.NumGraded)
	require.Equal(t, int64(1), problem.NumPending)
	// No ML-preferred submissions at the location, so the peer minimum rules.
	require.Equal(t, int64(9), problem.NumRequired)
}

func TestProgressProblemListUsesMLMinimumWhenMLPreferred(t *testing.T) {
	sub := waitingForDispatch(1, models.GraderTypeInstructor)
	sub.PreferredGraderType = models.GraderTypeML

	repo := newFakeSubmissionRepo(sub)
	svc := NewProgressService(repo, nil, ProgressConfig{MinToUseML: 20, MinToUsePeer: 10}, testLogger())

	resp, err := svc.ProblemList(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, resp.ProblemList, 1)
	require.Equal(t, int64(20), resp.ProblemList[0].NumRequired)
	require.Equal(t, 20, resp.ProblemList[0].MinForML)
}

func TestProgressProblemListServesCachedCopy(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer cache.Close()

	repo := newFakeSubmissionRepo(waitingForDispatch(1, models.GraderTypeInstructor))
	svc := NewProgressService(repo, cache, ProgressConfig{MinToUseML: 20, MinToUsePeer: 10, CacheTTL: time.Minute}, testLogger())

	first, err := svc.ProblemList(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, first.ProblemList, 1)

	// Mutate the store; the cached snapshot should still be served.
	delete(repo.subs, uint(1))

	cached, err := svc.ProblemList(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, cached.ProblemList, 1)
}

func TestProgressNotifications(t *testing.T) {
	staffWork := waitingForDispatch(1, models.GraderTypeInstructor)
	flagged := claimedSubmission(2, models.GraderTypePeer)
	flagged.State = models.StateFlagged

	repo := newFakeSubmissionRepo(staffWork, flagged)
	svc := NewProgressService(repo, nil, ProgressConfig{MinToUseML: 20, MinToUsePeer: 10}, testLogger())

	resp, err := svc.Notifications(context.Background(), "course-1")
	require.NoError(t, err)
	require.True(t, resp.StaffNeedsToGrade)
	require.False(t, resp.StudentNeedsToPeerGrade)
	require.True(t, resp.FlaggedSubmissionsExist)
	require.True(t, resp.OverallNeedToCheck)
}

func TestProgressNotificationsQuietCourse(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := NewProgressService(repo, nil, ProgressConfig{MinToUseML: 20, MinToUsePeer: 10}, testLogger())

	resp, err := svc.Notifications(context.Background(), "course-1")
	require.NoError(t, err)
	require.False(t, resp.OverallNeedToCheck)
}
