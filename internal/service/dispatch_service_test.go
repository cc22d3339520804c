package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
)

func waitingForDispatch(id uint, graderType models.GraderType) *models.Submission {
	sub := claimedSubmission(id, graderType)
	sub.State = models.StateWaitingToBeGraded
	return sub
}

func TestDispatchClaimNextStaffDrawsInstructorQueue(t *testing.T) {
	sub := waitingForDispatch(1, models.GraderTypeInstructor)
	repo := newFakeSubmissionRepo(sub)
	svc := NewDispatchService(repo, testValidator(), testLogger())

	resp, err := svc.ClaimNext(context.Background(), dto.ClaimRequest{
		GraderID:    "instructor-1",
		CourseID:    "course-1",
		GraderClass: GraderClassStaff,
	})
	require.NoError(t, err)
	require.True(t, resp.Found)
	require.Equal(t, uint(1), resp.SubmissionID)
	require.Equal(t, "An essay about canals.", resp.Submission)
	require.Equal(t, 4, resp.MaxScore)
	require.Equal(t, models.StateBeingGraded, repo.subs[1].State)
}

func TestDispatchClaimNextEmptyQueueIsNotAnError(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := NewDispatchService(repo, testValidator(), testLogger())

	resp, err := svc.ClaimNext(context.Background(), dto.ClaimRequest{
		GraderID:    "peer-1",
		CourseID:    "course-1",
		GraderClass: GraderClassPeer,
	})
	require.NoError(t, err)
	require.False(t, resp.Found)
	require.Equal(t, "No submissions to grade.", resp.Message)
}

func TestDispatchClaimNextPeerDoesNotSeeInstructorQueue(t *testing.T) {
	sub := waitingForDispatch(1, models.GraderTypeInstructor)
	repo := newFakeSubmissionRepo(sub)
	svc := NewDispatchService(repo, testValidator(), testLogger())

	resp, err := svc.ClaimNext(context.Background(), dto.ClaimRequest{
		GraderID:    "peer-1",
		CourseID:    "course-1",
		GraderClass: GraderClassPeer,
	})
	require.NoError(t, err)
	require.False(t, resp.Found)
	require.Equal(t, models.StateWaitingToBeGraded, repo.subs[1].State)
}

func TestDispatchClaimNextMachineDrawsMLQueue(t *testing.T) {
	sub := waitingForDispatch(1, models.GraderTypeML)
	repo := newFakeSubmissionRepo(sub)
	svc := NewDispatchService(repo, testValidator(), testLogger())

	resp, err := svc.ClaimNext(context.Background(), dto.ClaimRequest{
		GraderID:    "essay-model-v2",
		CourseID:    "course-1",
		GraderClass: GraderClassMachine,
	})
	require.NoError(t, err)
	require.True(t, resp.Found)
	require.Equal(t, uint(1), resp.SubmissionID)
	require.Equal(t, models.StateBeingGraded, repo.subs[1].State)
}

func TestDispatchClaimNextSelfOnlySeesOwnSubmissions(t *testing.T) {
	own := waitingForDispatch(1, models.GraderTypeSelf)
	other := waitingForDispatch(2, models.GraderTypeSelf)
	other.StudentID = "student-2"
	repo := newFakeSubmissionRepo(own, other)
	svc := NewDispatchService(repo, testValidator(), testLogger())

	resp, err := svc.ClaimNext(context.Background(), dto.ClaimRequest{
		GraderID:    "student-2",
		CourseID:    "course-1",
		GraderClass: GraderClassSelf,
	})
	require.NoError(t, err)
	require.True(t, resp.Found)
	require.Equal(t, uint(2), resp.SubmissionID)
	require.Equal(t, models.StateWaitingToBeGraded, repo.subs[1].State)
}

func TestDispatchClaimNextSubstitutesEmptyAnswer(t *testing.T) {
	sub := waitingForDispatch(1, models.GraderTypeInstructor)
	sub.StudentResponse = ""
	repo := newFakeSubmissionRepo(sub)
	svc := NewDispatchService(repo, testValidator(), testLogger())

	resp, err := svc.ClaimNext(context.Background(), dto.ClaimRequest{
		GraderID:    "instructor-1",
		Location:    "loc-1",
		GraderClass: GraderClassStaff,
	})
	require.NoError(t, err)
	require.Equal(t, "No answer was submitted.", resp.Submission)
}

func TestDispatchClaimNextRequiresScope(t *testing.T) {
	svc := NewDispatchService(newFakeSubmissionRepo(), testValidator(), testLogger())

	_, err := svc.ClaimNext(context.Background(), dto.ClaimRequest{
		GraderID:    "instructor-1",
		GraderClass: GraderClassStaff,
	})
	require.Error(t, err)
}
