package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/observability"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// GraderClass values accepted by the dispatch selector. Each class draws
// from its own queue: staff from the instructor queue, peers from the peer
// queue, automated graders from the machine queue, and students from the
// self-assessment queue (their own submissions only).
const (
	GraderClassStaff   = "staff"
	GraderClassPeer    = "peer"
	GraderClassMachine = "machine"
	GraderClassSelf    = "self"
)

// DispatchService hands pending submissions to requesting graders. Selection
// and claim are one atomic step; two callers can never receive the same
// submission.
type DispatchService interface {
	ClaimNext(ctx context.Context, req dto.ClaimRequest) (dto.ClaimResponse, error)
}

type dispatchService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewDispatchService constructs the dispatch selector.
func NewDispatchService(submissions repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) DispatchService {
	return &dispatchService{
		submissions: submissions,
		validator:   validate,
		logger:      logger.With().Str("component", "dispatch_service").Logger(),
	}
}

func (s *dispatchService) ClaimNext(ctx context.Context, req dto.ClaimRequest) (dto.ClaimResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ClaimResponse{}, err
	}

	graderType := models.GraderTypeInstructor
	exclude := ""
	scope := repository.SubmissionScope{CourseID: req.CourseID, Location: req.Location}
	switch req.GraderClass {
	case GraderClassPeer:
		graderType = models.GraderTypePeer
		// A peer never sees a submission they already graded.
		exclude = req.GraderID
	case GraderClassMachine:
		graderType = models.GraderTypeML
	case GraderClassSelf:
		graderType = models.GraderTypeSelf
		// Self assessment only ever hands a student their own work.
		scope.StudentID = req.GraderID
	}

	sub, err := s.submissions.ClaimNext(ctx, graderType, scope, exclude)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.Claims().WithLabelValues(string(graderType), "none").Inc()
			return s.emptyResponse(ctx, graderType, scope), nil
		}
		if errors.Is(err, repository.ErrStateConflict) {
			observability.Claims().WithLabelValues(string(graderType), "conflict").Inc()
			return dto.ClaimResponse{}, ErrConflict
		}
		return dto.ClaimResponse{}, err
	}

	observability.Claims().WithLabelValues(string(graderType), "claimed").Inc()

	s.logger.Info().
		Uint("submission_id", sub.ID).
		Str("grader_id", req.GraderID).
		Str("grader_type", string(graderType)).
		Msg("submission claimed")

	pending, graded := s.progressCounts(ctx, graderType, repository.SubmissionScope{Location: sub.Location})

	response := dto.ClaimResponse{
		Found:        true,
		SubmissionID: sub.ID,
		Submission:   sub.StudentResponse,
		Rubric:       sub.RubricText,
		Prompt:       sub.Prompt,
		MaxScore:     sub.MaxScore,
		ProblemName:  sub.ProblemID,
		NumPending:   pending,
		NumGraded:    graded,
	}

	if response.Submission == "" {
		response.Submission = "No answer was submitted."
	}

	return response, nil
}

func (s *dispatchService) emptyResponse(ctx context.Context, graderType models.GraderType, scope repository.SubmissionScope) dto.ClaimResponse {
	pending, graded := s.progressCounts(ctx, graderType, scope)
	return dto.ClaimResponse{
		Found:      false,
		Message:    "No submissions to grade.",
		NumPending: pending,
		NumGraded:  graded,
	}
}

func (s *dispatchService) progressCounts(ctx context.Context, graderType models.GraderType, scope repository.SubmissionScope) (int64, int64) {
	pending, err := s.submissions.PendingCount(ctx, graderType, scope)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count pending submissions")
	}
	graded, err := s.submissions.GradedCount(ctx, graderType, scope)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count graded submissions")
	}
	return pending, graded
}
