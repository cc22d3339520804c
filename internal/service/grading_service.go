package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/grading"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/observability"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrConflict indicates a state transition lost a race with a concurrent
// caller; the submission was already handled by another party.
var ErrConflict = errors.New("submission was modified concurrently")

// ErrRubricShape indicates submitted rubric scores disagree with the rubric
// configured for the submission's problem location.
var ErrRubricShape = errors.New("rubric scores do not match the configured rubric")

// GradingService consumes grader verdicts: it records attempts, advances the
// submission state machine, and posts results back once routing finishes.
type GradingService interface {
	RecordAttempt(ctx context.Context, payload dto.RecordAttemptRequest) (dto.RecordAttemptResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	attempts    repository.AttemptRepository
	routing     grading.RoutingTable
	aggregate   grading.AggregateConfig
	publisher   ResultPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(
	submissions repository.SubmissionRepository,
	attempts repository.AttemptRepository,
	routing grading.RoutingTable,
	aggregate grading.AggregateConfig,
	publisher ResultPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		submissions: submissions,
		attempts:    attempts,
		routing:     routing,
		aggregate:   aggregate,
		publisher:   publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) RecordAttempt(ctx context.Context, payload dto.RecordAttemptRequest) (dto.RecordAttemptResponse, error) {
	tracer := otel.Tracer("github.com/gradeflow/gradeflow-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.record_attempt")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(payload.SubmissionID)),
		attribute.String("grading.grader_type", string(payload.GraderType)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.RecordAttemptResponse{}, err
	}

	sub, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RecordAttemptResponse{}, ErrSubmissionNotFound
		}
		return dto.RecordAttemptResponse{}, err
	}

	if payload.Skipped {
		return s.skip(ctx, sub, payload.GraderID)
	}

	// Never create the attempt row when the submission is not claimed.
	if sub.State != models.StateBeingGraded {
		span.SetStatus(codes.Error, "invalid_state")
		return dto.RecordAttemptResponse{}, grading.ErrInvalidState
	}

	rubric, err := s.buildRubric(ctx, sub, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rubric_validation_failed")
		return dto.RecordAttemptResponse{}, err
	}

	status := models.GraderStatusFailure
	if payload.Success {
		status = models.GraderStatusSuccess
	}

	attempt := models.GradingAttempt{
		SubmissionID:  sub.ID,
		Score:         payload.Score,
		Feedback:      payload.Feedback,
		Status:        status,
		GraderID:      payload.GraderID,
		GraderType:    payload.GraderType,
		Confidence:    payload.Confidence,
		IsCalibration: payload.IsCalibration,
		Rubric:        rubric,
	}

	if err := s.attempts.Create(ctx, &attempt); err != nil {
		return dto.RecordAttemptResponse{}, err
	}

	observability.AttemptsRecorded().WithLabelValues(string(attempt.GraderType), string(attempt.Status)).Inc()

	history, err := s.attempts.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return dto.RecordAttemptResponse{}, err
	}

	var transition grading.Transition
	if payload.Flagged {
		transition = grading.Flag(sub)
		transition.PreviousGraderType = attempt.GraderType
	} else {
		transition, err = s.routing.AfterAttempt(sub, attempt, history)
		if err != nil {
			return dto.RecordAttemptResponse{}, err
		}
	}

	if err := s.submissions.Transition(ctx, sub.ID, models.StateBeingGraded, transition); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			observability.StateConflicts().Inc()
			span.SetStatus(codes.Error, "state_conflict")
			return dto.RecordAttemptResponse{}, ErrConflict
		}
		return dto.RecordAttemptResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", sub.ID).
		Str("grader_type", string(attempt.GraderType)).
		Str("status", string(attempt.Status)).
		Str("state", string(transition.State)).
		Msg("attempt recorded")

	if transition.State == models.StateFinished {
		s.postResult(ctx, sub, transition, history)
	}

	span.SetAttributes(attribute.String("grading.state", string(transition.State)))

	return dto.RecordAttemptResponse{
		AttemptID:      attempt.ID,
		State:          transition.State,
		NextGraderType: transition.NextGraderType,
	}, nil
}

func (s *gradingService) skip(ctx context.Context, sub models.Submission, graderID string) (dto.RecordAttemptResponse, error) {
	transition, err := grading.Skip(sub)
	if err != nil {
		return dto.RecordAttemptResponse{}, err
	}

	if err := s.submissions.Transition(ctx, sub.ID, models.StateBeingGraded, transition); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			observability.StateConflicts().Inc()
			return dto.RecordAttemptResponse{}, ErrConflict
		}
		return dto.RecordAttemptResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", sub.ID).
		Str("grader_id", graderID).
		Msg("submission skipped back to queue")

	return dto.RecordAttemptResponse{
		State:          transition.State,
		NextGraderType: transition.NextGraderType,
	}, nil
}

// buildRubric validates submitted rubric scores against the rubric configured
// for the submission's location and materializes the scored rubric. Rubric
// structure is uniform per location: the rubric spec of the first submission recorded
// there is authoritative.
func (s *gradingService) buildRubric(ctx context.Context, sub models.Submission, payload dto.RecordAttemptRequest) (*models.Rubric, error) {
	if len(payload.RubricScores) == 0 {
		return nil, nil
	}

	first, err := s.submissions.FirstAtLocation(ctx, sub.Location)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			first = sub
		} else {
			return nil, err
		}
	}

	spec, err := grading.ParseRubricSpec(first.RubricSpec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRubricShape, err)
	}

	if len(spec) == 0 {
		return nil, fmt.Errorf("%w: no rubric configured for location %s", ErrRubricShape, sub.Location)
	}

	if err := grading.ValidateRubricScores(spec, payload.RubricScores); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRubricShape, err)
	}

	return grading.BuildRubric(spec, payload.RubricScores, sub.Location, payload.RubricScoresComplete), nil
}

// postResult aggregates the finished submission and posts the outcome back to
// the originating queue. Failures here are logged, never surfaced: the grade
// is already durable and an operator sweep can re-post.
func (s *gradingService) postResult(ctx context.Context, sub models.Submission, transition grading.Transition, history []models.GradingAttempt) {
	snapshot := sub
	snapshot.State = transition.State
	snapshot.NextGraderType = transition.NextGraderType
	snapshot.PreviousGraderType = transition.PreviousGraderType

	result, err := grading.Aggregate(snapshot, history, s.aggregate)
	if err != nil {
		if errors.Is(err, grading.ErrInconsistentHistory) {
			observability.InconsistentAggregates().Inc()
		}
		s.logger.Error().Err(err).Uint("submission_id", sub.ID).Msg("failed to aggregate finished submission")
		return
	}

	if err := s.publisher.Publish(ctx, sub.QueueName, result); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", sub.ID).Msg("failed to post result back to queue")
		return
	}

	if err := s.submissions.MarkResultsPosted(ctx, sub.ID); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", sub.ID).Msg("failed to mark results as posted")
	}
}
