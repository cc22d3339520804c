package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/grading"
	"github.com/gradeflow/gradeflow-api/internal/observability"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// ResultService answers "what is this submission's current reportable
// result". Reads are not linearizable with concurrent attempt recording; a
// slightly stale aggregate self-heals on the next call.
type ResultService interface {
	Aggregate(ctx context.Context, submissionID uint) (dto.AggregateResultResponse, error)
	LastInstructorResult(ctx context.Context, submissionID uint) (dto.InstructorResultResponse, error)
}

type resultService struct {
	submissions repository.SubmissionRepository
	attempts    repository.AttemptRepository
	cfg         grading.AggregateConfig
	logger      zerolog.Logger
}

// NewResultService constructs the result aggregation service.
func NewResultService(submissions repository.SubmissionRepository, attempts repository.AttemptRepository, cfg grading.AggregateConfig, logger zerolog.Logger) ResultService {
	return &resultService{
		submissions: submissions,
		attempts:    attempts,
		cfg:         cfg,
		logger:      logger.With().Str("component", "result_service").Logger(),
	}
}

func (s *resultService) Aggregate(ctx context.Context, submissionID uint) (dto.AggregateResultResponse, error) {
	start := time.Now()
	defer func() {
		observability.AggregationLatency().Observe(time.Since(start).Seconds())
	}()

	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AggregateResultResponse{}, ErrSubmissionNotFound
		}
		return dto.AggregateResultResponse{}, err
	}

	attempts, err := s.attempts.ListBySubmission(ctx, submissionID)
	if err != nil {
		return dto.AggregateResultResponse{}, err
	}

	result, err := grading.Aggregate(sub, attempts, s.cfg)
	if err != nil {
		if errors.Is(err, grading.ErrInconsistentHistory) {
			observability.InconsistentAggregates().Inc()
			s.logger.Error().
				Uint("submission_id", submissionID).
				Str("previous_grader_type", string(sub.PreviousGraderType)).
				Msg("aggregation found an inconsistent grading history")
		}
		return dto.AggregateResultResponse{}, err
	}

	return dto.NewAggregateResultResponse(result), nil
}

func (s *resultService) LastInstructorResult(ctx context.Context, submissionID uint) (dto.InstructorResultResponse, error) {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.InstructorResultResponse{}, ErrSubmissionNotFound
		}
		return dto.InstructorResultResponse{}, err
	}

	attempts, err := s.attempts.ListBySubmission(ctx, submissionID)
	if err != nil {
		return dto.InstructorResultResponse{}, err
	}

	result := grading.LastInstructorResult(attempts)
	return dto.InstructorResultResponse{
		Found:    result.Found,
		Score:    result.Score,
		Feedback: result.Feedback,
		Rubric:   result.Rubric,
	}, nil
}
