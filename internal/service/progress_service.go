package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// ProgressConfig carries the thresholds used for progress reporting.
type ProgressConfig struct {
	MinToUseML   int
	MinToUsePeer int
	CacheTTL     time.Duration
}

// ProgressService exposes read-only grading-progress aggregates: the
// per-problem pending work list and the course notification summary. Both are
// cheap scans cached briefly; staleness is acceptable here.
type ProgressService interface {
	ProblemList(ctx context.Context, courseID string) (dto.ProblemListResponse, error)
	Notifications(ctx context.Context, courseID string) (dto.NotificationsResponse, error)
}

type progressService struct {
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cfg         ProgressConfig
	logger      zerolog.Logger
}

// NewProgressService builds the progress service. cache may be nil; caching
// is then skipped entirely.
func NewProgressService(submissions repository.SubmissionRepository, cache *redis.Client, cfg ProgressConfig, logger zerolog.Logger) ProgressService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 45 * time.Second
	}

	return &progressService{
		submissions: submissions,
		cache:       cache,
		cfg:         cfg,
		logger:      logger.With().Str("component", "progress_service").Logger(),
	}
}

func (s *progressService) ProblemList(ctx context.Context, courseID string) (dto.ProblemListResponse, error) {
	cacheKey := fmt.Sprintf("progress:problems:%s", courseID)

	var cached dto.ProblemListResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	locations, err := s.submissions.LocationsForCourse(ctx, courseID)
	if err != nil {
		return dto.ProblemListResponse{}, err
	}

	problems := make([]dto.ProblemProgress, 0, len(locations))
	for _, location := range locations {
		scope := repository.SubmissionScope{Location: location}

		pending, err := s.submissions.PendingCount(ctx, models.GraderTypeInstructor, scope)
		if err != nil {
			return dto.ProblemListResponse{}, err
		}

		graded, err := s.submissions.GradedCount(ctx, models.GraderTypeInstructor, scope)
		if err != nil {
			return dto.ProblemListResponse{}, err
		}

		mlCount, err := s.submissions.CountPreferredML(ctx, location)
		if err != nil {
			return dto.ProblemListResponse{}, err
		}

		// The instructor-graded minimum depends on where the location is
		// headed: ML-preferred problems need a model training corpus.
		minRequired := s.cfg.MinToUsePeer
		if mlCount > 0 {
			minRequired = s.cfg.MinToUseML
		}

		required := int64(minRequired) - graded
		if required < 0 {
			required = 0
		}

		problemName := location
		if first, err := s.submissions.FirstAtLocation(ctx, location); err == nil && first.ProblemID != "" {
			problemName = first.ProblemID
		}

		problems = append(problems, dto.ProblemProgress{
			Location:    location,
			ProblemName: problemName,
			NumGraded:   graded,
			NumPending:  pending,
			NumRequired: required,
			MinForML:    s.cfg.MinToUseML,
		})
	}

	response := dto.ProblemListResponse{ProblemList: problems}
	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *progressService) Notifications(ctx context.Context, courseID string) (dto.NotificationsResponse, error) {
	cacheKey := fmt.Sprintf("progress:notifications:%s", courseID)

	var cached dto.NotificationsResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	scope := repository.SubmissionScope{CourseID: courseID}

	staffPending, err := s.submissions.PendingCount(ctx, models.GraderTypeInstructor, scope)
	if err != nil {
		return dto.NotificationsResponse{}, err
	}

	peerPending, err := s.submissions.PendingCount(ctx, models.GraderTypePeer, scope)
	if err != nil {
		return dto.NotificationsResponse{}, err
	}

	flagged, err := s.submissions.FlaggedCount(ctx, scope)
	if err != nil {
		return dto.NotificationsResponse{}, err
	}

	response := dto.NotificationsResponse{
		StaffNeedsToGrade:       staffPending > 0,
		StudentNeedsToPeerGrade: peerPending > 0,
		FlaggedSubmissionsExist: flagged > 0,
	}
	response.OverallNeedToCheck = response.StaffNeedsToGrade || response.StudentNeedsToPeerGrade || response.FlaggedSubmissionsExist

	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *progressService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}

	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return false
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed cache entry")
		return false
	}
	return true
}

func (s *progressService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to write cache entry")
	}
}
