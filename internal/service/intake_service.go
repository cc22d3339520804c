package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/grading"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// ErrControlFields indicates the opaque control blob failed schema validation.
var ErrControlFields = errors.New("control fields failed validation")

// controlFieldsSchema constrains the shape of the LMS control blob without
// enumerating every key the LMS may pass through.
const controlFieldsSchema = `{
	"type": "object",
	"properties": {
		"peer_grade_finished_submissions": {"type": "boolean"},
		"min_to_calibrate": {"type": "integer", "minimum": 0},
		"max_to_calibrate": {"type": "integer", "minimum": 0},
		"peer_grader_count": {"type": "integer", "minimum": 1},
		"required_peer_grading": {"type": "integer", "minimum": 1}
	}
}`

// IntakeService accepts new submissions from the originating queue, seeds
// their routing state, and runs the basic-check pass inline.
type IntakeService interface {
	Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionCreateResponse, error)
}

type intakeService struct {
	submissions repository.SubmissionRepository
	grading     GradingService
	check       *grading.BasicCheck
	schema      *jsonschema.Schema
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewIntakeService constructs the intake service.
func NewIntakeService(
	submissions repository.SubmissionRepository,
	gradingService GradingService,
	check *grading.BasicCheck,
	validate *validator.Validate,
	logger zerolog.Logger,
) (IntakeService, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("control_fields.json", bytes.NewReader([]byte(controlFieldsSchema))); err != nil {
		return nil, fmt.Errorf("failed to load control fields schema: %w", err)
	}

	schema, err := compiler.Compile("control_fields.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile control fields schema: %w", err)
	}

	return &intakeService{
		submissions: submissions,
		grading:     gradingService,
		check:       check,
		schema:      schema,
		validator:   validate,
		logger:      logger.With().Str("component", "intake_service").Logger(),
		now:         time.Now,
	}, nil
}

func (s *intakeService) Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionCreateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionCreateResponse{}, err
	}

	if err := s.validateControlFields(payload.ControlFields); err != nil {
		return dto.SubmissionCreateResponse{}, err
	}

	nextGrader := models.GraderTypeBasicCheck
	if payload.SkipBasicChecks {
		nextGrader = payload.PreferredGraderType
	}

	submissionTime := s.now()
	if payload.StudentSubmissionTime != nil {
		submissionTime = *payload.StudentSubmissionTime
	}

	var rubricSpec datatypes.JSON
	if len(payload.RubricItems) > 0 {
		raw, err := json.Marshal(payload.RubricItems)
		if err != nil {
			return dto.SubmissionCreateResponse{}, err
		}
		rubricSpec = datatypes.JSON(raw)
	}

	submission := models.Submission{
		State:                 models.StateWaitingToBeGraded,
		PreferredGraderType:   payload.PreferredGraderType,
		NextGraderType:        nextGrader,
		PreviousGraderType:    models.GraderTypeNone,
		Prompt:                payload.Prompt,
		RubricText:            payload.RubricText,
		RubricSpec:            rubricSpec,
		InitialDisplay:        payload.InitialDisplay,
		StudentResponse:       payload.StudentResponse,
		StudentID:             payload.StudentID,
		ProblemID:             payload.ProblemID,
		Location:              payload.Location,
		CourseID:              payload.CourseID,
		MaxScore:              payload.MaxScore,
		StudentSubmissionTime: submissionTime,
		QueueSubmissionID:     payload.QueueSubmissionID,
		QueueSubmissionKey:    payload.QueueSubmissionKey,
		QueueName:             payload.QueueName,
		SkipBasicChecks:       payload.SkipBasicChecks,
		ControlFields:         datatypes.JSON(payload.ControlFields),
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionCreateResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("course_id", submission.CourseID).
		Str("location", submission.Location).
		Str("next_grader_type", string(submission.NextGraderType)).
		Msg("submission accepted")

	state := submission.State
	next := submission.NextGraderType

	if !payload.SkipBasicChecks {
		recorded, err := s.runBasicCheck(ctx, submission)
		if err != nil {
			// The submission is durable and still routed to the basic check;
			// a later pass can pick it up.
			s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("basic check failed to run")
		} else {
			state = recorded.State
			next = recorded.NextGraderType
		}
	}

	return dto.SubmissionCreateResponse{
		SubmissionID: submission.ID,
		State:        state,
		NextGrader:   next,
	}, nil
}

// runBasicCheck claims the fresh submission and records the built-in check's
// verdict through the ordinary attempt path.
func (s *intakeService) runBasicCheck(ctx context.Context, submission models.Submission) (dto.RecordAttemptResponse, error) {
	claim, err := grading.Claim(submission)
	if err != nil {
		return dto.RecordAttemptResponse{}, err
	}

	if err := s.submissions.Transition(ctx, submission.ID, models.StateWaitingToBeGraded, claim); err != nil {
		return dto.RecordAttemptResponse{}, err
	}

	passed, feedback := s.check.Evaluate(submission.StudentResponse)

	return s.grading.RecordAttempt(ctx, dto.RecordAttemptRequest{
		SubmissionID: submission.ID,
		GraderID:     grading.BasicCheckGraderID,
		GraderType:   models.GraderTypeBasicCheck,
		Success:      passed,
		Feedback:     feedback,
		Confidence:   1,
	})
}

func (s *intakeService) validateControlFields(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrControlFields, err)
	}

	if err := s.schema.Validate(decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrControlFields, err)
	}

	return nil
}
