package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/models"
	"github.com/gradeflow/gradeflow-api/internal/repository"
)

// ErrAttemptNotFound indicates the referenced grading attempt does not exist.
var ErrAttemptNotFound = errors.New("grading attempt not found")

// MessageService records and lists audit messages exchanged around a grading
// attempt (regrade requests, grader feedback threads).
type MessageService interface {
	Create(ctx context.Context, attemptID uint, payload dto.MessageCreateRequest) (dto.MessageResponse, error)
	ListByAttempt(ctx context.Context, attemptID uint) ([]dto.MessageResponse, error)
}

type messageService struct {
	messages  repository.MessageRepository
	attempts  repository.AttemptRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMessageService constructs the message service.
func NewMessageService(
	messages repository.MessageRepository,
	attempts repository.AttemptRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) MessageService {
	return &messageService{
		messages:  messages,
		attempts:  attempts,
		validator: validate,
		logger:    logger.With().Str("component", "message_service").Logger(),
	}
}

func (s *messageService) Create(ctx context.Context, attemptID uint, payload dto.MessageCreateRequest) (dto.MessageResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MessageResponse{}, err
	}

	if _, err := s.attempts.GetByID(ctx, attemptID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MessageResponse{}, ErrAttemptNotFound
		}
		return dto.MessageResponse{}, err
	}

	message := models.Message{
		AttemptID:   attemptID,
		Body:        payload.Body,
		Originator:  payload.Originator,
		Recipient:   payload.Recipient,
		MessageType: payload.MessageType,
		Score:       payload.Score,
	}

	if err := s.messages.Create(ctx, &message); err != nil {
		return dto.MessageResponse{}, err
	}

	s.logger.Info().
		Uint("attempt_id", attemptID).
		Str("originator", message.Originator).
		Str("message_type", message.MessageType).
		Msg("message recorded")

	return dto.NewMessageResponse(message), nil
}

func (s *messageService) ListByAttempt(ctx context.Context, attemptID uint) ([]dto.MessageResponse, error) {
	if _, err := s.attempts.GetByID(ctx, attemptID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	records, err := s.messages.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MessageResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.NewMessageResponse(record))
	}
	return responses, nil
}
