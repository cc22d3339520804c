package dto

import (
	"time"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// MessageCreateRequest attaches an audit message to a grading attempt.
type MessageCreateRequest struct {
	Body        string `json:"body" validate:"required"`
	Originator  string `json:"originator" validate:"required"`
	Recipient   string `json:"recipient" validate:"required"`
	MessageType string `json:"message_type"`
	Score       *int   `json:"score"`
}

// MessageResponse serializes an audit message.
type MessageResponse struct {
	ID          uint      `json:"id"`
	AttemptID   uint      `json:"attempt_id"`
	Body        string    `json:"body"`
	Originator  string    `json:"originator"`
	Recipient   string    `json:"recipient"`
	MessageType string    `json:"message_type"`
	Score       *int      `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMessageResponse converts a Message model into a DTO.
func NewMessageResponse(model models.Message) MessageResponse {
	return MessageResponse{
		ID:          model.ID,
		AttemptID:   model.AttemptID,
		Body:        model.Body,
		Originator:  model.Originator,
		Recipient:   model.Recipient,
		MessageType: model.MessageType,
		Score:       model.Score,
		CreatedAt:   model.CreatedAt,
	}
}
