package models

import "time"

// Message is an audit record linking two parties about a grading attempt. It
// plays no part in aggregation.
type Message struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AttemptID   uint   `gorm:"index;not null" json:"attempt_id"`
	Body        string `gorm:"type:text;not null" json:"body"`
	Originator  string `gorm:"size:128;not null" json:"originator"`
	Recipient   string `gorm:"size:128;not null" json:"recipient"`
	MessageType string `gorm:"size:128" json:"message_type"`
	Score       *int   `json:"score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
