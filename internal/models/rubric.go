package models

import (
	"sort"
	"time"
)

// Rubric is the scored breakdown attached to one grading attempt. It only
// contributes structured scores once FinishedScoring is set.
type Rubric struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	AttemptID       uint   `gorm:"index;not null" json:"attempt_id"`
	RubricVersion   string `gorm:"size:128" json:"rubric_version"`
	FinishedScoring bool   `gorm:"not null;default:false" json:"finished_scoring"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []RubricItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
}

// RubricItem is one scoring category within a rubric. ItemNumber defines the
// display and iteration order.
type RubricItem struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	RubricID   uint    `gorm:"index;not null" json:"rubric_id"`
	Text       string  `gorm:"type:text" json:"text"`
	ShortText  string  `gorm:"size:1024" json:"short_text"`
	Comment    string  `gorm:"type:text" json:"comment"`
	Score      float64 `gorm:"not null;default:0" json:"score"`
	MaxScore   int     `gorm:"not null;default:1" json:"max_score"`
	ItemNumber int     `gorm:"not null" json:"item_number"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Options []RubricOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options"`
}

// RubricOption is one selectable point value for a rubric category.
type RubricOption struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	RubricItemID uint    `gorm:"index;not null" json:"rubric_item_id"`
	Points       float64 `gorm:"not null;default:0" json:"points"`
	ShortText    string  `gorm:"size:128" json:"short_text"`
	Text         string  `gorm:"type:text" json:"text"`
	ItemNumber   int     `gorm:"not null" json:"item_number"`
}

// OrderedItems returns the rubric categories sorted by item number ascending,
// regardless of storage order.
func (r Rubric) OrderedItems() []RubricItem {
	items := make([]RubricItem, len(r.Items))
	copy(items, r.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ItemNumber < items[j].ItemNumber
	})
	return items
}

// Scores returns the per-category scores ordered by item number ascending.
func (r Rubric) Scores() []float64 {
	items := r.OrderedItems()
	scores := make([]float64, 0, len(items))
	for _, item := range items {
		scores = append(scores, item.Score)
	}
	return scores
}

// Headers returns the per-category labels in the same order as Scores.
func (r Rubric) Headers() []string {
	items := r.OrderedItems()
	headers := make([]string, 0, len(items))
	for _, item := range items {
		headers = append(headers, item.Text)
	}
	return headers
}

// RubricCategoryPayload is the structural representation of one scored
// category, including its full option menu for redisplay.
type RubricCategoryPayload struct {
	Description string                `json:"description"`
	Score       float64               `json:"score"`
	MaxScore    int                   `json:"max_score"`
	Options     []RubricOptionPayload `json:"options"`
}

// RubricOptionPayload is one selectable option within a category payload.
type RubricOptionPayload struct {
	Points float64 `json:"points"`
	Text   string  `json:"text"`
}

// Payload serializes the rubric as nested ordered categories. Rendering to a
// markup format is the consumer's concern; only the structure is guaranteed.
func (r Rubric) Payload() []RubricCategoryPayload {
	items := r.OrderedItems()
	categories := make([]RubricCategoryPayload, 0, len(items))
	for _, item := range items {
		options := make([]RubricOption, len(item.Options))
		copy(options, item.Options)
		sort.SliceStable(options, func(i, j int) bool {
			return options[i].ItemNumber < options[j].ItemNumber
		})

		payloadOptions := make([]RubricOptionPayload, 0, len(options))
		for _, option := range options {
			payloadOptions = append(payloadOptions, RubricOptionPayload{
				Points: option.Points,
				Text:   option.Text,
			})
		}

		categories = append(categories, RubricCategoryPayload{
			Description: item.Text,
			Score:       item.Score,
			MaxScore:    item.MaxScore,
			Options:     payloadOptions,
		})
	}
	return categories
}
