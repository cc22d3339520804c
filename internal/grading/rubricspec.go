package grading

import (
	"encoding/json"
	"fmt"

	"github.com/gradeflow/gradeflow-api/internal/models"
)

// RubricItemSpec is one configured scoring category for a problem location.
// Rubric structure is assumed uniform per location: every submission at a
// location carries the same spec, and submitted scores are validated against
// the spec of the first submission recorded there.
type RubricItemSpec struct {
	Text     string            `json:"text"`
	MaxScore int               `json:"max_score"`
	Options  []RubricOptionSpec `json:"options"`
}

// RubricOptionSpec is one selectable point value within a category spec.
type RubricOptionSpec struct {
	Points float64 `json:"points"`
	Text   string  `json:"text"`
}

// ParseRubricSpec decodes the configured rubric stored on a submission. An
// empty blob means the problem has no structured rubric.
func ParseRubricSpec(raw []byte) ([]RubricItemSpec, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var items []RubricItemSpec
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("malformed rubric spec: %w", err)
	}
	return items, nil
}

// ValidateRubricScores checks a submitted score list against the configured
// rubric shape: one score per category, each within the category's option
// range. A non-nil error explains the first mismatch.
func ValidateRubricScores(spec []RubricItemSpec, scores []float64) error {
	if len(scores) != len(spec) {
		return fmt.Errorf("rubric has %d categories but %d scores were submitted", len(spec), len(scores))
	}

	for i, item := range spec {
		score := scores[i]
		if score < 0 {
			return fmt.Errorf("category %d score %v is negative", i, score)
		}

		limit := float64(item.MaxScore)
		for _, option := range item.Options {
			if option.Points > limit {
				limit = option.Points
			}
		}
		if score > limit {
			return fmt.Errorf("category %d score %v exceeds maximum %v", i, score, limit)
		}
	}

	return nil
}

// BuildRubric materializes a scored rubric for an attempt from the configured
// spec and the submitted per-category scores. Item numbers follow spec order.
func BuildRubric(spec []RubricItemSpec, scores []float64, version string, complete bool) *models.Rubric {
	if len(spec) == 0 || len(scores) != len(spec) {
		return nil
	}

	items := make([]models.RubricItem, 0, len(spec))
	for i, itemSpec := range spec {
		options := make([]models.RubricOption, 0, len(itemSpec.Options))
		for j, optionSpec := range itemSpec.Options {
			options = append(options, models.RubricOption{
				Points:     optionSpec.Points,
				Text:       optionSpec.Text,
				ItemNumber: j,
			})
		}

		items = append(items, models.RubricItem{
			Text:       itemSpec.Text,
			Score:      scores[i],
			MaxScore:   itemSpec.MaxScore,
			ItemNumber: i,
			Options:    options,
		})
	}

	return &models.Rubric{
		RubricVersion:   version,
		FinishedScoring: complete,
		Items:           items,
	}
}
