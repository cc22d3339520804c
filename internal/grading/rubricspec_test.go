package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleSpec() []RubricItemSpec {
	return []RubricItemSpec{
		{
			Text:     "Clarity",
			MaxScore: 3,
			Options: []RubricOptionSpec{
				{Points: 0, Text: "Unclear"},
				{Points: 3, Text: "Clear"},
			},
		},
		{
			Text:     "Grammar",
			MaxScore: 2,
		},
	}
}

func TestParseRubricSpecEmptyBlob(t *testing.T) {
	items, err := ParseRubricSpec(nil)
	require.NoError(t, err)
	require.Nil(t, items)
}

func TestParseRubricSpecMalformed(t *testing.T) {
	_, err := ParseRubricSpec([]byte("{not json"))
	require.Error(t, err)
}

func TestParseRubricSpecRoundTrip(t *testing.T) {
	items, err := ParseRubricSpec([]byte(`[{"text":"Clarity","max_score":3,"options":[{"points":3,"text":"Clear"}]}]`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Clarity", items[0].Text)
	require.Equal(t, 3, items[0].MaxScore)
	require.Len(t, items[0].Options, 1)
}

func TestValidateRubricScores(t *testing.T) {
	spec := sampleSpec()

	require.NoError(t, ValidateRubricScores(spec, []float64{2, 1}))
	require.Error(t, ValidateRubricScores(spec, []float64{2}))
	require.Error(t, ValidateRubricScores(spec, []float64{-1, 1}))
	require.Error(t, ValidateRubricScores(spec, []float64{4, 1}))
}

func TestValidateRubricScoresOptionCanExceedMaxScore(t *testing.T) {
	spec := []RubricItemSpec{
		{
			Text:     "Bonus",
			MaxScore: 2,
			Options: []RubricOptionSpec{
				{Points: 5, Text: "Exceptional"},
			},
		},
	}

	require.NoError(t, ValidateRubricScores(spec, []float64{5}))
	require.Error(t, ValidateRubricScores(spec, []float64{6}))
}

func TestBuildRubricPreservesCategoryOrder(t *testing.T) {
	rubric := BuildRubric(sampleSpec(), []float64{2, 1}, "v1", true)
	require.NotNil(t, rubric)
	require.True(t, rubric.FinishedScoring)
	require.Equal(t, "v1", rubric.RubricVersion)

	require.Equal(t, []string{"Clarity", "Grammar"}, rubric.Headers())
	require.Equal(t, []float64{2, 1}, rubric.Scores())

	payload := rubric.Payload()
	require.Len(t, payload, 2)
	require.Equal(t, "Clarity", payload[0].Description)
	require.Len(t, payload[0].Options, 2)
}

func TestBuildRubricShapeMismatchReturnsNil(t *testing.T) {
	require.Nil(t, BuildRubric(sampleSpec(), []float64{2}, "v1", true))
	require.Nil(t, BuildRubric(nil, nil, "v1", true))
}
