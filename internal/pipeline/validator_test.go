package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampScoreAcceptsNumericAndBooleanForms(t *testing.T) {
	assert.Equal(t, 0.8, clampScore(0.8))
	assert.Equal(t, 1.0, clampScore(true))
	assert.Equal(t, 0.0, clampScore(false))
	assert.Equal(t, 0.6, clampScore("0.6"))
}

func TestClampScoreDefaultsOnMissingOrInvalid(t *testing.T) {
	assert.Equal(t, defaultScore, clampScore(nil))
	assert.Equal(t, defaultScore, clampScore("not-a-number"))
	assert.Equal(t, defaultScore, clampScore(map[string]any{}))
}

func TestClampScoreClampsOutOfRangeBeforeAveraging(t *testing.T) {
	response := map[string]any{
		"clarity_score":      1.5,
		"specificity_score":  -0.5,
		"structure_score":    0.5,
		"faithfulness_score": 0.5,
	}
	result := validateValidationResponse(response)
	assert.Equal(t, 1.0, result.ClarityScore)
	assert.Equal(t, 0.0, result.SpecificityScore)

	expected := round4(1.0*clarityWeight + 0.0*specificityWeight + 0.5*structureWeight + 0.5*faithfulnessWeight)
	assert.Equal(t, expected, result.OverallScore)
}

func TestOverallScoreIsWeightedAverageOfFourAxes(t *testing.T) {
	response := map[string]any{
		"clarity_score":      0.8,
		"specificity_score":  0.6,
		"structure_score":    0.9,
		"faithfulness_score": 0.7,
	}
	result := validateValidationResponse(response)
	expected := round4(0.8*0.25 + 0.6*0.25 + 0.9*0.20 + 0.7*0.30)
	assert.Equal(t, expected, result.OverallScore)
}

func TestFrameworkAdherenceScoreCarriedButNotAveraged(t *testing.T) {
	withAdherence := validateValidationResponse(map[string]any{
		"clarity_score": 0.5, "specificity_score": 0.5, "structure_score": 0.5, "faithfulness_score": 0.5,
		"framework_adherence_score": 0.1,
	})
	without := validateValidationResponse(map[string]any{
		"clarity_score": 0.5, "specificity_score": 0.5, "structure_score": 0.5, "faithfulness_score": 0.5,
	})

	assert.Equal(t, without.OverallScore, withAdherence.OverallScore)
	want := 0.1
	assert.Equal(t, &want, withAdherence.FrameworkAdherenceScore)
	assert.Nil(t, without.FrameworkAdherenceScore)
}

func TestIsImprovementUsesPythonStyleBoolCoercion(t *testing.T) {
	midScore := map[string]any{"clarity_score": 0.6, "specificity_score": 0.6, "structure_score": 0.6, "faithfulness_score": 0.6}

	withTrue := cloneWith(midScore, "is_improvement", true)
	assert.True(t, validateValidationResponse(withTrue).IsImprovement)

	withFalse := cloneWith(midScore, "is_improvement", false)
	assert.False(t, validateValidationResponse(withFalse).IsImprovement)

	// bool("false") == True in Python; string coercion mirrors that trap.
	withStringFalse := cloneWith(midScore, "is_improvement", "false")
	assert.True(t, validateValidationResponse(withStringFalse).IsImprovement)

	withMissing := map[string]any{"clarity_score": 0.6, "specificity_score": 0.6, "structure_score": 0.6, "faithfulness_score": 0.6}
	assert.False(t, validateValidationResponse(withMissing).IsImprovement)
}

func TestIsImprovementCrossCheckOverridesLowAndHighScores(t *testing.T) {
	lowScore := map[string]any{
		"clarity_score": 0.1, "specificity_score": 0.1, "structure_score": 0.1, "faithfulness_score": 0.1,
		"is_improvement": true,
	}
	result := validateValidationResponse(lowScore)
	assert.Less(t, result.OverallScore, 0.4)
	assert.False(t, result.IsImprovement, "overall_score < 0.4 must force is_improvement false")

	highScore := map[string]any{
		"clarity_score": 0.9, "specificity_score": 0.9, "structure_score": 0.9, "faithfulness_score": 0.9,
		"is_improvement": false,
	}
	result = validateValidationResponse(highScore)
	assert.Greater(t, result.OverallScore, 0.7)
	assert.True(t, result.IsImprovement, "overall_score > 0.7 must force is_improvement true")
}

func TestIsImprovementCrossCheckDoesNotTriggerAtExactBoundary(t *testing.T) {
	// clarity/specificity/structure/faithfulness chosen so overall_score == 0.4 exactly.
	response := map[string]any{
		"clarity_score": 0.4, "specificity_score": 0.4, "structure_score": 0.4, "faithfulness_score": 0.4,
		"is_improvement": false,
	}
	result := validateValidationResponse(response)
	assert.Equal(t, 0.4, result.OverallScore)
	assert.False(t, result.IsImprovement, "exact 0.4 boundary passes through the LLM value unchanged")
}

func TestVerdictDefaultsWhenMissing(t *testing.T) {
	result := validateValidationResponse(map[string]any{})
	assert.Equal(t, defaultVerdict, result.Verdict)

	result = validateValidationResponse(map[string]any{"verdict": "Solid improvement."})
	assert.Equal(t, "Solid improvement.", result.Verdict)
}

func cloneWith(m map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}
