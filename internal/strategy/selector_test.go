package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/core/internal/providers/providertest"
)

func TestSelectorUsesLLMResponseWhenValid(t *testing.T) {
	stub := &providertest.StubProvider{
		Responses: []string{`{"strategy": "chain-of-thought", "confidence": 0.9, "reasoning": "needs reasoning", "secondary_frameworks": ["co-star"]}`},
	}
	sel := NewSelector(stub).Select(context.Background(), AnalysisResult{TaskType: "reasoning"}, "explain this", 20, nil)

	assert.Equal(t, ChainOfThought, sel.Strategy)
	assert.Equal(t, 0.9, sel.Confidence)
	assert.Equal(t, []Strategy{CoStar}, sel.SecondaryFrameworks)
}

func TestSelectorNormalizesLegacyAliasFromLLM(t *testing.T) {
	stub := &providertest.StubProvider{
		Responses: []string{`{"strategy": "cot", "confidence": 0.8}`},
	}
	sel := NewSelector(stub).Select(context.Background(), AnalysisResult{TaskType: "math"}, "x", 20, nil)

	assert.Equal(t, ChainOfThought, sel.Strategy)
}

func TestSelectorFallsBackToHeuristicOnProviderError(t *testing.T) {
	stub := &providertest.StubProvider{Err: errors.New("provider unavailable")}
	sel := NewSelector(stub).Select(context.Background(), AnalysisResult{TaskType: "reasoning", Complexity: "high"}, "x", 20, nil)

	assert.Equal(t, ChainOfThought, sel.Strategy)
	assert.Equal(t, 0.95, sel.Confidence)
}

func TestSelectorFallsBackOnUnparseableJSON(t *testing.T) {
	stub := &providertest.StubProvider{Responses: []string{"not json at all"}}
	sel := NewSelector(stub).Select(context.Background(), AnalysisResult{TaskType: "general", Complexity: "low"}, "x", 20, nil)

	assert.Equal(t, RoleTaskFormat, sel.Strategy)
}

func TestValidateLLMResponseDefaultsUnknownStrategy(t *testing.T) {
	sel := validateLLMResponse(map[string]any{"strategy": "not-a-real-strategy"}, "general")
	assert.Equal(t, RoleTaskFormat, sel.Strategy)
}

func TestValidateLLMResponseClampsConfidence(t *testing.T) {
	sel := validateLLMResponse(map[string]any{"strategy": "risen", "confidence": 5.0}, "general")
	assert.Equal(t, 1.0, sel.Confidence)

	sel = validateLLMResponse(map[string]any{"strategy": "risen", "confidence": -5.0}, "general")
	assert.Equal(t, 0.0, sel.Confidence)
}

func TestValidateLLMResponseDropsSecondaryMatchingPrimary(t *testing.T) {
	sel := validateLLMResponse(map[string]any{
		"strategy":             "risen",
		"secondary_frameworks": []any{"risen", "co-star", "step-by-step", "persona-assignment"},
	}, "general")

	require.Len(t, sel.SecondaryFrameworks, 2)
	assert.Equal(t, []Strategy{CoStar, StepByStep}, sel.SecondaryFrameworks)
}

func TestValidateLLMResponseSynthesizesReasoningWhenEmpty(t *testing.T) {
	sel := validateLLMResponse(map[string]any{"strategy": "risen"}, "education")
	assert.Equal(t, "Selected risen for education task.", sel.Reasoning)
}
