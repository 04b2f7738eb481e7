package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pfcontext "github.com/promptforge/core/internal/context"
	"github.com/promptforge/core/internal/providers/providertest"
	"github.com/promptforge/core/internal/strategy"
)

const analyzerResponse = `{"task_type":"reasoning","complexity":"high","weaknesses":["this is vague"],"strengths":[]}`
const strategyResponse = `{"strategy":"chain-of-thought","confidence":0.9,"reasoning":"needs reasoning","secondary_frameworks":[]}`
const optimizerResponse = `{"optimized_prompt":"Think step by step: explain photosynthesis.","framework_applied":"chain-of-thought","changes_made":["added step-by-step instruction"],"optimization_notes":"added structure"}`
const lowValidationResponse = `{"clarity_score":0.5,"specificity_score":0.5,"structure_score":0.5,"faithfulness_score":0.5,"is_improvement":false,"verdict":"Needs another pass."}`
const highValidationResponse = `{"clarity_score":0.95,"specificity_score":0.9,"structure_score":0.9,"faithfulness_score":0.95,"is_improvement":true,"verdict":"Great improvement."}`

func TestRunFullPipelineCallOrderAndResult(t *testing.T) {
	stub := &providertest.StubProvider{Responses: []string{analyzerResponse, strategyResponse, optimizerResponse, highValidationResponse}}

	result, err := Run(context.Background(), Options{
		RawPrompt: "explain photosynthesis",
		Provider:  stub,
		Model:     "test-model",
	})
	require.NoError(t, err)
	require.Len(t, stub.Prompts, 4)

	assert.NotContains(t, stub.Prompts[0], "{")
	assert.Contains(t, stub.Prompts[0], "explain photosynthesis")

	var strategyPayload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.Prompts[1]), &strategyPayload))
	assert.Equal(t, "explain photosynthesis", strategyPayload["raw_prompt"])

	var optimizePayload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.Prompts[2]), &optimizePayload))
	assert.Equal(t, "chain-of-thought", optimizePayload["strategy"])

	var validatePayload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.Prompts[3]), &validatePayload))
	assert.Equal(t, "chain-of-thought", validatePayload["strategy"])
	assert.Equal(t, "Think step by step: explain photosynthesis.", validatePayload["optimized_prompt"])

	assert.Equal(t, "chain-of-thought", result.Strategy)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, "completed", result.Status)
	assert.True(t, result.Validation.IsImprovement)
}

func TestRunStrategyOverrideSkipsStrategyLLMCall(t *testing.T) {
	stub := &providertest.StubProvider{Responses: []string{analyzerResponse, optimizerResponse, highValidationResponse}}

	result, err := Run(context.Background(), Options{
		RawPrompt:           "explain photosynthesis",
		Provider:            stub,
		Model:               "test-model",
		HasStrategyOverride: true,
		StrategyOverride:    strategy.PersonaAssignment,
	})
	require.NoError(t, err)
	require.Len(t, stub.Prompts, 3)

	assert.Equal(t, "persona-assignment", result.Strategy)
	assert.True(t, result.IsOverride)
	assert.Equal(t, 1.0, result.StrategyConfidence)
}

func TestRunAnalyzeOnlyTerminatesEarly(t *testing.T) {
	stub := &providertest.StubProvider{Responses: []string{analyzerResponse}}

	result, err := Run(context.Background(), Options{
		RawPrompt: "explain photosynthesis",
		Provider:  stub,
		Model:     "test-model",
		Stages:    []string{"analyze"},
	})
	require.NoError(t, err)
	require.Len(t, stub.Prompts, 1)
	assert.Equal(t, "analyzed", result.Status)
	assert.Equal(t, "", result.OptimizedPrompt)
}

func TestRunIterativeRefinementReoptimizesPreviousOutput(t *testing.T) {
	secondOptimize := `{"optimized_prompt":"Think very carefully, step by step: explain photosynthesis.","framework_applied":"chain-of-thought","changes_made":["tightened wording"],"optimization_notes":"second pass"}`
	stub := &providertest.StubProvider{Responses: []string{
		analyzerResponse, strategyResponse, optimizerResponse, lowValidationResponse,
		secondOptimize, highValidationResponse,
	}}

	result, err := Run(context.Background(), Options{
		RawPrompt:      "explain photosynthesis",
		Provider:       stub,
		Model:          "test-model",
		MaxIterations:  3,
		ScoreThreshold: 0.8,
	})
	require.NoError(t, err)
	require.Len(t, stub.Prompts, 6)
	assert.Equal(t, 2, result.Iterations)

	var secondOptimizePayload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.Prompts[4]), &secondOptimizePayload))
	assert.Equal(t, "Think step by step: explain photosynthesis.", secondOptimizePayload["raw_prompt"])

	assert.Equal(t, "Think very carefully, step by step: explain photosynthesis.", result.OptimizedPrompt)
	assert.True(t, result.Validation.OverallScore > 0.8)
}

func TestRunCodebaseContextThreading(t *testing.T) {
	stub := &providertest.StubProvider{Responses: []string{analyzerResponse, strategyResponse, optimizerResponse, highValidationResponse}}
	cc := &pfcontext.CodebaseContext{Language: "Python 3.14", Framework: "FastAPI"}

	_, err := Run(context.Background(), Options{
		RawPrompt:       "explain photosynthesis",
		Provider:        stub,
		Model:           "test-model",
		CodebaseContext: cc,
	})
	require.NoError(t, err)

	assert.Contains(t, stub.Prompts[0], "Python 3.14")

	var strategyPayload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.Prompts[1]), &strategyPayload))
	assert.Contains(t, strategyPayload["codebase_context"], "Python 3.14")

	var optimizePayload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.Prompts[2]), &optimizePayload))
	assert.Contains(t, optimizePayload["codebase_context"], "Python 3.14")

	var validatePayload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.Prompts[3]), &validatePayload))
	assert.Contains(t, validatePayload["codebase_context"], "Python 3.14")
}

func TestRunWithoutCodebaseContextOmitsKeyEntirely(t *testing.T) {
	stub := &providertest.StubProvider{Responses: []string{analyzerResponse, strategyResponse, optimizerResponse, highValidationResponse}}

	_, err := Run(context.Background(), Options{
		RawPrompt: "explain photosynthesis",
		Provider:  stub,
		Model:     "test-model",
	})
	require.NoError(t, err)

	assert.NotContains(t, stub.Prompts[0], "Codebase context")

	var optimizePayload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stub.Prompts[2]), &optimizePayload))
	_, hasKey := optimizePayload["codebase_context"]
	assert.False(t, hasKey, "codebase_context key must be entirely absent, not just empty")
}

func TestRunStreamingEmitsCompleteMarker(t *testing.T) {
	stub := &providertest.StubProvider{Responses: []string{analyzerResponse, strategyResponse, optimizerResponse, highValidationResponse}}

	events := RunStreaming(context.Background(), Options{
		RawPrompt: "explain photosynthesis",
		Provider:  stub,
		Model:     "test-model",
	})

	var sawComplete bool
	var sawStrategyEvent bool
	var finalData *PipelineResult
	for item := range events {
		switch v := item.(type) {
		case Event:
			if v.Type == "complete" {
				sawComplete = true
			}
			if v.Type == "strategy" {
				sawStrategyEvent = true
			}
		case *PipelineComplete:
			finalData = &v.Data
		}
	}

	require.True(t, sawComplete)
	require.True(t, sawStrategyEvent)
	require.NotNil(t, finalData)
	assert.Equal(t, "chain-of-thought", finalData.Strategy)
}

func TestRunStreamingStrategyOverrideSkipsStageStartLabel(t *testing.T) {
	stub := &providertest.StubProvider{Responses: []string{analyzerResponse, optimizerResponse, highValidationResponse}}

	events := RunStreaming(context.Background(), Options{
		RawPrompt:           "explain photosynthesis",
		Provider:            stub,
		Model:               "test-model",
		HasStrategyOverride: true,
		StrategyOverride:    strategy.CoStar,
	})

	var strategyStageStarts int
	for item := range events {
		if e, ok := item.(Event); ok && e.Type == "stage_start" && e.Payload["stage"] == "strategy" {
			strategyStageStarts++
		}
	}
	assert.Equal(t, 0, strategyStageStarts)
}

func TestRunStreamingCancellationStopsEmittingEvents(t *testing.T) {
	stub := &providertest.StubProvider{Responses: []string{analyzerResponse, strategyResponse, optimizerResponse, highValidationResponse}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := RunStreaming(ctx, Options{
		RawPrompt: "explain photosynthesis",
		Provider:  stub,
		Model:     "test-model",
	})

	for range events {
		// drain; the channel must close without panicking even though
		// the context was already cancelled before the run started.
	}
}

func TestFormatSSERendersEventFrame(t *testing.T) {
	frame, err := FormatSSE(Event{Type: "iteration", Payload: map[string]any{"iteration": 2}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(frame, "event: iteration\ndata: "))
	assert.True(t, strings.HasSuffix(frame, "\n\n"))
}
