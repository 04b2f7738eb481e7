package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/core/ent/optimization"
	"github.com/promptforge/core/internal/pipeline"
	"github.com/promptforge/core/internal/providers"
	"github.com/promptforge/core/internal/strategy"
	"github.com/promptforge/core/internal/testdb"
)

func TestOptimizationServiceCompleteOptimizationRecordsFullResult(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewOptimizationService(client.Client)
	ctx := context.Background()

	started, err := svc.StartOptimization(ctx, "raw prompt", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, optimization.StatusRunning, started.Status)

	inputTokens := 10
	result := &pipeline.PipelineResult{
		RawPrompt:          "raw prompt",
		Analysis:           &strategy.AnalysisResult{TaskType: "coding", Complexity: "medium"},
		Strategy:           string(strategy.ChainOfThought),
		StrategyConfidence: 0.9,
		StrategyReasoning:  "matched chain-of-thought heuristics",
		OptimizedPrompt:    "optimized prompt",
		Optimization:       &pipeline.OptimizationResult{FrameworkApplied: "cot", ChangesMade: []string{"added steps"}},
		Validation:         &pipeline.ValidationResult{ClarityScore: 0.8, OverallScore: 0.85, IsImprovement: true, Verdict: "better"},
		Model:              "test-model",
		TotalUsage:         providers.TokenUsage{InputTokens: &inputTokens},
	}

	completed, err := svc.CompleteOptimization(ctx, started.ID, result)
	require.NoError(t, err)
	assert.Equal(t, optimization.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.OverallScore)
	assert.Equal(t, 0.85, *completed.OverallScore)
	require.NotNil(t, completed.InputTokens)
	assert.Equal(t, 10, *completed.InputTokens)
}

func TestOptimizationServiceFailOptimizationIsTerminal(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewOptimizationService(client.Client)
	ctx := context.Background()

	started, err := svc.StartOptimization(ctx, "raw prompt", nil, nil, nil)
	require.NoError(t, err)

	failed, err := svc.FailOptimization(ctx, started.ID, errors.New("provider timed out"))
	require.NoError(t, err)
	assert.Equal(t, optimization.StatusError, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "provider timed out", *failed.ErrorMessage)

	_, err = svc.FailOptimization(ctx, started.ID, errors.New("again"))
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestOptimizationServiceCancelRejectsTerminalOptimization(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewOptimizationService(client.Client)
	ctx := context.Background()

	started, err := svc.StartOptimization(ctx, "raw prompt", nil, nil, nil)
	require.NoError(t, err)

	_, err = svc.FailOptimization(ctx, started.ID, errors.New("boom"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, started.ID)
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestOptimizationServiceUpdateCosmeticAllowedAfterCompletion(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewOptimizationService(client.Client)
	ctx := context.Background()

	started, err := svc.StartOptimization(ctx, "raw prompt", nil, nil, nil)
	require.NoError(t, err)
	_, err = svc.FailOptimization(ctx, started.ID, errors.New("boom"))
	require.NoError(t, err)

	title := "renamed"
	updated, err := svc.UpdateCosmetic(ctx, started.ID, &title, []string{"reviewed"}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.Title)
	assert.Equal(t, "renamed", *updated.Title)
	assert.Equal(t, []string{"reviewed"}, updated.Tags)
}
