package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/promptforge/core/ent"
	"github.com/promptforge/core/ent/optimization"
	"github.com/promptforge/core/internal/pipeline"
	"github.com/promptforge/core/internal/strategy"
)

// OptimizationService records the lifecycle of one pipeline run: created
// pending/running, mutated exactly once more on a terminal outcome
// (completed with full stage output, or error), and thereafter
// immutable except for the cosmetic title/tags/project fields.
type OptimizationService struct {
	client *ent.Client
}

// NewOptimizationService constructs an OptimizationService.
func NewOptimizationService(client *ent.Client) *OptimizationService {
	return &OptimizationService{client: client}
}

// StartOptimization creates an Optimization row in status=running for a
// pipeline invocation that is about to begin.
func (s *OptimizationService) StartOptimization(ctx context.Context, rawPrompt string, projectID, promptID *string, retryOf *uuid.UUID) (*ent.Optimization, error) {
	if rawPrompt == "" {
		return nil, NewValidationError("raw_prompt", "required")
	}

	create := s.client.Optimization.Create().
		SetID(uuid.New()).
		SetRawPrompt(rawPrompt).
		SetStatus(optimization.StatusRunning)
	if projectID != nil {
		create = create.SetProjectID(*projectID)
	}
	if promptID != nil {
		create = create.SetPromptID(*promptID)
	}
	if retryOf != nil {
		create = create.SetRetryOf(*retryOf)
	}
	return create.Save(ctx)
}

// CompleteOptimization records a successful terminal pipeline result.
// It is the only write permitted on a running Optimization besides
// FailOptimization, and it must only be called once.
func (s *OptimizationService) CompleteOptimization(ctx context.Context, id uuid.UUID, result *pipeline.PipelineResult) (*ent.Optimization, error) {
	o, err := s.requireRunning(ctx, id)
	if err != nil {
		return nil, err
	}

	update := o.Update().
		SetStatus(optimization.StatusCompleted).
		SetCompletedAt(time.Now())
	if result.TotalUsage.InputTokens != nil {
		update = update.SetInputTokens(*result.TotalUsage.InputTokens)
	}
	if result.TotalUsage.OutputTokens != nil {
		update = update.SetOutputTokens(*result.TotalUsage.OutputTokens)
	}
	if result.TotalUsage.CacheCreationInputTokens != nil {
		update = update.SetCacheCreationInputTokens(*result.TotalUsage.CacheCreationInputTokens)
	}
	if result.TotalUsage.CacheReadInputTokens != nil {
		update = update.SetCacheReadInputTokens(*result.TotalUsage.CacheReadInputTokens)
	}

	if result.Analysis != nil {
		applyAnalysis(update, result.Analysis)
	}
	applySelection(update, result)
	if result.OptimizedPrompt != "" {
		update = update.SetOptimizedPrompt(result.OptimizedPrompt)
	}
	if result.Optimization != nil {
		applyOptimization(update, result.Optimization)
	}
	if result.Validation != nil {
		applyValidation(update, result.Validation)
	}
	if result.Model != "" {
		update = update.SetModelUsed(result.Model)
	}

	return update.Save(ctx)
}

// FailOptimization records a terminal error, ending the lifecycle.
func (s *OptimizationService) FailOptimization(ctx context.Context, id uuid.UUID, cause error) (*ent.Optimization, error) {
	o, err := s.requireRunning(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.Update().
		SetStatus(optimization.StatusError).
		SetCompletedAt(time.Now()).
		SetErrorMessage(cause.Error()).
		Save(ctx)
}

// Cancel transitions a pending or running optimization to cancelled.
// It returns ErrNotCancellable for an optimization already in a
// terminal state.
func (s *OptimizationService) Cancel(ctx context.Context, id uuid.UUID) (*ent.Optimization, error) {
	o, err := s.client.Optimization.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.Status != optimization.StatusPending && o.Status != optimization.StatusRunning {
		return nil, ErrNotCancellable
	}
	return o.Update().
		SetStatus(optimization.StatusCancelled).
		SetCompletedAt(time.Now()).
		Save(ctx)
}

// UpdateCosmetic updates the mutable title/tags/project assignment of
// an Optimization regardless of its status.
func (s *OptimizationService) UpdateCosmetic(ctx context.Context, id uuid.UUID, title *string, tags []string, projectID *string) (*ent.Optimization, error) {
	o, err := s.client.Optimization.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	update := o.Update()
	if title != nil {
		update = update.SetTitle(*title)
	}
	if tags != nil {
		update = update.SetTags(tags)
	}
	if projectID != nil {
		update = update.SetProjectID(*projectID)
	}
	return update.Save(ctx)
}

// GetOptimization returns an optimization by id.
func (s *OptimizationService) GetOptimization(ctx context.Context, id uuid.UUID) (*ent.Optimization, error) {
	o, err := s.client.Optimization.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

// ListByProject returns optimizations scoped to a project, newest first.
func (s *OptimizationService) ListByProject(ctx context.Context, projectID string) ([]*ent.Optimization, error) {
	return s.client.Optimization.Query().
		Where(optimization.ProjectID(projectID)).
		Order(ent.Desc(optimization.FieldCreatedAt)).
		All(ctx)
}

func (s *OptimizationService) requireRunning(ctx context.Context, id uuid.UUID) (*ent.Optimization, error) {
	o, err := s.client.Optimization.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.Status != optimization.StatusRunning && o.Status != optimization.StatusPending {
		return nil, ErrNotCancellable
	}
	return o, nil
}

func applyAnalysis(update *ent.OptimizationUpdateOne, a *strategy.AnalysisResult) {
	update.SetTaskType(a.TaskType).
		SetComplexity(a.Complexity).
		SetWeaknesses(a.Weaknesses).
		SetStrengths(a.Strengths)
}

func applySelection(update *ent.OptimizationUpdateOne, result *pipeline.PipelineResult) {
	if result.Strategy == "" {
		return
	}
	update.SetStrategy(result.Strategy).
		SetStrategyReasoning(result.StrategyReasoning).
		SetStrategyConfidence(result.StrategyConfidence).
		SetStrategyIsOverride(result.IsOverride)
	if len(result.SecondaryFrameworks) > 0 {
		frameworks := make([]string, len(result.SecondaryFrameworks))
		for i, f := range result.SecondaryFrameworks {
			frameworks[i] = string(f)
		}
		update.SetSecondaryFrameworks(frameworks)
	}
}

func applyOptimization(update *ent.OptimizationUpdateOne, o *pipeline.OptimizationResult) {
	update.SetFrameworkApplied(o.FrameworkApplied).
		SetChangesMade(o.ChangesMade).
		SetOptimizationNotes(o.OptimizationNotes)
}

func applyValidation(update *ent.OptimizationUpdateOne, v *pipeline.ValidationResult) {
	update.SetClarityScore(v.ClarityScore).
		SetSpecificityScore(v.SpecificityScore).
		SetStructureScore(v.StructureScore).
		SetFaithfulnessScore(v.FaithfulnessScore).
		SetOverallScore(v.OverallScore).
		SetIsImprovement(v.IsImprovement).
		SetVerdict(v.Verdict)
	if v.FrameworkAdherenceScore != nil {
		update.SetFrameworkAdherenceScore(*v.FrameworkAdherenceScore)
	}
}
