package pipeline

import (
	"context"
	"fmt"

	"github.com/promptforge/core/internal/strategy"
)

// StrategyStage selects the optimization strategy: either the LLM-
// primary/heuristic-fallback chain in internal/strategy, or, when the
// caller supplied an override, a synchronous validation of that
// override with no LLM call at all.
type StrategyStage struct {
	selector *strategy.Selector
	opts     Options
}

// NewStrategyStage constructs a StrategyStage. sel is reused across an
// entire pipeline run (and its iterations) so LastUsage accumulates
// correctly.
func NewStrategyStage(sel *strategy.Selector, opts Options) *StrategyStage {
	return &StrategyStage{selector: sel, opts: opts}
}

func (s *StrategyStage) Name() string { return "strategy" }

func (s *StrategyStage) Config() StageConfig {
	return StageConfig{
		Label:                   "Strategizing",
		StartMessage:            "Selecting optimization strategy...",
		InitialMessages:         []string{"Weighing strategies..."},
		ProgressMessages:        []string{"Still strategizing...", "Comparing frameworks..."},
		ProgressIntervalSeconds: 2,
		ResultEvent:             "strategy",
	}
}

// IsOverride reports whether this run bypasses the stage's own LLM
// call, for the streaming orchestrator's "no stage_start label, emit
// result immediately" instant path.
func (s *StrategyStage) IsOverride() bool { return s.opts.HasStrategyOverride }

func (s *StrategyStage) Execute(ctx context.Context, pc *PipelineContext) (any, error) {
	if s.opts.HasStrategyOverride {
		return s.executeOverride(pc)
	}

	if pc.Analysis == nil {
		return nil, fmt.Errorf("pipeline: strategy stage requires analysis to have run first")
	}

	var hints *strategy.ContextHints
	if pc.CodebaseContext != nil && !pc.CodebaseContext.IsEmpty() {
		hints = &strategy.ContextHints{
			Language:    pc.CodebaseContext.Language,
			Framework:   pc.CodebaseContext.Framework,
			Conventions: pc.CodebaseContext.Conventions,
			Patterns:    pc.CodebaseContext.Patterns,
			Rendered:    pc.CodebaseContext.Render(),
		}
	}

	sel := s.selector.Select(ctx, *pc.Analysis, pc.RawPrompt, len(pc.RawPrompt), hints)
	pc.TotalUsage = pc.TotalUsage.Add(s.selector.LastUsage)
	pc.Selection = &sel
	return sel, nil
}

func (s *StrategyStage) executeOverride(pc *PipelineContext) (any, error) {
	if !s.opts.StrategyOverride.IsValid() {
		return nil, fmt.Errorf("pipeline: invalid strategy override %q", s.opts.StrategyOverride)
	}

	taskType := ""
	if pc.Analysis != nil {
		taskType = pc.Analysis.TaskType
	}

	secondary := s.opts.SecondaryFrameworksOverride
	if len(secondary) > 2 {
		secondary = secondary[:2]
	}

	sel, err := strategy.NewSelection(
		s.opts.StrategyOverride,
		fmt.Sprintf("Strategy overridden to %s.", s.opts.StrategyOverride),
		1.0,
		taskType,
		true,
		secondary,
	)
	if err != nil {
		return nil, err
	}
	pc.Selection = &sel
	return sel, nil
}
