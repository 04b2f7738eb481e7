// Package pipeline composes the Analyzer, Strategy Selector, Optimizer,
// and Validator stages over a mutable PipelineContext, producing either
// a synchronous aggregated result or a streamed sequence of lifecycle
// events.
package pipeline

import (
	"fmt"

	pfcontext "github.com/promptforge/core/internal/context"
	"github.com/promptforge/core/internal/providers"
	"github.com/promptforge/core/internal/strategy"
)

// DefaultStageOrder is the stage sequence run when a caller does not
// restrict the run to a subset.
var DefaultStageOrder = []string{"analyze", "strategy", "optimize", "validate"}

// Options configures a pipeline run. RawPrompt and Provider are
// required; everything else has a documented default.
type Options struct {
	RawPrompt                   string
	Provider                    providers.Provider
	Model                       string
	StrategyOverride            strategy.Strategy
	HasStrategyOverride         bool
	SecondaryFrameworksOverride []strategy.Strategy
	CodebaseContext             *pfcontext.CodebaseContext
	MaxIterations               int
	ScoreThreshold              float64
	Stages                      []string
}

// DefaultScoreThreshold and DefaultMaxIterations preserve the joint
// default of the Python orchestrator: effective_max = max_iterations
// or 1, effective_threshold = score_threshold or 1.0. A threshold of
// 1.0 is unreachable by a real score, so a caller that supplies
// neither option never iterates past the first pass.
const (
	DefaultScoreThreshold = 1.0
	DefaultMaxIterations  = 1
)

func (o Options) stages() []string {
	if len(o.Stages) == 0 {
		return DefaultStageOrder
	}
	return o.Stages
}

func (o Options) maxIterations() int {
	if o.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return o.MaxIterations
}

func (o Options) scoreThreshold() float64 {
	if o.ScoreThreshold <= 0 {
		return DefaultScoreThreshold
	}
	return o.ScoreThreshold
}

// PipelineContext is threaded through every stage. Stages read their
// inputs from it and mutate it to leave output for downstream stages;
// they must never reach for ambient state instead.
type PipelineContext struct {
	RawPrompt       string
	Provider        providers.Provider
	Model           string
	CodebaseContext *pfcontext.CodebaseContext

	Analysis  *strategy.AnalysisResult
	Selection *strategy.Selection

	OptimizedPrompt string
	Optimization    *OptimizationResult
	Validation      *ValidationResult

	TotalUsage providers.TokenUsage
}

// PipelineError reports which named stage failed and why.
type PipelineError struct {
	Stage string
	Cause error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline: stage %q failed: %v", e.Stage, e.Cause)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// PipelineResult is the aggregated outcome of a full or partial run.
type PipelineResult struct {
	RawPrompt           string                   `json:"raw_prompt"`
	Analysis            *strategy.AnalysisResult `json:"analysis,omitempty"`
	Strategy            string                   `json:"strategy,omitempty"`
	StrategyConfidence  float64                  `json:"strategy_confidence"`
	StrategyReasoning   string                   `json:"strategy_reasoning,omitempty"`
	IsOverride          bool                     `json:"is_override"`
	SecondaryFrameworks []strategy.Strategy      `json:"secondary_frameworks,omitempty"`
	OptimizedPrompt     string                   `json:"optimized_prompt,omitempty"`
	Optimization        *OptimizationResult      `json:"optimization,omitempty"`
	Validation          *ValidationResult        `json:"validation,omitempty"`
	Iterations          int                      `json:"iterations"`
	Model               string                   `json:"model,omitempty"`
	TotalUsage          providers.TokenUsage     `json:"total_usage"`
	Status              string                   `json:"status"`
}
