package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/promptforge/core/internal/providers"
)

const optimizerSystemPrompt = `You are a prompt optimization engine. Given a raw prompt, its analysis, and a selected strategy, rewrite the prompt applying that strategy. Respond with a JSON object: {"optimized_prompt": "...", "framework_applied": "...", "changes_made": ["..."], "optimization_notes": "..."}.`

// OptimizationResult is the Optimizer stage's output.
type OptimizationResult struct {
	OptimizedPrompt   string   `json:"optimized_prompt"`
	FrameworkApplied  string   `json:"framework_applied"`
	ChangesMade       []string `json:"changes_made"`
	OptimizationNotes string   `json:"optimization_notes"`
}

type optimizePayload struct {
	RawPrompt           string   `json:"raw_prompt"`
	Analysis            any      `json:"analysis"`
	Strategy            string   `json:"strategy"`
	SecondaryFrameworks []string `json:"secondary_frameworks,omitempty"`
	CodebaseContext     string   `json:"codebase_context,omitempty"`
}

// OptimizeStage rewrites the raw prompt by applying the selected
// strategy. When called again for a later refinement iteration, it
// reads the previous iteration's optimized prompt from
// pc.OptimizedPrompt and rewrites that rather than the original.
type OptimizeStage struct{}

// NewOptimizeStage constructs an OptimizeStage.
func NewOptimizeStage() *OptimizeStage {
	return &OptimizeStage{}
}

func (s *OptimizeStage) Name() string { return "optimize" }

func (s *OptimizeStage) Config() StageConfig {
	return StageConfig{
		Label:                   "Optimizing",
		StartMessage:            "Applying optimization strategy...",
		InitialMessages:         []string{"Selecting phrasing...", "Rewriting prompt..."},
		ProgressMessages:        []string{"Still optimizing...", "Refining structure...", "Polishing wording..."},
		ProgressIntervalSeconds: 2,
		ResultEvent:             "optimization",
	}
}

func (s *OptimizeStage) Execute(ctx context.Context, pc *PipelineContext) (any, error) {
	source := pc.RawPrompt
	if pc.OptimizedPrompt != "" {
		source = pc.OptimizedPrompt
	}

	payload := optimizePayload{
		RawPrompt: source,
	}
	if pc.Analysis != nil {
		payload.Analysis = pc.Analysis
	}
	if pc.Selection != nil {
		payload.Strategy = string(pc.Selection.Strategy)
		for _, sec := range pc.Selection.SecondaryFrameworks {
			payload.SecondaryFrameworks = append(payload.SecondaryFrameworks, string(sec))
		}
	}
	if pc.CodebaseContext != nil && !pc.CodebaseContext.IsEmpty() {
		payload.CodebaseContext = pc.CodebaseContext.Render()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	parsed, _, usage, err := pc.Provider.CompleteJSON(ctx, providers.CompletionRequest{
		SystemPrompt: optimizerSystemPrompt,
		UserPrompt:   string(body),
		Model:        pc.Model,
	})
	if err != nil {
		return nil, err
	}
	pc.TotalUsage = pc.TotalUsage.Add(usage)

	result := validateOptimizationResponse(parsed, source)
	pc.OptimizedPrompt = result.OptimizedPrompt
	pc.Optimization = &result
	return result, nil
}

func validateOptimizationResponse(response map[string]any, fallbackPrompt string) OptimizationResult {
	optimized, _ := response["optimized_prompt"].(string)
	optimized = strings.TrimSpace(optimized)
	if optimized == "" {
		optimized = fallbackPrompt
	}

	framework, _ := response["framework_applied"].(string)
	notes, _ := response["optimization_notes"].(string)

	return OptimizationResult{
		OptimizedPrompt:   optimized,
		FrameworkApplied:  framework,
		ChangesMade:       stringList(response["changes_made"]),
		OptimizationNotes: notes,
	}
}
