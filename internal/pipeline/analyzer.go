package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptforge/core/internal/providers"
	"github.com/promptforge/core/internal/strategy"
)

// analyzerSystemPrompt names the fields the analyzer must return for
// every prompt it is given.
const analyzerSystemPrompt = `You are a prompt quality analyzer. Examine the given prompt and respond with a JSON object describing it: {"task_type": "...", "complexity": "low"|"medium"|"high", "weaknesses": ["..."], "strengths": ["..."]}.`

// AnalyzeStage classifies the raw prompt's task type, complexity, and
// notable weaknesses/strengths. Unlike the remaining stages, codebase
// context is appended as plain text to the user message rather than
// carried as a JSON field — the analyzer reads the surrounding prose
// the same way a human reviewer would.
type AnalyzeStage struct{}

// NewAnalyzeStage constructs an AnalyzeStage. It reads the provider to
// call from the PipelineContext at execution time, not from its own
// state, per the stage contract.
func NewAnalyzeStage() *AnalyzeStage {
	return &AnalyzeStage{}
}

func (s *AnalyzeStage) Name() string { return "analyze" }

func (s *AnalyzeStage) Config() StageConfig {
	return StageConfig{
		Label:                   "Analyzing",
		StartMessage:            "Analyzing prompt structure and intent...",
		InitialMessages:         []string{"Reading prompt...", "Identifying task type..."},
		ProgressMessages:        []string{"Still analyzing...", "Evaluating clarity and structure...", "Almost done analyzing..."},
		ProgressIntervalSeconds: 2,
		ResultEvent:             "analysis",
	}
}

func (s *AnalyzeStage) Execute(ctx context.Context, pc *PipelineContext) (any, error) {
	message := pc.RawPrompt
	if pc.CodebaseContext != nil && !pc.CodebaseContext.IsEmpty() {
		message = fmt.Sprintf("%s\n\nCodebase context:\n%s", pc.RawPrompt, pc.CodebaseContext.Render())
	}

	parsed, _, usage, err := pc.Provider.CompleteJSON(ctx, providers.CompletionRequest{
		SystemPrompt: analyzerSystemPrompt,
		UserPrompt:   message,
		Model:        pc.Model,
	})
	if err != nil {
		return nil, err
	}
	pc.TotalUsage = pc.TotalUsage.Add(usage)

	result := validateAnalysisResponse(parsed)
	pc.Analysis = &result
	return result, nil
}

// validateAnalysisResponse normalizes a raw analyzer JSON response,
// defaulting missing or malformed fields rather than erroring.
func validateAnalysisResponse(response map[string]any) strategy.AnalysisResult {
	taskType, _ := response["task_type"].(string)
	taskType = strings.TrimSpace(taskType)
	if taskType == "" {
		taskType = "general"
	}

	complexity, _ := response["complexity"].(string)
	complexity = strings.ToLower(strings.TrimSpace(complexity))
	switch complexity {
	case "low", "medium", "high":
	default:
		complexity = "medium"
	}

	return strategy.AnalysisResult{
		TaskType:   taskType,
		Complexity: complexity,
		Weaknesses: stringList(response["weaknesses"]),
		Strengths:  stringList(response["strengths"]),
	}
}

func stringList(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str, ok := item.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	return out
}
