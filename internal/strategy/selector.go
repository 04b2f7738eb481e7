package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/promptforge/core/internal/providers"
)

// systemPrompt is sent as the system message to the strategy-selection
// LLM call. The strategies to choose from are not named here; they
// travel in the user payload's available_strategies field (Descriptions),
// which covers exactly the closed enumeration this package recognizes.
const systemPrompt = `You are a prompt-engineering strategist. Given an analysis of a prompt, choose the single best optimization strategy from the provided list, plus up to two complementary secondary strategies. Respond with a JSON object: {"strategy": "...", "confidence": 0.0-1.0, "reasoning": "...", "secondary_frameworks": ["...", "..."]}.`

// Selector chooses a strategy via an LLM primary path, falling back to
// the deterministic heuristic on any error.
type Selector struct {
	Provider  providers.Provider
	heuristic HeuristicSelector
	LastUsage providers.TokenUsage
}

// NewSelector constructs a Selector backed by the given provider.
func NewSelector(provider providers.Provider) *Selector {
	return &Selector{Provider: provider}
}

// Select chooses a strategy for analysis via the LLM, falling back to
// the heuristic chain when the LLM call or response validation fails.
func (s *Selector) Select(ctx context.Context, analysis AnalysisResult, rawPrompt string, promptLength int, ctxHints *ContextHints) Selection {
	sel, err := s.selectViaLLM(ctx, analysis, rawPrompt, ctxHints)
	if err != nil {
		slog.Warn("llm strategy selection failed, falling back to heuristic", "error", err)
		sel = s.heuristic.Select(analysis, promptLength, ctxHints)
	}
	sel.TaskType = analysis.TaskType
	return sel
}

type llmSelectionPayload struct {
	RawPrompt           string              `json:"raw_prompt"`
	Analysis            AnalysisResult      `json:"analysis"`
	AvailableStrategies map[Strategy]string `json:"available_strategies"`
	CodebaseContext     string              `json:"codebase_context,omitempty"`
}

func (s *Selector) selectViaLLM(ctx context.Context, analysis AnalysisResult, rawPrompt string, ctxHints *ContextHints) (Selection, error) {
	payload := llmSelectionPayload{
		RawPrompt:           rawPrompt,
		Analysis:            analysis,
		AvailableStrategies: Descriptions,
	}
	if ctxHints != nil {
		payload.CodebaseContext = ctxHints.Rendered
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Selection{}, err
	}

	parsed, _, usage, err := s.Provider.CompleteJSON(ctx, providers.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   string(body),
	})
	if err != nil {
		return Selection{}, err
	}
	s.LastUsage = s.LastUsage.Add(usage)

	return validateLLMResponse(parsed, analysis.TaskType), nil
}

// validateLLMResponse normalizes and clamps a raw LLM JSON response
// into a valid Selection, never erroring: unknown fields fall back to
// safe defaults.
func validateLLMResponse(response map[string]any, taskType string) Selection {
	strategy := RoleTaskFormat
	if raw, ok := response["strategy"].(string); ok {
		normalized := Normalize(raw)
		if normalized.IsValid() {
			strategy = normalized
		} else {
			slog.Warn("unknown strategy from LLM, defaulting to role-task-format", "strategy", raw)
		}
	}

	confidence := 0.75
	switch v := response["confidence"].(type) {
	case float64:
		confidence = v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			confidence = f
		} else {
			slog.Warn("non-numeric confidence from LLM, defaulting to 0.75", "confidence", v)
		}
	}
	confidence = clamp01(confidence)

	reasoning, _ := response["reasoning"].(string)
	reasoning = strings.TrimSpace(reasoning)
	if reasoning == "" {
		reasoning = fmt.Sprintf("Selected %s for %s task.", strategy, taskType)
	}

	var secondary []Strategy
	if raw, ok := response["secondary_frameworks"].([]any); ok {
		for _, item := range raw {
			if len(secondary) >= 2 {
				break
			}
			str, ok := item.(string)
			if !ok {
				continue
			}
			normalized := Normalize(str)
			if normalized.IsValid() && normalized != strategy {
				secondary = append(secondary, normalized)
			}
		}
	}

	sel, err := NewSelection(strategy, reasoning, confidence, taskType, false, secondary)
	if err != nil {
		// confidence is clamped above; this branch is unreachable.
		return Selection{Strategy: strategy, Reasoning: reasoning, TaskType: taskType}
	}
	return sel
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
