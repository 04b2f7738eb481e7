package strategy

import "strings"

// AnalysisResult is the output of the Analyzer stage that the selector
// consumes.
type AnalysisResult struct {
	TaskType   string   `json:"task_type"`
	Complexity string   `json:"complexity"` // low, medium, high
	Weaknesses []string `json:"weaknesses,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
}

// ContextHints carries the subset of a CodebaseContext the selector
// reads for context-aware confidence adjustments. Kept separate from
// the full CodebaseContext type (internal/context) so this package has
// no dependency on it.
type ContextHints struct {
	Language    string
	Framework   string
	Conventions []string
	Patterns    []string

	// Rendered is the full CodebaseContext rendered to text (via
	// internal/context's Render), forwarded verbatim into the LLM
	// selection payload. Heuristic selection never reads it.
	Rendered string
}

const (
	shortPromptThreshold = 50
	shortPromptPenalty   = 0.05
)

// HeuristicSelector implements the three-priority deterministic
// selection chain, with no LLM dependency.
type HeuristicSelector struct{}

// Select chooses a strategy for analysis, optionally adjusting
// confidence for very short prompts and for codebase-context signals.
func (HeuristicSelector) Select(analysis AnalysisResult, promptLength int, ctx *ContextHints) Selection {
	sel := selectCore(analysis, ctx)

	if promptLength > 0 && promptLength < shortPromptThreshold {
		adjusted := sel.Confidence - shortPromptPenalty
		if adjusted < 0 {
			adjusted = 0
		}
		sel.Confidence = adjusted
	}

	return sel
}

func selectCore(analysis AnalysisResult, ctx *ContextHints) Selection {
	taskKey := trimLower(analysis.TaskType)
	combo := comboFor(taskKey)
	natural := combo.Primary
	isHigh := trimLower(analysis.Complexity) == "high"

	// P1: high complexity + CoT-natural task type.
	if isHigh && cotNaturalTaskTypes[taskKey] {
		if anyMatchesRedundancy(ChainOfThought, analysis.Strengths) {
			fallback := RoleTaskFormat
			var secondaries []Strategy
			if len(combo.Secondary) > 0 {
				fallback = combo.Secondary[0]
				secondaries = without(combo.Secondary, fallback)
			}
			return mustSelection(fallback, buildReasoning(fallback, analysis.TaskType,
				"prompt already exhibits step-by-step reasoning; "+string(fallback)+" more useful than redundant CoT."),
				0.85, analysis.TaskType, secondaries)
		}
		return mustSelection(ChainOfThought, buildReasoning(ChainOfThought, analysis.TaskType,
			"high complexity requires step-by-step reasoning."), 0.95, analysis.TaskType, combo.Secondary)
	}

	// P2: specificity weakness.
	specCount := countSpecificityMatches(analysis.Weaknesses)
	if specCount > 0 && !specificityExemptStrategies[natural] {
		confidence := 0.80
		switch {
		case specCount >= 3:
			confidence = 0.90
		case specCount == 2:
			confidence = 0.85
		}
		secondaries := firstN(without(combo.Secondary, ConstraintInjection), 2)
		return mustSelection(ConstraintInjection, buildReasoning(ConstraintInjection, analysis.TaskType,
			"addressing identified specificity weaknesses."), confidence, analysis.TaskType, secondaries)
	}

	// P3: task-type default with strengths redundancy check.
	if anyMatchesRedundancy(natural, analysis.Strengths) {
		if len(combo.Secondary) > 0 {
			fallback := combo.Secondary[0]
			secondaries := firstN(without(combo.Secondary, fallback), 2)
			if anyMatchesRedundancy(fallback, analysis.Strengths) {
				return mustSelection(fallback, buildReasoning(fallback, analysis.TaskType,
					"prompt is already well-structured; minor refinements may still help."),
					0.60, analysis.TaskType, secondaries)
			}
			return mustSelection(fallback, buildReasoning(fallback, analysis.TaskType,
				"prompt already exhibits strengths that "+string(natural)+" would add."),
				0.70, analysis.TaskType, secondaries)
		}
		return mustSelection(natural, buildReasoning(natural, analysis.TaskType,
			"prompt is already well-structured; minor refinements may still help."),
			0.60, analysis.TaskType, nil)
	}

	reason, ok := reasonSuffixes[natural]
	if !ok {
		reason = defaultReasonSuffix
	}
	confidence := 0.50
	if _, known := taskTypeCombos[taskKey]; known {
		confidence = 0.75
	}
	if isHigh {
		confidence = capConfidence(confidence + 0.10)
	}

	if pref, boost, prefReason, ok := contextStrategyPreference(ctx); ok && pref == natural {
		confidence = capConfidence(confidence + boost)
		reason = reason + " " + prefReason
	}

	return mustSelection(natural, buildReasoning(natural, analysis.TaskType, reason), confidence, analysis.TaskType, combo.Secondary)
}

func capConfidence(c float64) float64 {
	if c > 0.95 {
		return 0.95
	}
	return c
}

func mustSelection(strategy Strategy, reasoning string, confidence float64, taskType string, secondary []Strategy) Selection {
	sel, err := NewSelection(strategy, reasoning, confidence, taskType, false, secondary)
	if err != nil {
		// confidence is always computed in [0,1] by this file's callers.
		panic(err)
	}
	return sel
}

func without(ss []Strategy, exclude Strategy) []Strategy {
	out := make([]Strategy, 0, len(ss))
	for _, s := range ss {
		if s != exclude {
			out = append(out, s)
		}
	}
	return out
}

func firstN(ss []Strategy, n int) []Strategy {
	if len(ss) <= n {
		return ss
	}
	return ss[:n]
}

// contextStrategyPreference maps codebase context signals to a
// strategy preference. Only used to boost confidence when the context
// aligns with the already-selected strategy — never overrides P1 or P2.
func contextStrategyPreference(ctx *ContextHints) (Strategy, float64, string, bool) {
	if ctx == nil {
		return "", 0, "", false
	}

	lang := trimLower(ctx.Language)
	framework := trimLower(ctx.Framework)
	conventions := trimLower(strings.Join(ctx.Conventions, " "))
	patterns := trimLower(strings.Join(ctx.Patterns, " "))

	if containsAny(conventions, "strict mode", "typescript strict") || lang == "rust" || lang == "go" {
		return StructuredOutput, 0.05, "Strict type system aligns with structured output.", true
	}

	if containsAny(framework+" "+patterns, "medical", "legal", "healthcare", "clinical", "juridical") {
		return PersonaAssignment, 0.05, "Domain-specific project benefits from expert persona.", true
	}

	if (containsAny(patterns, "service layer") && containsAny(patterns, "repository pattern")) || containsAny(patterns, "microservice") {
		return StepByStep, 0.05, "Multi-layer architecture suits step-by-step decomposition.", true
	}

	if len(ctx.Conventions) >= 3 && len(ctx.Patterns) >= 3 {
		return ConstraintInjection, 0.05, "Rich project conventions ground constraint injection.", true
	}

	return "", 0, "", false
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
