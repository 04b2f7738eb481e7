package pipeline

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/promptforge/core/internal/providers"
)

const validatorSystemPrompt = `You are a prompt quality validator. Compare a raw prompt against its optimized rewrite and score the rewrite. Respond with a JSON object: {"clarity_score": 0.0-1.0, "specificity_score": 0.0-1.0, "structure_score": 0.0-1.0, "faithfulness_score": 0.0-1.0, "framework_adherence_score": 0.0-1.0, "is_improvement": true|false, "verdict": "..."}.`

// Validation score weights. They sum to 1.0 and together produce
// overall_score; framework_adherence is scored but never averaged in,
// since it only applies when a strategy/framework was selected.
const (
	clarityWeight      = 0.25
	specificityWeight  = 0.25
	structureWeight    = 0.20
	faithfulnessWeight = 0.30
)

const (
	lowScoreOverrideThreshold  = 0.4
	highScoreOverrideThreshold = 0.7
	defaultScore               = 0.5
	defaultVerdict             = "No verdict available."
)

// ValidationResult is the Validator stage's output.
type ValidationResult struct {
	ClarityScore            float64  `json:"clarity_score"`
	SpecificityScore        float64  `json:"specificity_score"`
	StructureScore          float64  `json:"structure_score"`
	FaithfulnessScore       float64  `json:"faithfulness_score"`
	FrameworkAdherenceScore *float64 `json:"framework_adherence_score,omitempty"`
	OverallScore            float64  `json:"overall_score"`
	IsImprovement           bool     `json:"is_improvement"`
	Verdict                 string   `json:"verdict"`
}

type validatePayload struct {
	RawPrompt       string `json:"raw_prompt"`
	OptimizedPrompt string `json:"optimized_prompt"`
	Strategy        string `json:"strategy,omitempty"`
	CodebaseContext string `json:"codebase_context,omitempty"`
}

// ValidateStage scores the optimized prompt against the raw prompt.
type ValidateStage struct{}

// NewValidateStage constructs a ValidateStage.
func NewValidateStage() *ValidateStage {
	return &ValidateStage{}
}

func (s *ValidateStage) Name() string { return "validate" }

func (s *ValidateStage) Config() StageConfig {
	return StageConfig{
		Label:                   "Validating",
		StartMessage:            "Scoring optimization quality...",
		InitialMessages:         []string{"Comparing prompts...", "Scoring clarity and structure..."},
		ProgressMessages:        []string{"Still validating...", "Checking faithfulness to intent...", "Finalizing verdict..."},
		ProgressIntervalSeconds: 2,
		ResultEvent:             "validation",
	}
}

func (s *ValidateStage) Execute(ctx context.Context, pc *PipelineContext) (any, error) {
	payload := validatePayload{
		RawPrompt:       pc.RawPrompt,
		OptimizedPrompt: pc.OptimizedPrompt,
	}
	if pc.Selection != nil {
		payload.Strategy = string(pc.Selection.Strategy)
	}
	if pc.CodebaseContext != nil && !pc.CodebaseContext.IsEmpty() {
		payload.CodebaseContext = pc.CodebaseContext.Render()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	parsed, _, usage, err := pc.Provider.CompleteJSON(ctx, providers.CompletionRequest{
		SystemPrompt: validatorSystemPrompt,
		UserPrompt:   string(body),
		Model:        pc.Model,
	})
	if err != nil {
		return nil, err
	}
	pc.TotalUsage = pc.TotalUsage.Add(usage)

	result := validateValidationResponse(parsed)
	pc.Validation = &result
	return result, nil
}

// clampScore extracts a score from a raw LLM response value, accepting
// float/int/bool/numeric-string forms. Missing keys, nil, and
// non-numeric strings default to 0.5. The result is clamped to
// [0.0, 1.0] before it is ever averaged.
func clampScore(raw any) float64 {
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case int:
		value = float64(v)
	case bool:
		if v {
			value = 1.0
		} else {
			value = 0.0
		}
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return defaultScore
		}
		value = f
	default:
		return defaultScore
	}

	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// coerceBool mirrors Python's bool() truthy coercion: any non-empty
// string is truthy (including the literal string "false"), any
// nonzero number is truthy, and a missing key is false.
func coerceBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

func validateValidationResponse(response map[string]any) ValidationResult {
	clarity := clampScore(response["clarity_score"])
	specificity := clampScore(response["specificity_score"])
	structureScore := clampScore(response["structure_score"])
	faithfulness := clampScore(response["faithfulness_score"])

	overall := round4(clarity*clarityWeight + specificity*specificityWeight +
		structureScore*structureWeight + faithfulness*faithfulnessWeight)

	var frameworkAdherence *float64
	if raw, ok := response["framework_adherence_score"]; ok && raw != nil {
		score := clampScore(raw)
		frameworkAdherence = &score
	}

	isImprovement := coerceBool(response["is_improvement"])
	switch {
	case overall < lowScoreOverrideThreshold:
		isImprovement = false
	case overall > highScoreOverrideThreshold:
		isImprovement = true
	}

	verdict, _ := response["verdict"].(string)
	if verdict == "" {
		verdict = defaultVerdict
	}

	return ValidationResult{
		ClarityScore:            clarity,
		SpecificityScore:        specificity,
		StructureScore:          structureScore,
		FaithfulnessScore:       faithfulness,
		FrameworkAdherenceScore: frameworkAdherence,
		OverallScore:            overall,
		IsImprovement:           isImprovement,
		Verdict:                 verdict,
	}
}

func round4(f float64) float64 {
	const factor = 10000
	return float64(int64(f*factor+0.5)) / factor
}
