// Package strategy selects an optimization strategy for a prompt: a
// closed enumeration of ten named frameworks, a three-priority
// heuristic chain, and an LLM-backed primary path that falls back to
// the heuristic on any error.
package strategy

import (
	"fmt"
	"strings"
)

// Strategy names one of the ten optimization frameworks. Values are the
// canonical kebab-case names surfaced to clients and persisted on
// Optimization records.
type Strategy string

const (
	CoStar              Strategy = "co-star"
	Risen               Strategy = "risen"
	ChainOfThought      Strategy = "chain-of-thought"
	FewShotScaffolding  Strategy = "few-shot-scaffolding"
	RoleTaskFormat      Strategy = "role-task-format"
	StructuredOutput    Strategy = "structured-output"
	StepByStep          Strategy = "step-by-step"
	ConstraintInjection Strategy = "constraint-injection"
	ContextEnrichment   Strategy = "context-enrichment"
	PersonaAssignment   Strategy = "persona-assignment"
)

// All lists every valid Strategy, in a stable order; validStrategies
// (and so IsValid) is built from it.
var All = []Strategy{
	CoStar, Risen, ChainOfThought, FewShotScaffolding, RoleTaskFormat,
	StructuredOutput, StepByStep, ConstraintInjection, ContextEnrichment,
	PersonaAssignment,
}

// legacyAliases rewrites historical strategy names to their canonical
// form on ingress (LLM responses, API overrides).
var legacyAliases = map[string]Strategy{
	"costar":               CoStar,
	"chain_of_thought":     ChainOfThought,
	"cot":                  ChainOfThought,
	"few_shot":             FewShotScaffolding,
	"fewshot":              FewShotScaffolding,
	"role_task_format":     RoleTaskFormat,
	"rtf":                  RoleTaskFormat,
	"structured_output":    StructuredOutput,
	"step_by_step":         StepByStep,
	"constraint_injection": ConstraintInjection,
	"context_enrichment":   ContextEnrichment,
	"persona_assignment":   PersonaAssignment,
}

var validStrategies = func() map[Strategy]bool {
	m := make(map[Strategy]bool, len(All))
	for _, s := range All {
		m[s] = true
	}
	return m
}()

// Descriptions are short, human-readable summaries sent to the LLM in
// the strategy-selection user payload.
var Descriptions = map[Strategy]string{
	CoStar:              "Context, Objective, Style, Tone, Audience, Response format",
	Risen:               "Role, Instructions, Steps, End-goal, Narrowing constraints",
	ChainOfThought:      "Adds step-by-step reasoning structure",
	FewShotScaffolding:  "Adds concrete input/output examples",
	RoleTaskFormat:      "Assigns role, states task, specifies output format",
	StructuredOutput:    "Specifies JSON, table, or parseable output format",
	StepByStep:          "Breaks tasks into ordered sequential instructions",
	ConstraintInjection: "Adds explicit constraints, boundaries, and rules",
	ContextEnrichment:   "Supplies background info, definitions, references",
	PersonaAssignment:   "Assigns specific professional identity and expertise",
}

// reasonSuffixes are appended after "Selected <strategy> for <task_type>
// task:" to build the default reasoning string for a heuristic pick.
var reasonSuffixes = map[Strategy]string{
	CoStar:              "structures prompt with Context, Objective, Style, Tone, Audience, Response format.",
	Risen:               "organizes prompt with Role, Instructions, Steps, End-goal, Narrowing constraints.",
	ChainOfThought:      "enables step-by-step reasoning.",
	FewShotScaffolding:  "provides concrete examples for pattern-based tasks.",
	RoleTaskFormat:      "structures prompt with role, task description, and output format.",
	StructuredOutput:    "specifies structured output format (JSON, tables, etc.).",
	StepByStep:          "breaks task into ordered sequential instructions.",
	ConstraintInjection: "addresses identified specificity weaknesses with explicit constraints.",
	ContextEnrichment:   "enriches prompt with background information and domain context.",
	PersonaAssignment:   "leverages domain-specific expert persona.",
}

const defaultReasonSuffix = "applies general structural improvements."

// IsValid reports whether s is one of the ten known strategies.
func (s Strategy) IsValid() bool { return validStrategies[s] }

// Normalize lowercases and trims raw, then rewrites it through
// legacyAliases if it matches a historical name. The result is not
// guaranteed to be a valid Strategy; check IsValid before use.
func Normalize(raw string) Strategy {
	s := trimLower(raw)
	if canonical, ok := legacyAliases[s]; ok {
		return canonical
	}
	return Strategy(s)
}

func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Selection is the outcome of selecting a strategy for a prompt.
type Selection struct {
	Strategy            Strategy   `json:"strategy"`
	Reasoning           string     `json:"reasoning"`
	Confidence          float64    `json:"confidence"`
	TaskType            string     `json:"task_type"`
	IsOverride          bool       `json:"is_override"`
	SecondaryFrameworks []Strategy `json:"secondary_frameworks,omitempty"`
}

// NewSelection constructs a Selection, enforcing the confidence
// invariant (0.0 <= confidence <= 1.0) at construction time.
func NewSelection(strategy Strategy, reasoning string, confidence float64, taskType string, isOverride bool, secondary []Strategy) (Selection, error) {
	if confidence < 0.0 || confidence > 1.0 {
		return Selection{}, fmt.Errorf("confidence must be between 0.0 and 1.0, got %v", confidence)
	}
	if len(secondary) > 2 {
		secondary = secondary[:2]
	}
	return Selection{
		Strategy:            strategy,
		Reasoning:           reasoning,
		Confidence:          confidence,
		TaskType:            taskType,
		IsOverride:          isOverride,
		SecondaryFrameworks: secondary,
	}, nil
}

func buildReasoning(strategy Strategy, taskType, reason string) string {
	return fmt.Sprintf("Selected %s for %s task: %s", strategy, taskType, reason)
}
