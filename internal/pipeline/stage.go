package pipeline

import (
	"context"
	"fmt"

	"github.com/promptforge/core/internal/strategy"
)

// StageConfig is a stage's static metadata: the label and messages the
// streaming orchestrator emits around its execution.
type StageConfig struct {
	// Label is the human-readable stage name used in stage_start events.
	Label string
	// StartMessage accompanies the stage_start event.
	StartMessage string
	// InitialMessages are emitted in order, with increasing progress
	// values, immediately after stage_start.
	InitialMessages []string
	// ProgressMessages cycle (wrapping) as step_progress events while
	// the stage's Execute call is still in flight.
	ProgressMessages []string
	// ProgressIntervalSeconds is how often, while Execute is running,
	// a step_progress event is emitted.
	ProgressIntervalSeconds float64
	// ResultEvent names the SSE event carrying the stage's result.
	ResultEvent string
}

// Stage is one named step of the pipeline. Stages read their inputs
// from the PipelineContext and may mutate it to leave output for
// downstream stages; they must never consult ambient state.
type Stage interface {
	Name() string
	Config() StageConfig
	Execute(ctx context.Context, pc *PipelineContext) (result any, err error)
}

// StageRegistry maps stage names to implementations, constructed fresh
// per pipeline run so stages may close over the run's Options.
type StageRegistry struct {
	stages map[string]Stage
	order  []string
}

// NewStageRegistry registers the four built-in stages in default
// order, wired against opts and sel (the strategy selector, built by
// the caller once per Run/RunStreaming call and shared by that run's
// stages).
func NewStageRegistry(opts Options, sel *strategy.Selector) *StageRegistry {
	r := &StageRegistry{stages: make(map[string]Stage)}
	r.Register(NewAnalyzeStage())
	r.Register(NewStrategyStage(sel, opts))
	r.Register(NewOptimizeStage())
	r.Register(NewValidateStage())
	return r
}

// Register adds or replaces a stage and appends it to the iteration
// order the first time its name is seen.
func (r *StageRegistry) Register(s Stage) {
	if r.stages == nil {
		r.stages = make(map[string]Stage)
	}
	if _, exists := r.stages[s.Name()]; !exists {
		r.order = append(r.order, s.Name())
	}
	r.stages[s.Name()] = s
}

// Get looks up a stage by name.
func (r *StageRegistry) Get(name string) (Stage, bool) {
	s, ok := r.stages[name]
	return s, ok
}

// List returns stage names in registration order.
func (r *StageRegistry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve returns the Stage implementations for names in the order
// given, erroring on any unknown name.
func (r *StageRegistry) Resolve(names []string) ([]Stage, error) {
	out := make([]Stage, 0, len(names))
	for _, name := range names {
		s, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("pipeline: unknown stage %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}
