package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/promptforge/core/internal/providers"
	"github.com/promptforge/core/internal/strategy"
)

// Event is one element of a streaming pipeline run: a stage_start,
// step_progress, per-stage result, iteration, or error notification.
type Event struct {
	Type    string
	Payload map[string]any
}

// FormatSSE renders an Event as a server-sent-events frame.
func FormatSSE(e Event) (string, error) {
	body, err := json.Marshal(e.Payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, body), nil
}

// PipelineComplete is the terminal marker RunStreaming sends once a run
// finishes successfully, carrying the full aggregated result so a
// caller can persist it.
type PipelineComplete struct {
	Data PipelineResult
}

// Run executes every requested stage to completion synchronously,
// including the iterative refinement loop, and returns the aggregated
// result. A stage failure aborts the run and returns a *PipelineError.
func Run(ctx context.Context, opts Options) (*PipelineResult, error) {
	sel := strategy.NewSelector(opts.Provider)
	registry := NewStageRegistry(opts, sel)
	stages, err := registry.Resolve(opts.stages())
	if err != nil {
		return nil, err
	}

	pc := &PipelineContext{
		RawPrompt:       opts.RawPrompt,
		Provider:        opts.Provider,
		Model:           opts.Model,
		CodebaseContext: opts.CodebaseContext,
	}

	for _, st := range stages {
		if _, err := st.Execute(ctx, pc); err != nil {
			return nil, &PipelineError{Stage: st.Name(), Cause: err}
		}
	}

	iterations := 1
	analyzeOnly := isAnalyzeOnly(opts.stages())
	fullRun := !analyzeOnly && containsStage(opts.stages(), "validate") && containsStage(opts.stages(), "optimize")
	if fullRun {
		iterations, err = refineUntilThreshold(ctx, pc, registry, opts)
		if err != nil {
			return nil, err
		}
	}

	result := assembleResult(pc, iterations, analyzeOnly)
	RecordUsage(opts.Model, pc.TotalUsage)
	return &result, nil
}

// RunStreaming executes the pipeline, emitting lifecycle events onto
// the returned channel as each stage progresses. The channel is closed
// once a terminal PipelineComplete or error event has been sent.
// Cancelling ctx aborts the in-flight stage at its next cooperative
// suspension point; no further events are emitted.
func RunStreaming(ctx context.Context, opts Options) <-chan any {
	out := make(chan any, 8)

	go func() {
		defer close(out)

		emit := func(e Event) bool {
			select {
			case out <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}

		sel := strategy.NewSelector(opts.Provider)
		registry := NewStageRegistry(opts, sel)
		stageNames := opts.stages()
		stages, err := registry.Resolve(stageNames)
		if err != nil {
			emit(errorEvent(err, ""))
			return
		}

		pc := &PipelineContext{
			RawPrompt:       opts.RawPrompt,
			Provider:        opts.Provider,
			Model:           opts.Model,
			CodebaseContext: opts.CodebaseContext,
		}

		for _, st := range stages {
			if ctx.Err() != nil {
				return
			}
			if _, err := runStageStreaming(ctx, st, pc, emit); err != nil {
				if ctx.Err() != nil {
					return
				}
				emit(errorEvent(err, st.Name()))
				return
			}
		}

		analyzeOnly := isAnalyzeOnly(stageNames)
		if analyzeOnly {
			result := assembleResult(pc, 1, true)
			RecordUsage(opts.Model, pc.TotalUsage)
			if !emit(Event{Type: "complete", Payload: resultPayload(result)}) {
				return
			}
			out <- &PipelineComplete{Data: result}
			return
		}

		fullRun := containsStage(stageNames, "validate") && containsStage(stageNames, "optimize")
		iterations := 1
		if fullRun {
			optimizeStage, _ := registry.Get("optimize")
			validateStage, _ := registry.Get("validate")
			maxIter := opts.maxIterations()
			threshold := opts.scoreThreshold()

			for iterations < maxIter && pc.Validation != nil && pc.Validation.OverallScore < threshold {
				if ctx.Err() != nil {
					return
				}
				iterations++
				if !emit(Event{Type: "iteration", Payload: map[string]any{
					"iteration": iterations,
					"score":     pc.Validation.OverallScore,
					"threshold": threshold,
				}}) {
					return
				}

				if _, err := runStageStreaming(ctx, optimizeStage, pc, emit); err != nil {
					if ctx.Err() != nil {
						return
					}
					emit(errorEvent(err, optimizeStage.Name()))
					return
				}
				if _, err := runStageStreaming(ctx, validateStage, pc, emit); err != nil {
					if ctx.Err() != nil {
						return
					}
					emit(errorEvent(err, validateStage.Name()))
					return
				}
			}
		}

		result := assembleResult(pc, iterations, false)
		RecordUsage(opts.Model, pc.TotalUsage)
		if !emit(Event{Type: "complete", Payload: resultPayload(result)}) {
			return
		}
		out <- &PipelineComplete{Data: result}
	}()

	return out
}

// runStageStreaming runs a single stage end to end for the streaming
// orchestrator: stage_start (skipped for an override strategy stage),
// initial_messages, a progress pump racing the stage's Execute call,
// and a final result event.
func runStageStreaming(ctx context.Context, st Stage, pc *PipelineContext, emit func(Event) bool) (any, error) {
	cfg := st.Config()

	if override, ok := st.(*StrategyStage); !ok || !override.IsOverride() {
		if !emit(Event{Type: "stage_start", Payload: map[string]any{
			"stage":   st.Name(),
			"label":   cfg.Label,
			"message": cfg.StartMessage,
		}}) {
			return nil, ctx.Err()
		}
		for i, msg := range cfg.InitialMessages {
			progress := float64(i+1) / float64(len(cfg.InitialMessages)+1)
			if !emit(Event{Type: "step_progress", Payload: map[string]any{
				"stage":    st.Name(),
				"message":  msg,
				"progress": progress,
			}}) {
				return nil, ctx.Err()
			}
		}
	}

	start := time.Now()
	resultCh := make(chan stageOutcome, 1)
	go func() {
		res, err := st.Execute(ctx, pc)
		resultCh <- stageOutcome{result: res, err: err}
	}()

	interval := cfg.ProgressIntervalSeconds
	if interval <= 0 {
		interval = 2
	}
	ticker := time.NewTicker(time.Duration(interval * float64(time.Second)))
	defer ticker.Stop()

	msgIdx := 0
	for {
		select {
		case outcome := <-resultCh:
			if outcome.err != nil {
				return nil, outcome.err
			}
			duration := time.Since(start).Milliseconds()
			payload := toPayload(outcome.result)
			payload["step_duration_ms"] = duration
			emit(Event{Type: cfg.ResultEvent, Payload: payload})
			return outcome.result, nil

		case <-ticker.C:
			if len(cfg.ProgressMessages) == 0 {
				continue
			}
			msg := cfg.ProgressMessages[msgIdx%len(cfg.ProgressMessages)]
			msgIdx++
			if !emit(Event{Type: "step_progress", Payload: map[string]any{
				"stage":   st.Name(),
				"message": msg,
			}}) {
				return nil, ctx.Err()
			}

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type stageOutcome struct {
	result any
	err    error
}

// refineUntilThreshold runs the synchronous iterative refinement loop
// shared by Run: re-optimize the previous iteration's optimized
// prompt, re-validate, and repeat until the threshold is met or the
// iteration cap is reached.
func refineUntilThreshold(ctx context.Context, pc *PipelineContext, registry *StageRegistry, opts Options) (int, error) {
	maxIter := opts.maxIterations()
	threshold := opts.scoreThreshold()
	iterations := 1

	optimizeStage, _ := registry.Get("optimize")
	validateStage, _ := registry.Get("validate")

	for iterations < maxIter && pc.Validation != nil && pc.Validation.OverallScore < threshold {
		iterations++
		if _, err := optimizeStage.Execute(ctx, pc); err != nil {
			return iterations, &PipelineError{Stage: optimizeStage.Name(), Cause: err}
		}
		if _, err := validateStage.Execute(ctx, pc); err != nil {
			return iterations, &PipelineError{Stage: validateStage.Name(), Cause: err}
		}
	}
	return iterations, nil
}

func isAnalyzeOnly(stages []string) bool {
	return len(stages) == 1 && stages[0] == "analyze"
}

func containsStage(stages []string, name string) bool {
	for _, s := range stages {
		if s == name {
			return true
		}
	}
	return false
}

func errorEvent(err error, stage string) Event {
	payload := map[string]any{"message": err.Error()}
	if stage != "" {
		payload["stage"] = stage
	}

	classified := providers.ClassifyError(unwrapPipelineError(err))
	var rle *providers.RateLimitError
	if errors.As(classified, &rle) {
		payload["error_type"] = "rate_limit"
		if rle.RetryAfter != nil {
			payload["retry_after"] = *rle.RetryAfter
		}
	}
	return Event{Type: "error", Payload: payload}
}

func unwrapPipelineError(err error) error {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Cause
	}
	return err
}

func assembleResult(pc *PipelineContext, iterations int, analyzeOnly bool) PipelineResult {
	result := PipelineResult{
		RawPrompt:       pc.RawPrompt,
		Analysis:        pc.Analysis,
		OptimizedPrompt: pc.OptimizedPrompt,
		Optimization:    pc.Optimization,
		Validation:      pc.Validation,
		Iterations:      iterations,
		Model:           pc.Model,
		TotalUsage:      pc.TotalUsage,
		Status:          "completed",
	}
	if analyzeOnly {
		result.Status = "analyzed"
	}
	if pc.Selection != nil {
		result.Strategy = string(pc.Selection.Strategy)
		result.StrategyConfidence = pc.Selection.Confidence
		result.StrategyReasoning = pc.Selection.Reasoning
		result.IsOverride = pc.Selection.IsOverride
		result.SecondaryFrameworks = pc.Selection.SecondaryFrameworks
	} else {
		result.StrategyConfidence = 0.75
	}
	return result
}

func resultPayload(r PipelineResult) map[string]any {
	body, _ := json.Marshal(r)
	var payload map[string]any
	_ = json.Unmarshal(body, &payload)
	return payload
}

func toPayload(v any) map[string]any {
	body, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return map[string]any{}
	}
	return payload
}
