package api

import (
	"context"
	"fmt"

	"github.com/promptforge/core/internal/pipeline"
	"github.com/promptforge/core/internal/queue"
)

// RegisterJobHandlers wires the queue's "optimize" job type to the
// same StartOptimization/Run/Complete-or-Fail flow the synchronous
// retry endpoint uses, so POST /optimize/batch items execute on the
// worker pool instead of the request goroutine.
func RegisterJobHandlers(q *queue.Queue, deps *Deps) {
	h := &handlers{deps: deps}
	q.RegisterHandler("optimize", h.runOptimizeJob)
}

func (h *handlers) runOptimizeJob(ctx context.Context, job *queue.Job) (map[string]any, error) {
	req := optimizeRequest{
		RawPrompt: fmt.Sprint(job.Payload["raw_prompt"]),
	}
	if v, ok := job.Payload["provider"].(string); ok {
		req.Provider = v
	}
	if v, ok := job.Payload["model"].(string); ok {
		req.Model = v
	}
	if v, ok := job.Payload["max_iterations"].(float64); ok {
		req.MaxIterations = int(v)
	}
	if v, ok := job.Payload["score_threshold"].(float64); ok {
		req.ScoreThreshold = v
	}

	opts, err := h.buildOptions(req)
	if err != nil {
		return nil, err
	}

	record, err := h.deps.Optimizations.StartOptimization(ctx, req.RawPrompt, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		if _, ferr := h.deps.Optimizations.FailOptimization(ctx, record.ID, err); ferr != nil {
			return nil, ferr
		}
		return nil, err
	}

	if _, err := h.deps.Optimizations.CompleteOptimization(ctx, record.ID, result); err != nil {
		return nil, err
	}
	return map[string]any{"optimization_id": record.ID.String()}, nil
}
