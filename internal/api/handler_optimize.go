package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/promptforge/core/ent"
	"github.com/promptforge/core/internal/pipeline"
	"github.com/promptforge/core/internal/strategy"
)

func (h *handlers) buildOptions(req optimizeRequest) (pipeline.Options, error) {
	provider, err := h.deps.Providers.Get(req.Provider)
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		RawPrompt:      req.RawPrompt,
		Provider:       provider,
		Model:          req.Model,
		MaxIterations:  req.MaxIterations,
		ScoreThreshold: req.ScoreThreshold,
	}
	if cfg := h.deps.Config; cfg != nil && cfg.Pipeline != nil {
		if opts.MaxIterations == 0 {
			opts.MaxIterations = cfg.Pipeline.MaxIterations
		}
		if opts.ScoreThreshold == 0 {
			opts.ScoreThreshold = cfg.Pipeline.ScoreThreshold
		}
	}

	if req.StrategyOverride != "" {
		s := strategy.Normalize(req.StrategyOverride)
		opts.HasStrategyOverride = true
		opts.StrategyOverride = s
	}
	for _, f := range req.SecondaryFrameworks {
		opts.SecondaryFrameworksOverride = append(opts.SecondaryFrameworksOverride, strategy.Normalize(f))
	}
	return opts, nil
}

// optimizeStream handles POST /optimize: runs the full pipeline,
// streaming lifecycle events as server-sent events. The Optimization
// record transitions running -> completed/error as the stream ends.
func (h *handlers) optimizeStream(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts, err := h.buildOptions(req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	record, err := h.deps.Optimizations.StartOptimization(c.Request.Context(), req.RawPrompt, req.ProjectID, req.PromptID, nil)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	events := pipeline.RunStreaming(ctx, opts)

	c.Stream(func(w io.Writer) bool {
		v, ok := <-events
		if !ok {
			return false
		}
		switch e := v.(type) {
		case pipeline.Event:
			frame, err := pipeline.FormatSSE(e)
			if err != nil {
				return false
			}
			_, _ = w.Write([]byte(frame))
			if e.Type == "error" {
				message, _ := e.Payload["message"].(string)
				_, _ = h.deps.Optimizations.FailOptimization(ctx, record.ID, fmt.Errorf("%s", message))
				return false
			}
			return true
		case *pipeline.PipelineComplete:
			if _, err := h.deps.Optimizations.CompleteOptimization(ctx, record.ID, &e.Data); err != nil {
				_, _ = w.Write([]byte("event: error\ndata: {\"message\":\"failed to persist result\"}\n\n"))
			}
			return false
		default:
			return true
		}
	})
}

// getOptimization handles GET /optimize/:id.
func (h *handlers) getOptimization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid optimization id"})
		return
	}
	o, err := h.deps.Optimizations.GetOptimization(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOptimizationResponse(o))
}

// retryOptimization handles POST /optimize/:id/retry: synchronously
// re-runs the pipeline against the original raw prompt and records a
// new Optimization row linked via retry_of.
func (h *handlers) retryOptimization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid optimization id"})
		return
	}
	original, err := h.deps.Optimizations.GetOptimization(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var req optimizeRequest
	_ = c.ShouldBindJSON(&req)
	req.RawPrompt = original.RawPrompt

	opts, err := h.buildOptions(req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	record, err := h.deps.Optimizations.StartOptimization(c.Request.Context(), original.RawPrompt, nil, nil, &id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result, err := pipeline.Run(c.Request.Context(), opts)
	if err != nil {
		if _, ferr := h.deps.Optimizations.FailOptimization(c.Request.Context(), record.ID, err); ferr != nil {
			abortWithError(c, ferr)
			return
		}
		abortWithError(c, err)
		return
	}

	completed, err := h.deps.Optimizations.CompleteOptimization(c.Request.Context(), record.ID, result)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOptimizationResponse(completed))
}

// cancelOptimization handles POST /optimize/:id/cancel.
func (h *handlers) cancelOptimization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid optimization id"})
		return
	}
	o, err := h.deps.Optimizations.Cancel(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOptimizationResponse(o))
}

// optimizeBatch handles POST /optimize/batch: submits each prompt as a
// queued job rather than running synchronously, returning the set of
// job ids a caller can poll via the job queue's own introspection.
func (h *handlers) optimizeBatch(c *gin.Context) {
	var req batchOptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appID := c.GetHeader("X-App-Id")
	if appID == "" {
		appID = "default"
	}

	out := make([]jobSubmittedResponse, 0, len(req.Prompts))
	for _, item := range req.Prompts {
		payload := map[string]any{
			"raw_prompt":      item.RawPrompt,
			"provider":        item.Provider,
			"model":           item.Model,
			"max_iterations":  item.MaxIterations,
			"score_threshold": item.ScoreThreshold,
		}
		jobID, err := h.deps.Queue.Submit(c.Request.Context(), appID, "optimize", payload, 0, 3)
		if err != nil {
			abortWithError(c, err)
			return
		}
		out = append(out, jobSubmittedResponse{JobID: jobID})
	}
	c.JSON(http.StatusAccepted, gin.H{"jobs": out})
}

// orchestrateStage handles POST /orchestrate/:stage: runs exactly the
// one named stage synchronously and returns its raw result, for callers orchestrating the pipeline
// one stage at a time.
func (h *handlers) orchestrateStage(c *gin.Context) {
	stageName := c.Param("stage")

	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts, err := h.buildOptions(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	opts.Stages = []string{stageName}

	result, err := pipeline.Run(c.Request.Context(), opts)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func toOptimizationResponse(o *ent.Optimization) optimizationResponse {
	return optimizationResponse{
		ID:              o.ID.String(),
		Status:          string(o.Status),
		RawPrompt:       o.RawPrompt,
		Strategy:        o.Strategy,
		OptimizedPrompt: o.OptimizedPrompt,
		OverallScore:    o.OverallScore,
		ErrorMessage:    o.ErrorMessage,
		Title:           o.Title,
		Tags:            o.Tags,
	}
}
