package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/promptforge/core/ent"
	"github.com/promptforge/core/ent/optimization"
	"github.com/promptforge/core/internal/config"
)

// RetentionService periodically sweeps terminal Optimization rows past
// their configured TTL. Mirrors the start/stop/ticker shape of the
// teacher's cleanup.Service, adapted to a single sweep target: unlike
// sessions there is no persisted Event entity in this schema (SSE
// events are transient, bounded in memory by SSEConfig.HistoryBufferSize
// rather than by a database row), so EventTTL has nothing to sweep here.
type RetentionService struct {
	cfg    *config.RetentionConfig
	client *ent.Client

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRetentionService constructs a RetentionService.
func NewRetentionService(cfg *config.RetentionConfig, client *ent.Client) *RetentionService {
	return &RetentionService{cfg: cfg, client: client}
}

// Start launches the background sweep loop.
func (s *RetentionService) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("retention service started",
		"optimization_ttl", s.cfg.OptimizationTTL,
		"interval", s.cfg.CleanupInterval)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *RetentionService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("retention service stopped")
}

func (s *RetentionService) run(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionService) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.OptimizationTTL)
	n, err := s.client.Optimization.Delete().
		Where(
			optimization.CreatedAtLT(cutoff),
			optimization.StatusIn(
				optimization.StatusCompleted,
				optimization.StatusError,
				optimization.StatusCancelled,
			),
		).
		Exec(ctx)
	if err != nil {
		slog.Error("retention: optimization sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("retention: deleted expired optimizations", "count", n)
	}
}
