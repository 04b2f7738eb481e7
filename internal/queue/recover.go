package queue

import (
	"container/heap"
	"context"
	"log/slog"
)

// RecoverPending loads pending and running jobs from the store and
// re-enqueues them. Jobs that were running are reset to pending first,
// since no handler is actually executing them anymore after a crash
// or restart. Call once at startup, before Start.
func (q *Queue) RecoverPending(ctx context.Context) {
	rows, err := q.store.PendingAndRunning(ctx)
	if err != nil {
		slog.Debug("failed to recover pending jobs from store", "error", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	var runningIDs []string
	for _, row := range rows {
		if row.Status == StatusRunning {
			runningIDs = append(runningIDs, row.ID)
		}
	}
	if len(runningIDs) > 0 {
		if err := q.store.ResetRunningToPending(ctx, runningIDs); err != nil {
			slog.Debug("failed to reset running jobs to pending", "error", err)
		}
	}

	recovered := 0
	q.mu.Lock()
	for _, row := range rows {
		if _, exists := q.jobs[row.ID]; exists {
			continue
		}
		row.Status = StatusPending
		q.counter++
		row.sequence = q.counter
		q.jobs[row.ID] = row
		heap.Push(&q.heap, row)
		recovered++
	}
	q.mu.Unlock()
	q.cond.Broadcast()

	slog.Info("recovered pending jobs from store", "count", recovered)
}
