package queue

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promptforge/core/internal/eventbus"
)

// progressDebounceThreshold is the minimum absolute progress delta
// required before a progress update is persisted to the database.
const progressDebounceThreshold = 0.1

// defaultStopGracePeriod bounds how long Stop waits for in-flight jobs
// to finish before giving up and returning anyway.
const defaultStopGracePeriod = 2 * time.Second

// Handler executes one job and returns its result payload.
type Handler func(ctx context.Context, job *Job) (map[string]any, error)

// Queue is an in-process priority job queue with a bounded worker
// pool. The zero value is not usable; construct with New.
type Queue struct {
	maxWorkers int
	bus        *eventbus.Bus
	store      Store

	mu       sync.Mutex
	cond     *sync.Cond
	heap     jobHeap
	jobs     map[string]*Job
	handlers map[string]Handler
	counter  int64
	running  bool

	lastPersistedProgress map[string]float64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New constructs a Queue with the given worker count. bus may be nil
// to skip event publication; store may be nil to use NoopStore.
func New(maxWorkers int, bus *eventbus.Bus, store Store) *Queue {
	if maxWorkers <= 0 {
		maxWorkers = 3
	}
	if store == nil {
		store = NoopStore{}
	}
	q := &Queue{
		maxWorkers:            maxWorkers,
		bus:                   bus,
		store:                 store,
		jobs:                  make(map[string]*Job),
		handlers:              make(map[string]Handler),
		lastPersistedProgress: make(map[string]float64),
		stopCh:                make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// RegisterHandler registers the handler invoked for jobs of jobType.
func (q *Queue) RegisterHandler(jobType string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
	slog.Info("job handler registered", "job_type", jobType)
}

// Submit enqueues a new job and returns its id.
func (q *Queue) Submit(ctx context.Context, appID, jobType string, payload map[string]any, priority, maxRetries int) (string, error) {
	job := &Job{
		ID:         uuid.NewString(),
		AppID:      appID,
		JobType:    jobType,
		Payload:    payload,
		Priority:   priority,
		Status:     StatusPending,
		MaxRetries: maxRetries,
		CreatedAt:  timeNow(),
	}

	q.mu.Lock()
	q.counter++
	job.sequence = q.counter
	q.jobs[job.ID] = job
	heap.Push(&q.heap, job)
	q.mu.Unlock()
	q.cond.Signal()

	if err := q.store.CreateJob(ctx, job); err != nil {
		slog.Debug("failed to persist job creation", "job_id", job.ID, "error", err)
	}

	q.publish("kernel:job.submitted", job, nil)
	slog.Info("job submitted", "job_id", job.ID, "job_type", jobType, "app_id", appID)
	return job.ID, nil
}

// Cancel marks a pending or running job cancelled. It returns false if
// the job is unknown or already in a terminal state. A handler that
// later returns for a cancelled job has its result discarded.
func (q *Queue) Cancel(jobID string) bool {
	q.mu.Lock()
	job, ok := q.jobs[jobID]
	if !ok || isTerminal(job.Status) {
		q.mu.Unlock()
		return false
	}
	job.Status = StatusCancelled
	now := timeNow()
	job.CompletedAt = &now
	q.mu.Unlock()

	if err := q.store.UpdateJob(context.Background(), jobID, map[string]any{
		"status":       string(StatusCancelled),
		"completed_at": now,
	}); err != nil {
		slog.Debug("failed to persist job cancellation", "job_id", jobID, "error", err)
	}

	q.publish("kernel:job.failed", job, map[string]any{"reason": "cancelled"})
	slog.Info("job cancelled", "job_id", jobID)
	return true
}

// GetJob returns a snapshot of the job, or false if unknown.
func (q *Queue) GetJob(jobID string) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

// ListJobs returns jobs optionally filtered by appID and/or status,
// newest first.
func (q *Queue) ListJobs(appID string, status Status) []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		if appID != "" && job.AppID != appID {
			continue
		}
		if status != "" && job.Status != status {
			continue
		}
		out = append(out, job.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// UpdateProgress clamps progress to [0, 1], publishes kernel:job.progress,
// and persists to the store only when the change from the last
// persisted value is >= progressDebounceThreshold or the job is
// complete.
func (q *Queue) UpdateProgress(jobID string, progress float64) {
	progress = clamp01(progress)

	q.mu.Lock()
	job, ok := q.jobs[jobID]
	if !ok || job.Status != StatusRunning {
		q.mu.Unlock()
		return
	}
	job.Progress = progress
	last := q.lastPersistedProgress[jobID]
	shouldPersist := progress-last >= progressDebounceThreshold || last-progress >= progressDebounceThreshold || progress >= 1.0
	if shouldPersist {
		q.lastPersistedProgress[jobID] = progress
	}
	q.mu.Unlock()

	q.publish("kernel:job.progress", job, nil)

	if shouldPersist {
		if err := q.store.UpdateJob(context.Background(), jobID, map[string]any{"progress": progress}); err != nil {
			slog.Debug("failed to persist job progress", "job_id", jobID, "error", err)
		}
	}
}

// Start spawns maxWorkers worker goroutines. Safe to call only once;
// subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	slog.Info("job queue started", "max_workers", q.maxWorkers)
	for i := 0; i < q.maxWorkers; i++ {
		q.wg.Add(1)
		go q.workerLoop(ctx, i)
	}
}

// Stop signals workers to finish their current job and exit, waiting
// up to defaultStopGracePeriod before returning.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	q.stopOnce.Do(func() { close(q.stopCh) })
	q.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("job queue stopped")
	case <-time.After(defaultStopGracePeriod):
		slog.Warn("job queue stop grace period elapsed with workers still running")
	}
}

func (q *Queue) workerLoop(ctx context.Context, workerID int) {
	defer q.wg.Done()
	for {
		job, ok := q.dequeue()
		if !ok {
			return
		}
		if job.Status == StatusCancelled {
			continue
		}
		q.executeJob(ctx, job, workerID)
	}
}

func (q *Queue) dequeue() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.heap) == 0 && q.running {
		q.cond.Wait()
	}
	if len(q.heap) == 0 {
		return nil, false
	}
	return heap.Pop(&q.heap).(*Job), true
}

func (q *Queue) executeJob(ctx context.Context, job *Job, workerID int) {
	q.mu.Lock()
	handler, hasHandler := q.handlers[job.JobType]
	q.mu.Unlock()

	if !hasHandler {
		job.Status = StatusFailed
		job.Error = fmt.Sprintf("no handler registered for job type: %s", job.JobType)
		now := timeNow()
		job.CompletedAt = &now
		q.persistUpdate(job.ID, map[string]any{"status": string(StatusFailed), "error": job.Error, "completed_at": now})
		q.publish("kernel:job.failed", job, nil)
		slog.Error("no handler for job type", "job_type", job.JobType, "job_id", job.ID)
		return
	}

	job.Status = StatusRunning
	startedAt := timeNow()
	job.StartedAt = &startedAt
	q.persistUpdate(job.ID, map[string]any{"status": string(StatusRunning), "started_at": startedAt})
	q.publish("kernel:job.started", job, nil)

	result, err := handler(ctx, job)

	if job.Status == StatusCancelled {
		return
	}

	if err != nil {
		q.retryOrFail(job, workerID, err)
		return
	}

	job.Status = StatusCompleted
	job.Progress = 1.0
	if result == nil {
		result = map[string]any{}
	}
	job.Result = result
	completedAt := timeNow()
	job.CompletedAt = &completedAt
	q.persistUpdate(job.ID, map[string]any{
		"status": string(StatusCompleted), "progress": 1.0,
		"result": job.Result, "completed_at": completedAt,
	})

	q.mu.Lock()
	delete(q.lastPersistedProgress, job.ID)
	q.mu.Unlock()

	q.publish("kernel:job.completed", job, nil)
	slog.Info("job completed", "job_id", job.ID, "worker", workerID)
}

func (q *Queue) retryOrFail(job *Job, workerID int, cause error) {
	job.RetryCount++
	if job.RetryCount <= job.MaxRetries {
		job.Status = StatusPending
		job.Error = cause.Error()
		q.persistUpdate(job.ID, map[string]any{
			"status": string(StatusPending), "error": job.Error, "retry_count": job.RetryCount,
		})

		q.mu.Lock()
		q.counter++
		job.sequence = q.counter
		heap.Push(&q.heap, job)
		q.mu.Unlock()
		q.cond.Signal()

		slog.Warn("job failed, retrying", "job_id", job.ID, "attempt", job.RetryCount, "max_attempts", job.MaxRetries+1, "error", cause)
		return
	}

	job.Status = StatusFailed
	job.Error = cause.Error()
	completedAt := timeNow()
	job.CompletedAt = &completedAt
	q.persistUpdate(job.ID, map[string]any{
		"status": string(StatusFailed), "error": job.Error, "completed_at": completedAt,
	})

	q.mu.Lock()
	delete(q.lastPersistedProgress, job.ID)
	q.mu.Unlock()

	q.publish("kernel:job.failed", job, nil)
	slog.Error("job failed", "job_id", job.ID, "worker", workerID, "error", cause)
}

func (q *Queue) persistUpdate(jobID string, fields map[string]any) {
	if err := q.store.UpdateJob(context.Background(), jobID, fields); err != nil {
		slog.Debug("failed to persist job update", "job_id", jobID, "error", err)
	}
}

func (q *Queue) publish(eventType string, job *Job, extra map[string]any) {
	if q.bus == nil {
		return
	}
	data := map[string]any{
		"job_id":   job.ID,
		"app_id":   job.AppID,
		"job_type": job.JobType,
		"status":   string(job.Status),
		"progress": job.Progress,
	}
	for k, v := range extra {
		data[k] = v
	}
	q.bus.Publish(context.Background(), eventType, data, "kernel")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// timeNow wraps time.Now; every timestamp the queue records is taken
// through it.
func timeNow() time.Time { return time.Now() }
