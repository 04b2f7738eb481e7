package database

import (
	"context"
	"time"

	"github.com/promptforge/core/ent"
	"github.com/promptforge/core/ent/job"
	"github.com/promptforge/core/internal/queue"
)

// QueueStore is the ent-backed implementation of queue.Store, mirroring
// one row per queue.Job so recover.go's startup scan can repopulate
// the in-memory heap after a restart.
type QueueStore struct {
	client *ent.Client
}

// NewQueueStore constructs a QueueStore over an open ent client.
func NewQueueStore(client *ent.Client) *QueueStore {
	return &QueueStore{client: client}
}

var _ queue.Store = (*QueueStore)(nil)

func (s *QueueStore) CreateJob(ctx context.Context, j *queue.Job) error {
	_, err := s.client.Job.Create().
		SetID(j.ID).
		SetAppID(j.AppID).
		SetJobType(j.JobType).
		SetPayload(j.Payload).
		SetPriority(j.Priority).
		SetStatus(job.Status(j.Status)).
		SetProgress(j.Progress).
		SetRetryCount(j.RetryCount).
		SetMaxRetries(j.MaxRetries).
		SetCreatedAt(j.CreatedAt).
		Save(ctx)
	return err
}

func (s *QueueStore) UpdateJob(ctx context.Context, jobID string, fields map[string]any) error {
	update := s.client.Job.UpdateOneID(jobID)
	for k, v := range fields {
		switch k {
		case "status":
			update = update.SetStatus(job.Status(v.(string)))
		case "progress":
			update = update.SetProgress(v.(float64))
		case "retry_count":
			update = update.SetRetryCount(v.(int))
		case "result":
			if m, ok := v.(map[string]any); ok {
				update = update.SetResult(m)
			}
		case "error":
			if s, ok := v.(string); ok {
				update = update.SetError(s)
			}
		case "started_at":
			if t, ok := v.(time.Time); ok {
				update = update.SetStartedAt(t)
			}
		case "completed_at":
			if t, ok := v.(time.Time); ok {
				update = update.SetCompletedAt(t)
			}
		}
	}
	_, err := update.Save(ctx)
	return err
}

func (s *QueueStore) PendingAndRunning(ctx context.Context) ([]*queue.Job, error) {
	rows, err := s.client.Job.Query().
		Where(job.StatusIn(job.StatusPending, job.StatusRunning)).
		All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*queue.Job, len(rows))
	for i, r := range rows {
		out[i] = toDomainJob(r)
	}
	return out, nil
}

func (s *QueueStore) ResetRunningToPending(ctx context.Context, jobIDs []string) error {
	_, err := s.client.Job.Update().
		Where(job.IDIn(jobIDs...), job.StatusEQ(job.StatusRunning)).
		SetStatus(job.StatusPending).
		Save(ctx)
	return err
}

func toDomainJob(j *ent.Job) *queue.Job {
	return &queue.Job{
		ID:          j.ID,
		AppID:       j.AppID,
		JobType:     j.JobType,
		Payload:     j.Payload,
		Priority:    j.Priority,
		Status:      queue.Status(j.Status),
		Result:      j.Result,
		Progress:    j.Progress,
		MaxRetries:  j.MaxRetries,
		RetryCount:  j.RetryCount,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
