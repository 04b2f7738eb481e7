package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Job holds the schema for a background job processed by the priority
// job queue. Rows are the durable side of an in-memory priority queue:
// submission and progress are mirrored here so recover_pending() can
// resume work across restarts.
type Job struct {
	ent.Schema
}

// Fields of the Job.
func (Job) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("app_id").
			Immutable(),
		field.String("job_type").
			Immutable(),
		field.JSON("payload", map[string]any{}).
			Optional(),
		field.Int("priority").
			Default(0),
		field.Enum("status").
			Values("pending", "running", "completed", "failed", "cancelled").
			Default("pending"),
		field.Float("progress").
			Default(0),
		field.Int("retry_count").
			Default(0),
		field.Int("max_retries").
			Default(0),
		field.JSON("result", map[string]any{}).
			Optional(),
		field.String("error").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
	}
}

// Indexes of the Job.
func (Job) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("app_id", "status"),
		index.Fields("status", "priority"),
	}
}
