package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

// Optimization holds the schema for one end-to-end pipeline invocation.
// Mutated once after creation on a terminal outcome: success (full stage
// output + scores), error, or cancellation. Afterwards only the cosmetic
// title/tags/project fields change.
type Optimization struct {
	ent.Schema
}

// Fields of the Optimization.
func (Optimization) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.String("raw_prompt").
			Immutable().
			NotEmpty(),
		field.Enum("status").
			Values("pending", "running", "completed", "error", "cancelled").
			Default("pending"),

		// Strategy selection
		field.String("strategy").
			Optional().
			Nillable(),
		field.String("strategy_reasoning").
			Optional().
			Nillable(),
		field.Float("strategy_confidence").
			Optional().
			Nillable(),
		field.Strings("secondary_frameworks").
			Optional(),
		field.Bool("strategy_is_override").
			Default(false),

		// Analyzer output
		field.String("task_type").
			Optional().
			Nillable(),
		field.String("complexity").
			Optional().
			Nillable(),
		field.Strings("weaknesses").
			Optional(),
		field.Strings("strengths").
			Optional(),

		// Optimizer output
		field.String("optimized_prompt").
			Optional().
			Nillable(),
		field.String("framework_applied").
			Optional().
			Nillable(),
		field.Strings("changes_made").
			Optional(),
		field.String("optimization_notes").
			Optional().
			Nillable(),

		// Validator output
		field.Float("clarity_score").
			Optional().
			Nillable(),
		field.Float("specificity_score").
			Optional().
			Nillable(),
		field.Float("structure_score").
			Optional().
			Nillable(),
		field.Float("faithfulness_score").
			Optional().
			Nillable(),
		field.Float("framework_adherence_score").
			Optional().
			Nillable(),
		field.Float("overall_score").
			Optional().
			Nillable(),
		field.Bool("is_improvement").
			Optional().
			Nillable(),
		field.String("verdict").
			Optional().
			Nillable(),

		// Token usage
		field.Int("input_tokens").
			Optional().
			Nillable(),
		field.Int("output_tokens").
			Optional().
			Nillable(),
		field.Int("cache_creation_input_tokens").
			Optional().
			Nillable(),
		field.Int("cache_read_input_tokens").
			Optional().
			Nillable(),

		field.String("model_used").
			Optional().
			Nillable(),
		field.Int("duration_ms").
			Optional().
			Nillable(),
		field.String("error_message").
			Optional().
			Nillable(),

		// Codebase context snapshot, serialized CodebaseContext as JSON.
		field.JSON("codebase_context", map[string]any{}).
			Optional(),

		// Optional linkage
		field.String("project_name").
			Optional().
			Nillable(),
		field.String("project_id").
			Optional().
			Nillable(),
		field.String("prompt_id").
			Optional().
			Nillable(),
		field.UUID("retry_of", uuid.UUID{}).
			Optional().
			Nillable(),

		// Cosmetic (mutable post-completion)
		field.String("title").
			Optional().
			Nillable(),
		field.Strings("tags").
			Optional(),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
	}
}

// Edges of the Optimization.
func (Optimization) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("project", Project.Type).
			Ref("optimizations").
			Field("project_id").
			Unique(),
		edge.From("prompt", Prompt.Type).
			Ref("optimizations").
			Field("prompt_id").
			Unique(),
	}
}

// Indexes of the Optimization.
func (Optimization) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("created_at"),
		index.Fields("project_id"),
	}
}
