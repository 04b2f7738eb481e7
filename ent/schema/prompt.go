package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// Prompt holds the schema for a versioned prompt, optionally scoped to a
// project. Every content-changing update snapshots the prior value into an
// immutable PromptVersion before overwriting.
type Prompt struct {
	ent.Schema
}

// Fields of the Prompt.
func (Prompt) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("project_id").
			Optional().
			Nillable(),
		field.String("title").
			Optional().
			Nillable(),
		field.String("content").
			NotEmpty(),
		field.Int("version").
			Default(1),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Prompt.
func (Prompt) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("project", Project.Type).
			Ref("prompts").
			Field("project_id").
			Unique(),
		edge.To("versions", PromptVersion.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("optimizations", Optimization.Type),
	}
}

// PromptVersion holds the schema for an immutable snapshot of a prompt's
// content prior to a content-changing update.
type PromptVersion struct {
	ent.Schema
}

// Fields of the PromptVersion.
func (PromptVersion) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("prompt_id").
			Immutable(),
		field.Int("version").
			Immutable(),
		field.String("content").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the PromptVersion.
func (PromptVersion) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("prompt", Prompt.Type).
			Ref("versions").
			Field("prompt_id").
			Unique().
			Required().
			Immutable(),
	}
}
