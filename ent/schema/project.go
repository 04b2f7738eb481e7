package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// MaxProjectDepth bounds the project tree, matching the VFS folder depth cap.
const MaxProjectDepth = 8

// Project holds the schema for a project folder in the Project/Prompt
// hierarchy. Projects form a tree; depth(child) = depth(parent) + 1.
type Project struct {
	ent.Schema
}

// Fields of the Project.
func (Project) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name").
			NotEmpty(),
		field.String("parent_id").
			Optional().
			Nillable(),
		field.Int("depth").
			Default(0).
			Comment("root-level projects have depth 0"),
		field.Enum("status").
			Values("active", "archived", "deleted").
			Default("active"),
		field.JSON("context_profile", map[string]any{}).
			Optional().
			Comment("manually curated CodebaseContext snapshot"),
		field.String("description").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Project.
func (Project) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("children", Project.Type),
		edge.From("parent", Project.Type).
			Ref("children").
			Field("parent_id").
			Unique(),
		edge.To("prompts", Prompt.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("optimizations", Optimization.Type),
	}
}

// Indexes of the Project.
func (Project) Indexes() []ent.Index {
	return []ent.Index{
		// Name uniqueness within a parent scope; NULL parent_id (root level)
		// is handled at the service layer since most SQL dialects treat
		// NULL as distinct for uniqueness purposes.
		index.Fields("parent_id", "name").
			Unique(),
	}
}
