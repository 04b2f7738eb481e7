package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// MaxVFSDepth bounds folder nesting in the virtual filesystem.
const MaxVFSDepth = 8

// VFSFolder holds the schema for an app-scoped folder in the virtual
// filesystem tree.
type VFSFolder struct {
	ent.Schema
}

// Fields of the VFSFolder.
func (VFSFolder) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("app_id").
			Immutable(),
		field.String("name").
			NotEmpty(),
		field.String("parent_id").
			Optional().
			Nillable(),
		field.Int("depth").
			Default(0),
		field.JSON("metadata", map[string]any{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the VFSFolder.
func (VFSFolder) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("children", VFSFolder.Type),
		edge.From("parent", VFSFolder.Type).
			Ref("children").
			Field("parent_id").
			Unique(),
		edge.To("files", VFSFile.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the VFSFolder.
func (VFSFolder) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("app_id", "parent_id", "name").
			Unique(),
	}
}

// VFSFile holds the schema for an app-scoped file with auto-versioned
// content.
type VFSFile struct {
	ent.Schema
}

// Fields of the VFSFile.
func (VFSFile) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("app_id").
			Immutable(),
		field.String("name").
			NotEmpty(),
		field.String("folder_id").
			Optional().
			Nillable(),
		field.String("content").
			Default(""),
		field.String("content_type").
			Default("text/plain"),
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

// Edges of the VFSFile.
func (VFSFile) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("folder", VFSFolder.Type).
			Ref("files").
			Field("folder_id").
			Unique(),
		edge.To("versions", VFSFileVersion.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the VFSFile.
func (VFSFile) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("app_id", "folder_id", "name").
			Unique(),
	}
}

// VFSFileVersion holds the schema for an immutable snapshot of a VFS
// file's content taken just before an overwrite or restore.
type VFSFileVersion struct {
	ent.Schema
}

// Fields of the VFSFileVersion.
func (VFSFileVersion) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("file_id").
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

// Edges of the VFSFileVersion.
func (VFSFileVersion) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("file", VFSFile.Type).
			Ref("versions").
			Field("file_id").
			Unique().
			Required().
			Immutable(),
	}
}
