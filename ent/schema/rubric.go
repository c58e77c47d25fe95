package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Rubric holds the schema definition for the Rubric entity: an ordered,
// weighted list of scoring dimensions. Rubrics are immutable — "editing" a
// rubric creates a new row linked to its predecessor by parent_id rather
// than mutating dimensions in place, so every Evaluation that recorded a
// rubric_id keeps scoring against the exact dimension set it was evaluated
// under.
//
// This run of the platform resolves rubrics from YAML
// (pkg/config.RubricRegistry) rather than this table — see DESIGN.md for
// why the parent-id versioning chain documented here isn't wired to a live
// PostgresStore method. The shape is kept as the target for a future
// database-backed RubricRegistry.
type Rubric struct {
	ent.Schema
}

// Fields of the Rubric.
func (Rubric) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("parent_id").
			Optional().
			Nillable().
			Immutable().
			Comment("Predecessor rubric this version was derived from, nil for the first version"),
		field.String("description").
			Optional().
			Nillable(),
		field.JSON("dimensions", []interface{}{}).
			Comment("Ordered RubricDimension list: {name, description, weight, criteria}"),
		field.Float("pass_threshold").
			Default(0.7),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the Rubric.
func (Rubric) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("parent_id"),
	}
}
