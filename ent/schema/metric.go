package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Metric holds the schema definition for the Metric entity: one named,
// unit-tagged measurement attached to a Conversation. Unique per
// (conversation_id, metric_name) — recomputing a metric overwrites the
// prior value rather than appending a row, matching
// pkg/store.PostgresStore.RecordMetric's upsert.
type Metric struct {
	ent.Schema
}

// Fields of the Metric.
func (Metric) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("conversation_id").
			Immutable(),
		field.String("metric_name"),
		field.Float("value"),
		field.String("unit").
			Optional().
			Nillable(),
		field.JSON("metadata", map[string]interface{}{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Metric.
func (Metric) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("conversation", Conversation.Type).
			Ref("metrics").
			Field("conversation_id").
			Unique().
			Required().
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Metric.
func (Metric) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("conversation_id", "metric_name").
			Unique(),
		index.Fields("metric_name"),
	}
}
