package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Conversation holds the schema definition for the Conversation entity:
// one simulated multi-turn dialogue belonging to an EvalRun, with its full
// Turn sequence stored as ordered JSON.
type Conversation struct {
	ent.Schema
}

// Fields of the Conversation.
func (Conversation) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("eval_run_id").
			Immutable(),
		field.Int("sequence_num").
			Comment("Zero-based position of this conversation within its run"),
		field.JSON("turns", []interface{}{}).
			Comment("Ordered, append-only Turn sequence — see pkg/transcript.Turn"),
		field.Int("turn_count").
			Default(0),
		field.Int("total_tokens").
			Default(0),
		field.Int("total_input_tokens").
			Default(0),
		field.Int("total_output_tokens").
			Default(0),
		field.Int("total_latency_ms").
			Default(0),
		field.Enum("status").
			Values("pending", "running", "completed", "failed", "goal_achieved", "frustrated").
			Default("pending"),
		field.String("error_message").
			Optional().
			Nillable(),
		field.JSON("metadata", map[string]interface{}{}).
			Optional(),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("completed_at").
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

// Edges of the Conversation.
func (Conversation) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("eval_run", EvalRun.Type).
			Ref("conversations").
			Field("eval_run_id").
			Unique().
			Required().
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("evaluations", Evaluation.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("metrics", Metric.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Conversation.
func (Conversation) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("eval_run_id"),
		index.Fields("eval_run_id", "status"),
	}
}
