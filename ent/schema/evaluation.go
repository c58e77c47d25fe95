package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Evaluation holds the schema definition for the Evaluation entity: one
// evaluator's scoring of one Conversation against the dimensions presented
// to it at evaluation time.
type Evaluation struct {
	ent.Schema
}

// Fields of the Evaluation.
func (Evaluation) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("conversation_id").
			Immutable(),
		field.Enum("evaluator_type").
			Values("model_judge", "rubric_grader", "human", "reference_based", "trajectory", "pairwise_judge"),
		field.String("evaluator_id").
			Optional().
			Nillable().
			Comment("Human reviewer id, or a judge model id — free-form per evaluator_type"),
		field.String("rubric_id").
			Optional().
			Nillable(),
		field.JSON("scores", map[string]float64{}).
			Comment("dimension_name -> score in [0, 10]; keys are a subset of the dimensions presented"),
		field.Float("overall_score").
			Optional().
			Nillable(),
		field.Text("reasoning").
			Optional().
			Nillable(),
		field.JSON("per_turn_scores", []float64{}).
			Optional(),
		field.JSON("metadata", map[string]interface{}{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Evaluation.
func (Evaluation) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("conversation", Conversation.Type).
			Ref("evaluations").
			Field("conversation_id").
			Unique().
			Required().
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Evaluation.
func (Evaluation) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("conversation_id"),
		index.Fields("evaluator_type"),
	}
}
