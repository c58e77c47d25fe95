package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// EvalRun holds the schema definition for the EvalRun entity: one pass of
// N simulated conversations between an agent-under-test configuration and
// a scenario, against an optional rubric. This file documents the shape
// pkg/store's PostgresStore implements by hand; no client is generated
// from it — see DESIGN.md for why entgo's code generation isn't run here.
type EvalRun struct {
	ent.Schema
}

// Fields of the EvalRun.
func (EvalRun) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("id").
			Unique().
			Immutable(),
		field.String("name").
			Optional().
			Nillable(),
		field.String("agent_config_id").
			Comment("Name of the AgentUnderTestConfig this run evaluates"),
		field.String("scenario_id").
			Comment("ScenarioConfig ID driving the simulated user and environment"),
		field.String("rubric_id").
			Optional().
			Nillable(),
		field.Enum("status").
			Values("pending", "running", "completed", "failed", "cancelled").
			Default("pending"),
		field.Int("num_conversations").
			Default(5),
		field.JSON("config", map[string]interface{}{}).
			Optional().
			Comment("Snapshot of the agent/scenario/rubric config resolved at run start"),
		field.String("error_message").
			Optional().
			Nillable(),
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

// Edges of the EvalRun.
func (EvalRun) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("conversations", Conversation.Type),
	}
}

// Indexes of the EvalRun.
func (EvalRun) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("status", "created_at"),
	}
}
