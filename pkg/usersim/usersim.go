// Package usersim generates the simulated user's next utterance: either a
// verbatim initial-message template on turn 0, or an LLM call over a
// role-swapped history that makes the simulator see itself as "assistant".
package usersim

import (
	"context"

	"github.com/axionis47/agentprobe-go/pkg/llmclient"
	"github.com/axionis47/agentprobe-go/pkg/persona"
	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

const (
	generateTemperature = 0.8
	generateMaxTokens   = 500
)

// Simulator generates the next user message given the conversation so far.
type Simulator struct {
	LLM             llmclient.Client
	Persona         persona.UserPersona
	InitialMessage  string
}

// New constructs a Simulator.
func New(llm llmclient.Client, p persona.UserPersona, initialMessage string) *Simulator {
	return &Simulator{LLM: llm, Persona: p, InitialMessage: initialMessage}
}

// Generate returns the next user message. turnIndex is the zero-based index
// of the user turn about to be produced; turns is the history so far (may
// be empty on turn 0).
func (s *Simulator) Generate(ctx context.Context, turnIndex int, turns []transcript.Turn) (string, error) {
	if turnIndex == 0 && s.InitialMessage != "" {
		return s.InitialMessage, nil
	}

	history := roleSwap(turns)
	if len(history) == 0 {
		history = []llmclient.Message{{
			Role:    llmclient.RoleUser,
			Content: "Start the conversation.",
		}}
	}

	resp, err := s.LLM.Chat(ctx, llmclient.ChatRequest{
		Model:       s.Persona.ModelID,
		System:      s.Persona.BuildSystemPrompt(),
		Messages:    history,
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// roleSwap converts the orchestrator's transcript (from the agent's point
// of view) into the user simulator's point of view: the agent's assistant
// turns become "user" messages to the simulator, and the simulator's own
// prior user turns become "assistant" messages to itself. Tool turns are
// omitted — the simulator reasons only about what the human user would
// have seen.
func roleSwap(turns []transcript.Turn) []llmclient.Message {
	out := make([]llmclient.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case transcript.RoleUser:
			out = append(out, llmclient.Message{Role: llmclient.RoleAssistant, Content: t.Content})
		case transcript.RoleAssistant:
			out = append(out, llmclient.Message{Role: llmclient.RoleUser, Content: t.Content})
		}
	}
	return out
}
