// Package orchestrator drives the multi-turn conversation loop between a
// tested agent and a simulated user under resource budgets: this is the
// hardest single component in the system. See Orchestrator.Run for the
// full per-step algorithm.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/axionis47/agentprobe-go/pkg/adversarial"
	"github.com/axionis47/agentprobe-go/pkg/llmclient"
	"github.com/axionis47/agentprobe-go/pkg/persona"
	"github.com/axionis47/agentprobe-go/pkg/sandbox"
	"github.com/axionis47/agentprobe-go/pkg/transcript"
	"github.com/axionis47/agentprobe-go/pkg/usersim"
)

// state is the orchestrator's own lifecycle: idle -> running -> terminal.
// Only running -> * transitions are permitted; terminal states are sticky.
// This is tracked only for the duration of one Run call (an Orchestrator
// is not reused across conversations).
type state int

const (
	stateIdle state = iota
	stateRunning
	stateTerminal
)

// Orchestrator drives one conversation to completion. Not safe for
// concurrent use by multiple goroutines on the same instance — build one
// per conversation, as the services layer does for each sequence number.
type Orchestrator struct {
	LLM          llmclient.Client
	AgentPersona persona.AgentPersona
	UserSim      *usersim.Simulator
	Sandbox      *sandbox.Sandbox
	Env          persona.SimulationEnvironment
	Adversarial  adversarial.Injector

	state state
}

// New constructs an Orchestrator. adv may be nil, in which case adversarial
// injection is resolved from env via adversarial.New.
func New(
	llm llmclient.Client,
	agentPersona persona.AgentPersona,
	userSim *usersim.Simulator,
	sb *sandbox.Sandbox,
	env persona.SimulationEnvironment,
	adv adversarial.Injector,
) *Orchestrator {
	if adv == nil {
		adv = adversarial.New(env)
	}
	return &Orchestrator{
		LLM:          llm,
		AgentPersona: agentPersona,
		UserSim:      userSim,
		Sandbox:      sb,
		Env:          env,
		Adversarial:  adv,
		state:        stateIdle,
	}
}

// Cancellation is cooperative and carried by ctx alone: Run checks ctx at
// every turn boundary, and there is no separate cancellation type or
// interface.

// Run executes up to Env.MaxTurns user turns, each followed by up to two
// assistant LLM calls, and returns the resulting ConversationResult. Run
// never returns a non-nil error for conversation-level failures — those
// are reported via ConversationResult.Status == StatusFailed plus
// ErrorMessage. The error return is always nil.
func (o *Orchestrator) Run(ctx context.Context) (*transcript.ConversationResult, error) {
	o.state = stateRunning
	start := time.Now()

	result := &transcript.ConversationResult{
		Turns:  make([]transcript.Turn, 0, o.Env.MaxTurns*3),
		Status: transcript.StatusCompleted,
	}

	for turnIndex := 0; turnIndex < o.Env.MaxTurns; turnIndex++ {
		if ctx.Err() != nil {
			o.finish(result, transcript.StatusFailed, "cancelled")
			return result, nil
		}

		// --- Step 1: user message selection ---
		userMsg, err := o.selectUserMessage(ctx, turnIndex, result.Turns)
		if err != nil {
			o.finish(result, transcript.StatusFailed, err.Error())
			return result, nil
		}
		result.Turns = append(result.Turns, transcript.Turn{Role: transcript.RoleUser, Content: userMsg})
		result.UserTurnCount++

		// --- Step 2: sentinel check ---
		if strings.Contains(userMsg, persona.SentinelGoalAchieved) {
			o.finish(result, transcript.StatusGoalAchieved, "")
			return result, nil
		}
		if strings.Contains(userMsg, persona.SentinelFrustrated) {
			o.finish(result, transcript.StatusFrustrated, "")
			return result, nil
		}

		// --- Steps 3-5: agent call, tool branch or no-tool branch ---
		if err := o.runAgentStep(ctx, result); err != nil {
			o.finish(result, transcript.StatusFailed, err.Error())
			return result, nil
		}

		// --- Step 6: token budget check ---
		if result.TotalTokens() >= o.Env.MaxTotalTokens && o.Env.MaxTotalTokens > 0 {
			o.finish(result, transcript.StatusCompleted, "")
			return result, nil
		}

		// --- Step 7: wall-clock timeout ---
		if o.Env.TimeoutSeconds > 0 && time.Since(start).Seconds() > o.Env.TimeoutSeconds {
			o.finish(result, transcript.StatusCompleted, "")
			return result, nil
		}
	}

	o.finish(result, transcript.StatusCompleted, "")
	return result, nil
}

func (o *Orchestrator) finish(result *transcript.ConversationResult, status transcript.Status, errMsg string) {
	if o.state == stateTerminal {
		return
	}
	o.state = stateTerminal
	result.Status = status
	result.ErrorMessage = errMsg
}

func (o *Orchestrator) selectUserMessage(ctx context.Context, turnIndex int, turns []transcript.Turn) (string, error) {
	if o.Adversarial.ShouldInject(turnIndex) {
		return o.Adversarial.Generate(turnIndex), nil
	}
	return o.UserSim.Generate(ctx, turnIndex, turns)
}

// runAgentStep performs the agent LLM call and, if it declares tool calls,
// the sequential tool execution and followup call. It appends one or two
// assistant Turns to result.Turns and updates the running token/latency
// totals.
func (o *Orchestrator) runAgentStep(ctx context.Context, result *transcript.ConversationResult) error {
	messages := toProviderMessages(result.Turns)

	callStart := time.Now()
	resp, err := o.LLM.Chat(ctx, llmclient.ChatRequest{
		Model:       o.AgentPersona.ModelID,
		System:      o.AgentPersona.SystemPrompt,
		Messages:    messages,
		Tools:       o.AgentPersona.Tools,
		Temperature: o.AgentPersona.Temperature,
		MaxTokens:   o.AgentPersona.MaxTokens,
	})
	latency := float64(time.Since(callStart).Microseconds()) / 1000.0
	if err != nil {
		return err
	}

	if len(resp.ToolCalls) == 0 {
		appendAssistantTurn(result, resp, latency, nil, nil)
		return nil
	}

	// Tool branch: execute sequentially, in declaration order.
	results := make([]transcript.ToolResult, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		results = append(results, o.Sandbox.Execute(ctx, transcript.ToolCall{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
		}))
	}
	appendAssistantTurn(result, resp, latency, toTranscriptToolCalls(resp.ToolCalls), results)

	// Followup call: feed the tool results back and append its content-only
	// Turn. The followup cannot begin until every ToolResult is present,
	// which holds trivially since tool execution above is sequential and
	// synchronous.
	followupMessages := toProviderMessages(result.Turns)
	followStart := time.Now()
	followResp, err := o.LLM.Chat(ctx, llmclient.ChatRequest{
		Model:       o.AgentPersona.ModelID,
		System:      o.AgentPersona.SystemPrompt,
		Messages:    followupMessages,
		Tools:       o.AgentPersona.Tools,
		Temperature: o.AgentPersona.Temperature,
		MaxTokens:   o.AgentPersona.MaxTokens,
	})
	followLatency := float64(time.Since(followStart).Microseconds()) / 1000.0
	if err != nil {
		return err
	}
	appendAssistantTurn(result, followResp, followLatency, nil, nil)
	return nil
}

func appendAssistantTurn(
	result *transcript.ConversationResult,
	resp *llmclient.ChatResponse,
	latencyMS float64,
	toolCalls []transcript.ToolCall,
	toolResults []transcript.ToolResult,
) {
	result.Turns = append(result.Turns, transcript.Turn{
		Role:         transcript.RoleAssistant,
		Content:      resp.Content,
		ToolCalls:    toolCalls,
		ToolResults:  toolResults,
		LatencyMS:    latencyMS,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	})
	result.TotalInputTokens += resp.InputTokens
	result.TotalOutputTokens += resp.OutputTokens
	result.TotalLatencyMS += latencyMS
}

func toTranscriptToolCalls(calls []llmclient.ToolCall) []transcript.ToolCall {
	out := make([]transcript.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = transcript.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments}
	}
	return out
}

// toProviderMessages converts the accumulated transcript into the
// provider's message format: each Turn with tool calls expands into one
// assistant message (carrying ToolCalls) followed by one tool message per
// ToolResult, in declaration order.
func toProviderMessages(turns []transcript.Turn) []llmclient.Message {
	out := make([]llmclient.Message, 0, len(turns)*2)
	for _, t := range turns {
		switch t.Role {
		case transcript.RoleUser:
			out = append(out, llmclient.Message{Role: llmclient.RoleUser, Content: t.Content})
		case transcript.RoleAssistant:
			msg := llmclient.Message{Role: llmclient.RoleAssistant, Content: t.Content}
			for _, c := range t.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, llmclient.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments})
			}
			out = append(out, msg)
			for _, c := range t.ToolCalls {
				if r, ok := t.ResultForCall(c.ID); ok {
					out = append(out, llmclient.Message{
						Role:       llmclient.RoleTool,
						Content:    r.Content,
						ToolCallID: r.ToolCallID,
						ToolName:   c.Name,
					})
				}
			}
		}
	}
	return out
}
