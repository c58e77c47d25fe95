// Package sandbox stands in for real tool execution. No tool call ever
// reaches a live system: every result is canned, latency-delayed, or
// failure-injected according to a SimulationEnvironment.
package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/axionis47/agentprobe-go/pkg/persona"
	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

// defaultResponses are the canned payloads returned for well-known tool
// names absent any caller-supplied override.
var defaultResponses = map[string]string{
	"search":      `{"results":[{"title":"Example result","snippet":"This is a simulated search result."}]}`,
	"get_weather": `{"temperature":18,"condition":"sunny","unit":"celsius"}`,
	"run_code":    `{"stdout":"ok\n","stderr":"","exit_code":0}`,
	"read_file":   `{"content":"(simulated file contents)"}`,
	"write_file":  `{"written":true,"bytes":42}`,
}

// Sandbox executes ToolCalls against canned/failure-injected responses.
// Not safe for concurrent use: Execute draws from the instance's own
// *rand.Rand (see New), which is not synchronized.
type Sandbox struct {
	env       persona.SimulationEnvironment
	responses map[string]string
	rng       *rand.Rand
	sleep     func(d time.Duration)
}

// New builds a Sandbox. custom overlays (and overrides) defaultResponses.
func New(env persona.SimulationEnvironment, custom map[string]string) *Sandbox {
	merged := make(map[string]string, len(defaultResponses)+len(custom))
	for k, v := range defaultResponses {
		merged[k] = v
	}
	for k, v := range custom {
		merged[k] = v
	}
	return &Sandbox{
		env:       env,
		responses: merged,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     time.Sleep,
	}
}

// Execute runs one ToolCall, applying latency and failure injection before
// resolving a response body.
func (s *Sandbox) Execute(ctx context.Context, call transcript.ToolCall) transcript.ToolResult {
	if s.env.ToolLatencyMS > 0 {
		select {
		case <-ctx.Done():
			return transcript.ToolResult{ToolCallID: call.ID, Content: ctx.Err().Error(), IsError: true}
		default:
			s.sleep(time.Duration(s.env.ToolLatencyMS) * time.Millisecond)
		}
	}

	if s.env.ToolFailureRate > 0 && s.rng.Float64() < s.env.ToolFailureRate {
		body, _ := json.Marshal(map[string]string{
			"error": fmt.Sprintf("simulated failure executing tool %q", call.Name),
		})
		return transcript.ToolResult{ToolCallID: call.ID, Content: string(body), IsError: true}
	}

	return transcript.ToolResult{ToolCallID: call.ID, Content: s.resolve(call), IsError: false}
}

// resolve looks up a canned response: exact match, else substring match
// against any registered key, else a default acknowledgment.
func (s *Sandbox) resolve(call transcript.ToolCall) string {
	if body, ok := s.responses[call.Name]; ok {
		return body
	}
	for key, body := range s.responses {
		if strings.Contains(call.Name, key) || strings.Contains(key, call.Name) {
			return body
		}
	}
	argsJSON, _ := json.Marshal(call.Arguments)
	body, _ := json.Marshal(map[string]string{
		"acknowledgment": fmt.Sprintf("executed %s with arguments %s", call.Name, argsJSON),
	})
	return string(body)
}
