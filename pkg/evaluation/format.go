package evaluation

import (
	"fmt"
	"strings"

	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

// formatTranscript renders a turn sequence as plain text suitable for
// inclusion in an LLM judge prompt: one block per turn, tool calls and their
// results inlined under the assistant turn that issued them.
func formatTranscript(turns []transcript.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i, strings.ToUpper(string(t.Role)), t.Content)
		for _, call := range t.ToolCalls {
			fmt.Fprintf(&b, "    tool_call %s(%v)\n", call.Name, call.Arguments)
			if result, ok := t.ResultForCall(call.ID); ok {
				status := "ok"
				if result.IsError {
					status = "error"
				}
				fmt.Fprintf(&b, "    tool_result[%s]: %s\n", status, result.Content)
			}
		}
	}
	return b.String()
}
