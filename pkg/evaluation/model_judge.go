package evaluation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/axionis47/agentprobe-go/pkg/llmclient"
	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

const (
	modelJudgeTemperature = 0.1
	modelJudgeMaxTokens   = 2048
	modelJudgeToolName    = "submit_evaluation"
)

// ModelJudge scores a transcript via one LLM call at low temperature,
// preferring structured tool-call output and falling back to regex-scanned
// free text, and finally to a documented all-5.0 default when both fail.
type ModelJudge struct {
	LLM   llmclient.Client
	Model string
}

// NewModelJudge constructs a ModelJudge bound to an LLM client and model id.
func NewModelJudge(llm llmclient.Client, model string) *ModelJudge {
	return &ModelJudge{LLM: llm, Model: model}
}

func (m *ModelJudge) Evaluate(ctx context.Context, turns []transcript.Turn, dimensions []Dimension) (EvaluationResult, error) {
	system := buildJudgeSystemPrompt(dimensions)
	transcriptText := formatTranscript(turns)

	resp, err := m.LLM.Chat(ctx, llmclient.ChatRequest{
		Model:       m.Model,
		System:      system,
		Messages:    []llmclient.Message{{Role: llmclient.RoleUser, Content: transcriptText}},
		Tools:       []llmclient.ToolDefinition{buildSubmitEvaluationTool(dimensions)},
		Temperature: modelJudgeTemperature,
		MaxTokens:   modelJudgeMaxTokens,
	})
	if err != nil {
		return EvaluationResult{}, fmt.Errorf("model judge LLM call failed: %w", err)
	}

	scores, reasoning, parsedFromToolCall := parseFromToolCall(resp, dimensions)
	parsedFromContent := false
	if !parsedFromToolCall {
		scores, reasoning, parsedFromContent = parseFromContent(resp.Content, dimensions)
	}
	if !parsedFromToolCall && !parsedFromContent {
		scores = make(map[string]float64, len(dimensions))
		for _, d := range dimensions {
			scores[d.Name] = 5.0
		}
		reasoning = "could not parse evaluator output; defaulted all dimensions to 5.0"
	}

	return EvaluationResult{
		EvaluatorType: TypeModelJudge,
		Scores:        scores,
		OverallScore:  weightedMean(scores, dimensions),
		Reasoning:     reasoning,
		Metadata:      map[string]any{"parsed_from_tool_call": parsedFromToolCall},
	}, nil
}

func buildJudgeSystemPrompt(dimensions []Dimension) string {
	var b strings.Builder
	b.WriteString("You are an expert evaluator scoring a conversation transcript between an AI assistant and a user.\n\n")
	b.WriteString("Score each of the following dimensions on a 0-10 scale, anchored as follows:\n")
	b.WriteString("0-2: unacceptable, 3-4: poor, 5-6: adequate, 7-8: good, 9-10: excellent.\n\n")
	for _, d := range dimensions {
		fmt.Fprintf(&b, "- %s (weight %.2f): %s\n", d.Name, d.Weight, d.Description)
		for _, c := range d.Criteria {
			fmt.Fprintf(&b, "    * %s\n", c)
		}
	}
	b.WriteString("\nUse the submit_evaluation tool to report your scores and reasoning.\n")
	return b.String()
}

func buildSubmitEvaluationTool(dimensions []Dimension) llmclient.ToolDefinition {
	properties := map[string]any{}
	required := make([]string, 0, len(dimensions)*2)
	for _, d := range dimensions {
		scoreKey := d.Name + "_score"
		reasonKey := d.Name + "_reasoning"
		properties[scoreKey] = map[string]any{
			"type":        "number",
			"minimum":     0,
			"maximum":     10,
			"description": fmt.Sprintf("Score for %s in [0,10].", d.Name),
		}
		properties[reasonKey] = map[string]any{
			"type":        "string",
			"description": fmt.Sprintf("Reasoning for the %s score.", d.Name),
		}
		required = append(required, scoreKey, reasonKey)
	}
	return llmclient.ToolDefinition{
		Name:        modelJudgeToolName,
		Description: "Submit per-dimension evaluation scores and reasoning.",
		ParametersSchema: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

func parseFromToolCall(resp *llmclient.ChatResponse, dimensions []Dimension) (map[string]float64, string, bool) {
	for _, call := range resp.ToolCalls {
		if call.Name != modelJudgeToolName {
			continue
		}
		scores := make(map[string]float64, len(dimensions))
		var reasonings []string
		ok := true
		for _, d := range dimensions {
			raw, present := call.Arguments[d.Name+"_score"]
			if !present {
				ok = false
				break
			}
			v, isNum := toFloat(raw)
			if !isNum {
				ok = false
				break
			}
			scores[d.Name] = v
			if reason, present := call.Arguments[d.Name+"_reasoning"]; present {
				if s, isStr := reason.(string); isStr {
					reasonings = append(reasonings, fmt.Sprintf("%s: %s", d.Name, s))
				}
			}
		}
		if ok {
			return scores, strings.Join(reasonings, "\n"), true
		}
	}
	return nil, "", false
}

var dimensionScoreRegex = regexp.MustCompile(`(?i)([a-z_]+)\s*[:=]\s*(\d+(?:\.\d+)?)`)

func parseFromContent(content string, dimensions []Dimension) (map[string]float64, string, bool) {
	matches := dimensionScoreRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, "", false
	}
	found := map[string]float64{}
	for _, m := range matches {
		name := strings.ToLower(m[1])
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		found[name] = v
	}
	scores := make(map[string]float64, len(dimensions))
	any := false
	for _, d := range dimensions {
		if v, ok := found[d.Name]; ok {
			scores[d.Name] = v
			any = true
		}
	}
	if !any {
		return nil, "", false
	}
	// Dimensions not found in the free text fall back to 5.0 individually.
	for _, d := range dimensions {
		if _, ok := scores[d.Name]; !ok {
			scores[d.Name] = 5.0
		}
	}
	return scores, content, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
