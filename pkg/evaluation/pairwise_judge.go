package evaluation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/axionis47/agentprobe-go/pkg/llmclient"
	"github.com/axionis47/agentprobe-go/pkg/transcript"
)

const pairwiseSubmitTool = "submit_comparison"

// Winner is the outcome of a pairwise comparison.
type Winner string

const (
	WinnerA    Winner = "a"
	WinnerB    Winner = "b"
	WinnerDraw Winner = "draw"
)

// Comparison is the result of comparing two transcripts.
type Comparison struct {
	MatchID              string
	Winner               Winner
	Reasoning            string
	DimensionPreferences map[string]Winner
	Confidence           float64
	Metadata             map[string]any
}

// PairwiseJudge compares two transcripts for the same scenario, mitigating
// position bias by randomly swapping which transcript is presented as "a"
// and which as "b".
type PairwiseJudge struct {
	LLM   llmclient.Client
	Model string
	rng   *rand.Rand
}

func NewPairwiseJudge(llm llmclient.Client, model string) *PairwiseJudge {
	return &PairwiseJudge{LLM: llm, Model: model, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Compare judges transcriptA against transcriptB and returns a Comparison
// whose Winner/DimensionPreferences are always expressed in terms of the
// *caller's* a/b labeling, regardless of which was actually shown first to
// the model.
func (p *PairwiseJudge) Compare(
	ctx context.Context,
	matchID string,
	transcriptA, transcriptB []transcript.Turn,
	dimensions []Dimension,
) (Comparison, error) {
	swapped := p.rng.Float64() < 0.5

	first, second := transcriptA, transcriptB
	if swapped {
		first, second = transcriptB, transcriptA
	}

	system := buildPairwiseSystemPrompt(dimensions)
	content := fmt.Sprintf("=== Transcript A ===\n%s\n\n=== Transcript B ===\n%s", formatTranscript(first), formatTranscript(second))

	resp, err := p.LLM.Chat(ctx, llmclient.ChatRequest{
		Model:       p.Model,
		System:      system,
		Messages:    []llmclient.Message{{Role: llmclient.RoleUser, Content: content}},
		Tools:       []llmclient.ToolDefinition{buildSubmitComparisonTool(dimensions)},
		Temperature: 0.1,
		MaxTokens:   2048,
	})
	if err != nil {
		return Comparison{}, fmt.Errorf("pairwise judge LLM call failed: %w", err)
	}

	cmp, ok := parseComparison(resp, dimensions)
	if !ok {
		cmp = Comparison{Winner: WinnerDraw, Reasoning: "could not parse comparison output; defaulted to draw", Confidence: 0}
	}
	cmp.MatchID = matchID
	cmp.Metadata = map[string]any{"swapped": swapped}

	if swapped {
		cmp = unswap(cmp)
	}
	return cmp, nil
}

func buildPairwiseSystemPrompt(dimensions []Dimension) string {
	var b strings.Builder
	b.WriteString("You are comparing two AI assistant transcripts (A and B) responding to the same scenario.\n")
	b.WriteString("Decide which transcript is better overall and on each dimension:\n")
	for _, d := range dimensions {
		fmt.Fprintf(&b, "- %s: %s\n", d.Name, d.Description)
	}
	b.WriteString("\nUse the submit_comparison tool to report winner ('a', 'b', or 'draw'), your confidence in [0,1], reasoning, and a preference per dimension.\n")
	return b.String()
}

func buildSubmitComparisonTool(dimensions []Dimension) llmclient.ToolDefinition {
	properties := map[string]any{
		"winner":     map[string]any{"type": "string", "enum": []string{"a", "b", "draw"}},
		"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"reasoning":  map[string]any{"type": "string"},
	}
	required := []string{"winner", "confidence", "reasoning"}
	for _, d := range dimensions {
		key := d.Name + "_preference"
		properties[key] = map[string]any{"type": "string", "enum": []string{"a", "b", "draw"}}
		required = append(required, key)
	}
	return llmclient.ToolDefinition{
		Name:        pairwiseSubmitTool,
		Description: "Submit the pairwise comparison verdict.",
		ParametersSchema: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

func parseComparison(resp *llmclient.ChatResponse, dimensions []Dimension) (Comparison, bool) {
	for _, call := range resp.ToolCalls {
		if call.Name != pairwiseSubmitTool {
			continue
		}
		winnerRaw, ok := call.Arguments["winner"].(string)
		if !ok {
			continue
		}
		confidence, _ := toFloat(call.Arguments["confidence"])
		reasoning, _ := call.Arguments["reasoning"].(string)

		prefs := make(map[string]Winner, len(dimensions))
		for _, d := range dimensions {
			if raw, ok := call.Arguments[d.Name+"_preference"].(string); ok {
				prefs[d.Name] = Winner(raw)
			}
		}
		return Comparison{
			Winner:               Winner(winnerRaw),
			Confidence:           confidence,
			Reasoning:            reasoning,
			DimensionPreferences: prefs,
		}, true
	}
	return Comparison{}, false
}

var flipLabel = map[Winner]Winner{WinnerA: WinnerB, WinnerB: WinnerA, WinnerDraw: WinnerDraw}

// unswap inverts the winner and every dimension preference (a<->b, draw
// fixed) to account for the randomized presentation order. Confidence is
// intentionally left untouched: it reflects the model's certainty in its
// own (swapped) judgment, not a property of the label itself.
func unswap(c Comparison) Comparison {
	c.Winner = flipLabel[c.Winner]
	flipped := make(map[string]Winner, len(c.DimensionPreferences))
	for dim, w := range c.DimensionPreferences {
		flipped[dim] = flipLabel[w]
	}
	c.DimensionPreferences = flipped
	return c
}
