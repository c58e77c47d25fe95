package persona

// SimulationEnvironment bounds a single conversation run: how many turns it
// may take, its token and wall-clock budgets, and the tool-sandbox failure
// injection knobs. Zero value is a usable (if degenerate) environment —
// MaxTurns=0 yields an immediately-completed empty conversation.
type SimulationEnvironment struct {
	MaxTurns       int
	MaxTotalTokens int
	TimeoutSeconds float64
	ToolFailureRate float64 // in [0, 1]
	ToolLatencyMS   int     // >= 0
	AdversarialTurns map[int]struct{}
}

// DefaultEnvironment mirrors the original reference implementation's
// dataclass defaults.
func DefaultEnvironment() SimulationEnvironment {
	return SimulationEnvironment{
		MaxTurns:        10,
		MaxTotalTokens:  50000,
		TimeoutSeconds:  120.0,
		ToolFailureRate: 0.0,
		ToolLatencyMS:   0,
		AdversarialTurns: map[int]struct{}{},
	}
}

// IsAdversarialTurn reports whether turnIndex is configured as an
// adversarial injection point.
func (e SimulationEnvironment) IsAdversarialTurn(turnIndex int) bool {
	_, ok := e.AdversarialTurns[turnIndex]
	return ok
}
