package core

import "context"

// Prompt carries everything a text generator may condition on for one turn:
// the negotiation topic, the round semantics, the speaker's bias/role/emotion
// and a bounded window of recent turns. Generators are free to ignore any of
// it; the debate protocol assumes nothing beyond "returns a string".
type Prompt struct {
	Topic   string
	Round   RoundType
	Speaker string
	Role    string
	Bias    string
	Emotion map[string]float64
	Window  []Turn
}

// TextGenerator produces the content of a single negotiation turn. It is a
// pluggable capability: the deterministic template engine in package textgen
// and the LLM-backed adapters in textgen/anthropic and textgen/openai both
// satisfy it. Implementations should respect context cancellation.
type TextGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}
