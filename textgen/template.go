// Package textgen provides implementations of the core.TextGenerator
// capability. The default TemplateGenerator is a deterministic canned-phrase
// engine suitable for simulations and tests; the anthropic and openai
// subpackages adapt hosted models behind the same interface.
package textgen

import (
	"context"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/internal/util"
)

// Biases whose carriers push back during counter-position rounds. Everything
// else stays constructive.
var contrarianBiases = map[string]bool{
	"contrarian": true,
	"skeptical":  true,
	"dissenting": true,
}

// Options configures the TemplateGenerator.
type Options struct {
	// Rand drives phrasing variation. A fixed seed makes output deterministic.
	Rand core.Rand
}

// TemplateGenerator renders one of several canned phrasings per round type.
// The agreement-heavy late-round phrasings are what lets simulated sessions
// actually converge; a contrarian bias injects divergence vocabulary during
// counter-position rounds instead.
type TemplateGenerator struct {
	opts Options
}

var _ core.TextGenerator = (*TemplateGenerator)(nil)

// NewTemplateGenerator creates a generator with optional overrides.
func NewTemplateGenerator(optFns ...func(o *Options)) *TemplateGenerator {
	opts := Options{Rand: core.NewTimeRand()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TemplateGenerator{opts: opts}
}

var positionTemplates = []string{
	"Speaking as {{.Role}}, {{.Speaker}} opens with a {{.Bias}} reading of {{.Topic}}: I support grounding the discussion in what we can verify.",
	"{{.Speaker}} frames {{.Topic}} through a {{.Bias}} lens and supports starting from first principles.",
	"On {{.Topic}}, {{.Speaker}} takes a {{.Bias}} stance: I support a careful, staged treatment.",
}

var counterTemplates = []string{
	"{{.Speaker}} probes the previous position on {{.Topic}} but looks for common ground beneath it.",
	"From a {{.Bias}} angle, {{.Speaker}} offers a counter-reading of {{.Topic}} while keeping a shared frame in view.",
}

var contrarianCounterTemplates = []string{
	"{{.Speaker}} must disagree: the prior framing of {{.Topic}} hides a contradiction that cannot stand.",
	"I disagree with the premises on the table; {{.Speaker}} finds the argument flawed and rejects its core claim.",
}

var synthesisTemplates = []string{
	"{{.Speaker}} attempts a synthesis: let us integrate the shared threads on {{.Topic}} into common ground we can align on.",
	"Drawing the positions together, {{.Speaker}} proposes a synthesis of {{.Topic}} where the shared claims integrate and align.",
}

var summaryTemplates = []string{
	"Reflecting on the exchange, {{.Speaker}} notes the group converges on a shared reading of {{.Topic}}; a consensus is forming.",
	"{{.Speaker}} summarizes: the arguments align more than they differ, and a shared consensus view of {{.Topic}} is emerging.",
}

var voteTemplates = []string{
	"{{.Speaker}} votes to accept the shared consensus on {{.Topic}}: we agree and align on the synthesis.",
	"On the consensus vote, {{.Speaker}} accepts: the group should adopt the shared, integrated view of {{.Topic}} we agree on.",
}

// Generate renders a canned phrasing for the prompt's round type.
func (g *TemplateGenerator) Generate(_ context.Context, prompt core.Prompt) (string, error) {
	tmpl := g.pick(prompt)
	state := map[string]any{
		"Speaker": prompt.Speaker,
		"Topic":   prompt.Topic,
		"Role":    prompt.Role,
		"Bias":    prompt.Bias,
		"Round":   prompt.Round.String(),
	}
	return util.RenderTemplate(tmpl, state)
}

func (g *TemplateGenerator) pick(prompt core.Prompt) string {
	var pool []string
	switch prompt.Round {
	case core.RoundPosition:
		pool = positionTemplates
	case core.RoundCounterPosition:
		if contrarianBiases[prompt.Bias] {
			pool = contrarianCounterTemplates
		} else {
			pool = counterTemplates
		}
	case core.RoundSynthesis:
		pool = synthesisTemplates
	case core.RoundReflectiveSummary:
		pool = summaryTemplates
	default:
		pool = voteTemplates
	}
	return pool[g.opts.Rand.Intn(len(pool))]
}
