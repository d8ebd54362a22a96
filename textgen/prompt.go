package textgen

import (
	"fmt"
	"strings"

	"github.com/dr3armsed/AiAlive-sub000/core"
)

// SystemInstruction renders the speaker framing shared by the hosted-model
// adapters: who is speaking, in what role, with what bias.
func SystemInstruction(prompt core.Prompt) string {
	return fmt.Sprintf(
		"You are %s, a negotiation participant with role %q and a %s bias. "+
			"Produce exactly one short %s turn for a structured multi-party negotiation. "+
			"Respond with the turn content only.",
		prompt.Speaker, prompt.Role, prompt.Bias, prompt.Round,
	)
}

// UserMessage renders the topic plus a bounded transcript of recent turns.
func UserMessage(prompt core.Prompt) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", prompt.Topic)
	if len(prompt.Window) > 0 {
		sb.WriteString("Recent turns:\n")
		for _, t := range prompt.Window {
			fmt.Fprintf(&sb, "[%s] %s\n", t.Round, t.Content)
		}
	}
	fmt.Fprintf(&sb, "Your %s:", prompt.Round)
	return sb.String()
}
