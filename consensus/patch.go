package consensus

import "fmt"

// patchCatalog maps detected themes to candidate patch directives. Patches
// are conceptual upgrades distributed alongside validated knowledge, not
// code changes.
var patchCatalog = map[string][]string{
	"alignment": {
		"Adopt the shared vocabulary around %q as the default framing for future sessions.",
		"Treat points of agreement on %q as settled premises unless new evidence surfaces.",
	},
	"integration": {
		"Fold the synthesized view of %q into the opening position of future debates.",
		"Prefer synthesis turns early when %q resurfaces as a topic.",
	},
	"inquiry": {
		"Require supporting evidence before accepting claims about %q.",
		"Open future sessions on %q by restating first principles.",
	},
	"memory": {
		"Seed future participants with the retained fragments about %q.",
	},
	"conflict": {
		"Route future disagreement on %q through a mediator before round three.",
		"Flag unresolved objections about %q for dedicated re-debate.",
	},
}

// generatePatch selects one directive for one detected theme. Both choices
// go through the engine's Rand so a seeded engine produces a stable patch.
// No themes means no patch.
func (e *Engine) generatePatch(themes []string, topic string) string {
	if len(themes) == 0 {
		return ""
	}
	theme := themes[e.opts.Rand.Intn(len(themes))]
	candidates := patchCatalog[theme]
	if len(candidates) == 0 {
		return ""
	}
	tmpl := candidates[e.opts.Rand.Intn(len(candidates))]
	return fmt.Sprintf(tmpl, topic)
}
