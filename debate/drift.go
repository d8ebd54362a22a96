package debate

import "fmt"

// DriftRule changes a participant's role (and persona) mid-debate once the
// session's divergence intensity crosses the rule threshold. Rules fire at
// most once per participant because the role no longer matches afterwards.
type DriftRule struct {
	MinDivergence float64
	FromRole      string
	ToRole        string
}

// DefaultDriftRules nudge adversarial postures toward consensus-building as
// a debate heats up.
var DefaultDriftRules = []DriftRule{
	{MinDivergence: 1.2, FromRole: "analyst", ToRole: "consensus-builder"},
	{MinDivergence: 1.2, FromRole: "critic", ToRole: "facilitator"},
	{MinDivergence: 1.6, FromRole: "synthesizer", ToRole: "consensus-builder"},
}

// applyDrift mutates roles per the rule table and returns a description of
// each change for logging.
func applyDrift(n *Negotiation, divergence float64) []string {
	var changes []string
	for _, st := range n.session.Participants() {
		p := st.Participant
		for _, rule := range n.opts.DriftRules {
			if divergence >= rule.MinDivergence && p.Role == rule.FromRole {
				p.SetRole(rule.ToRole)
				p.Entity.Persona = fmt.Sprintf("%s steering toward common ground", rule.ToRole)
				changes = append(changes, fmt.Sprintf("%s: %s -> %s", p.Name(), rule.FromRole, rule.ToRole))
				break
			}
		}
	}
	return changes
}
