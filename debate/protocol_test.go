package debate

import (
	"context"
	"testing"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/textgen"
)

// staticGenerator returns the same content for every prompt.
type staticGenerator struct{ content string }

func (g staticGenerator) Generate(context.Context, core.Prompt) (string, error) {
	return g.content, nil
}

// failingGenerator always errors, forcing fallback turns.
type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, core.Prompt) (string, error) {
	return "", context.Canceled
}

func newParticipant(name, role, bias string, gen core.TextGenerator) *core.Participant {
	base := core.NewEntity(name+"-base", []string{"curious"}, nil)
	replica := core.NewEntity(name, []string{"curious"}, map[string]float64{"curiosity": 0.5})
	replica.ParentIDs = []string{base.ID}
	return core.NewParticipant(replica, core.KnowledgeFragment{Summary: "seed"}, bias, role, nil, gen)
}

func seededOpts(seed int64) func(o *Options) {
	return func(o *Options) { o.Rand = core.NewRand(seed) }
}

func TestNegotiation_RequiresTwoParticipants(t *testing.T) {
	_, err := New("topic", []*core.Participant{newParticipant("solo", "analyst", "pragmatic", nil)})
	if err == nil {
		t.Fatal("expected validation error for single participant")
	}
}

func TestNegotiation_InitiationBeforeScoring(t *testing.T) {
	gen := staticGenerator{content: "neutral opening"}
	n, err := New("topic", []*core.Participant{
		newParticipant("a", "analyst", "pragmatic", gen),
		newParticipant("b", "critic", "holistic", gen),
	}, seededOpts(1))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	status, err := n.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if status != core.SessionAwaitingTurns {
		t.Fatalf("expected awaiting_turns after initiation, got %s", status)
	}
	log := n.Session().Log()
	if len(log) != 2 {
		t.Fatalf("expected one position turn per participant, got %d", len(log))
	}
	for _, turn := range log {
		if turn.Round != core.RoundPosition {
			t.Errorf("initiation turn has round %s", turn.Round)
		}
	}
	conv, div := n.Session().Scores()
	if conv != 0 || div != 0 {
		t.Errorf("no scoring should happen during initiation: conv=%f div=%f", conv, div)
	}
}

func TestNegotiation_TerminatesWithinBound(t *testing.T) {
	gen := staticGenerator{content: "a perfectly neutral remark"}
	participants := []*core.Participant{
		newParticipant("a", "analyst", "pragmatic", gen),
		newParticipant("b", "critic", "holistic", gen),
		newParticipant("c", "synthesizer", "cautious", gen),
	}
	n, err := New("topic", participants, seededOpts(2), func(o *Options) {
		o.MaxTurnsPerParticipant = 3
		o.MaxTotalTurns = 50
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	prevTurn := 0
	for calls := 0; calls < 20; calls++ {
		status, err := n.Advance(context.Background())
		if err != nil {
			t.Fatalf("advance %d: %v", calls, err)
		}
		cur := n.Session().CurrentTurn()
		if cur < prevTurn {
			t.Fatalf("turn counter regressed: %d -> %d", prevTurn, cur)
		}
		prevTurn = cur
		conv, div := n.Session().Scores()
		if conv < 0 || conv > 1 {
			t.Fatalf("convergence out of bounds: %f", conv)
		}
		if div < 0 {
			t.Fatalf("divergence below zero: %f", div)
		}
		if status.Terminal() {
			if status != core.SessionConcluded {
				t.Fatalf("neutral content should exhaust budgets, got %s", status)
			}
			if n.Session().Outcome() == "" {
				t.Fatal("terminal session must carry an outcome label")
			}
			return
		}
	}
	t.Fatal("session never reached a terminal status")
}

func TestNegotiation_ConcludesByMaxTurns(t *testing.T) {
	gen := staticGenerator{content: "more neutral words"}
	n, err := New("topic", []*core.Participant{
		newParticipant("a", "analyst", "pragmatic", gen),
		newParticipant("b", "critic", "holistic", gen),
	}, seededOpts(3), func(o *Options) {
		o.MaxTurnsPerParticipant = 10
		o.MaxTotalTurns = 3
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	status, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if status != core.SessionConcludedByMaxTurns {
		t.Fatalf("expected concluded_by_max_turns, got %s", status)
	}
}

func TestNegotiation_ConvergentScenario(t *testing.T) {
	gen := textgen.NewTemplateGenerator(func(o *textgen.Options) { o.Rand = core.NewRand(11) })
	participants := []*core.Participant{
		newParticipant("a", "analyst", "pragmatic", gen),
		newParticipant("b", "synthesizer", "holistic", gen),
		newParticipant("c", "facilitator", "optimistic", gen),
	}
	n, err := New("emergent memory", participants, seededOpts(11))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	status, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !status.Terminal() {
		t.Fatalf("expected terminal status, got %s", status)
	}
	conv, _ := n.Session().Scores()
	if conv < 0.70 {
		t.Fatalf("agreeable negotiation should converge: score %f", conv)
	}
	if n.Session().Outcome() != core.OutcomePseudoConsensus {
		t.Errorf("expected pseudo-consensus outcome, got %q", n.Session().Outcome())
	}
}

func TestNegotiation_DivergenceSpawnsMediatorAndDriftsRoles(t *testing.T) {
	gen := staticGenerator{content: "I disagree entirely; the premise is a contradiction and I reject it"}
	participants := []*core.Participant{
		newParticipant("a", "analyst", "contrarian", gen),
		newParticipant("b", "critic", "skeptical", gen),
	}
	n, err := New("topic", participants, seededOpts(4), func(o *Options) {
		o.Generator = gen
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	status, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !status.Terminal() {
		t.Fatalf("expected terminal status, got %s", status)
	}
	if got := len(n.Session().ParticipantIDs()); got != 3 {
		t.Fatalf("expected a mediator to join (3 participants), got %d", got)
	}
	_, div := n.Session().Scores()
	if div <= 0 {
		t.Error("sustained contradiction should leave divergence intensity positive")
	}
	drifted := 0
	for _, st := range n.Session().Participants() {
		switch st.Participant.Role {
		case "consensus-builder", "facilitator", "mediator":
			drifted++
		}
	}
	if drifted < 2 {
		t.Errorf("expected drift rules to fire, roles: %v", rolesOf(n))
	}
}

func TestNegotiation_CancelFinalizes(t *testing.T) {
	gen := staticGenerator{content: "neutral"}
	n, err := New("topic", []*core.Participant{
		newParticipant("a", "analyst", "pragmatic", gen),
		newParticipant("b", "critic", "holistic", gen),
	}, seededOpts(5))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := n.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := n.Cancel("operator abort"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !n.Session().Status().Terminal() {
		t.Fatal("cancel must conclude the session")
	}
	if n.Session().CancelReason() != "operator abort" {
		t.Errorf("reason tag lost: %q", n.Session().CancelReason())
	}
	// advancing a concluded session is a stable no-op
	status, err := n.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance after cancel: %v", err)
	}
	if status != n.Session().Status() {
		t.Error("status changed after conclusion")
	}
}

func TestNegotiation_FallbackOnGeneratorFailure(t *testing.T) {
	participants := []*core.Participant{
		newParticipant("a", "analyst", "pragmatic", failingGenerator{}),
		newParticipant("b", "critic", "holistic", failingGenerator{}),
	}
	n, err := New("topic", participants, seededOpts(6))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := n.Advance(context.Background()); err != nil {
		t.Fatalf("advance: %v", err)
	}
	for _, turn := range n.Session().Log() {
		if turn.Content == "" {
			t.Fatal("failed generation must be substituted, not empty")
		}
	}
}

func rolesOf(n *Negotiation) []string {
	var roles []string
	for _, st := range n.Session().Participants() {
		roles = append(roles, st.Participant.Role)
	}
	return roles
}
