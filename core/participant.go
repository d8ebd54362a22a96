package core

import (
	"context"
	"fmt"
)

// Negotiator is the capability interface every negotiation participant
// exposes to the debate protocol. Exactly one implementation exists
// (Participant); the interface keeps the protocol free of structural
// assumptions about who is speaking.
type Negotiator interface {
	PresentArgument(ctx context.Context, topic string, window []Turn) (string, error)
	OfferRebuttal(ctx context.Context, topic string, window []Turn) (string, error)
	AttemptSynthesis(ctx context.Context, round RoundType, topic string, window []Turn) (string, error)
}

// Participant is an ephemeral negotiation replica: an entity-shaped value
// bound to exactly one base entity (ParentIDs == [base.ID]) plus the
// negotiation-only fields. Participants are composed by the replica manager
// factory, never persisted, and deregistered when the debate ends.
type Participant struct {
	Entity   *Entity
	Fragment KnowledgeFragment
	Bias     string
	Role     string
	Skills   []string

	gen TextGenerator
}

var _ Negotiator = (*Participant)(nil)

// NewParticipant composes a participant from its replica entity and
// negotiation fields. The generator may be nil; turn content then falls back
// to a canned line, which keeps sessions alive when a generator misbehaves.
func NewParticipant(replica *Entity, fragment KnowledgeFragment, bias, role string, skills []string, gen TextGenerator) *Participant {
	return &Participant{
		Entity:   replica,
		Fragment: fragment,
		Bias:     bias,
		Role:     role,
		Skills:   append([]string(nil), skills...),
		gen:      gen,
	}
}

// ID returns the replica entity id.
func (p *Participant) ID() string { return p.Entity.ID }

// Name returns the replica entity name.
func (p *Participant) Name() string { return p.Entity.Name }

// BaseID returns the id of the persistent entity this replica is bound to,
// or "" for unbound participants (should not happen outside tests).
func (p *Participant) BaseID() string {
	if len(p.Entity.ParentIDs) == 0 {
		return ""
	}
	return p.Entity.ParentIDs[0]
}

// SetRole replaces the participant role. Used by the trait-drift rules.
func (p *Participant) SetRole(role string) { p.Role = role }

// PresentArgument produces a Position turn.
func (p *Participant) PresentArgument(ctx context.Context, topic string, window []Turn) (string, error) {
	return p.speak(ctx, RoundPosition, topic, window)
}

// OfferRebuttal produces a Counter-Position turn.
func (p *Participant) OfferRebuttal(ctx context.Context, topic string, window []Turn) (string, error) {
	return p.speak(ctx, RoundCounterPosition, topic, window)
}

// AttemptSynthesis produces a Synthesis, Reflective Summary or Consensus
// Vote turn depending on the round.
func (p *Participant) AttemptSynthesis(ctx context.Context, round RoundType, topic string, window []Turn) (string, error) {
	return p.speak(ctx, round, topic, window)
}

// TakeTurn dispatches the round to the matching capability method.
func (p *Participant) TakeTurn(ctx context.Context, round RoundType, topic string, window []Turn) (string, error) {
	switch round {
	case RoundPosition:
		return p.PresentArgument(ctx, topic, window)
	case RoundCounterPosition:
		return p.OfferRebuttal(ctx, topic, window)
	default:
		return p.AttemptSynthesis(ctx, round, topic, window)
	}
}

// FallbackTurn is the canned content substituted when generation fails.
func (p *Participant) FallbackTurn(round RoundType, topic string) string {
	return fmt.Sprintf("%s withholds a full %s on %q and defers to the group.", p.Name(), round, topic)
}

func (p *Participant) speak(ctx context.Context, round RoundType, topic string, window []Turn) (string, error) {
	if p.gen == nil {
		return p.FallbackTurn(round, topic), nil
	}
	return p.gen.Generate(ctx, Prompt{
		Topic:   topic,
		Round:   round,
		Speaker: p.Name(),
		Role:    p.Role,
		Bias:    p.Bias,
		Emotion: p.Entity.Emotion,
		Window:  window,
	})
}
