// Package debate implements the fixed five-round negotiation protocol: a
// state machine advancing a session one round at a time, recomputing
// convergence/divergence scores, drifting participant roles, spawning a
// mediator under sustained divergence and classifying the outcome on
// conclusion. Turn content production is delegated entirely to the injected
// text-generation capability.
package debate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/internal/textutil"
	"github.com/dr3armsed/AiAlive-sub000/logging"
)

// Termination and outcome thresholds. First matching termination condition
// wins; the outcome label is classified from fixed thresholds over
// (convergence, divergence, entanglement links).
const (
	convergenceExit      = 0.85
	divergenceExitCeil   = 0.3
	minTurnsBeforeExit   = 2
	mediatorThreshold    = 2.0
	outcomeConsensusConv = 0.7
	outcomeConsensusDiv  = 0.5
	outcomeDivergentDiv  = 1.0
	entanglementOutcome  = 2
)

// Options configures a Negotiation.
type Options struct {
	// MaxTurnsPerParticipant bounds each participant's turn budget.
	MaxTurnsPerParticipant int
	// MaxTotalTurns bounds the whole session.
	MaxTotalTurns int
	// Window is the number of recent turns considered by scoring and handed
	// to generators.
	Window int
	// Rand drives participant ordering within a round (fairness, not
	// determinism in production; seed it for tests).
	Rand core.Rand
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// Generator produces mediator turns. Participants carry their own.
	Generator core.TextGenerator
	// DriftRules replace DefaultDriftRules when non-nil.
	DriftRules []DriftRule
	// EmotionDrift is the frustration bump applied to every participant on
	// a divergent round and the curiosity bump on a calm one.
	EmotionDrift float64
}

// Negotiation drives one session through the protocol. It is not safe for
// concurrent use; the pipeline is synchronous by design and a session has a
// single driver.
type Negotiation struct {
	opts            Options
	session         *core.Session
	rounds          int // completed rounds, including initiation
	scoredThrough   int // index into the log up to which divergence was accumulated
	mediatorSpawned bool
	log             logging.Logger
}

// New creates a negotiation over the topic with the given participants.
// At least two participants are required for a meaningful exchange.
func New(topic string, participants []*core.Participant, optFns ...func(o *Options)) (*Negotiation, error) {
	opts := Options{
		MaxTurnsPerParticipant: 5,
		MaxTotalTurns:          30,
		Window:                 10,
		Rand:                   core.NewTimeRand(),
		Logger:                 logging.NoOpLogger{},
		DriftRules:             DefaultDriftRules,
		EmotionDrift:           0.05,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if topic == "" {
		return nil, &core.ValidationError{Field: "topic", Reason: "empty"}
	}
	if len(participants) < 2 {
		return nil, &core.ValidationError{Field: "participants", Reason: "need at least 2"}
	}

	session := core.NewSession(topic, opts.MaxTurnsPerParticipant, opts.MaxTotalTurns)
	for _, p := range participants {
		if err := session.AddParticipant(p, false); err != nil {
			return nil, err
		}
	}
	return &Negotiation{opts: opts, session: session, log: opts.Logger}, nil
}

// Session exposes the underlying session for inspection and persistence.
func (n *Negotiation) Session() *core.Session { return n.session }

// Advance performs one round. The first call is the initiation round: every
// participant states a position before any scoring occurs. Subsequent calls
// recompute scores, check termination, apply drift and run the next round.
// The returned status is terminal once the session concludes; further calls
// are no-ops returning the same status.
func (n *Negotiation) Advance(ctx context.Context) (core.SessionStatus, error) {
	if st := n.session.Status(); st.Terminal() {
		return st, nil
	}

	if n.rounds == 0 {
		if err := n.runRound(ctx, core.RoundPosition); err != nil {
			return n.session.Status(), err
		}
		n.rounds = 1
		if err := n.session.SetStatus(core.SessionAwaitingTurns); err != nil {
			return n.session.Status(), err
		}
		return n.session.Status(), nil
	}

	n.rescore()
	if done, status := n.checkTermination(); done {
		return status, nil
	}

	conv, div := n.session.Scores()
	if changes := applyDrift(n, div); len(changes) > 0 {
		n.log.Info("trait drift applied", "session_id", n.session.ID, "changes", changes)
	}
	n.maybeSpawnMediator(div)

	round := core.RoundForTurn(n.rounds + 1)
	if err := n.runRound(ctx, round); err != nil {
		return n.session.Status(), err
	}
	n.rounds++
	n.log.Debug("round completed", "session_id", n.session.ID, "round", round.String(), "convergence", conv, "divergence", div)
	return n.session.Status(), nil
}

// Run advances the session until it reaches a terminal status. The loop is
// bounded so a misconfigured session can never spin forever.
func (n *Negotiation) Run(ctx context.Context) (core.SessionStatus, error) {
	bound := n.opts.MaxTotalTurns + len(n.session.ParticipantIDs()) + 5
	for i := 0; i < bound; i++ {
		status, err := n.Advance(ctx)
		if err != nil {
			return status, err
		}
		if status.Terminal() {
			return status, nil
		}
	}
	// budget exhaustion check runs every round, so this is unreachable with
	// sane options; conclude defensively rather than loop again
	_ = n.session.Conclude(core.SessionConcluded, n.classifyOutcome(), "round bound reached")
	return n.session.Status(), nil
}

// Cancel forcibly concludes the session with a reason tag. There are no
// suspended operations to unwind; the session simply stops advancing and is
// finalized with an outcome classified from the current scores.
func (n *Negotiation) Cancel(reason string) error {
	if n.session.Status().Terminal() {
		return nil
	}
	n.rescore()
	return n.session.Conclude(core.SessionConcluded, n.classifyOutcome(), reason)
}

// rescore recomputes convergence over the window and folds the turns taken
// since the previous scoring pass into the divergence accumulator.
func (n *Negotiation) rescore() {
	log := n.session.Log()
	fresh := log[n.scoredThrough:]
	n.scoredThrough = len(log)

	_, div := n.session.Scores()
	div, detected := updateDivergence(div, fresh)
	conv := convergenceScore(n.session.Window(n.opts.Window))
	n.session.SetScores(conv, div)

	n.driftEmotion(len(detected) > 0)
	n.entangle(fresh)
	if len(detected) > 0 {
		n.log.Debug("divergence detected", "session_id", n.session.ID, "keywords", detected, "intensity", div)
	}
}

// driftEmotion nudges participant emotion: friction builds frustration,
// calm rounds feed curiosity. Bounded by the entity clamp.
func (n *Negotiation) driftEmotion(divergent bool) {
	for _, st := range n.session.Participants() {
		if divergent {
			st.Participant.Entity.AdjustEmotion("frustration", n.opts.EmotionDrift)
		} else {
			st.Participant.Entity.AdjustEmotion("curiosity", n.opts.EmotionDrift/2)
		}
	}
}

// entangle links participants whose fresh turns share at least two rare
// keywords, feeding the Cognitive Entanglement outcome.
func (n *Negotiation) entangle(fresh []core.Turn) {
	type spoke struct {
		id   string
		keys map[string]struct{}
	}
	var speakers []spoke
	for _, t := range fresh {
		keys := map[string]struct{}{}
		for _, k := range textutil.Keywords(t.Content, 6, 8, ConvergenceVocabulary) {
			keys[k] = struct{}{}
		}
		speakers = append(speakers, spoke{id: t.EntityID, keys: keys})
	}
	for i := 0; i < len(speakers); i++ {
		for j := i + 1; j < len(speakers); j++ {
			if speakers[i].id == speakers[j].id {
				continue
			}
			common := 0
			for k := range speakers[i].keys {
				if _, ok := speakers[j].keys[k]; ok {
					common++
				}
			}
			if common >= 2 {
				n.session.Entangle(speakers[i].id, speakers[j].id)
			}
		}
	}
}

// checkTermination applies the termination conditions in precedence order
// and concludes the session on the first match.
func (n *Negotiation) checkTermination() (bool, core.SessionStatus) {
	conv, div := n.session.Scores()
	turn := n.session.CurrentTurn()

	switch {
	case turn > n.opts.MaxTotalTurns:
		_ = n.session.Conclude(core.SessionConcludedByMaxTurns, n.classifyOutcome(), "")
	case conv > convergenceExit && div < divergenceExitCeil && turn > minTurnsBeforeExit:
		_ = n.session.Conclude(core.SessionConcludedByConvergence, n.classifyOutcome(), "")
	case n.allBudgetsExhausted():
		_ = n.session.Conclude(core.SessionConcluded, n.classifyOutcome(), "")
	default:
		return false, n.session.Status()
	}

	status := n.session.Status()
	n.log.Info("negotiation concluded", "session_id", n.session.ID, "status", string(status), "outcome", n.session.Outcome(), "convergence", conv, "divergence", div)
	return true, status
}

func (n *Negotiation) allBudgetsExhausted() bool {
	for id := range n.session.Participants() {
		if n.session.TurnsTaken(id) < n.opts.MaxTurnsPerParticipant {
			return false
		}
	}
	return true
}

// classifyOutcome maps the final scores and entanglement links to one of the
// four outcome labels.
func (n *Negotiation) classifyOutcome() string {
	conv, div := n.session.Scores()
	links := n.session.EntanglementCount()
	switch {
	case conv > outcomeConsensusConv && div < outcomeConsensusDiv:
		return core.OutcomePseudoConsensus
	case links >= entanglementOutcome:
		return core.OutcomeEntanglement
	case div >= outcomeDivergentDiv:
		return core.OutcomeDivergent
	default:
		return core.OutcomeStalemate
	}
}

// maybeSpawnMediator adds a mediator participant once divergence intensity
// crosses the threshold. The mediator joins mid-session with a fresh budget.
func (n *Negotiation) maybeSpawnMediator(div float64) {
	if n.mediatorSpawned || div < mediatorThreshold {
		return
	}
	e := core.NewEntity("Mediator-"+uuid.NewString()[:8], []string{"harmonizing"}, map[string]float64{"calm": 0.9})
	e.Persona = "mediator steering the group toward synthesis"
	mediator := core.NewParticipant(e, core.KnowledgeFragment{Summary: "de-escalation heuristics"}, "holistic", "mediator", nil, n.opts.Generator)
	if err := n.session.AddParticipant(mediator, true); err != nil {
		n.log.Warn("mediator spawn failed", "session_id", n.session.ID, "error", err)
		return
	}
	n.mediatorSpawned = true
	n.log.Info("mediator spawned", "session_id", n.session.ID, "mediator_id", mediator.ID(), "divergence", div)
}

// runRound lets every non-exhausted participant take one turn of the given
// type in randomized order. A failed generation is substituted with the
// participant's fallback turn; it never aborts the session.
func (n *Negotiation) runRound(ctx context.Context, round core.RoundType) error {
	states := n.session.Participants()
	ids := n.session.ParticipantIDs()
	order := n.opts.Rand.Perm(len(ids))

	for _, idx := range order {
		id := ids[idx]
		st, ok := states[id]
		if !ok {
			continue
		}
		if n.session.TurnsTaken(id) >= n.opts.MaxTurnsPerParticipant {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("negotiation interrupted: %w", err)
		}

		p := st.Participant
		window := n.session.Window(n.opts.Window)
		content, err := p.TakeTurn(ctx, round, n.session.Topic, window)
		if err != nil || content == "" {
			n.log.Warn("turn generation failed, substituting fallback", "session_id", n.session.ID, "speaker", p.Name(), "error", err)
			content = p.FallbackTurn(round, n.session.Topic)
		}
		if _, err := n.session.AppendTurn(id, round, content); err != nil {
			return err
		}
	}
	return nil
}
