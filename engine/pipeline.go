package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/dr3armsed/AiAlive-sub000/consensus"
	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/debate"
	"github.com/dr3armsed/AiAlive-sub000/lineage"
	"github.com/dr3armsed/AiAlive-sub000/logging"
	"github.com/dr3armsed/AiAlive-sub000/replica"
)

// Options configures an Engine.
type Options struct {
	// Directory is the shared entity registry. Required.
	Directory core.Directory
	// Knowledge persists consensus output and feeds replica fragments.
	Knowledge core.KnowledgeStore
	// Generator produces turn content for every spawned participant and the
	// mediator. May be nil; participants then speak fallback lines.
	Generator core.TextGenerator
	// Rand drives every random decision in the pipeline. Seed for
	// deterministic runs.
	Rand core.Rand
	// Logger defaults to NoOpLogger.
	Logger logging.Logger

	// ReplicasPerBase is how many replicas each base entity delegates into a
	// negotiation.
	ReplicasPerBase int
	// Roles overrides the default round-robin role pool when non-empty.
	Roles []string
	// BiasVocabulary overrides the replica manager's bias pool when non-empty.
	BiasVocabulary []string
	// MaxTurnsPerParticipant, MaxTotalTurns and Window pass through to the
	// debate protocol; zero values keep the protocol defaults.
	MaxTurnsPerParticipant int
	MaxTotalTurns          int
	Window                 int
	// MaxGenerationDepth caps offspring generation depth; zero keeps the
	// generator default.
	MaxGenerationDepth int
	// ConsensusThreshold is the initial validation threshold; zero keeps the
	// consensus default.
	ConsensusThreshold float64
}

// CycleResult reports one full pipeline cycle. Refusals and insufficient
// participation are structured outcomes, not errors.
type CycleResult struct {
	// Session is the concluded negotiation, nil when no debate ran.
	Session *core.Session
	// Status is the session's terminal status when a debate ran.
	Status core.SessionStatus
	// Refused lists base entity ids whose spawn was refused for load.
	Refused []string
	// Reason is set when the cycle stopped before a debate could run.
	Reason string
	// Consensus is the evaluation of the concluded session.
	Consensus consensus.Result
	// Offspring is set when the consensus validated and generation ran.
	Offspring *lineage.Result
}

// Engine wires the pipeline components together and drives full cycles:
// spawn replicas, run the debate, evaluate consensus, generate offspring.
type Engine struct {
	opts      Options
	replicas  *replica.Manager
	consensus *consensus.Engine
	offspring *lineage.Generator
	sessions  *SessionStore
	log       logging.Logger

	mu     sync.Mutex
	active map[string]*debate.Negotiation
	cycle  int
}

// New constructs an Engine. The directory is the one required collaborator;
// everything else has a working default.
func New(dir core.Directory, optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Directory:       dir,
		Rand:            core.NewTimeRand(),
		Logger:          logging.NoOpLogger{},
		ReplicasPerBase: 3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Directory == nil {
		return nil, &core.ValidationError{Field: "directory", Reason: "required"}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.ReplicasPerBase < 1 {
		opts.ReplicasPerBase = 1
	}

	e := &Engine{
		opts:     opts,
		sessions: NewSessionStore(),
		log:      opts.Logger,
		active:   map[string]*debate.Negotiation{},
	}
	e.replicas = replica.NewManager(func(o *replica.Options) {
		o.Directory = opts.Directory
		o.Knowledge = opts.Knowledge
		o.Generator = opts.Generator
		o.Rand = opts.Rand
		o.Logger = opts.Logger
		if len(opts.BiasVocabulary) > 0 {
			o.BiasVocabulary = opts.BiasVocabulary
		}
	})
	e.consensus = consensus.NewEngine(func(o *consensus.Options) {
		o.Knowledge = opts.Knowledge
		o.Rand = opts.Rand
		o.Logger = opts.Logger
		if opts.ConsensusThreshold > 0 {
			o.Threshold = opts.ConsensusThreshold
		}
	})
	e.offspring = lineage.NewGenerator(opts.Directory, func(o *lineage.GeneratorOptions) {
		o.Rand = opts.Rand
		o.Logger = opts.Logger
		if opts.MaxGenerationDepth > 0 {
			o.MaxGenerationDepth = opts.MaxGenerationDepth
		}
	})
	return e, nil
}

// Sessions exposes the store of concluded negotiations.
func (e *Engine) Sessions() *SessionStore { return e.sessions }

// ConsensusThreshold returns the current self-tuned validation threshold.
func (e *Engine) ConsensusThreshold() float64 { return e.consensus.Threshold() }

// Negotiate runs one full pipeline cycle on the topic: each base entity
// delegates replicas, the replicas debate to conclusion, the log is
// evaluated for consensus and a validated consensus yields an offspring.
// Replicas are decommissioned and the session stored regardless of outcome.
func (e *Engine) Negotiate(ctx context.Context, topic string, bases ...*core.Entity) (CycleResult, error) {
	if topic == "" {
		return CycleResult{}, &core.ValidationError{Field: "topic", Reason: "empty"}
	}
	if len(bases) == 0 {
		return CycleResult{}, &core.ValidationError{Field: "bases", Reason: "need at least one base entity"}
	}

	var result CycleResult
	var participants []*core.Participant
	for _, base := range bases {
		spawned, err := e.replicas.Spawn(base, e.opts.ReplicasPerBase, topic, e.opts.Roles)
		if err != nil {
			return CycleResult{}, err
		}
		if spawned.Refused {
			result.Refused = append(result.Refused, base.ID)
			continue
		}
		participants = append(participants, spawned.Replicas...)
	}
	if len(participants) < 2 {
		e.decommission(participants)
		result.Reason = "fewer than two participants available"
		e.log.Warn("negotiation skipped", "topic", topic, "participants", len(participants), "refused", len(result.Refused))
		return result, nil
	}

	neg, err := debate.New(topic, participants, func(o *debate.Options) {
		o.Rand = e.opts.Rand
		o.Logger = e.opts.Logger
		o.Generator = e.opts.Generator
		if e.opts.MaxTurnsPerParticipant > 0 {
			o.MaxTurnsPerParticipant = e.opts.MaxTurnsPerParticipant
		}
		if e.opts.MaxTotalTurns > 0 {
			o.MaxTotalTurns = e.opts.MaxTotalTurns
		}
		if e.opts.Window > 0 {
			o.Window = e.opts.Window
		}
	})
	if err != nil {
		e.decommission(participants)
		return CycleResult{}, err
	}

	session := neg.Session()
	e.trackNegotiation(session.ID, neg)
	status, runErr := neg.Run(ctx)
	e.untrackNegotiation(session.ID)
	e.decommission(participants)
	e.sessions.Put(session)
	e.bumpCycle()
	if runErr != nil {
		return CycleResult{Session: session, Status: status}, runErr
	}

	result.Session = session
	result.Status = status
	result.Consensus, err = e.consensus.Evaluate(session)
	if err != nil {
		return result, err
	}
	if result.Consensus.Status != consensus.StatusValidated {
		return result, nil
	}

	offspring, err := e.offspring.Generate(result.Consensus)
	if err != nil {
		return result, err
	}
	result.Offspring = &offspring
	return result, nil
}

// Cancel forcibly concludes a running negotiation with a reason tag. The
// session finalizes immediately; the driving Run loop observes the terminal
// status on its next advance. Unknown ids return a NotFoundError.
func (e *Engine) Cancel(sessionID, reason string) error {
	e.mu.Lock()
	neg, ok := e.active[sessionID]
	e.mu.Unlock()
	if !ok {
		return &core.NotFoundError{Kind: "session", ID: sessionID}
	}
	return neg.Cancel(reason)
}

// MaintainPopulation is the periodic population-control pass: when more than
// maxActive entities are active, the oldest surplus entities are merged into
// one consolidated entity. Returns the merged entity, or nil when the
// population is already within bounds.
func (e *Engine) MaintainPopulation(maxActive int) (*core.Entity, error) {
	if maxActive < 1 {
		return nil, &core.ValidationError{Field: "max_active", Reason: "must be positive"}
	}
	population := e.opts.Directory.List(core.StatusActive)
	if len(population) <= maxActive {
		return nil, nil
	}

	sortByAge(population)
	surplus := population[:len(population)-maxActive+1]

	merger := lineage.NewMerger(e.opts.Directory, func(o *lineage.MergeOptions) {
		o.Rand = e.opts.Rand
		o.Logger = e.opts.Logger
		o.Cycle = e.currentCycle()
	})
	merged, err := merger.Merge(surplus, 1)
	if err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return nil, nil
	}
	return merged[0], nil
}

func (e *Engine) decommission(participants []*core.Participant) {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID()
	}
	e.replicas.Decommission(ids)
}

func (e *Engine) trackNegotiation(id string, neg *debate.Negotiation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active[id] = neg
}

func (e *Engine) untrackNegotiation(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, id)
}

func (e *Engine) bumpCycle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cycle++
}

func (e *Engine) currentCycle() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cycle
}

func sortByAge(entities []*core.Entity) {
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Created.Before(entities[j].Created)
	})
}
