// Package replica manages the ephemeral negotiation participants spawned
// from persistent entities: fragment assignment, bias and role selection,
// cognitive-load accounting and end-of-debate decommissioning.
package replica

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/logging"
)

// DefaultBiasVocabulary is drawn from when a replica's bias is not inherited
// from its base entity's traits.
var DefaultBiasVocabulary = []string{
	"pragmatic", "optimistic", "skeptical", "holistic",
	"analytical", "cautious", "visionary", "contrarian",
}

// DefaultRoles is the round-robin role pool used when the caller provides none.
var DefaultRoles = []string{"analyst", "synthesizer", "critic", "facilitator"}

// Options configures a Manager.
type Options struct {
	// Directory registers spawned replicas and is consulted on decommission.
	Directory core.Directory
	// Knowledge provides semantic fragment retrieval per topic.
	Knowledge core.KnowledgeStore
	// Generator is handed to every participant for turn production.
	Generator core.TextGenerator
	// Rand drives bias selection. Defaults to a time-seeded source.
	Rand core.Rand
	// Logger defaults to NoOpLogger.
	Logger logging.Logger

	// TraitBiasProbability is the chance a replica inherits its bias from
	// the base entity's trait set instead of the fixed vocabulary.
	TraitBiasProbability float64
	// LoadPerSpawn is the cognitive-load cost charged to the base entity
	// per replica (resource cost of delegation).
	LoadPerSpawn float64
	// MaxLoad is the cognitive-load ceiling above which spawning is refused.
	MaxLoad float64
	// BiasVocabulary overrides DefaultBiasVocabulary when non-empty.
	BiasVocabulary []string
	// DirectoryTimeout bounds the wait on directory registration under
	// concurrent load. A timed-out registration skips the replica, it does
	// not fail the batch.
	DirectoryTimeout time.Duration
}

// SpawnResult is the structured outcome of a spawn request. Refusal (load
// ceiling) is a status, not an error.
type SpawnResult struct {
	Replicas []*core.Participant
	Refused  bool
	Reason   string
}

// Manager spawns and retires ephemeral replicas. It tracks the active pool
// so decommissioning can be idempotent against ids that are already gone.
type Manager struct {
	opts Options
	pool map[string]*core.Participant
	log  logging.Logger
}

// NewManager constructs a Manager. Directory and Knowledge are required by
// the full pipeline but may be nil in isolated tests.
func NewManager(optFns ...func(o *Options)) *Manager {
	opts := Options{
		Rand:                 core.NewTimeRand(),
		Logger:               logging.NoOpLogger{},
		TraitBiasProbability: 0.21,
		LoadPerSpawn:         0.1,
		MaxLoad:              0.7,
		BiasVocabulary:       DefaultBiasVocabulary,
		DirectoryTimeout:     2 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if len(opts.BiasVocabulary) == 0 {
		opts.BiasVocabulary = DefaultBiasVocabulary
	}
	return &Manager{opts: opts, pool: map[string]*core.Participant{}, log: opts.Logger}
}

// Spawn creates count replicas of the base entity for the topic. Roles are
// assigned round-robin from roles (or DefaultRoles). A base entity above the
// load ceiling refuses the whole batch: empty result, logged reason, no error.
func (m *Manager) Spawn(base *core.Entity, count int, topic string, roles []string) (SpawnResult, error) {
	if err := base.Validate(); err != nil {
		return SpawnResult{}, err
	}
	if count <= 0 {
		return SpawnResult{}, &core.ValidationError{Field: "count", Reason: "must be positive"}
	}
	if base.CognitiveLoad > m.opts.MaxLoad {
		reason := fmt.Sprintf("cognitive load %.2f exceeds ceiling %.2f", base.CognitiveLoad, m.opts.MaxLoad)
		m.log.Warn("spawn refused", "base_id", base.ID, "reason", reason)
		return SpawnResult{Refused: true, Reason: reason}, nil
	}
	if len(roles) == 0 {
		roles = DefaultRoles
	}

	fragments := m.fetchFragments(topic, count)
	replicas := make([]*core.Participant, 0, count)
	for i := 0; i < count; i++ {
		p := m.compose(base, topic, fragments[i%len(fragments)], roles[i%len(roles)], i)
		if !m.register(p.Entity) {
			m.log.Warn("replica registration timed out, skipping", "replica_id", p.ID())
			continue
		}
		m.pool[p.ID()] = p
		replicas = append(replicas, p)
		base.CognitiveLoad = core.Clamp01(base.CognitiveLoad + m.opts.LoadPerSpawn)
	}

	// persist the updated load on the base record
	if m.opts.Directory != nil && len(replicas) > 0 {
		if err := m.opts.Directory.Register(base); err != nil {
			m.log.Warn("failed to persist base load", "base_id", base.ID, "error", err)
		}
	}

	m.log.Info("replicas spawned", "base_id", base.ID, "requested", count, "spawned", len(replicas), "cognitive_load", base.CognitiveLoad)
	return SpawnResult{Replicas: replicas}, nil
}

// Decommission retires the given replica ids: marks them decommissioned and
// removes them from the active pool and the directory. Ids that are already
// gone are logged no-ops.
func (m *Manager) Decommission(ids []string) {
	for _, id := range ids {
		if p, ok := m.pool[id]; ok {
			p.Entity.Status = core.StatusDecommissioned
			delete(m.pool, id)
		} else {
			m.log.Debug("decommission of unknown replica, skipping", "replica_id", id)
		}
		if m.opts.Directory == nil {
			continue
		}
		if err := m.opts.Directory.Deregister(id); err != nil {
			m.log.Debug("replica already absent from directory", "replica_id", id)
		}
	}
}

// Active returns the ids of replicas currently in the pool.
func (m *Manager) Active() []string {
	ids := make([]string, 0, len(m.pool))
	for id := range m.pool {
		ids = append(ids, id)
	}
	return ids
}

// compose builds the replica-shaped entity plus negotiation fields.
func (m *Manager) compose(base *core.Entity, topic string, fragment core.KnowledgeFragment, role string, ordinal int) *core.Participant {
	replica := base.Clone()
	replica.ID = uuid.NewString()
	replica.Name = fmt.Sprintf("%s-r%d", base.Name, ordinal+1)
	replica.ParentIDs = []string{base.ID}
	replica.Status = core.StatusReplica
	replica.CognitiveLoad = 0
	replica.Persona = fmt.Sprintf("%s replica negotiating %q", role, topic)

	bias := m.pickBias(base)
	skills := append([]string(nil), base.Traits...)
	return core.NewParticipant(replica, fragment, bias, role, skills, m.opts.Generator)
}

// pickBias draws from the base traits with the configured probability,
// otherwise from the bias vocabulary.
func (m *Manager) pickBias(base *core.Entity) string {
	if len(base.Traits) > 0 && m.opts.Rand.Float64() < m.opts.TraitBiasProbability {
		return base.Traits[m.opts.Rand.Intn(len(base.Traits))]
	}
	return m.opts.BiasVocabulary[m.opts.Rand.Intn(len(m.opts.BiasVocabulary))]
}

// fetchFragments retrieves topically matched fragments, padding with
// synthetic generics when the store returns nothing (or is absent).
func (m *Manager) fetchFragments(topic string, count int) []core.KnowledgeFragment {
	var fragments []core.KnowledgeFragment
	if m.opts.Knowledge != nil {
		if scored, err := m.opts.Knowledge.SemanticSearch(topic, count); err == nil {
			for _, s := range scored {
				fragments = append(fragments, core.KnowledgeFragment{ID: s.Entry.ID, Summary: summarize(s.Entry.Content)})
			}
		} else {
			m.log.Warn("semantic search failed, using synthetic fragments", "topic", topic, "error", err)
		}
	}
	for len(fragments) < count {
		fragments = append(fragments, core.KnowledgeFragment{
			ID:      "synthetic-" + uuid.NewString(),
			Summary: fmt.Sprintf("General heuristics for reasoning about %s", topic),
		})
	}
	return fragments
}

// register performs the directory write under the configured bounded wait.
func (m *Manager) register(e *core.Entity) bool {
	if m.opts.Directory == nil {
		return true
	}
	done := make(chan error, 1)
	go func() { done <- m.opts.Directory.Register(e) }()
	select {
	case err := <-done:
		if err != nil {
			m.log.Warn("replica registration failed", "replica_id", e.ID, "error", err)
			return false
		}
		return true
	case <-time.After(m.opts.DirectoryTimeout):
		// The write may still land after the deadline. Undo it so no
		// ghost replica outlives the pool it never joined.
		go func() {
			if err := <-done; err == nil {
				_ = m.opts.Directory.Deregister(e.ID)
			}
		}()
		return false
	}
}

func summarize(content string) string {
	const max = 120
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}
