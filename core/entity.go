package core

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// EntityStatus tracks the lifecycle of a persistent entity. Transitions are
// one-directional: an entity is never resurrected after merge or
// decommission; the record is retained for genealogy lookups.
type EntityStatus string

const (
	// StatusActive marks an entity available for spawning and merging.
	StatusActive EntityStatus = "active"
	// StatusReplica marks an ephemeral negotiation replica, registered only
	// for the duration of a debate and never part of the persistent
	// population.
	StatusReplica EntityStatus = "replica"
	// StatusMerged marks an entity consumed by the merge manager.
	StatusMerged EntityStatus = "merged"
	// StatusDecommissioned marks an entity retired from the population.
	StatusDecommissioned EntityStatus = "decommissioned"
)

// KnowledgeFragment is the slice of validated knowledge an entity carries
// around: an id into the knowledge store plus a short human-readable summary.
type KnowledgeFragment struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

// Entity is a persistent member of the population. Entities are created at
// genesis, by the offspring generator after a validated consensus, or by the
// merge manager consolidating several inputs. Mutation is owned by the
// subsystem currently driving the entity (replica manager adjusts cognitive
// load, debate protocol nudges emotion); nothing else should write fields.
type Entity struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Generation    int                 `json:"generation"`
	Traits        []string            `json:"traits"`
	Emotion       map[string]float64  `json:"emotion"`
	Persona       string              `json:"persona"`
	ParentIDs     []string            `json:"parent_ids,omitempty"`
	Knowledge     []KnowledgeFragment `json:"knowledge_fragments,omitempty"`
	Status        EntityStatus        `json:"status"`
	CognitiveLoad float64             `json:"cognitive_load"`
	Created       time.Time           `json:"created"`
}

// NewEntity creates an active generation-0 entity with defensive copies of
// the provided traits and emotion vector. Trait duplicates are dropped.
func NewEntity(name string, traits []string, emotion map[string]float64) *Entity {
	e := &Entity{
		ID:      uuid.NewString(),
		Name:    name,
		Emotion: map[string]float64{},
		Status:  StatusActive,
		Created: time.Now().UTC(),
	}
	e.AddTraits(traits...)
	for k, v := range emotion {
		e.Emotion[k] = clamp01(v)
	}
	return e
}

// Validate reports a ValidationError when required fields are missing or out
// of range. Callers reject invalid entities before any mutation happens.
func (e *Entity) Validate() error {
	if e == nil {
		return &ValidationError{Field: "entity", Reason: "nil entity"}
	}
	if e.ID == "" {
		return &ValidationError{Field: "id", Reason: "empty"}
	}
	if e.Name == "" {
		return &ValidationError{Field: "name", Reason: "empty"}
	}
	if e.CognitiveLoad < 0 || e.CognitiveLoad > 1 {
		return &ValidationError{Field: "cognitive_load", Reason: "outside [0,1]"}
	}
	for k, v := range e.Emotion {
		if v < 0 || v > 1 {
			return &ValidationError{Field: "emotion." + k, Reason: "outside [0,1]"}
		}
	}
	return nil
}

// HasTrait reports whether the entity carries the given trait.
func (e *Entity) HasTrait(trait string) bool {
	for _, t := range e.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// AddTraits appends traits preserving set semantics (no duplicates) and a
// stable sorted order so trait slices compare cleanly in tests and logs.
func (e *Entity) AddTraits(traits ...string) {
	for _, t := range traits {
		if t == "" || e.HasTrait(t) {
			continue
		}
		e.Traits = append(e.Traits, t)
	}
	sort.Strings(e.Traits)
}

// AdjustEmotion shifts an emotion key by delta, clamped to [0,1]. Missing
// keys are created at the clamped delta.
func (e *Entity) AdjustEmotion(key string, delta float64) {
	if e.Emotion == nil {
		e.Emotion = map[string]float64{}
	}
	e.Emotion[key] = clamp01(e.Emotion[key] + delta)
}

// EmotionSum returns the sum over all emotion keys. Used by genealogy
// influence scoring.
func (e *Entity) EmotionSum() float64 {
	var sum float64
	for _, v := range e.Emotion {
		sum += v
	}
	return sum
}

// Clone returns a deep copy safe for independent mutation.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Traits = append([]string(nil), e.Traits...)
	clone.ParentIDs = append([]string(nil), e.ParentIDs...)
	clone.Knowledge = append([]KnowledgeFragment(nil), e.Knowledge...)
	clone.Emotion = make(map[string]float64, len(e.Emotion))
	for k, v := range e.Emotion {
		clone.Emotion[k] = v
	}
	return &clone
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Clamp01 clamps v to the [0,1] interval. Exported for the scoring and
// synthesis packages which share the same bounds discipline.
func Clamp01(v float64) float64 { return clamp01(v) }
