package testutil

import (
	"github.com/google/uuid"

	"github.com/dr3armsed/AiAlive-sub000/core"
)

// EntityBuilder provides a fluent helper for constructing entities in tests.
// Example:
//
//	e := NewEntityBuilder("Aurora").Traits("curious", "logic").Emotion("curiosity", 0.9).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EntityBuilder struct {
	entity *core.Entity
}

// NewEntityBuilder creates a builder for an active generation-0 entity.
func NewEntityBuilder(name string) *EntityBuilder {
	return &EntityBuilder{entity: core.NewEntity(name, nil, nil)}
}

// ID overrides the auto-generated id (chainable).
func (b *EntityBuilder) ID(id string) *EntityBuilder { b.entity.ID = id; return b }

// Traits appends traits (chainable).
func (b *EntityBuilder) Traits(traits ...string) *EntityBuilder {
	b.entity.AddTraits(traits...)
	return b
}

// Emotion sets one emotion key (chainable).
func (b *EntityBuilder) Emotion(key string, value float64) *EntityBuilder {
	b.entity.Emotion[key] = core.Clamp01(value)
	return b
}

// Generation sets the generation (chainable).
func (b *EntityBuilder) Generation(g int) *EntityBuilder { b.entity.Generation = g; return b }

// Load sets the cognitive load (chainable).
func (b *EntityBuilder) Load(v float64) *EntityBuilder {
	b.entity.CognitiveLoad = core.Clamp01(v)
	return b
}

// Parents sets the parent ids (chainable).
func (b *EntityBuilder) Parents(ids ...string) *EntityBuilder {
	b.entity.ParentIDs = ids
	return b
}

// Fragment appends a knowledge fragment (chainable).
func (b *EntityBuilder) Fragment(id, summary string) *EntityBuilder {
	b.entity.Knowledge = append(b.entity.Knowledge, core.KnowledgeFragment{ID: id, Summary: summary})
	return b
}

// Build returns the constructed entity.
func (b *EntityBuilder) Build() *core.Entity { return b.entity }

// Replica wraps the entity as a negotiation participant bound to the given
// base id, using a fresh replica id.
func (b *EntityBuilder) Replica(baseID, bias, role string, gen core.TextGenerator) *core.Participant {
	replica := b.entity.Clone()
	replica.ID = uuid.NewString()
	replica.ParentIDs = []string{baseID}
	return core.NewParticipant(replica, core.KnowledgeFragment{}, bias, role, nil, gen)
}
