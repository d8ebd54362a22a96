// Package aialive provides a high-level façade over the negotiation pipeline
// (replica spawning, debate, consensus, offspring generation) and its
// collaborating services (entity directory, knowledge store, text
// generation). Most applications interact with this package by:
//  1. Creating an AiAlive via New() (optionally overriding the default
//     in-memory services)
//  2. Registering one or more genesis entities (Genesis)
//  3. Running negotiation cycles (Negotiate) and periodic population
//     maintenance (MaintainPopulation)
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a file-backed knowledge
// store, a hosted text generator and a structured logger.
package aialive

import (
	"context"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/directory"
	"github.com/dr3armsed/AiAlive-sub000/engine"
	"github.com/dr3armsed/AiAlive-sub000/knowledge"
	"github.com/dr3armsed/AiAlive-sub000/logging"
	"github.com/dr3armsed/AiAlive-sub000/textgen"
)

// Options configures the AiAlive instance.
type Options struct {
	// Directory defaults to an in-memory entity directory.
	Directory core.Directory
	// Knowledge defaults to an in-memory knowledge store.
	Knowledge core.KnowledgeStore
	// Generator defaults to the deterministic template generator.
	Generator core.TextGenerator
	// Rand seeds every random decision in the pipeline when set.
	Rand core.Rand
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger

	// EngineOptions applies further tuning to the underlying engine.
	EngineOptions []func(o *engine.Options)
}

// AiAlive is the high-level façade aggregating the pipeline engine and its
// services.
type AiAlive struct {
	opts   Options
	engine *engine.Engine
}

// New creates an AiAlive instance with optional overrides. Any unset service
// is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) (*AiAlive, error) {
	opts := Options{
		Directory: directory.NewInMemoryDirectory(),
		Knowledge: knowledge.NewInMemoryStore(),
		Rand:      core.NewTimeRand(),
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Generator == nil {
		opts.Generator = textgen.NewTemplateGenerator(func(o *textgen.Options) {
			o.Rand = opts.Rand
		})
	}

	engineFns := append([]func(o *engine.Options){func(o *engine.Options) {
		o.Knowledge = opts.Knowledge
		o.Generator = opts.Generator
		o.Rand = opts.Rand
		o.Logger = opts.Logger
	}}, opts.EngineOptions...)

	eng, err := engine.New(opts.Directory, engineFns...)
	if err != nil {
		return nil, err
	}
	return &AiAlive{opts: opts, engine: eng}, nil
}

// Genesis creates and registers a generation-0 entity.
func (a *AiAlive) Genesis(name string, traits []string, emotion map[string]float64) (*core.Entity, error) {
	e := core.NewEntity(name, traits, emotion)
	if err := a.opts.Directory.Register(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Negotiate runs one full pipeline cycle on the topic with the given base
// entities.
func (a *AiAlive) Negotiate(ctx context.Context, topic string, bases ...*core.Entity) (engine.CycleResult, error) {
	return a.engine.Negotiate(ctx, topic, bases...)
}

// Cancel forcibly concludes a running negotiation with a reason tag.
func (a *AiAlive) Cancel(sessionID, reason string) error {
	return a.engine.Cancel(sessionID, reason)
}

// MaintainPopulation merges the oldest surplus entities when the active
// population exceeds maxActive.
func (a *AiAlive) MaintainPopulation(maxActive int) (*core.Entity, error) {
	return a.engine.MaintainPopulation(maxActive)
}

// Directory exposes the entity directory.
func (a *AiAlive) Directory() core.Directory { return a.opts.Directory }

// Knowledge exposes the knowledge store.
func (a *AiAlive) Knowledge() core.KnowledgeStore { return a.opts.Knowledge }

// Sessions exposes the store of concluded negotiations.
func (a *AiAlive) Sessions() *engine.SessionStore { return a.engine.Sessions() }
