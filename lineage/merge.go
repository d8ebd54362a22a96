package lineage

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/logging"
)

// MergeOptions configures a Merger.
type MergeOptions struct {
	// Directory registers merge outputs and deregisters consumed inputs.
	// Required.
	Directory core.Directory
	// Rand drives name fusion. Seed for determinism.
	Rand core.Rand
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// Cycle is the current simulation cycle; merged entities carry
	// generation Cycle+1.
	Cycle int
}

// Merger consolidates several persistent entities into fewer ones. It runs
// orthogonally to negotiation, typically as periodic population control.
type Merger struct {
	opts MergeOptions
	log  logging.Logger
}

// NewMerger constructs a Merger with optional overrides.
func NewMerger(dir core.Directory, optFns ...func(o *MergeOptions)) *Merger {
	opts := MergeOptions{
		Directory: dir,
		Rand:      core.NewTimeRand(),
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Merger{opts: opts, log: opts.Logger}
}

// Merge consolidates the inputs into targetCount new entities, each carrying
// the trait union, per-key emotion average, fragment union plus one
// consolidated summary fragment, a fused name and all input ids as parents.
// Fewer than two inputs is a documented no-op returning nil. Inputs are
// marked merged and deregistered; an input already absent from the directory
// is logged and skipped, never fatal.
func (m *Merger) Merge(inputs []*core.Entity, targetCount int) ([]*core.Entity, error) {
	if len(inputs) < 2 {
		m.log.Info("merge skipped", "inputs", len(inputs), "reason", "fewer than two inputs")
		return nil, nil
	}
	if targetCount < 1 {
		targetCount = 1
	}
	for _, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}

	outputs := make([]*core.Entity, 0, targetCount)
	for i := 0; i < targetCount; i++ {
		out := m.fuse(inputs)
		if err := m.opts.Directory.Register(out); err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}

	inputIDs := make([]string, len(inputs))
	for i, in := range inputs {
		inputIDs[i] = in.ID
		in.Status = core.StatusMerged
		if err := m.opts.Directory.Deregister(in.ID); err != nil {
			m.log.Warn("merge input already absent from directory", "entity_id", in.ID, "error", err)
		}
	}
	for _, out := range outputs {
		if l, ok := m.log.(*logging.AiAliveLogger); ok {
			l.LogPopulationChange("merge", inputIDs, out.ID)
		} else {
			m.log.Info("population merge", "inputs", inputIDs, "output_id", out.ID)
		}
	}
	return outputs, nil
}

// fuse builds one merged entity from all inputs.
func (m *Merger) fuse(inputs []*core.Entity) *core.Entity {
	out := &core.Entity{
		ID:         uuid.NewString(),
		Name:       FuseName(m.opts.Rand, parentNames(inputs)...),
		Generation: m.opts.Cycle + 1,
		Emotion:    map[string]float64{},
		ParentIDs:  sortedParentIDs(inputs),
		Status:     core.StatusActive,
		Created:    time.Now().UTC(),
	}

	counts := map[string]int{}
	for _, in := range inputs {
		out.AddTraits(in.Traits...)
		for k, v := range in.Emotion {
			out.Emotion[k] += v
			counts[k]++
		}
	}
	for k := range out.Emotion {
		out.Emotion[k] = core.Clamp01(out.Emotion[k] / float64(counts[k]))
	}

	seen := map[string]struct{}{}
	for _, in := range inputs {
		for _, f := range in.Knowledge {
			if _, ok := seen[f.ID]; ok {
				continue
			}
			seen[f.ID] = struct{}{}
			out.Knowledge = append(out.Knowledge, f)
		}
	}
	out.Knowledge = append(out.Knowledge, core.KnowledgeFragment{
		ID:      uuid.NewString(),
		Summary: "Consolidated memory of " + strings.Join(parentNames(inputs), ", "),
	})
	out.Persona = "Consolidation of " + strings.Join(parentNames(inputs), " and ")
	return out
}
