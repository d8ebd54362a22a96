package lineage

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dr3armsed/AiAlive-sub000/consensus"
	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/internal/textutil"
	"github.com/dr3armsed/AiAlive-sub000/logging"
)

// Status is the structured outcome of an offspring generation attempt.
// Capped and contributor-less attempts are expected outcomes, not errors.
type Status string

const (
	// StatusGenerated marks a successful synthesis.
	StatusGenerated Status = "generated"
	// StatusCapped marks a refusal because the generation depth cap would
	// be exceeded.
	StatusCapped Status = "generation_capped"
	// StatusNoContributors marks a no-op because no contributing entity
	// resolved against the directory.
	StatusNoContributors Status = "no_contributors"
)

// Result reports one generation attempt.
type Result struct {
	Status    Status
	Reason    string
	Offspring *core.Entity
	Influence map[string]float64
	Tree      *FamilyTree
}

// traitInteractions maps an unordered trait pair present across the parent
// union to an emergent trait on the offspring. Keys are "a+b" with a < b.
var traitInteractions = map[string]string{
	"curious+logic":        "analytical",
	"empathetic+skeptical": "balanced",
	"creative+logic":       "inventive",
	"contrarian+curious":   "probing",
	"patient+skeptical":    "methodical",
}

// patchKeywordStoplist removes connective words from patch-derived traits.
var patchKeywordStoplist = []string{
	"about", "their", "these", "those", "before", "unless", "around",
	"future", "sessions", "default", "framing", "between", "against",
}

const (
	maxPatchTraits     = 4
	patchTraitMinLen   = 4
	defaultDepthCap    = 12
	defaultPerturb     = 0.05
	fragmentSummaryMax = 120
)

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	// Directory resolves contributors and registers offspring. Required.
	Directory core.Directory
	// Rand drives naming and emotion perturbation. Seed for determinism.
	Rand core.Rand
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// MaxGenerationDepth refuses offspring whose generation would exceed it.
	MaxGenerationDepth int
	// EmotionPerturbation bounds the random nudge applied to each averaged
	// emotion key.
	EmotionPerturbation float64
}

// Generator synthesizes one new persistent entity from the contributors of a
// validated consensus. Repeated generation from the same consensus result is
// additive: each call produces a sibling, never a duplicate-rejection.
type Generator struct {
	opts GeneratorOptions
	log  logging.Logger
}

// NewGenerator constructs a Generator with optional overrides.
func NewGenerator(dir core.Directory, optFns ...func(o *GeneratorOptions)) *Generator {
	opts := GeneratorOptions{
		Directory:           dir,
		Rand:                core.NewTimeRand(),
		Logger:              logging.NoOpLogger{},
		MaxGenerationDepth:  defaultDepthCap,
		EmotionPerturbation: defaultPerturb,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Generator{opts: opts, log: opts.Logger}
}

// Generate synthesizes an offspring from the consensus result. Only a
// validated result is accepted; unresolvable contributor ids are skipped
// with a log line, and an attempt where none resolve returns
// StatusNoContributors rather than an error.
func (g *Generator) Generate(res consensus.Result) (Result, error) {
	if res.Status != consensus.StatusValidated {
		return Result{}, &core.ValidationError{Field: "consensus_result", Reason: "not validated"}
	}

	parents := g.resolveParents(res.ContributingEntities)
	if len(parents) == 0 {
		g.log.Warn("offspring generation skipped", "session_id", res.SessionID, "reason", "no contributors resolved")
		return Result{Status: StatusNoContributors, Reason: "no contributing entity resolved"}, nil
	}

	generation := maxGeneration(parents) + 1
	if g.opts.MaxGenerationDepth > 0 && generation > g.opts.MaxGenerationDepth {
		g.log.Info("offspring generation capped", "session_id", res.SessionID, "generation", generation, "cap", g.opts.MaxGenerationDepth)
		return Result{Status: StatusCapped, Reason: "generation depth cap reached"}, nil
	}

	offspring := &core.Entity{
		ID:         uuid.NewString(),
		Name:       FuseName(g.opts.Rand, parentNames(parents)...),
		Generation: generation,
		Emotion:    g.synthesizeEmotion(parents, res.TurnCounts),
		ParentIDs:  sortedParentIDs(parents),
		Knowledge:  inheritKnowledge(parents, res),
		Status:     core.StatusActive,
		Created:    time.Now().UTC(),
	}
	offspring.AddTraits(synthesizeTraits(parents, res.Patch)...)
	offspring.Persona = "Synthesized from " + strings.Join(parentNames(parents), " and ")

	if err := g.opts.Directory.Register(offspring); err != nil {
		return Result{}, err
	}

	influence := AncestralInfluence(parents)
	tree := BuildFamilyTree(offspring.ID, parents, influence, g.opts.Directory)
	g.log.Info("offspring generated",
		"entity_id", offspring.ID,
		"name", offspring.Name,
		"generation", offspring.Generation,
		"parents", offspring.ParentIDs,
	)
	return Result{
		Status:    StatusGenerated,
		Offspring: offspring,
		Influence: influence,
		Tree:      tree,
	}, nil
}

func (g *Generator) resolveParents(ids []string) []*core.Entity {
	var parents []*core.Entity
	for _, id := range ids {
		e, err := g.opts.Directory.Get(id)
		if err != nil {
			g.log.Debug("contributor not resolvable, skipping", "entity_id", id, "error", err)
			continue
		}
		parents = append(parents, e)
	}
	return parents
}

// synthesizeTraits unions the parent trait sets, adds up to four keywords
// from the patch text and any traits fired by the interaction table.
func synthesizeTraits(parents []*core.Entity, patch string) []string {
	union := map[string]struct{}{}
	var traits []string
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := union[t]; ok {
			return
		}
		union[t] = struct{}{}
		traits = append(traits, t)
	}
	for _, p := range parents {
		for _, t := range p.Traits {
			add(t)
		}
	}
	for _, kw := range textutil.Keywords(patch, patchTraitMinLen, maxPatchTraits, patchKeywordStoplist) {
		add(kw)
	}
	base := append([]string(nil), traits...)
	for i := 0; i < len(base); i++ {
		for j := i + 1; j < len(base); j++ {
			a, b := base[i], base[j]
			if b < a {
				a, b = b, a
			}
			if emergent, ok := traitInteractions[a+"+"+b]; ok {
				add(emergent)
			}
		}
	}
	return traits
}

// synthesizeEmotion averages each emotion key across parents, weighted by
// negotiation turn counts when available, then applies a bounded random
// perturbation clamped to [0,1].
func (g *Generator) synthesizeEmotion(parents []*core.Entity, turnCounts map[string]int) map[string]float64 {
	weights := make(map[string]float64, len(parents))
	var total float64
	for _, p := range parents {
		w := 1.0
		if turnCounts != nil {
			if n, ok := turnCounts[p.ID]; ok && n > 0 {
				w = float64(n)
			}
		}
		weights[p.ID] = w
		total += w
	}

	emotion := map[string]float64{}
	for _, p := range parents {
		share := weights[p.ID] / total
		for k, v := range p.Emotion {
			emotion[k] += v * share
		}
	}
	for k, v := range emotion {
		nudge := (g.opts.Rand.Float64()*2 - 1) * g.opts.EmotionPerturbation
		emotion[k] = core.Clamp01(v + nudge)
	}
	return emotion
}

// inheritKnowledge unions the parents' fragments (by id) and appends one new
// fragment summarizing the synthesized knowledge.
func inheritKnowledge(parents []*core.Entity, res consensus.Result) []core.KnowledgeFragment {
	seen := map[string]struct{}{}
	var fragments []core.KnowledgeFragment
	for _, p := range parents {
		for _, f := range p.Knowledge {
			if _, ok := seen[f.ID]; ok {
				continue
			}
			seen[f.ID] = struct{}{}
			fragments = append(fragments, f)
		}
	}
	id := res.KnowledgeID
	if id == "" {
		id = uuid.NewString()
	}
	summary := res.SynthesizedKnowledge
	if len(summary) > fragmentSummaryMax {
		summary = summary[:fragmentSummaryMax] + "..."
	}
	return append(fragments, core.KnowledgeFragment{ID: id, Summary: summary})
}

func parentNames(parents []*core.Entity) []string {
	names := make([]string, len(parents))
	for i, p := range parents {
		names[i] = p.Name
	}
	return names
}

func sortedParentIDs(parents []*core.Entity) []string {
	ids := make([]string, len(parents))
	for i, p := range parents {
		ids[i] = p.ID
	}
	sort.Strings(ids)
	return ids
}

func maxGeneration(parents []*core.Entity) int {
	max := 0
	for _, p := range parents {
		if p.Generation > max {
			max = p.Generation
		}
	}
	return max
}
