package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr3armsed/AiAlive-sub000/consensus"
	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/directory"
)

func validatedResult(contributors ...string) consensus.Result {
	return consensus.Result{
		Status:               consensus.StatusValidated,
		ValidationScore:      0.82,
		SynthesizedKnowledge: "Consensus on shared memory: entities agree on a common recall model.",
		Patch:                "Adopt the shared vocabulary around recall models as the standard framing.",
		ContributingEntities: contributors,
		KnowledgeID:          "entry-1",
		SessionID:            "session-1",
	}
}

func TestFuseName_DeterministicWithSeed(t *testing.T) {
	a := FuseName(core.NewRand(9), "Aurora", "Vexil")
	b := FuseName(core.NewRand(9), "Aurora", "Vexil")
	assert.Equal(t, a, b)
	assert.Regexp(t, `^[A-Z][a-z]+-\d{3}$`, a)
}

func TestFuseName_NoSyllablesFallsBack(t *testing.T) {
	name := FuseName(core.NewRand(1), "Xz", "")
	assert.Regexp(t, `^Entity-\d{3}$`, name)
}

func TestAncestralInfluence_SumsToHundred(t *testing.T) {
	parents := []*core.Entity{
		core.NewEntity("Aurora", []string{"curious", "logic"}, map[string]float64{"curiosity": 0.9, "logic": 0.7}),
		core.NewEntity("Vexil", []string{"skeptical"}, map[string]float64{"doubt": 0.4}),
	}
	influence := AncestralInfluence(parents)

	var sum float64
	for _, pct := range influence {
		sum += pct
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
	assert.Greater(t, influence[parents[0].ID], influence[parents[1].ID])
}

func TestGenerator_SynthesizesOffspring(t *testing.T) {
	dir := directory.NewInMemoryDirectory()
	base := core.NewEntity("Aurora", []string{"curious", "logic"}, map[string]float64{"curiosity": 0.9, "logic": 0.7})
	require.NoError(t, dir.Register(base))

	gen := NewGenerator(dir, func(o *GeneratorOptions) { o.Rand = core.NewRand(5) })
	res, err := gen.Generate(validatedResult(base.ID, "ghost-id"))
	require.NoError(t, err)

	require.Equal(t, StatusGenerated, res.Status)
	child := res.Offspring
	require.NotNil(t, child)
	assert.Equal(t, 1, child.Generation)
	assert.Equal(t, []string{base.ID}, child.ParentIDs)
	assert.True(t, child.HasTrait("curious"))
	assert.True(t, child.HasTrait("logic"))
	// interaction table fires on the curious+logic pair
	assert.True(t, child.HasTrait("analytical"))
	assert.NotEmpty(t, child.Name)

	// inherited fragments plus the new consensus summary fragment
	require.NotEmpty(t, child.Knowledge)
	last := child.Knowledge[len(child.Knowledge)-1]
	assert.Equal(t, "entry-1", last.ID)
	assert.Contains(t, last.Summary, "Consensus on shared memory")

	registered, err := dir.Get(child.ID)
	require.NoError(t, err)
	assert.Equal(t, child.Name, registered.Name)

	require.Len(t, res.Tree.Parents, 1)
	assert.InDelta(t, 100.0, res.Tree.Parents[0].Influence, 1e-9)
}

func TestGenerator_TraitsStaySetsAfterSynthesis(t *testing.T) {
	dir := directory.NewInMemoryDirectory()
	a := core.NewEntity("Aurora", []string{"curious", "logic"}, nil)
	b := core.NewEntity("Vexil", []string{"curious", "skeptical"}, nil)
	require.NoError(t, dir.Register(a))
	require.NoError(t, dir.Register(b))

	gen := NewGenerator(dir, func(o *GeneratorOptions) { o.Rand = core.NewRand(2) })
	res, err := gen.Generate(validatedResult(a.ID, b.ID))
	require.NoError(t, err)

	seen := map[string]struct{}{}
	for _, tr := range res.Offspring.Traits {
		_, dup := seen[tr]
		assert.False(t, dup, "duplicate trait %q", tr)
		seen[tr] = struct{}{}
	}
}

func TestGenerator_RepeatedGenerationIsAdditive(t *testing.T) {
	dir := directory.NewInMemoryDirectory()
	base := core.NewEntity("Aurora", []string{"curious"}, map[string]float64{"curiosity": 0.5})
	require.NoError(t, dir.Register(base))

	gen := NewGenerator(dir, func(o *GeneratorOptions) { o.Rand = core.NewRand(5) })
	result := validatedResult(base.ID)

	first, err := gen.Generate(result)
	require.NoError(t, err)
	second, err := gen.Generate(result)
	require.NoError(t, err)

	assert.Equal(t, StatusGenerated, first.Status)
	assert.Equal(t, StatusGenerated, second.Status)
	assert.NotEqual(t, first.Offspring.ID, second.Offspring.ID)
	// the second offspring sees the first as a sibling through the shared parent
	assert.Contains(t, second.Tree.Siblings, first.Offspring.ID)
}

func TestGenerator_LiveReplicasAreNotSiblings(t *testing.T) {
	dir := directory.NewInMemoryDirectory()
	base := core.NewEntity("Aurora", []string{"curious"}, nil)
	require.NoError(t, dir.Register(base))

	// a replica still negotiating elsewhere shares the parent id
	replica := base.Clone()
	replica.ID = "replica-1"
	replica.ParentIDs = []string{base.ID}
	replica.Status = core.StatusReplica
	require.NoError(t, dir.Register(replica))

	sibling := core.NewEntity("Nislum", []string{"skeptical"}, nil)
	sibling.ParentIDs = []string{base.ID}
	require.NoError(t, dir.Register(sibling))

	gen := NewGenerator(dir, func(o *GeneratorOptions) { o.Rand = core.NewRand(5) })
	res, err := gen.Generate(validatedResult(base.ID))
	require.NoError(t, err)
	require.Equal(t, StatusGenerated, res.Status)

	assert.Contains(t, res.Tree.Siblings, sibling.ID)
	assert.NotContains(t, res.Tree.Siblings, replica.ID)
}

func TestGenerator_NoResolvableContributors(t *testing.T) {
	gen := NewGenerator(directory.NewInMemoryDirectory(), func(o *GeneratorOptions) { o.Rand = core.NewRand(1) })

	res, err := gen.Generate(validatedResult("ghost-a", "ghost-b"))
	require.NoError(t, err)
	assert.Equal(t, StatusNoContributors, res.Status)
	assert.Nil(t, res.Offspring)
}

func TestGenerator_DepthCapRefusesWithoutError(t *testing.T) {
	dir := directory.NewInMemoryDirectory()
	elder := core.NewEntity("Elder", []string{"wise"}, nil)
	elder.Generation = 3
	require.NoError(t, dir.Register(elder))

	gen := NewGenerator(dir, func(o *GeneratorOptions) {
		o.Rand = core.NewRand(1)
		o.MaxGenerationDepth = 3
	})
	res, err := gen.Generate(validatedResult(elder.ID))
	require.NoError(t, err)
	assert.Equal(t, StatusCapped, res.Status)
	assert.Nil(t, res.Offspring)
}

func TestGenerator_RejectsUnvalidatedResult(t *testing.T) {
	gen := NewGenerator(directory.NewInMemoryDirectory())

	_, err := gen.Generate(consensus.Result{Status: consensus.StatusPendingReDebate})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}
