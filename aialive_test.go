package aialive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr3armsed/AiAlive-sub000/consensus"
	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/engine"
	"github.com/dr3armsed/AiAlive-sub000/internal/testutil"
)

func newDeterministicAiAlive(t *testing.T, seed int64) *AiAlive {
	t.Helper()
	a, err := New(func(o *Options) {
		o.Rand = core.NewRand(seed)
		o.EngineOptions = []func(eo *engine.Options){func(eo *engine.Options) {
			eo.BiasVocabulary = []string{"pragmatic", "holistic"}
		}}
	})
	require.NoError(t, err)
	return a
}

func TestAiAlive_GenesisToOffspring(t *testing.T) {
	a := newDeterministicAiAlive(t, 11)

	base, err := a.Genesis("Aurora", []string{"curious", "logic"}, map[string]float64{"curiosity": 0.9, "logic": 0.7})
	require.NoError(t, err)

	res, err := a.Negotiate(context.Background(), "emergent shared memory", base)
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.True(t, res.Status.Terminal())
	require.Equal(t, consensus.StatusValidated, res.Consensus.Status)
	require.NotNil(t, res.Offspring)
	assert.Equal(t, 1, res.Offspring.Offspring.Generation)

	// offspring visible through the façade's directory
	got, err := a.Directory().Get(res.Offspring.Offspring.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Offspring.Offspring.Name, got.Name)

	// knowledge persisted and session retained
	_, err = a.Knowledge().Get(res.Consensus.KnowledgeID)
	require.NoError(t, err)
	_, err = a.Sessions().Get(res.Session.ID)
	require.NoError(t, err)
}

func TestAiAlive_OverloadedBaseRefused(t *testing.T) {
	a := newDeterministicAiAlive(t, 3)

	base := testutil.NewEntityBuilder("Weary").Traits("tired").Load(0.9).Build()
	require.NoError(t, a.Directory().Register(base))

	res, err := a.Negotiate(context.Background(), "anything", base)
	require.NoError(t, err)
	assert.Equal(t, []string{base.ID}, res.Refused)
	assert.Nil(t, res.Session)
}

func TestAiAlive_PopulationMaintenance(t *testing.T) {
	a := newDeterministicAiAlive(t, 4)

	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
		_, err := a.Genesis(name, []string{"steady"}, map[string]float64{"calm": 0.4})
		require.NoError(t, err)
	}

	merged, err := a.MaintainPopulation(2)
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.Len(t, a.Directory().List(core.StatusActive), 2)
}
