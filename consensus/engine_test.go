package consensus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/debate"
	"github.com/dr3armsed/AiAlive-sub000/knowledge"
)

type staticGenerator struct{ content string }

func (g staticGenerator) Generate(context.Context, core.Prompt) (string, error) {
	return g.content, nil
}

func testParticipant(id, baseID string) *core.Participant {
	return core.NewParticipant(
		&core.Entity{ID: id, Name: id, ParentIDs: []string{baseID}, Status: core.StatusActive},
		core.KnowledgeFragment{},
		"neutral", "analyst", nil, nil,
	)
}

func concludedSession(t *testing.T, topic string, turns map[string][]string) *core.Session {
	t.Helper()
	s := core.NewSession(topic, 10, 100)
	for id := range turns {
		require.NoError(t, s.AddParticipant(testParticipant(id, "base-"+id), false))
	}
	require.NoError(t, s.SetStatus(core.SessionAwaitingTurns))
	// interleave so the log resembles a real alternation
	for i := 0; ; i++ {
		wrote := false
		for _, id := range sortedKeys(turns) {
			if i < len(turns[id]) {
				_, err := s.AppendTurn(id, core.RoundForTurn(i+1), turns[id][i])
				require.NoError(t, err)
				wrote = true
			}
		}
		if !wrote {
			break
		}
	}
	require.NoError(t, s.Conclude(core.SessionConcludedByConvergence, core.OutcomePseudoConsensus, ""))
	return s
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

var agreeableTurns = map[string][]string{
	"rep-a": {
		"I support this position and offer grounding we can verify against shared first principles.",
		"Our views align here; the common frame already carries most of what each of us needs.",
	},
	"rep-b": {
		"Let me integrate both threads into a synthesis that preserves the shared core of each argument.",
		"I register agreement; the consensus forming here converges on a single durable claim.",
	},
}

var contentiousTurns = map[string][]string{
	"rep-a": {"I disagree entirely; the premise is a contradiction and I reject the framing outright."},
	"rep-b": {"I oppose this as well; the argument remains flawed from the first step to the last."},
}

func TestEngine_EvaluateRequiresTerminalSession(t *testing.T) {
	e := NewEngine(func(o *Options) { o.Rand = core.NewRand(1) })

	_, err := e.Evaluate(nil)
	assert.Error(t, err)

	live := core.NewSession("anything", 5, 30)
	_, err = e.Evaluate(live)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestEngine_ValidatesAgreeableSession(t *testing.T) {
	store := knowledge.NewInMemoryStore()
	e := NewEngine(func(o *Options) {
		o.Rand = core.NewRand(7)
		o.Knowledge = store
	})

	s := concludedSession(t, "shared memory models", agreeableTurns)
	res, err := e.Evaluate(s)
	require.NoError(t, err)

	assert.Equal(t, StatusValidated, res.Status)
	assert.GreaterOrEqual(t, res.ValidationScore, 0.70)
	assert.NotEmpty(t, res.SynthesizedKnowledge)
	assert.Contains(t, res.SynthesizedKnowledge, "shared memory models")
	assert.Equal(t, []string{"base-rep-a", "base-rep-b"}, res.ContributingEntities)
	assert.Equal(t, 2, res.TurnCounts["base-rep-a"])
	assert.NotEmpty(t, res.Patch)
	assert.False(t, res.Unsynced)

	entry, err := store.Get(res.KnowledgeID)
	require.NoError(t, err)
	assert.Equal(t, "consensus_synthesis", entry.Type)
	assert.Equal(t, res.ContributingEntities, entry.ContributingEntities)
	require.Len(t, entry.PatchIDs, 1)

	patch, err := store.Get(entry.PatchIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "conceptual_patch", patch.Type)
	assert.Equal(t, res.Patch, patch.Content)
}

func TestEngine_ContentiousSessionPendsReDebate(t *testing.T) {
	e := NewEngine(func(o *Options) { o.Rand = core.NewRand(3) })

	s := concludedSession(t, "contested framing", contentiousTurns)
	res, err := e.Evaluate(s)
	require.NoError(t, err)

	assert.Equal(t, StatusPendingReDebate, res.Status)
	assert.Less(t, res.ValidationScore, e.Threshold())
	assert.NotEmpty(t, res.Issues)
	assert.Empty(t, res.Patch)
	assert.Empty(t, res.KnowledgeID)
}

func TestEngine_MediatedSessionTalliesOnlyBoundParticipants(t *testing.T) {
	gen := staticGenerator{content: "I disagree; the premise is a contradiction, the reasoning is flawed, and I reject and oppose it."}
	participants := []*core.Participant{
		core.NewParticipant(
			&core.Entity{ID: "rep-a", Name: "rep-a", ParentIDs: []string{"base-a"}, Status: core.StatusActive},
			core.KnowledgeFragment{}, "contrarian", "critic", nil, gen,
		),
		core.NewParticipant(
			&core.Entity{ID: "rep-b", Name: "rep-b", ParentIDs: []string{"base-b"}, Status: core.StatusActive},
			core.KnowledgeFragment{}, "skeptical", "critic", nil, gen,
		),
	}
	neg, err := debate.New("irreconcilable framing", participants, func(o *debate.Options) {
		o.Rand = core.NewRand(5)
		o.Generator = gen
		o.MaxTurnsPerParticipant = 3
	})
	require.NoError(t, err)

	status, err := neg.Run(context.Background())
	require.NoError(t, err)
	require.True(t, status.Terminal())
	// sustained divergence pulled a mediator into the session
	require.Len(t, neg.Session().ParticipantIDs(), 3)

	e := NewEngine(func(o *Options) { o.Rand = core.NewRand(5) })
	res, err := e.Evaluate(neg.Session())
	require.NoError(t, err)

	// the mediator has no base entity; only the two bound bases may appear
	assert.Equal(t, []string{"base-a", "base-b"}, res.ContributingEntities)
	assert.NotContains(t, res.TurnCounts, "")
	assert.Len(t, res.TurnCounts, 2)
}

func TestEngine_DeterministicWithSeededRand(t *testing.T) {
	run := func() Result {
		e := NewEngine(func(o *Options) { o.Rand = core.NewRand(42) })
		s := concludedSession(t, "seeded", agreeableTurns)
		res, err := e.Evaluate(s)
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.ValidationScore, b.ValidationScore)
	assert.Equal(t, a.Patch, b.Patch)
}

func TestEngine_MissingStoreDegradesToUnsynced(t *testing.T) {
	e := NewEngine(func(o *Options) { o.Rand = core.NewRand(7) })

	res, err := e.Evaluate(concludedSession(t, "unsynced", agreeableTurns))
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, res.Status)
	assert.True(t, res.Unsynced)
	assert.Empty(t, res.KnowledgeID)
}

func TestAdaptiveThreshold_StreaksAdjustWithinBounds(t *testing.T) {
	th := newAdaptiveThreshold(0.70)

	for i := 0; i < 10; i++ {
		th.record(false)
	}
	assert.InDelta(t, 0.65, th.value(), 1e-9)

	// window resets after an adjustment: one more failure is not a streak
	th.record(false)
	assert.InDelta(t, 0.65, th.value(), 1e-9)

	for i := 0; i < 90; i++ {
		th.record(false)
	}
	assert.InDelta(t, thresholdFloor, th.value(), 1e-9)

	for i := 0; i < 200; i++ {
		th.record(true)
	}
	assert.InDelta(t, thresholdCeil, th.value(), 1e-9)
}

func TestAdaptiveThreshold_MixedWindowHoldsSteady(t *testing.T) {
	th := newAdaptiveThreshold(0.70)
	for i := 0; i < 30; i++ {
		th.record(i%2 == 0)
	}
	assert.InDelta(t, 0.70, th.value(), 1e-9)
}
