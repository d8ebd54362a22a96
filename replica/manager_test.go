package replica

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/directory"
	"github.com/dr3armsed/AiAlive-sub000/knowledge"
)

// slowDirectory delays every registration past the manager's deadline.
type slowDirectory struct {
	*directory.InMemoryDirectory
	delay time.Duration
}

func (d *slowDirectory) Register(e *core.Entity) error {
	time.Sleep(d.delay)
	return d.InMemoryDirectory.Register(e)
}

func newTestManager(t *testing.T) (*Manager, *directory.InMemoryDirectory) {
	t.Helper()
	dir := directory.NewInMemoryDirectory()
	m := NewManager(func(o *Options) {
		o.Directory = dir
		o.Knowledge = knowledge.NewInMemoryStore()
		o.Rand = core.NewRand(42)
	})
	return m, dir
}

func TestManager_SpawnAssignsFieldsAndLoad(t *testing.T) {
	m, dir := newTestManager(t)
	base := core.NewEntity("E0", []string{"curious", "logic"}, map[string]float64{"curiosity": 0.9})
	require.NoError(t, dir.Register(base))

	res, err := m.Spawn(base, 3, "shared memory", nil)
	require.NoError(t, err)
	require.False(t, res.Refused)
	require.Len(t, res.Replicas, 3)

	roles := map[string]bool{}
	for _, p := range res.Replicas {
		assert.Equal(t, []string{base.ID}, p.Entity.ParentIDs)
		assert.Equal(t, core.StatusReplica, p.Entity.Status)
		assert.NotEmpty(t, p.Bias)
		assert.NotEmpty(t, p.Role)
		assert.NotEmpty(t, p.Fragment.Summary, "fragment fallback should kick in on an empty store")
		roles[p.Role] = true

		// replicas are registered while the debate runs
		_, err := dir.Get(p.ID())
		assert.NoError(t, err)
	}
	assert.True(t, len(roles) >= 2, "roles should round-robin")
	assert.InDelta(t, 0.3, base.CognitiveLoad, 1e-9, "each spawn charges the base entity")
}

func TestManager_SpawnRefusesOverloadedBase(t *testing.T) {
	m, _ := newTestManager(t)
	base := core.NewEntity("E0", []string{"curious"}, nil)
	base.CognitiveLoad = 0.75

	res, err := m.Spawn(base, 3, "topic", nil)
	require.NoError(t, err, "refusal is a status, not an error")
	assert.True(t, res.Refused)
	assert.Empty(t, res.Replicas)
	assert.NotEmpty(t, res.Reason)
}

func TestManager_SpawnUsesStoredFragments(t *testing.T) {
	dir := directory.NewInMemoryDirectory()
	ks := knowledge.NewInMemoryStore()
	entry := core.NewKnowledgeEntry("facts about shared memory formation", "synthesis", "genesis")
	_, err := ks.Store(entry)
	require.NoError(t, err)

	m := NewManager(func(o *Options) {
		o.Directory = dir
		o.Knowledge = ks
		o.Rand = core.NewRand(1)
	})
	base := core.NewEntity("E0", nil, nil)
	require.NoError(t, dir.Register(base))

	res, err := m.Spawn(base, 1, "shared memory", nil)
	require.NoError(t, err)
	require.Len(t, res.Replicas, 1)
	assert.Equal(t, entry.ID, res.Replicas[0].Fragment.ID)
}

func TestManager_RegistrationTimeoutLeavesNoGhost(t *testing.T) {
	dir := &slowDirectory{InMemoryDirectory: directory.NewInMemoryDirectory(), delay: 50 * time.Millisecond}
	m := NewManager(func(o *Options) {
		o.Directory = dir
		o.Rand = core.NewRand(42)
		o.DirectoryTimeout = 5 * time.Millisecond
	})
	base := core.NewEntity("E0", []string{"curious"}, nil)

	res, err := m.Spawn(base, 2, "topic", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Replicas)
	assert.Empty(t, m.Active())

	// the delayed writes still land; they must be rolled back, not linger
	assert.Eventually(t, func() bool {
		return len(dir.List("")) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestManager_DecommissionIdempotent(t *testing.T) {
	m, dir := newTestManager(t)
	base := core.NewEntity("E0", []string{"curious"}, nil)
	require.NoError(t, dir.Register(base))

	res, err := m.Spawn(base, 2, "topic", nil)
	require.NoError(t, err)
	ids := []string{res.Replicas[0].ID(), res.Replicas[1].ID()}

	m.Decommission(ids)
	assert.Empty(t, m.Active())
	for _, id := range ids {
		_, err := dir.Get(id)
		assert.Error(t, err, "replica should leave the directory")
	}
	for _, p := range res.Replicas {
		assert.Equal(t, core.StatusDecommissioned, p.Entity.Status, "callers holding the participant see it retired")
	}

	// second pass over the same ids must be a quiet no-op
	m.Decommission(ids)
	m.Decommission([]string{"never-existed"})
}

func TestManager_InvalidSpawnInput(t *testing.T) {
	m, _ := newTestManager(t)
	base := core.NewEntity("E0", nil, nil)
	_, err := m.Spawn(base, 0, "topic", nil)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}
