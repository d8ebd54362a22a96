// Package directory provides the shared entity directory: identity and
// lookup for persistent entities and the replicas temporarily registered
// during a negotiation.
package directory

import (
	"sort"
	"sync"

	"github.com/dr3armsed/AiAlive-sub000/core"
)

// InMemoryDirectory is a process-local core.Directory implementation storing
// entities in a mutex-guarded map. It is safe for concurrent access from
// independent simulation loops; concurrent registers of disjoint ids never
// lose updates. Each returned entity is cloned to prevent external mutation
// of internal state.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	entities map[string]*core.Entity
	writes   int // successful registers, for post-hoc audits
	removes  int // successful deregisters
}

var _ core.Directory = (*InMemoryDirectory)(nil)

// NewInMemoryDirectory constructs an empty in-memory directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{entities: make(map[string]*core.Entity)}
}

// Register inserts or replaces the entity record (stored as a clone).
func (d *InMemoryDirectory) Register(e *core.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, existed := d.entities[e.ID]; !existed {
		d.writes++
	}
	d.entities[e.ID] = e.Clone()
	return nil
}

// Deregister removes the record, returning a NotFoundError for absent ids so
// callers can decide whether absence is a problem or a no-op.
func (d *InMemoryDirectory) Deregister(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.entities[id]; !ok {
		return &core.NotFoundError{Kind: "entity", ID: id}
	}
	delete(d.entities, id)
	d.removes++
	return nil
}

// Get returns a clone of the record or a NotFoundError.
func (d *InMemoryDirectory) Get(id string) (*core.Entity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entities[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "entity", ID: id}
	}
	return e.Clone(), nil
}

// List returns clones of records matching the status filter, sorted by id
// for stable iteration. An empty filter matches everything.
func (d *InMemoryDirectory) List(filter core.EntityStatus) []*core.Entity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*core.Entity, 0, len(d.entities))
	for _, e := range d.entities {
		if filter != "" && e.Status != filter {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the current number of records.
func (d *InMemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entities)
}

// AuditCount verifies the live record count against the write/remove
// counters. A mismatch is reported as a ConcurrencyAnomaly; it is diagnostic
// and never fatal.
func (d *InMemoryDirectory) AuditCount() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	expected := d.writes - d.removes
	if expected != len(d.entities) {
		return &core.ConcurrencyAnomaly{Expected: expected, Actual: len(d.entities)}
	}
	return nil
}
