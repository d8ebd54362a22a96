package core

// Directory is the shared identity/lookup service for persistent entities
// (and, for the duration of a debate, their replicas). It is the only
// component multiple simulation loops touch concurrently, so implementations
// must guarantee single-writer-per-key semantics: concurrent registers of
// disjoint ids never lose updates.
type Directory interface {
	// Register inserts or replaces the entity record. A ValidationError is
	// returned for malformed entities; nothing is written in that case.
	Register(e *Entity) error
	// Deregister removes the record. Removing an absent id returns a
	// NotFoundError the caller may treat as a no-op.
	Deregister(id string) error
	// Get returns a clone of the record or a NotFoundError.
	Get(id string) (*Entity, error)
	// List returns clones of records matching the status filter; an empty
	// filter matches everything.
	List(filter EntityStatus) []*Entity
}
