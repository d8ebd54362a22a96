// Package engine orchestrates the full negotiation pipeline: replica
// spawning, the debate state machine, consensus evaluation and offspring
// generation, plus the periodic population-control merge.
//
// The pipeline is single-threaded and fully synchronous; one Negotiate call
// drives one session from spawn to (possible) offspring. The only shared
// mutable collaborator is the entity directory, which carries its own
// concurrency discipline. Concluded sessions are retained in an engine-held
// store for later consensus re-evaluation and inspection.
package engine
