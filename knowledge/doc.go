// Package knowledge implements the core.KnowledgeStore collaborator: an
// in-memory store for tests and single-process simulations, and a file-backed
// store persisting one JSON document per entry with atomic
// write-temp-then-rename semantics. Both version on overwrite: storing under
// an existing id archives the prior value instead of replacing it.
package knowledge
