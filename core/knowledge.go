package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// KnowledgeEntry is a unit of validated knowledge produced by the consensus
// engine. Entries are append-only: storing under an existing id preserves
// the prior value as a retrievable version, never silently replacing it.
type KnowledgeEntry struct {
	ID                   string    `json:"id"`
	Content              string    `json:"content"`
	Type                 string    `json:"type"`
	Source               string    `json:"source"`
	Timestamp            time.Time `json:"timestamp"`
	ConsensusScore       float64   `json:"consensus_score"`
	PatchIDs             []string  `json:"patch_ids,omitempty"`
	ContributingEntities []string  `json:"contributing_entities,omitempty"`
	Dependencies         []string  `json:"dependencies,omitempty"`
	Tags                 []string  `json:"tags,omitempty"`
	ContentSignature     string    `json:"content_signature"`
	Version              int       `json:"version"`
}

// NewKnowledgeEntry creates an entry with a fresh id, UTC timestamp and
// content signature.
func NewKnowledgeEntry(content, entryType, source string) KnowledgeEntry {
	e := KnowledgeEntry{
		ID:        uuid.NewString(),
		Content:   content,
		Type:      entryType,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
	e.ContentSignature = e.Signature()
	return e
}

// Signature computes the tamper/version detection hash over content and
// timestamp.
func (e KnowledgeEntry) Signature() string {
	h := sha256.Sum256([]byte(e.Content + e.Timestamp.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h[:])
}

// Validate rejects entries with empty required fields before storage.
func (e KnowledgeEntry) Validate() error {
	if e.Content == "" {
		return &ValidationError{Field: "content", Reason: "empty"}
	}
	if e.ConsensusScore < 0 || e.ConsensusScore > 1 {
		return &ValidationError{Field: "consensus_score", Reason: "outside [0,1]"}
	}
	return nil
}

// ScoredEntry pairs a retrieved entry with its relevance score.
type ScoredEntry struct {
	Entry KnowledgeEntry
	Score float64
}

// KnowledgeStore persists and retrieves validated knowledge. Implementations
// must version on overwrite and keep writes atomic so concurrent readers
// never observe partial state.
type KnowledgeStore interface {
	// Store persists the entry and returns its id. An empty entry id is
	// assigned; storing under an existing id archives the prior version.
	Store(entry KnowledgeEntry) (string, error)
	// Get returns the latest version of the entry or a NotFoundError.
	Get(id string) (KnowledgeEntry, error)
	// Versions returns the archived prior versions of an id, oldest first.
	// An id with no history yields an empty slice, not an error.
	Versions(id string) ([]KnowledgeEntry, error)
	// RetrieveByTags returns the latest entries carrying all given tags.
	RetrieveByTags(tags []string) ([]KnowledgeEntry, error)
	// SemanticSearch scores entries against the query and returns the topN
	// best matches, highest score first.
	SemanticSearch(query string, topN int) ([]ScoredEntry, error)
}
