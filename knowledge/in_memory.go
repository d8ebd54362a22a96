package knowledge

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/internal/textutil"
)

// InMemoryStore is a process-local core.KnowledgeStore guarded by an RWMutex.
// Semantic search is a token-overlap heuristic over content and tags; swap in
// an embedding-backed implementation for production retrieval.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]core.KnowledgeEntry   // id -> latest version
	history map[string][]core.KnowledgeEntry // id -> prior versions, oldest first
}

var _ core.KnowledgeStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory knowledge store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]core.KnowledgeEntry),
		history: make(map[string][]core.KnowledgeEntry),
	}
}

// Store persists the entry and returns its id. A missing id is assigned, a
// missing timestamp/signature is filled in, and an overwrite archives the
// prior version (append-only history).
func (s *InMemoryStore) Store(entry core.KnowledgeEntry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}
	normalize(&entry)
	s.mu.Lock()
	defer s.mu.Unlock()
	if prior, ok := s.entries[entry.ID]; ok {
		s.history[entry.ID] = append(s.history[entry.ID], prior)
		entry.Version = prior.Version + 1
	}
	s.entries[entry.ID] = entry
	return entry.ID, nil
}

// Get returns the latest version of the entry or a NotFoundError.
func (s *InMemoryStore) Get(id string) (core.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return core.KnowledgeEntry{}, &core.NotFoundError{Kind: "knowledge", ID: id}
	}
	return e, nil
}

// Versions returns the archived prior versions of an id, oldest first.
func (s *InMemoryStore) Versions(id string) ([]core.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.KnowledgeEntry(nil), s.history[id]...), nil
}

// RetrieveByTags returns the latest entries carrying all given tags.
func (s *InMemoryStore) RetrieveByTags(tags []string) ([]core.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.KnowledgeEntry
	for _, e := range s.entries {
		if hasAllTags(e, tags) {
			out = append(out, e)
		}
	}
	sortByTimestamp(out)
	return out, nil
}

// SemanticSearch scores every latest entry against the query and returns the
// topN best non-zero matches, highest score first.
func (s *InMemoryStore) SemanticSearch(query string, topN int) ([]core.ScoredEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]core.KnowledgeEntry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, e)
	}
	return rank(all, query, topN), nil
}

// normalize fills in id, timestamp and signature for entries built by hand.
func normalize(entry *core.KnowledgeEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.ContentSignature == "" {
		entry.ContentSignature = entry.Signature()
	}
}

func hasAllTags(e core.KnowledgeEntry, tags []string) bool {
	if len(tags) == 0 {
		return false
	}
	have := make(map[string]struct{}, len(e.Tags))
	for _, t := range e.Tags {
		have[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range tags {
		if _, ok := have[strings.ToLower(t)]; !ok {
			return false
		}
	}
	return true
}

func rank(entries []core.KnowledgeEntry, query string, topN int) []core.ScoredEntry {
	scored := make([]core.ScoredEntry, 0, len(entries))
	for _, e := range entries {
		score := textutil.OverlapScore(query, e.Content+" "+strings.Join(e.Tags, " "))
		if score > 0 {
			scored = append(scored, core.ScoredEntry{Entry: e, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

func sortByTimestamp(entries []core.KnowledgeEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
}
