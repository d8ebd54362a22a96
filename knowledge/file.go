package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dr3armsed/AiAlive-sub000/core"
)

// document is the on-disk layout: the latest entry plus its archived prior
// versions, oldest first.
type document struct {
	Latest   core.KnowledgeEntry   `json:"latest"`
	Versions []core.KnowledgeEntry `json:"versions,omitempty"`
}

// FileStore is a durable core.KnowledgeStore writing one JSON document per
// entry under a base directory. Every write goes to a temp file in the same
// directory followed by an atomic rename, so concurrent readers never observe
// partial state. A process-wide mutex serializes writers within this process;
// cross-process locking is out of scope.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

var _ core.KnowledgeStore = (*FileStore)(nil)

// NewFileStore creates (if needed) the base directory and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create knowledge dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Store persists the entry, archiving any existing version of the same id.
func (s *FileStore) Store(entry core.KnowledgeEntry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}
	normalize(&entry)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc(entry.ID)
	switch {
	case err == nil:
		doc.Versions = append(doc.Versions, doc.Latest)
		entry.Version = doc.Latest.Version + 1
		doc.Latest = entry
	case os.IsNotExist(err):
		doc = document{Latest: entry}
	default:
		return "", err
	}
	if err := s.writeDoc(entry.ID, doc); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// Get returns the latest version of the entry or a NotFoundError.
func (s *FileStore) Get(id string) (core.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, err := s.readDoc(id)
	if os.IsNotExist(err) {
		return core.KnowledgeEntry{}, &core.NotFoundError{Kind: "knowledge", ID: id}
	}
	if err != nil {
		return core.KnowledgeEntry{}, err
	}
	return doc.Latest, nil
}

// Versions returns the archived prior versions of an id, oldest first.
func (s *FileStore) Versions(id string) ([]core.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, err := s.readDoc(id)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Versions, nil
}

// RetrieveByTags scans all documents for entries carrying all given tags.
func (s *FileStore) RetrieveByTags(tags []string) ([]core.KnowledgeEntry, error) {
	entries, err := s.all()
	if err != nil {
		return nil, err
	}
	var out []core.KnowledgeEntry
	for _, e := range entries {
		if hasAllTags(e, tags) {
			out = append(out, e)
		}
	}
	sortByTimestamp(out)
	return out, nil
}

// SemanticSearch ranks all latest entries against the query.
func (s *FileStore) SemanticSearch(query string, topN int) ([]core.ScoredEntry, error) {
	entries, err := s.all()
	if err != nil {
		return nil, err
	}
	return rank(entries, query, topN), nil
}

func (s *FileStore) all() ([]core.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan knowledge dir: %w", err)
	}
	var out []core.KnowledgeEntry
	for _, de := range names {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		doc, err := s.readDoc(strings.TrimSuffix(de.Name(), ".json"))
		if err != nil {
			// skip unreadable documents; a half-written temp file never has
			// the .json suffix so this is corruption, not racing
			continue
		}
		out = append(out, doc.Latest)
	}
	return out, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) readDoc(id string) (document, error) {
	var doc document
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode knowledge entry %s: %w", id, err)
	}
	return doc, nil
}

func (s *FileStore) writeDoc(id string, doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode knowledge entry %s: %w", id, err)
	}
	tmp, err := os.CreateTemp(s.dir, id+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(id))
}
