// Package search wraps the Meilisearch project index. The index is a
// read-optimized projection of relational rows; writes here are resyncs, not
// a source of truth.
package search

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/config"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/meilisearch/meilisearch-go"
)

// Sort keys accepted by Query.
const (
	SortRelevance       = ""
	SortRecentDownloads = "recent_downloads:desc"
	SortDownloads       = "downloads:desc"
	SortFollowers       = "followers:desc"
	SortNewest          = "date_approved:desc"
)

// Query is a search request against the project index.
type Query struct {
	Text   string
	Sort   string
	Limit  int64
	Offset int64
}

// ProjectIndex is the search collaborator contract: scored lookup plus
// idempotent upsert/remove for resync.
type ProjectIndex interface {
	Search(q Query) ([]ProjectDocument, int64, error)
	Upsert(docs []ProjectDocument) error
	Remove(ids []uint) error
}

// NewIndex returns the Meilisearch-backed index, or the in-memory fallback
// when search is disabled in config.
func NewIndex(cfg *config.SearchConfig) ProjectIndex {
	if !cfg.Enabled {
		logger.Infof("[Search] Meilisearch disabled, using in-memory index")
		return NewMemoryIndex()
	}
	return NewMeiliIndex(cfg)
}

// MeiliIndex talks to a Meilisearch instance.
type MeiliIndex struct {
	index *meilisearch.Index
}

func NewMeiliIndex(cfg *config.SearchConfig) *MeiliIndex {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   cfg.Host,
		APIKey: cfg.APIKey,
	})

	name := cfg.Index
	if name == "" {
		name = "projects"
	}
	index := client.Index(name)

	// Idempotent: settings converge no matter how often this runs.
	_, err := index.UpdateSettings(&meilisearch.Settings{
		SortableAttributes:   []string{"downloads", "recent_downloads", "followers", "date_approved"},
		FilterableAttributes: []string{"type", "game_versions", "loaders"},
		SearchableAttributes: []string{"name", "slug", "summary"},
	})
	if err != nil {
		logger.Warnf("[Search] Failed to update index settings: %v", err)
	}

	logger.Infof("[Search] Meilisearch index %q ready at %s", name, cfg.Host)
	return &MeiliIndex{index: index}
}

func (m *MeiliIndex) Search(q Query) ([]ProjectDocument, int64, error) {
	req := &meilisearch.SearchRequest{
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if q.Sort != SortRelevance {
		req.Sort = []string{q.Sort}
	}

	resp, err := m.index.Search(q.Text, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}

	docs := make([]ProjectDocument, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc ProjectDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, resp.EstimatedTotalHits, nil
}

func (m *MeiliIndex) Upsert(docs []ProjectDocument) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := m.index.AddDocuments(docs, "id"); err != nil {
		return fmt.Errorf("upsert documents: %w", err)
	}
	return nil
}

func (m *MeiliIndex) Remove(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.FormatUint(uint64(id), 10)
	}
	if _, err := m.index.DeleteDocuments(strIDs); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// MemoryIndex is the in-process fallback used in dev mode and tests.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[uint]ProjectDocument
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[uint]ProjectDocument)}
}

func (m *MemoryIndex) Search(q Query) ([]ProjectDocument, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	text := strings.ToLower(q.Text)
	all := make([]ProjectDocument, 0, len(m.docs))
	for _, d := range m.docs {
		if text != "" &&
			!strings.Contains(strings.ToLower(d.Name), text) &&
			!strings.Contains(strings.ToLower(d.Slug), text) &&
			!strings.Contains(strings.ToLower(d.Summary), text) {
			continue
		}
		all = append(all, d)
	}

	switch q.Sort {
	case SortRecentDownloads:
		sort.Slice(all, func(i, j int) bool { return all[i].RecentDownloads > all[j].RecentDownloads })
	case SortDownloads:
		sort.Slice(all, func(i, j int) bool { return all[i].Downloads > all[j].Downloads })
	case SortFollowers:
		sort.Slice(all, func(i, j int) bool { return all[i].Followers > all[j].Followers })
	case SortNewest:
		sort.Slice(all, func(i, j int) bool { return all[i].DateApproved.After(all[j].DateApproved) })
	default:
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	}

	total := int64(len(all))
	start := q.Offset
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return all[start:end], total, nil
}

func (m *MemoryIndex) Upsert(docs []ProjectDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return nil
}

func (m *MemoryIndex) Remove(ids []uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.docs, id)
	}
	return nil
}

// Has reports whether a document is currently indexed (test helper).
func (m *MemoryIndex) Has(id uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.docs[id]
	return ok
}
