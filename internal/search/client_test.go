package search

import (
	"testing"
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
)

func seedDocs(t *testing.T, idx *MemoryIndex) {
	t.Helper()
	err := idx.Upsert([]ProjectDocument{
		{ID: 1, Name: "alpha", Downloads: 100, RecentDownloads: 5, Followers: 3},
		{ID: 2, Name: "beta", Downloads: 10, RecentDownloads: 50, Followers: 1},
		{ID: 3, Name: "gamma", Downloads: 1000, RecentDownloads: 1, Followers: 9},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
}

func TestMemoryIndex_SortByRecentDownloads(t *testing.T) {
	idx := NewMemoryIndex()
	seedDocs(t, idx)

	docs, total, err := idx.Search(Query{Sort: SortRecentDownloads, Limit: 2})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, expected 3", total)
	}
	if len(docs) != 2 || docs[0].ID != 2 || docs[1].ID != 1 {
		t.Errorf("unexpected order: %+v", docs)
	}
}

func TestMemoryIndex_UpsertReplaces(t *testing.T) {
	idx := NewMemoryIndex()
	seedDocs(t, idx)

	if err := idx.Upsert([]ProjectDocument{{ID: 1, Name: "alpha-renamed"}}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	docs, _, err := idx.Search(Query{Text: "alpha-renamed", Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != 1 {
		t.Errorf("unexpected hits: %+v", docs)
	}
}

func TestMemoryIndex_RemoveIsIdempotent(t *testing.T) {
	idx := NewMemoryIndex()
	seedDocs(t, idx)

	if err := idx.Remove([]uint{2}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if idx.Has(2) {
		t.Error("document 2 should be gone")
	}
	// Removing an absent id is not an error.
	if err := idx.Remove([]uint{2, 999}); err != nil {
		t.Errorf("second Remove failed: %v", err)
	}
}

func TestBuildDocument_UnionsVersionLists(t *testing.T) {
	p := &models.Project{
		Slug: "alpha", Name: "Alpha", Status: models.StatusApproved,
		Visibility: models.VisibilityListed,
	}
	p.ID = 1
	approved := time.Now()
	p.DateApproved = &approved

	versions := []models.Version{
		{GameVersions: "0.3.1,0.3.2", Loaders: "quilt"},
		{GameVersions: "0.3.2,0.3.3", Loaders: "quilt,puzzle"},
	}

	doc := BuildDocument(p, versions, "", 42)
	if doc.RecentDownloads != 42 {
		t.Errorf("RecentDownloads = %d, expected 42", doc.RecentDownloads)
	}
	if len(doc.GameVersions) != 3 {
		t.Errorf("GameVersions = %v, expected 3 distinct entries", doc.GameVersions)
	}
	if len(doc.Loaders) != 2 {
		t.Errorf("Loaders = %v, expected 2 distinct entries", doc.Loaders)
	}
}
