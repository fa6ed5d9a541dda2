package services

import (
	"context"
	"strconv"
	"testing"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/cache"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"gorm.io/gorm"
)

func newCollectionFixture(t *testing.T) (*CollectionService, *FollowService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	sync, idx := newSyncedSearch(t, db)
	projects := NewProjectService(db, idx, cache.NewMemory(), nil, sync)
	follows := NewFollowService(db, sync)
	return NewCollectionService(db, follows, projects), follows, db
}

func TestFollowsSentinelResolvesToFollowList(t *testing.T) {
	svc, follows, db := newCollectionFixture(t)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	fan := createTestUser(t, db, "fan", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusApproved, models.VisibilityListed)

	if err := follows.AddFollows(context.Background(), []uint{project.ID}, fan.ID, models.RoleUser); err != nil {
		t.Fatalf("AddFollows failed: %v", err)
	}

	ids, err := svc.ProjectIDs(models.FollowsCollectionID, fan.ID)
	if err != nil {
		t.Fatalf("ProjectIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != project.ID {
		t.Errorf("follows sentinel resolved to %v, expected [%d]", ids, project.ID)
	}

	// Anonymous viewers have no follow list.
	if _, err := svc.ProjectIDs(models.FollowsCollectionID, 0); err == nil {
		t.Error("anonymous follows lookup should fail")
	}
}

func TestCollectionMembership(t *testing.T) {
	svc, _, db := newCollectionFixture(t)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	curator := createTestUser(t, db, "curator", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusApproved, models.VisibilityListed)

	collection, err := svc.Create(curator.ID, &CreateCollectionRequest{Name: "favs", Visibility: models.VisibilityListed})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.AddProject(collection.ID, project.ID, curator.ID, models.RoleUser); err != nil {
		t.Fatalf("AddProject failed: %v", err)
	}
	// Double-add is rejected.
	if err := svc.AddProject(collection.ID, project.ID, curator.ID, models.RoleUser); err == nil {
		t.Fatal("adding the same project twice should fail")
	}

	ref := strconv.FormatUint(uint64(collection.ID), 10)
	got, err := svc.Projects(ref, 0, "")
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != project.ID {
		t.Errorf("collection resolved to %d projects, expected the added one", len(got))
	}

	if err := svc.RemoveProject(collection.ID, project.ID, curator.ID); err != nil {
		t.Fatalf("RemoveProject failed: %v", err)
	}
	if err := svc.RemoveProject(collection.ID, project.ID, curator.ID); err == nil {
		t.Fatal("removing an absent project should fail")
	}
}

func TestPrivateCollectionHiddenFromOthers(t *testing.T) {
	svc, _, db := newCollectionFixture(t)

	curator := createTestUser(t, db, "curator", models.RoleUser)
	peeker := createTestUser(t, db, "peeker", models.RoleUser)

	collection, err := svc.Create(curator.ID, &CreateCollectionRequest{Name: "secret"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ref := strconv.FormatUint(uint64(collection.ID), 10)
	if _, err := svc.ProjectIDs(ref, peeker.ID); err == nil {
		t.Fatal("private collection should be hidden from others")
	}
	if _, err := svc.ProjectIDs(ref, curator.ID); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
}
