package services

import (
	"context"
	"testing"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
)

func followerCount(t *testing.T, svc *FollowService, projectID uint) int64 {
	t.Helper()
	var p models.Project
	if err := svc.db.First(&p, projectID).Error; err != nil {
		t.Fatalf("failed to reload project: %v", err)
	}
	return p.Followers
}

func TestAddFollows_IncrementsCounter(t *testing.T) {
	db := newTestDB(t)
	sync, _ := newSyncedSearch(t, db)
	svc := NewFollowService(db, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	viewer := createTestUser(t, db, "viewer", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusApproved, models.VisibilityListed)

	if err := svc.AddFollows(context.Background(), []uint{project.ID}, viewer.ID, models.RoleUser); err != nil {
		t.Fatalf("AddFollows failed: %v", err)
	}

	if got := followerCount(t, svc, project.ID); got != 1 {
		t.Errorf("followers = %d, expected 1", got)
	}

	ids, err := svc.Following(viewer.ID)
	if err != nil {
		t.Fatalf("Following failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != project.ID {
		t.Errorf("Following = %v, expected [%d]", ids, project.ID)
	}
}

func TestAddFollows_AlreadyFollowing(t *testing.T) {
	db := newTestDB(t)
	sync, _ := newSyncedSearch(t, db)
	svc := NewFollowService(db, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	viewer := createTestUser(t, db, "viewer", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusApproved, models.VisibilityListed)

	if err := svc.AddFollows(context.Background(), []uint{project.ID}, viewer.ID, models.RoleUser); err != nil {
		t.Fatalf("first AddFollows failed: %v", err)
	}

	err := svc.AddFollows(context.Background(), []uint{project.ID}, viewer.ID, models.RoleUser)
	if err == nil {
		t.Fatal("second AddFollows should fail")
	}
	if err.Error() != "Already following!" {
		t.Errorf("error = %q, expected %q", err.Error(), "Already following!")
	}

	// Counter must not double-count.
	if got := followerCount(t, svc, project.ID); got != 1 {
		t.Errorf("followers = %d, expected 1", got)
	}
}

func TestAddFollows_PrivateProject(t *testing.T) {
	db := newTestDB(t)
	sync, _ := newSyncedSearch(t, db)
	svc := NewFollowService(db, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	viewer := createTestUser(t, db, "viewer", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "secret", models.StatusDraft, models.VisibilityPrivate)

	err := svc.AddFollows(context.Background(), []uint{project.ID}, viewer.ID, models.RoleUser)
	if err == nil {
		t.Fatal("following a private project should fail")
	}
	if err.Error() != "You can't follow a private project" {
		t.Errorf("error = %q, expected %q", err.Error(), "You can't follow a private project")
	}

	if got := followerCount(t, svc, project.ID); got != 0 {
		t.Errorf("followers = %d, expected 0", got)
	}
}

func TestAddFollows_PartialBatch(t *testing.T) {
	db := newTestDB(t)
	sync, _ := newSyncedSearch(t, db)
	svc := NewFollowService(db, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	viewer := createTestUser(t, db, "viewer", models.RoleUser)

	public := createTestProject(t, db, owner.ID, "public", models.StatusApproved, models.VisibilityListed)
	private := createTestProject(t, db, owner.ID, "private", models.StatusDraft, models.VisibilityPrivate)
	followed := createTestProject(t, db, owner.ID, "followed", models.StatusApproved, models.VisibilityListed)

	if err := svc.AddFollows(context.Background(), []uint{followed.ID}, viewer.ID, models.RoleUser); err != nil {
		t.Fatalf("pre-follow failed: %v", err)
	}

	// Mixed batch: the addable project succeeds, the rest are skipped.
	batch := []uint{public.ID, private.ID, followed.ID}
	if err := svc.AddFollows(context.Background(), batch, viewer.ID, models.RoleUser); err != nil {
		t.Fatalf("batch AddFollows failed: %v", err)
	}

	if got := followerCount(t, svc, public.ID); got != 1 {
		t.Errorf("public followers = %d, expected 1", got)
	}
	if got := followerCount(t, svc, private.ID); got != 0 {
		t.Errorf("private followers = %d, expected 0", got)
	}
	if got := followerCount(t, svc, followed.ID); got != 1 {
		t.Errorf("followed followers = %d, expected 1", got)
	}

	ids, err := svc.Following(viewer.ID)
	if err != nil {
		t.Fatalf("Following failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("following %d projects, expected 2", len(ids))
	}
}

func TestRemoveFollows_Decrements(t *testing.T) {
	db := newTestDB(t)
	sync, _ := newSyncedSearch(t, db)
	svc := NewFollowService(db, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	viewer := createTestUser(t, db, "viewer", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusApproved, models.VisibilityListed)

	if err := svc.AddFollows(context.Background(), []uint{project.ID}, viewer.ID, models.RoleUser); err != nil {
		t.Fatalf("AddFollows failed: %v", err)
	}
	if err := svc.RemoveFollows(context.Background(), []uint{project.ID}, viewer.ID); err != nil {
		t.Fatalf("RemoveFollows failed: %v", err)
	}

	if got := followerCount(t, svc, project.ID); got != 0 {
		t.Errorf("followers = %d, expected 0", got)
	}
}

func TestRemoveFollows_NotFollowing(t *testing.T) {
	db := newTestDB(t)
	sync, _ := newSyncedSearch(t, db)
	svc := NewFollowService(db, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	viewer := createTestUser(t, db, "viewer", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusApproved, models.VisibilityListed)

	err := svc.RemoveFollows(context.Background(), []uint{project.ID}, viewer.ID)
	if err == nil {
		t.Fatal("unfollowing a project not followed should fail")
	}
	if err.Error() != "No projects removed!" {
		t.Errorf("error = %q, expected %q", err.Error(), "No projects removed!")
	}

	// Counter stays untouched.
	if got := followerCount(t, svc, project.ID); got != 0 {
		t.Errorf("followers = %d, expected 0", got)
	}
}
