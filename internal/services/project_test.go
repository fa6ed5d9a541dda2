package services

import (
	"context"
	"testing"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/cache"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/storage"
)

func TestIsAccessible(t *testing.T) {
	member := &models.TeamMember{UserID: 7, Accepted: true, IsOwner: true}
	team := &models.Team{Members: []models.TeamMember{*member}}

	tests := []struct {
		name       string
		status     string
		visibility string
		viewerID   uint
		viewerRole string
		want       bool
	}{
		{"approved listed is public", models.StatusApproved, models.VisibilityListed, 0, "", true},
		{"approved archived is public", models.StatusApproved, models.VisibilityArchived, 0, "", true},
		{"approved unlisted reachable by link", models.StatusApproved, models.VisibilityUnlisted, 0, "", true},
		{"draft private hidden from strangers", models.StatusDraft, models.VisibilityPrivate, 3, models.RoleUser, false},
		{"draft private visible to member", models.StatusDraft, models.VisibilityPrivate, 7, models.RoleUser, true},
		{"draft private visible to moderator", models.StatusDraft, models.VisibilityPrivate, 3, models.RoleModerator, true},
		{"rejected hidden from strangers", models.StatusRejected, models.VisibilityListed, 3, models.RoleUser, false},
		{"withheld hidden from strangers", models.StatusWithheld, models.VisibilityListed, 3, models.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Project{Status: tt.status, Visibility: tt.visibility, Team: team}
			if got := IsAccessible(p, tt.viewerID, tt.viewerRole); got != tt.want {
				t.Errorf("IsAccessible = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestGetAccessible_ConflatesMissingAndHidden(t *testing.T) {
	db := newTestDB(t)
	sync, idx := newSyncedSearch(t, db)
	svc := NewProjectService(db, idx, cache.NewMemory(), nil, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	stranger := createTestUser(t, db, "stranger", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "secret", models.StatusDraft, models.VisibilityPrivate)

	_, errHidden := svc.GetAccessible(project.ID, stranger.ID, models.RoleUser)
	_, errMissing := svc.GetAccessible(99999, stranger.ID, models.RoleUser)

	if errHidden == nil || errMissing == nil {
		t.Fatal("both lookups should fail")
	}
	if errHidden.Error() != errMissing.Error() {
		t.Errorf("hidden error %q differs from missing error %q", errHidden.Error(), errMissing.Error())
	}
}

func TestDelete_CascadesEverywhere(t *testing.T) {
	db := newTestDB(t)
	sync, idx := newSyncedSearch(t, db)
	fs := storage.NewLocal(t.TempDir())
	svc := NewProjectService(db, idx, cache.NewMemory(), fs, sync)
	follows := NewFollowService(db, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	fan := createTestUser(t, db, "fan", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "doomed", models.StatusApproved, models.VisibilityListed)

	// A version with a file row.
	file := &models.File{Key: "projects/1/versions/a.jar", Name: "a.jar"}
	if err := db.Create(file).Error; err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	version := &models.Version{ProjectID: project.ID, VersionNumber: "1.0.0"}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("failed to create version: %v", err)
	}
	vf := &models.VersionFile{VersionID: version.ID, FileID: file.ID, Primary: true}
	if err := db.Create(vf).Error; err != nil {
		t.Fatalf("failed to create version file: %v", err)
	}

	// A follower and a collection entry referencing the project.
	if err := sync.MarkDirty([]uint{project.ID}); err != nil {
		t.Fatalf("MarkDirty failed: %v", err)
	}
	if err := follows.AddFollows(context.Background(), []uint{project.ID}, fan.ID, models.RoleUser); err != nil {
		t.Fatalf("AddFollows failed: %v", err)
	}
	collection := &models.Collection{UserID: fan.ID, Name: "favs"}
	if err := db.Create(collection).Error; err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	entry := &models.CollectionProject{CollectionID: collection.ID, ProjectID: project.ID}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create collection entry: %v", err)
	}

	if !idx.Has(project.ID) {
		t.Fatal("precondition: project should be indexed")
	}

	if err := svc.Delete(context.Background(), owner.ID, models.RoleUser, project.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	checks := []struct {
		name  string
		model interface{}
		where string
		arg   uint
	}{
		{"projects", &models.Project{}, "id = ?", project.ID},
		{"versions", &models.Version{}, "project_id = ?", project.ID},
		{"version_files", &models.VersionFile{}, "version_id = ?", version.ID},
		{"follows", &models.ProjectFollow{}, "project_id = ?", project.ID},
		{"collection_entries", &models.CollectionProject{}, "project_id = ?", project.ID},
		{"team_members", &models.TeamMember{}, "team_id = ?", project.TeamID},
	}
	for _, c := range checks {
		var n int64
		if err := db.Model(c.model).Where(c.where, c.arg).Count(&n).Error; err != nil {
			t.Fatalf("count %s failed: %v", c.name, err)
		}
		if n != 0 {
			t.Errorf("%s still has %d rows referencing the project", c.name, n)
		}
	}

	if idx.Has(project.ID) {
		t.Error("search document should be tombstoned")
	}

	// Hydration of the stale id comes back empty.
	remaining, err := svc.GetMany([]uint{project.ID}, fan.ID, models.RoleUser)
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("GetMany returned %d projects, expected 0", len(remaining))
	}
}

func TestListByUser_CachePurgedByDelete(t *testing.T) {
	db := newTestDB(t)
	sync, idx := newSyncedSearch(t, db)
	fs := storage.NewLocal(t.TempDir())
	svc := NewProjectService(db, idx, cache.NewMemory(), fs, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	first := createTestProject(t, db, owner.ID, "first-mod", models.StatusApproved, models.VisibilityListed)

	got, err := svc.ListByUser(owner.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != first.ID {
		t.Fatalf("ListByUser returned %d projects, expected only %d", len(got), first.ID)
	}

	// A second project created behind the service's back stays invisible:
	// the listing is now served from cache.
	second := createTestProject(t, db, owner.ID, "second-mod", models.StatusApproved, models.VisibilityListed)
	got, err = svc.ListByUser(owner.ID)
	if err != nil {
		t.Fatalf("cached ListByUser failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("cached ListByUser returned %d projects, expected the stale single entry", len(got))
	}

	// Deleting the first project purges the owner's cached list, so the next
	// read comes from the database and sees the second project.
	if err := svc.Delete(context.Background(), owner.ID, models.RoleUser, first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err = svc.ListByUser(owner.ID)
	if err != nil {
		t.Fatalf("ListByUser after delete failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != second.ID {
		t.Errorf("ListByUser after delete returned %d projects, expected only %d", len(got), second.ID)
	}
}
