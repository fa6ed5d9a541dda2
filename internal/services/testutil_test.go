package services

import (
	"fmt"
	"testing"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/permission"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/search"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter int

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBCounter++
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A single connection keeps sqlite happy under the concurrent fan-out
	// paths exercised by the services.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Team{},
		&models.TeamMember{},
		&models.Project{},
		&models.GalleryImage{},
		&models.File{},
		&models.Version{},
		&models.VersionFile{},
		&models.VersionDependency{},
		&models.ProjectFollow{},
		&models.Collection{},
		&models.CollectionProject{},
		&models.Thread{},
		&models.ThreadMessage{},
		&models.Notification{},
		&models.ProjectDailyStat{},
		&models.SystemLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// newSyncedSearch wires a memory index behind a sync queue so every
// MarkDirty call is processed inline.
func newSyncedSearch(t *testing.T, db *gorm.DB) (*SearchSyncService, *search.MemoryIndex) {
	t.Helper()
	idx := search.NewMemoryIndex()
	queue := NewSyncQueue()
	svc := NewSearchSyncService(db, idx, queue)
	queue.SetProcessor(svc.Process)
	return svc, idx
}

func createTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Password: "x", Role: role, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// createTestProject makes a project with its own team and the given user as
// accepted owner.
func createTestProject(t *testing.T, db *gorm.DB, ownerID uint, slug, status, visibility string) *models.Project {
	t.Helper()

	team := &models.Team{}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("failed to create team: %v", err)
	}
	member := &models.TeamMember{
		TeamID:      team.ID,
		UserID:      ownerID,
		Role:        "Owner",
		Permissions: permission.All,
		IsOwner:     true,
		Accepted:    true,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create team member: %v", err)
	}

	project := &models.Project{
		Slug:       slug,
		Name:       slug,
		Type:       "mod",
		Status:     status,
		Visibility: visibility,
		TeamID:     team.ID,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create project %s: %v", slug, err)
	}
	return project
}
