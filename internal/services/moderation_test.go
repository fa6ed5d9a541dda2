package services

import (
	"strings"
	"testing"
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"gorm.io/gorm"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from   string
		action string
		want   string
	}{
		{models.StatusDraft, ActionSubmit, models.StatusProcessing},
		{models.StatusRejected, ActionSubmit, models.StatusProcessing},
		{models.StatusWithheld, ActionSubmit, models.StatusProcessing},
		{models.StatusProcessing, ActionApprove, models.StatusApproved},
		{models.StatusProcessing, ActionReject, models.StatusRejected},
		{models.StatusApproved, ActionWithhold, models.StatusWithheld},
		// Illegal transitions resolve to empty.
		{models.StatusProcessing, ActionSubmit, ""},
		{models.StatusApproved, ActionSubmit, ""},
		{models.StatusDraft, ActionApprove, ""},
		{models.StatusDraft, ActionWithhold, ""},
		{models.StatusRejected, ActionReject, ""},
		{models.StatusWithheld, ActionWithhold, ""},
	}

	for _, tt := range tests {
		if got := NextStatus(tt.from, tt.action); got != tt.want {
			t.Errorf("NextStatus(%s, %s) = %q, expected %q", tt.from, tt.action, got, tt.want)
		}
	}
}

func TestCooldownRemaining(t *testing.T) {
	now := time.Now()
	hourAgo := now.Add(-1 * time.Hour)
	fourHoursAgo := now.Add(-4 * time.Hour)

	tests := []struct {
		name       string
		status     string
		dateQueued *time.Time
		want       int
	}{
		{"rejected one hour ago", models.StatusRejected, &hourAgo, 120},
		{"withheld one hour ago", models.StatusWithheld, &hourAgo, 120},
		{"rejected past cooldown", models.StatusRejected, &fourHoursAgo, 0},
		{"rejected never queued", models.StatusRejected, nil, 0},
		{"draft is exempt", models.StatusDraft, &hourAgo, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Project{Status: tt.status, DateQueued: tt.dateQueued}
			if got := CooldownRemaining(p, now); got != tt.want {
				t.Errorf("CooldownRemaining = %d, expected %d", got, tt.want)
			}
		})
	}
}

func newModerationService(t *testing.T, db *gorm.DB) *ModerationService {
	t.Helper()
	sync, _ := newSyncedSearch(t, db)
	return NewModerationService(db, sync)
}

func completeProject(t *testing.T, db *gorm.DB, p *models.Project) {
	t.Helper()
	version := &models.Version{ProjectID: p.ID, VersionNumber: "1.0.0", GameVersions: "0.3.1"}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("failed to create version: %v", err)
	}
	err := db.Model(p).Updates(map[string]interface{}{
		"description": "A very real mod.",
		"license_id":  "MIT",
	}).Error
	if err != nil {
		t.Fatalf("failed to complete project: %v", err)
	}
}

func TestQueueForApproval_OwnerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newModerationService(t, db)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	other := createTestUser(t, db, "other", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusDraft, models.VisibilityPrivate)
	completeProject(t, db, project)

	if _, err := svc.QueueForApproval(project.ID, other.ID, models.RoleUser); err == nil {
		t.Fatal("non-owner submission should fail")
	}
}

func TestQueueForApproval_Cooldown(t *testing.T) {
	db := newTestDB(t)
	svc := newModerationService(t, db)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusRejected, models.VisibilityPrivate)
	completeProject(t, db, project)

	queuedAt := time.Now().Add(-1 * time.Hour)
	if err := db.Model(project).Update("date_queued", queuedAt).Error; err != nil {
		t.Fatalf("failed to set date_queued: %v", err)
	}

	_, err := svc.QueueForApproval(project.ID, owner.ID, models.RoleUser)
	if err == nil {
		t.Fatal("resubmission inside the cooldown should fail")
	}
	if !strings.Contains(err.Error(), "120 minutes") {
		t.Errorf("error = %q, expected it to mention \"120 minutes\"", err.Error())
	}
}

func TestQueueForApproval_CompletenessOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newModerationService(t, db)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusDraft, models.VisibilityPrivate)

	// No versions, no description, no license: the version gap reports first.
	_, err := svc.QueueForApproval(project.ID, owner.ID, models.RoleUser)
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Fatalf("error = %v, expected the version message first", err)
	}

	version := &models.Version{ProjectID: project.ID, VersionNumber: "1.0.0"}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("failed to create version: %v", err)
	}

	_, err = svc.QueueForApproval(project.ID, owner.ID, models.RoleUser)
	if err == nil || !strings.Contains(err.Error(), "description") {
		t.Fatalf("error = %v, expected the description message next", err)
	}

	if err := db.Model(project).Update("description", "words").Error; err != nil {
		t.Fatalf("failed to set description: %v", err)
	}

	_, err = svc.QueueForApproval(project.ID, owner.ID, models.RoleUser)
	if err == nil || !strings.Contains(err.Error(), "license") {
		t.Fatalf("error = %v, expected the license message last", err)
	}
}

func TestQueueForApproval_Success(t *testing.T) {
	db := newTestDB(t)
	svc := newModerationService(t, db)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusDraft, models.VisibilityPrivate)
	completeProject(t, db, project)

	msg, err := svc.QueueForApproval(project.ID, owner.ID, models.RoleUser)
	if err != nil {
		t.Fatalf("QueueForApproval failed: %v", err)
	}
	if !strings.Contains(msg, "24") {
		t.Errorf("success message %q should mention the review window", msg)
	}

	var reloaded models.Project
	if err := db.First(&reloaded, project.ID).Error; err != nil {
		t.Fatalf("failed to reload project: %v", err)
	}
	if reloaded.Status != models.StatusProcessing {
		t.Errorf("status = %q, expected %q", reloaded.Status, models.StatusProcessing)
	}
	if reloaded.RequestedStatus == nil || *reloaded.RequestedStatus != models.StatusApproved {
		t.Errorf("requested_status = %v, expected approved", reloaded.RequestedStatus)
	}
	if reloaded.DateQueued == nil {
		t.Error("date_queued should be set")
	}

	// The thread records the transition.
	var messages []models.ThreadMessage
	if err := db.Find(&messages).Error; err != nil {
		t.Fatalf("failed to load thread messages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("thread has %d messages, expected 1", len(messages))
	}
	if messages[0].Type != models.MessageStatusChange ||
		messages[0].OldStatus != models.StatusDraft ||
		messages[0].NewStatus != models.StatusProcessing {
		t.Errorf("unexpected thread message: %+v", messages[0])
	}

	// First submission from draft does not notify anyone.
	var notifications int64
	db.Model(&models.Notification{}).Count(&notifications)
	if notifications != 0 {
		t.Errorf("notifications = %d, expected 0", notifications)
	}
}

func TestQueueForApproval_ResubmissionNotifiesOwner(t *testing.T) {
	db := newTestDB(t)
	svc := newModerationService(t, db)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusRejected, models.VisibilityPrivate)
	completeProject(t, db, project)

	if _, err := svc.QueueForApproval(project.ID, owner.ID, models.RoleUser); err != nil {
		t.Fatalf("QueueForApproval failed: %v", err)
	}

	var notifications []models.Notification
	if err := db.Find(&notifications).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	if len(notifications) != 1 || notifications[0].UserID != owner.ID {
		t.Errorf("notifications = %+v, expected one for the owner", notifications)
	}
}

func TestDecide_ApproveIndexesProject(t *testing.T) {
	db := newTestDB(t)
	sync, idx := newSyncedSearch(t, db)
	svc := NewModerationService(db, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	mod := createTestUser(t, db, "mod", models.RoleModerator)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusProcessing, models.VisibilityListed)

	if err := svc.Decide(project.ID, mod.ID, models.RoleModerator, ActionApprove); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	var reloaded models.Project
	if err := db.First(&reloaded, project.ID).Error; err != nil {
		t.Fatalf("failed to reload project: %v", err)
	}
	if reloaded.Status != models.StatusApproved {
		t.Errorf("status = %q, expected approved", reloaded.Status)
	}
	if reloaded.DateApproved == nil {
		t.Error("date_approved should be set")
	}
	if !idx.Has(project.ID) {
		t.Error("approved listed project should be in the search index")
	}
}

func TestDecide_WithholdRemovesFromIndex(t *testing.T) {
	db := newTestDB(t)
	sync, idx := newSyncedSearch(t, db)
	svc := NewModerationService(db, sync)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	mod := createTestUser(t, db, "mod", models.RoleModerator)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusApproved, models.VisibilityListed)

	if err := sync.MarkDirty([]uint{project.ID}); err != nil {
		t.Fatalf("MarkDirty failed: %v", err)
	}
	if !idx.Has(project.ID) {
		t.Fatal("precondition: project should be indexed")
	}

	if err := svc.Decide(project.ID, mod.ID, models.RoleModerator, ActionWithhold); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if idx.Has(project.ID) {
		t.Error("withheld project should be gone from the search index")
	}
}

func TestDecide_RequiresModeratorRole(t *testing.T) {
	db := newTestDB(t)
	svc := newModerationService(t, db)

	owner := createTestUser(t, db, "owner", models.RoleUser)
	project := createTestProject(t, db, owner.ID, "alpha", models.StatusProcessing, models.VisibilityListed)

	if err := svc.Decide(project.ID, owner.ID, models.RoleUser, ActionApprove); err == nil {
		t.Fatal("non-moderator decision should fail")
	}
}
