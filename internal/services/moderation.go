package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"gorm.io/gorm"
)

// ResubmissionCooldown is the minimum wait between a rejection and the
// next submission of the same project.
const ResubmissionCooldown = 3 * time.Hour

// Moderation actions.
const (
	ActionSubmit   = "submit"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionWithhold = "withhold"
)

type transition struct {
	from   string
	action string
}

// transitions is the full publishing state machine. Anything not listed
// here is an invalid transition for the current state.
var transitions = map[transition]string{
	{models.StatusDraft, ActionSubmit}:       models.StatusProcessing,
	{models.StatusRejected, ActionSubmit}:    models.StatusProcessing,
	{models.StatusWithheld, ActionSubmit}:    models.StatusProcessing,
	{models.StatusProcessing, ActionApprove}: models.StatusApproved,
	{models.StatusProcessing, ActionReject}:  models.StatusRejected,
	{models.StatusApproved, ActionWithhold}:  models.StatusWithheld,
}

// moderatorActions may only be performed by moderation-tier roles.
var moderatorActions = map[string]bool{
	ActionApprove:  true,
	ActionReject:   true,
	ActionWithhold: true,
}

// NextStatus resolves the state machine for one step. Returns the new
// status, or "" if the action is not valid from the current state.
func NextStatus(current, action string) string {
	return transitions[transition{current, action}]
}

// ModerationService drives the project publishing workflow
type ModerationService struct {
	db            *gorm.DB
	sync          *SearchSyncService
	threads       *ThreadService
	notifications *NotificationService
}

// NewModerationService creates a new moderation service instance
func NewModerationService(db *gorm.DB, sync *SearchSyncService) *ModerationService {
	return &ModerationService{
		db:            db,
		sync:          sync,
		threads:       NewThreadService(db),
		notifications: NewNotificationService(db),
	}
}

func (s *ModerationService) loadProject(projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.Preload("Team.Members").Preload("Team.Organization.Team.Members").
		First(&project, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, err
	}
	return &project, nil
}

// CooldownRemaining returns the wait left before a rejected project may be
// resubmitted, in whole minutes (rounded half-up). Zero means no wait.
func CooldownRemaining(p *models.Project, now time.Time) int {
	if !p.IsRejectedFamily() || p.DateQueued == nil {
		return 0
	}
	remaining := ResubmissionCooldown - now.Sub(*p.DateQueued)
	if remaining <= 0 {
		return 0
	}
	return int(math.Round(remaining.Minutes()))
}

// checkComplete verifies the listing is minimally viable for indexing.
// Checks run in a fixed order so the caller always sees the first gap.
func (s *ModerationService) checkComplete(p *models.Project) error {
	var versionCount int64
	if err := s.db.Model(&models.Version{}).Where("project_id = ?", p.ID).Count(&versionCount).Error; err != nil {
		return fmt.Errorf("failed to count versions: %w", err)
	}
	if versionCount == 0 {
		return response.NewInvalidRequest("Upload at least one version before submitting for review")
	}
	if p.Description == "" {
		return response.NewInvalidRequest("Add a description to your project before submitting for review")
	}
	if p.LicenseID == "" && p.LicenseName == "" {
		return response.NewInvalidRequest("Select a license for your project before submitting for review")
	}
	return nil
}

// QueueForApproval submits a project to the moderation queue. Only the
// project owner may submit; rejected projects must wait out the cooldown.
func (s *ModerationService) QueueForApproval(projectID, userID uint, userRole string) (string, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return "", err
	}

	member := GetCurrentMember(project.Team, userID)
	if member == nil || !member.IsOwner {
		return "", response.NewInvalidRequest("Only the project owner can submit the project for review")
	}

	now := time.Now()
	if wait := CooldownRemaining(project, now); wait > 0 {
		return "", response.NewInvalidRequest(fmt.Sprintf("Please wait %d minutes before submitting again", wait))
	}

	if NextStatus(project.Status, ActionSubmit) == "" {
		return "", response.NewInvalidRequest("This project cannot be submitted for review in its current state")
	}

	if err := s.checkComplete(project); err != nil {
		return "", err
	}

	oldStatus := project.Status
	requested := models.StatusApproved
	updates := map[string]interface{}{
		"status":           models.StatusProcessing,
		"requested_status": requested,
		"date_queued":      now,
	}
	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return "", fmt.Errorf("failed to queue project: %w", err)
	}

	hideAuthor := userRole == models.RoleModerator || userRole == models.RoleAdmin
	if err := s.threads.AddStatusMessage(project.ID, userID, oldStatus, models.StatusProcessing, hideAuthor); err != nil {
		logger.Warnf("[Moderation] Failed to record thread message for project %d: %v", project.ID, err)
	}

	// Resubmissions notify the owner; the first submit from draft doesn't.
	if oldStatus != models.StatusDraft {
		s.notifyOwners(project, models.StatusProcessing)
	}

	LogInfo("moderation", ActionSubmit, fmt.Sprintf("project %d queued for approval", project.ID), &userID, "", "", nil)
	return "Project submitted for review! Expect a review within 24 to 48 hours.", nil
}

// Decide applies a moderator decision (approve, reject or withhold) and
// resyncs the project's search document.
func (s *ModerationService) Decide(projectID, moderatorID uint, moderatorRole, action string) error {
	if !moderatorActions[action] {
		return response.NewInvalidRequest("Unknown moderation action")
	}
	if moderatorRole != models.RoleModerator && moderatorRole != models.RoleAdmin {
		return response.NewUnauthorized("Moderator role required")
	}

	project, err := s.loadProject(projectID)
	if err != nil {
		return err
	}

	newStatus := NextStatus(project.Status, action)
	if newStatus == "" {
		return response.NewInvalidRequest(fmt.Sprintf("Cannot %s a project that is %s", action, project.Status))
	}

	oldStatus := project.Status
	updates := map[string]interface{}{
		"status":           newStatus,
		"requested_status": nil,
	}
	if newStatus == models.StatusApproved {
		updates["date_approved"] = time.Now()
	}
	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}

	if err := s.threads.AddStatusMessage(project.ID, moderatorID, oldStatus, newStatus, true); err != nil {
		logger.Warnf("[Moderation] Failed to record thread message for project %d: %v", project.ID, err)
	}
	s.notifyOwners(project, newStatus)

	if err := s.sync.MarkDirty([]uint{project.ID}); err != nil {
		logger.Warnf("[Moderation] Failed to queue search resync for project %d: %v", project.ID, err)
	}

	LogInfo("moderation", action, fmt.Sprintf("project %d %s", project.ID, newStatus), &moderatorID, "", "", nil)
	return nil
}

// Queue lists projects awaiting review, oldest submission first.
func (s *ModerationService) Queue() ([]models.Project, error) {
	var projects []models.Project
	err := s.db.Where("status = ?", models.StatusProcessing).
		Order("date_queued ASC").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load moderation queue: %w", err)
	}
	return projects, nil
}

func (s *ModerationService) notifyOwners(project *models.Project, newStatus string) {
	if project.Team == nil {
		return
	}
	for _, m := range EffectiveMembers(project.Team) {
		if !m.IsOwner {
			continue
		}
		if err := s.notifications.NotifyStatusChange(m.UserID, project.ID, project.Name, newStatus); err != nil {
			logger.Warnf("[Moderation] Failed to notify user %d: %v", m.UserID, err)
		}
	}
}
