package services

import (
	"fmt"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"gorm.io/gorm"
)

// NotificationService manages user notifications
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service instance
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyStatusChange records a status-change notification for userID.
func (s *NotificationService) NotifyStatusChange(userID, projectID uint, projectName, newStatus string) error {
	n := models.Notification{
		UserID:    userID,
		Type:      "status_change",
		Title:     fmt.Sprintf("Status of %s changed", projectName),
		Body:      fmt.Sprintf("Project %s is now %s", projectName, newStatus),
		ProjectID: &projectID,
	}
	if err := s.db.Create(&n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// NotifyTeamInvite records a team-invite notification for userID.
func (s *NotificationService) NotifyTeamInvite(userID uint, teamName string) error {
	n := models.Notification{
		UserID: userID,
		Type:   "team_invite",
		Title:  "Team invitation",
		Body:   fmt.Sprintf("You have been invited to join %s", teamName),
	}
	if err := s.db.Create(&n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks a single notification as read.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true).Error
}
