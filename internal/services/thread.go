package services

import (
	"fmt"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"gorm.io/gorm"
)

// ThreadService manages per-project moderation threads
type ThreadService struct {
	db *gorm.DB
}

// NewThreadService creates a new thread service instance
func NewThreadService(db *gorm.DB) *ThreadService {
	return &ThreadService{db: db}
}

// EnsureThread returns the project's thread, creating it if missing.
func (s *ThreadService) EnsureThread(projectID uint) (*models.Thread, error) {
	var thread models.Thread
	err := s.db.Where("project_id = ?", projectID).First(&thread).Error
	if err == nil {
		return &thread, nil
	}
	thread = models.Thread{ProjectID: projectID}
	if err := s.db.Create(&thread).Error; err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return &thread, nil
}

// AddStatusMessage appends an immutable status-change entry to the
// project's thread. hideAuthor masks the author from non-moderators.
func (s *ThreadService) AddStatusMessage(projectID uint, authorID uint, oldStatus, newStatus string, hideAuthor bool) error {
	thread, err := s.EnsureThread(projectID)
	if err != nil {
		return err
	}
	msg := models.ThreadMessage{
		ThreadID:   thread.ID,
		AuthorID:   &authorID,
		Type:       models.MessageStatusChange,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		HideAuthor: hideAuthor,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return fmt.Errorf("failed to append thread message: %w", err)
	}
	return nil
}

// AddMessage appends a plain text entry to the project's thread.
func (s *ThreadService) AddMessage(projectID uint, authorID uint, body string, hideAuthor bool) error {
	if body == "" {
		return response.NewInvalidRequest("Message cannot be empty")
	}
	thread, err := s.EnsureThread(projectID)
	if err != nil {
		return err
	}
	msg := models.ThreadMessage{
		ThreadID:   thread.ID,
		AuthorID:   &authorID,
		Type:       models.MessageText,
		Body:       body,
		HideAuthor: hideAuthor,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return fmt.Errorf("failed to append thread message: %w", err)
	}
	return nil
}

// Messages returns the thread's entries, oldest first. For non-moderator
// viewers the author of hidden messages is stripped.
func (s *ThreadService) Messages(projectID uint, viewerIsModerator bool) ([]models.ThreadMessage, error) {
	thread, err := s.EnsureThread(projectID)
	if err != nil {
		return nil, err
	}
	var messages []models.ThreadMessage
	if err := s.db.Where("thread_id = ?", thread.ID).Order("created_at ASC, id ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load thread messages: %w", err)
	}
	if !viewerIsModerator {
		for i := range messages {
			if messages[i].HideAuthor {
				messages[i].AuthorID = nil
			}
		}
	}
	return messages, nil
}
