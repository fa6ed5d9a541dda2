package models

import "time"

// Thread message types.
const (
	MessageText         = "text"
	MessageStatusChange = "status_change"
)

// Thread is the per-project moderation/discussion log.
type Thread struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex;not null" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Thread) TableName() string { return "threads" }

// ThreadMessage is an immutable entry in a thread. Status-change messages
// record old/new status; HideAuthor masks moderator identities from
// non-moderator viewers.
type ThreadMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ThreadID   uint      `gorm:"index;not null" json:"thread_id"`
	AuthorID   *uint     `json:"author_id"`
	Type       string    `gorm:"size:50;default:text" json:"type"`
	Body       string    `gorm:"type:text" json:"body"`
	OldStatus  string    `gorm:"size:50" json:"old_status,omitempty"`
	NewStatus  string    `gorm:"size:50" json:"new_status,omitempty"`
	HideAuthor bool      `gorm:"default:false" json:"hide_author"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (ThreadMessage) TableName() string { return "thread_messages" }
