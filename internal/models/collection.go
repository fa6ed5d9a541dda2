package models

import (
	"time"

	"gorm.io/gorm"
)

// FollowsCollectionID is the sentinel id for the "Follows" pseudo-collection.
// It resolves to the user's follow list and is never stored.
const FollowsCollectionID = "follows"

// Collection is a user-owned ordered set of project ids.
type Collection struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	UserID      uint                `gorm:"index;not null" json:"user_id"`
	Name        string              `gorm:"size:200;not null" json:"name"`
	Description string              `gorm:"size:500" json:"description"`
	Visibility  string              `gorm:"size:50;default:private" json:"visibility"` // listed, unlisted, private
	Projects    []CollectionProject `gorm:"foreignKey:CollectionID" json:"projects,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	DeletedAt   gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (Collection) TableName() string { return "collections" }

// CollectionProject is one entry of a collection, ordered by Ordering.
type CollectionProject struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CollectionID uint      `gorm:"uniqueIndex:idx_collection_project;not null" json:"collection_id"`
	ProjectID    uint      `gorm:"uniqueIndex:idx_collection_project;index;not null" json:"project_id"`
	Ordering     int       `gorm:"default:0" json:"ordering"`
	CreatedAt    time.Time `json:"created_at"`
}

func (CollectionProject) TableName() string { return "collection_projects" }
