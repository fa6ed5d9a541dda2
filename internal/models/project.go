package models

import (
	"time"

	"gorm.io/gorm"
)

// Publishing statuses. Only approved projects can be indexed.
const (
	StatusDraft      = "draft"
	StatusProcessing = "processing"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusWithheld   = "withheld"
)

// Visibilities.
const (
	VisibilityListed   = "listed"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
	VisibilityArchived = "archived"
)

// Project is the authoritative row for a hosted mod/project. The search
// document and home-page carousel cache entry are derived projections and
// must always be reconcilable from this row plus team/org membership.
type Project struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Slug            string         `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Name            string         `gorm:"size:200;not null" json:"name"`
	Summary         string         `gorm:"size:500" json:"summary"`
	Description     string         `gorm:"type:text" json:"description"`
	Type            string         `gorm:"size:50;default:mod" json:"type"` // mod, modpack, resourcepack, shader
	Status          string         `gorm:"size:50;default:draft;index" json:"status"`
	RequestedStatus *string        `gorm:"size:50" json:"requested_status"`
	Visibility      string         `gorm:"size:50;default:private;index" json:"visibility"`
	LicenseID       string         `gorm:"size:100" json:"license_id"`
	LicenseName     string         `gorm:"size:200" json:"license_name"`
	IconFileID      *uint          `json:"icon_file_id"`
	Downloads       int64          `gorm:"default:0" json:"downloads"`
	Followers       int64          `gorm:"default:0" json:"followers"`
	DateQueued      *time.Time     `json:"date_queued"`
	DateApproved    *time.Time     `json:"date_approved"`
	TeamID          uint           `gorm:"index;not null" json:"team_id"`
	Team            *Team          `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Gallery         []GalleryImage `gorm:"foreignKey:ProjectID" json:"gallery,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

// IsIndexable reports whether the project appears in search: approved status
// combined with listed or archived visibility.
func (p *Project) IsIndexable() bool {
	return p.Status == StatusApproved &&
		(p.Visibility == VisibilityListed || p.Visibility == VisibilityArchived)
}

// IsRejectedFamily reports whether the project sits in a state that allows
// (rate-limited) resubmission.
func (p *Project) IsRejectedFamily() bool {
	return p.Status == StatusRejected || p.Status == StatusWithheld
}

// GalleryImage links a project to a stored image file.
type GalleryImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	FileID    uint      `gorm:"not null" json:"file_id"`
	File      *File     `gorm:"foreignKey:FileID" json:"file,omitempty"`
	Title     string    `gorm:"size:200" json:"title"`
	Featured  bool      `gorm:"default:false" json:"featured"`
	Ordering  int       `gorm:"default:0" json:"ordering"`
	CreatedAt time.Time `json:"created_at"`
}

func (GalleryImage) TableName() string { return "gallery_images" }

// File is a stored object record. The blob itself lives in object storage
// under Key; deleting the row does not delete the blob.
type File struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"size:500;not null" json:"-"` // storage key, e.g. projects/{id}/icon-{uuid}.png
	Name        string    `gorm:"size:300;not null" json:"name"`
	Size        int64     `json:"size"`
	SHA1        string    `gorm:"size:64" json:"sha1"`
	ContentType string    `gorm:"size:100" json:"content_type"`
	URL         string    `gorm:"size:600" json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (File) TableName() string { return "files" }

// ProjectFollow is one entry in a user's follow list. Project.Followers is
// the denormalized count over these rows.
type ProjectFollow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_follow_user_project;not null" json:"user_id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_follow_user_project;index;not null" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectFollow) TableName() string { return "project_follows" }

// ProjectDailyStat is a per-day download rollup. Deleting it during a project
// cascade is best-effort; a dangling row is harmless.
type ProjectDailyStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	Date      time.Time `gorm:"index;not null" json:"date"`
	Downloads int64     `gorm:"default:0" json:"downloads"`
}

func (ProjectDailyStat) TableName() string { return "project_daily_stats" }
