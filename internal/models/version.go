package models

import (
	"time"

	"gorm.io/gorm"
)

// Release channels.
const (
	ChannelRelease = "release"
	ChannelBeta    = "beta"
	ChannelAlpha   = "alpha"
)

// Dependency types.
const (
	DependencyRequired     = "required"
	DependencyOptional     = "optional"
	DependencyEmbedded     = "embedded"
	DependencyIncompatible = "incompatible"
)

// Version is one published build of a project.
type Version struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	ProjectID      uint                `gorm:"index;not null" json:"project_id"`
	Title          string              `gorm:"size:200" json:"title"`
	VersionNumber  string              `gorm:"size:100;not null" json:"version_number"`
	Changelog      string              `gorm:"type:text" json:"changelog"`
	ReleaseChannel string              `gorm:"size:20;default:release" json:"release_channel"`
	GameVersions   string              `gorm:"size:1000" json:"game_versions"` // comma-separated, e.g. 0.3.1,0.3.2
	Loaders        string              `gorm:"size:500" json:"loaders"`        // comma-separated
	Downloads      int64               `gorm:"default:0" json:"downloads"`
	AuthorID       uint                `json:"author_id"`
	Files          []VersionFile       `gorm:"foreignKey:VersionID" json:"files,omitempty"`
	Dependencies   []VersionDependency `gorm:"foreignKey:VersionID" json:"dependencies,omitempty"`
	CreatedAt      time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (Version) TableName() string { return "versions" }

// VersionFile links a version to a stored file. Exactly one file per version
// is marked primary.
type VersionFile struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	VersionID uint  `gorm:"index;not null" json:"version_id"`
	FileID    uint  `gorm:"not null" json:"file_id"`
	File      *File `gorm:"foreignKey:FileID" json:"file,omitempty"`
	Primary   bool  `gorm:"default:false" json:"primary"`
}

func (VersionFile) TableName() string { return "version_files" }

// VersionDependency references another project (and optionally a specific
// version of it) that this version requires, embeds or conflicts with.
type VersionDependency struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	VersionID       uint   `gorm:"index;not null" json:"version_id"`
	DependencyType  string `gorm:"size:20;not null" json:"dependency_type"`
	TargetProjectID uint   `gorm:"not null" json:"target_project_id"`
	TargetVersionID *uint  `json:"target_version_id"`
}

func (VersionDependency) TableName() string { return "version_dependencies" }
