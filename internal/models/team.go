package models

import (
	"time"

	"gorm.io/gorm"
)

// Team owns exactly one project (or one organization). Membership is the
// union of the team's own members and, for org-owned teams, the members of
// the organization's team.
type Team struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	OrganizationID *uint         `gorm:"index" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Members        []TeamMember  `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Team) TableName() string { return "teams" }

// TeamMember relates a user to a team. Exactly one member per team has
// IsOwner set; Accepted stays false while the invite is pending.
type TeamMember struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TeamID      uint      `gorm:"uniqueIndex:idx_team_member;not null" json:"team_id"`
	UserID      uint      `gorm:"uniqueIndex:idx_team_member;index;not null" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        string    `gorm:"size:100;default:Member" json:"role"` // display title only
	Permissions int64     `gorm:"default:0" json:"permissions"`
	IsOwner     bool      `gorm:"default:false" json:"is_owner"`
	Accepted    bool      `gorm:"default:false" json:"accepted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (TeamMember) TableName() string { return "team_members" }

// Organization groups projects under a shared team.
type Organization struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	TeamID      uint           `gorm:"index;not null" json:"team_id"` // the org's own member team
	Team        *Team          `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Organization) TableName() string { return "organizations" }
