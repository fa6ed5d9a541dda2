package services

import (
	"errors"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/permission"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"gorm.io/gorm"
)

// MemberService resolves team membership. A project's effective member set
// is the union of its own team and, when the team belongs to an
// organization, the organization's team.
type MemberService struct {
	db *gorm.DB
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// loadTeam fetches a team with members and, if org-owned, the org team's
// members as well.
func (s *MemberService) loadTeam(teamID uint) (*models.Team, error) {
	var team models.Team
	err := s.db.Preload("Members").Preload("Members.User").
		Preload("Organization").Preload("Organization.Team.Members").
		First(&team, teamID).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// EffectiveMembers returns the union of project-team and org-team members.
// Project-team entries win on user id collision.
func EffectiveMembers(team *models.Team) []models.TeamMember {
	members := make([]models.TeamMember, 0, len(team.Members))
	seen := make(map[uint]struct{}, len(team.Members))

	for _, m := range team.Members {
		members = append(members, m)
		seen[m.UserID] = struct{}{}
	}
	if team.Organization != nil && team.Organization.Team != nil {
		for _, m := range team.Organization.Team.Members {
			if _, dup := seen[m.UserID]; dup {
				continue
			}
			members = append(members, m)
		}
	}
	return members
}

// GetCurrentMember returns the accepted membership entry for userID, or nil.
func GetCurrentMember(team *models.Team, userID uint) *models.TeamMember {
	for _, m := range EffectiveMembers(team) {
		if m.UserID == userID && m.Accepted {
			member := m
			return &member
		}
	}
	return nil
}

// IsMember reports whether userID has any accepted membership on the team.
func IsMember(team *models.Team, userID uint) bool {
	return GetCurrentMember(team, userID) != nil
}

// InviteMember adds a pending membership entry. Caller must hold the
// ManageInvites permission on the team.
func (s *MemberService) InviteMember(teamID, callerID, targetUserID uint, role string, perms int64, callerRole string) error {
	team, err := s.loadTeam(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("Team not found")
		}
		return err
	}

	caller := GetCurrentMember(team, callerID)
	var callerPerms int64
	isOwner := false
	if caller != nil {
		callerPerms = caller.Permissions
		isOwner = caller.IsOwner
	}
	if !permission.HasAccess(permission.ManageInvites, callerPerms, isOwner, callerRole) {
		return response.NewUnauthorized("You don't have permission to invite members")
	}

	var existing models.TeamMember
	err = s.db.Where("team_id = ? AND user_id = ?", teamID, targetUserID).First(&existing).Error
	if err == nil {
		return response.NewInvalidRequest("User is already a member of this team")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	member := models.TeamMember{
		TeamID:      teamID,
		UserID:      targetUserID,
		Role:        role,
		Permissions: perms,
		Accepted:    false,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return err
	}

	notif := models.Notification{
		UserID: targetUserID,
		Type:   "team_invite",
		Title:  "Team invite",
		Body:   "You have been invited to join a team",
	}
	return s.db.Create(&notif).Error
}

// AcceptInvite flips the pending flag for the caller's own membership.
func (s *MemberService) AcceptInvite(teamID, userID uint) error {
	result := s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND accepted = ?", teamID, userID, false).
		Update("accepted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("No pending invite found")
	}
	return nil
}

// RemoveMember removes a membership entry. Owners cannot be removed; use
// TransferOwnership first.
func (s *MemberService) RemoveMember(teamID, callerID, targetUserID uint, callerRole string) error {
	team, err := s.loadTeam(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("Team not found")
		}
		return err
	}

	caller := GetCurrentMember(team, callerID)
	var callerPerms int64
	isOwner := false
	if caller != nil {
		callerPerms = caller.Permissions
		isOwner = caller.IsOwner
	}
	// Leaving a team is always allowed for non-owners.
	if callerID != targetUserID && !permission.HasAccess(permission.RemoveMember, callerPerms, isOwner, callerRole) {
		return response.NewUnauthorized("You don't have permission to remove members")
	}

	var target models.TeamMember
	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, targetUserID).First(&target).Error; err != nil {
		return response.NewNotFound("Member not found")
	}
	if target.IsOwner {
		return response.NewInvalidRequest("The team owner can't be removed")
	}

	return s.db.Delete(&target).Error
}

// TransferOwnership moves the owner flag to another accepted member in one
// transaction, preserving the exactly-one-owner invariant.
func (s *MemberService) TransferOwnership(teamID, callerID, targetUserID uint) error {
	team, err := s.loadTeam(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("Team not found")
		}
		return err
	}

	caller := GetCurrentMember(team, callerID)
	if caller == nil || !caller.IsOwner {
		return response.NewUnauthorized("Only the team owner can transfer ownership")
	}

	var target models.TeamMember
	err = s.db.Where("team_id = ? AND user_id = ? AND accepted = ?", teamID, targetUserID, true).First(&target).Error
	if err != nil {
		return response.NewNotFound("Member not found")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TeamMember{}).
			Where("team_id = ? AND user_id = ?", teamID, callerID).
			Update("is_owner", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.TeamMember{}).
			Where("team_id = ? AND user_id = ?", teamID, targetUserID).
			Updates(map[string]interface{}{"is_owner": true, "permissions": permission.All}).Error
	})
}
