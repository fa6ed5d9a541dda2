package handlers

import (
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/middleware"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/services"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	memberService       *services.MemberService
	notificationService *services.NotificationService
}

func NewTeamHandler(members *services.MemberService, notifications *services.NotificationService) *TeamHandler {
	return &TeamHandler{memberService: members, notificationService: notifications}
}

type inviteRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	Role        string `json:"role" binding:"required,max=100"`
	Permissions int64  `json:"permissions"`
}

// Invite adds a pending member to the team
// POST /api/team/:id/invite
func (h *TeamHandler) Invite(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.memberService.InviteMember(teamID, middleware.GetUserID(c), req.UserID, req.Role, req.Permissions, middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Invitation sent")
}

// AcceptInvite accepts the caller's pending invite
// POST /api/team/:id/accept
func (h *TeamHandler) AcceptInvite(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.memberService.AcceptInvite(teamID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Invitation accepted")
}

// RemoveMember removes a member (or the caller leaves)
// DELETE /api/team/:id/member/:userId
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	err := h.memberService.RemoveMember(teamID, middleware.GetUserID(c), targetID, middleware.GetRole(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Member removed")
}

type transferRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// TransferOwnership moves the owner flag to another accepted member
// POST /api/team/:id/transfer-ownership
func (h *TeamHandler) TransferOwnership(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.memberService.TransferOwnership(teamID, middleware.GetUserID(c), req.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Ownership transferred")
}

// Notifications lists the caller's notifications
// GET /api/notifications
func (h *TeamHandler) Notifications(c *gin.Context) {
	notifications, err := h.notificationService.List(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, notifications)
}

// MarkNotificationRead marks one notification as read
// PATCH /api/notification/:id/read
func (h *TeamHandler) MarkNotificationRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMsg(c, "Notification read")
}
