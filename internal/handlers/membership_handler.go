package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workspace-service/internal/metrics"
	"workspace-service/internal/middleware"
	"workspace-service/internal/models"
	"workspace-service/internal/permissions"
	"workspace-service/internal/services"
)

// MembershipHandler handles member and invitation HTTP requests
type MembershipHandler struct {
	membershipService *services.MembershipService
	workspaceService  *services.WorkspaceService
	metrics           *metrics.Metrics
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(membershipService *services.MembershipService, workspaceService *services.WorkspaceService, m *metrics.Metrics) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
		workspaceService:  workspaceService,
		metrics:           m,
	}
}

// GetWorkspaceMembers lists active members, owners first
// @Summary List workspace members
// @Tags members
// @Produce json
// @Param id path string true "Workspace ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/members [get]
func (h *MembershipHandler) GetWorkspaceMembers(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid workspace ID format", err)
		return
	}

	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	if _, err := h.workspaceService.RequirePermission(c.Request.Context(), workspaceID, userID, permissions.PermissionRead); err != nil {
		HandleServiceError(c, err)
		return
	}

	members, err := h.membershipService.GetWorkspaceMembers(c.Request.Context(), workspaceID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Members retrieved", map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

// UpdateMember applies a partial update to a membership
// @Summary Update member
// @Description Updates a member's role, title, permissions or active state
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param memberId path string true "Member ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Param request body services.UpdateMemberRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/members/{memberId} [put]
func (h *MembershipHandler) UpdateMember(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid workspace ID format", err)
		return
	}

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid member ID format", err)
		return
	}

	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	var req services.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	updated, err := h.membershipService.UpdateMember(c.Request.Context(), workspaceID, memberID, userID, &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !updated {
		ErrorResponse(c, http.StatusNotFound, "Member not found", nil)
		return
	}

	SuccessResponse(c, http.StatusOK, "Member updated successfully", nil)
}

// RemoveMember deactivates a membership. Removing an already-removed
// member succeeds without changes.
// @Summary Remove member
// @Tags members
// @Produce json
// @Param id path string true "Workspace ID"
// @Param memberId path string true "Member ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/members/{memberId} [delete]
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid workspace ID format", err)
		return
	}

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid member ID format", err)
		return
	}

	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	removed, err := h.membershipService.RemoveMember(c.Request.Context(), workspaceID, memberID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !removed {
		ErrorResponse(c, http.StatusNotFound, "Member not found", nil)
		return
	}

	SuccessResponse(c, http.StatusOK, "Member removed successfully", nil)
}

// InviteMember creates a pending invitation
// @Summary Invite member
// @Tags invitations
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Param request body services.InviteMemberRequest true "Invitation request"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/invitations [post]
func (h *MembershipHandler) InviteMember(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid workspace ID format", err)
		return
	}

	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	var req services.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	invitation, err := h.membershipService.InviteMember(c.Request.Context(), workspaceID, userID, &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.InvitationsSent.Inc()
	}

	SuccessResponse(c, http.StatusCreated, "Invitation sent successfully", invitationView(invitation, time.Now()))
}

// GetPendingInvitations lists live invitations with expiry urgency
// @Summary List pending invitations
// @Tags invitations
// @Produce json
// @Param id path string true "Workspace ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/invitations [get]
func (h *MembershipHandler) GetPendingInvitations(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid workspace ID format", err)
		return
	}

	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	if _, err := h.workspaceService.RequirePermission(c.Request.Context(), workspaceID, userID, permissions.PermissionManageMembers); err != nil {
		HandleServiceError(c, err)
		return
	}

	invitations, err := h.membershipService.GetPendingInvitations(c.Request.Context(), workspaceID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	now := time.Now()
	views := make([]gin.H, 0, len(invitations))
	for i := range invitations {
		views = append(views, invitationView(&invitations[i], now))
	}

	SuccessResponse(c, http.StatusOK, "Invitations retrieved", map[string]interface{}{
		"invitations": views,
		"count":       len(views),
	})
}

// CancelInvitation expires a pending invitation so it can no longer be used
// @Summary Cancel invitation
// @Tags invitations
// @Produce json
// @Param id path string true "Workspace ID"
// @Param invitationId path string true "Invitation ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/invitations/{invitationId} [delete]
func (h *MembershipHandler) CancelInvitation(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid workspace ID format", err)
		return
	}

	invitationID, err := uuid.Parse(c.Param("invitationId"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid invitation ID format", err)
		return
	}

	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	cancelled, err := h.membershipService.CancelInvitation(c.Request.Context(), workspaceID, invitationID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !cancelled {
		ErrorResponse(c, http.StatusConflict, "Invitation is no longer pending", nil)
		return
	}

	SuccessResponse(c, http.StatusOK, "Invitation cancelled", nil)
}

// ResendInvitation extends a pending invitation's expiry window
// @Summary Resend invitation
// @Tags invitations
// @Produce json
// @Param id path string true "Workspace ID"
// @Param invitationId path string true "Invitation ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/invitations/{invitationId}/resend [post]
func (h *MembershipHandler) ResendInvitation(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid workspace ID format", err)
		return
	}

	invitationID, err := uuid.Parse(c.Param("invitationId"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid invitation ID format", err)
		return
	}

	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	invitation, err := h.membershipService.ResendInvitation(c.Request.Context(), workspaceID, invitationID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Invitation resent", invitationView(invitation, time.Now()))
}

// InvitationTokenRequest carries the single-use token from the invitation link
type InvitationTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// AcceptInvitation redeems an invitation token and activates membership
// @Summary Accept invitation
// @Tags invitations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Authenticated user ID"
// @Param request body InvitationTokenRequest true "Invitation token"
// @Success 200 {object} map[string]interface{}
// @Failure 410 {object} map[string]interface{}
// @Router /api/v1/invitations/accept [post]
func (h *MembershipHandler) AcceptInvitation(c *gin.Context) {
	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	var req InvitationTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	member, err := h.membershipService.AcceptInvitation(c.Request.Context(), req.Token, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Invitation accepted", member)
}

// DeclineInvitation marks an invitation as declined
// @Summary Decline invitation
// @Tags invitations
// @Accept json
// @Produce json
// @Param request body InvitationTokenRequest true "Invitation token"
// @Success 200 {object} map[string]interface{}
// @Failure 410 {object} map[string]interface{}
// @Router /api/v1/invitations/decline [post]
func (h *MembershipHandler) DeclineInvitation(c *gin.Context) {
	var req InvitationTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	if err := h.membershipService.DeclineInvitation(c.Request.Context(), req.Token); err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Invitation declined", nil)
}

// invitationView renders an invitation with its expiry classification.
// The token is never included; it only travels in the invitation email.
func invitationView(inv *models.WorkspaceInvitation, now time.Time) gin.H {
	expiry := services.ClassifyExpiry(inv.ExpiresAt, now)

	view := gin.H{
		"id":         inv.ID,
		"email":      inv.Email,
		"role":       inv.Role,
		"status":     inv.Status,
		"message":    inv.Message,
		"invited_by": inv.InvitedBy,
		"expires_at": inv.ExpiresAt,
		"created_at": inv.CreatedAt,
		"expired":    expiry.Expired,
	}
	if !expiry.Expired {
		view["urgency"] = expiry.Urgency
		view["expires_in_hours"] = int(expiry.Remaining.Hours())
	}
	return view
}
