package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"workspace-service/internal/models"
	"workspace-service/internal/nats"
	"workspace-service/internal/permissions"
)

// MembershipStore is the persistence surface for membership operations
type MembershipStore interface {
	CreateMembership(ctx context.Context, membership *models.WorkspaceMember) error
	GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error)
	GetMemberByID(ctx context.Context, memberID uuid.UUID) (*models.WorkspaceMember, error)
	GetWorkspaceMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error)
	GetUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.WorkspaceMember, error)
	UpdateMember(ctx context.Context, memberID uuid.UUID, updates map[string]interface{}) (bool, error)
	DeactivateMember(ctx context.Context, workspaceID, memberID uuid.UUID) (bool, error)
	UpdateLastAccessed(ctx context.Context, workspaceID, userID uuid.UUID) error
	GetUserRole(ctx context.Context, workspaceID, userID uuid.UUID) (string, error)
	CountActiveMembers(ctx context.Context, workspaceID uuid.UUID) (int64, error)
	CountActiveOwners(ctx context.Context, workspaceID uuid.UUID) (int64, error)
	CountMembersJoinedSince(ctx context.Context, workspaceID uuid.UUID, since time.Time) (int64, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserWorkspacePreferences, error)
	SetDefaultWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error
	SetLastActiveWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error
}

// InvitationStore is the persistence surface for invitation operations
type InvitationStore interface {
	CreateInvitation(ctx context.Context, invitation *models.WorkspaceInvitation) error
	GetInvitationByID(ctx context.Context, id uuid.UUID) (*models.WorkspaceInvitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*models.WorkspaceInvitation, error)
	GetPendingInvitations(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceInvitation, error)
	HasPendingInvitation(ctx context.Context, workspaceID uuid.UUID, email string) (bool, error)
	AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.WorkspaceInvitation, error)
	DeclineInvitation(ctx context.Context, token string) (*models.WorkspaceInvitation, error)
	CancelInvitation(ctx context.Context, id uuid.UUID) (bool, error)
	ResendInvitation(ctx context.Context, id uuid.UUID) (bool, error)
	ExpireOverdueInvitations(ctx context.Context) (int64, error)
}

// MembershipService handles member and invitation business logic,
// enforcing the role hierarchy at this boundary so the repositories stay
// pure mechanism
type MembershipService struct {
	membershipRepo MembershipStore
	invitationRepo InvitationStore
	activityRepo   ActivityStore
	events         EventPublisher
}

// NewMembershipService creates a new membership service
func NewMembershipService(membershipRepo MembershipStore, invitationRepo InvitationStore, activityRepo ActivityStore, events EventPublisher) *MembershipService {
	return &MembershipService{
		membershipRepo: membershipRepo,
		invitationRepo: invitationRepo,
		activityRepo:   activityRepo,
		events:         events,
	}
}

// ============================================================================
// Member Management
// ============================================================================

// GetWorkspaceMembers lists active members, owner first, each role cohort
// in chronological join order
func (s *MembershipService) GetWorkspaceMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	return s.membershipRepo.GetWorkspaceMembers(ctx, workspaceID)
}

// UpdateMemberRequest represents a partial membership update
type UpdateMemberRequest struct {
	Role        *string       `json:"role,omitempty" binding:"omitempty,oneof=owner admin manager member viewer"`
	Title       *string       `json:"title,omitempty"`
	Permissions *models.JSONB `json:"permissions,omitempty"`
	IsActive    *bool         `json:"is_active,omitempty"`
}

// UpdateMember applies a partial update to a membership. The actor must
// hold manage_members; role changes are additionally gated on the actor
// outranking the target and capped at the actor's own role, and
// deactivation and permission overrides are gated like removal. The
// last-owner safeguard blocks demoting or deactivating the only owner.
func (s *MembershipService) UpdateMember(ctx context.Context, workspaceID, memberID, actorID uuid.UUID, req *UpdateMemberRequest) (bool, error) {
	member, err := s.membershipRepo.GetMemberByID(ctx, memberID)
	if err != nil {
		return false, err
	}
	if member == nil || member.WorkspaceID != workspaceID {
		return false, NewNotFoundError("member", memberID.String())
	}

	actorRole, err := s.membershipRepo.GetUserRole(ctx, workspaceID, actorID)
	if err != nil {
		return false, err
	}
	if !permissions.HasPermission(actorRole, permissions.PermissionManageMembers) {
		return false, NewPermissionError(permissions.PermissionManageMembers,
			fmt.Sprintf("role %q does not grant %s", actorRole, permissions.PermissionManageMembers))
	}

	updates := map[string]interface{}{}
	roleChanged := false
	deactivated := false
	previousRole := member.Role

	if req.Role != nil && *req.Role != member.Role {
		if !permissions.CanPerformAction(actorRole, member.Role, permissions.ActionChangeRole) {
			return false, NewPermissionError(permissions.ActionChangeRole,
				fmt.Sprintf("role %q cannot change the role of a %q", actorRole, member.Role))
		}
		// The granted role is capped at the actor's own, same as inviting
		if permissions.RoleRank(*req.Role) > permissions.RoleRank(actorRole) {
			return false, NewPermissionError(permissions.ActionChangeRole,
				fmt.Sprintf("role %q cannot grant role %q", actorRole, *req.Role))
		}
		if member.Role == models.MembershipRoleOwner {
			if err := s.ensureNotLastOwner(ctx, workspaceID); err != nil {
				return false, err
			}
		}
		updates["role"] = *req.Role
		roleChanged = true
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Permissions != nil {
		// Rewriting another member's permission overrides is gated like
		// removing them: the actor must strictly outrank the target
		if !permissions.CanPerformAction(actorRole, member.Role, permissions.ActionRemove) {
			return false, NewPermissionError(permissions.ActionRemove,
				fmt.Sprintf("role %q cannot change the permissions of a %q", actorRole, member.Role))
		}
		updates["permissions"] = *req.Permissions
	}
	if req.IsActive != nil && *req.IsActive != member.IsActive {
		// Deactivation is removal by another name and gated the same way
		if !permissions.CanPerformAction(actorRole, member.Role, permissions.ActionRemove) {
			return false, NewPermissionError(permissions.ActionRemove,
				fmt.Sprintf("role %q cannot deactivate a %q", actorRole, member.Role))
		}
		if !*req.IsActive && member.Role == models.MembershipRoleOwner {
			if err := s.ensureNotLastOwner(ctx, workspaceID); err != nil {
				return false, err
			}
		}
		updates["is_active"] = *req.IsActive
		deactivated = !*req.IsActive
	}

	if len(updates) == 0 {
		return true, nil
	}

	updated, err := s.membershipRepo.UpdateMember(ctx, memberID, updates)
	if err != nil {
		return false, err
	}

	if updated && roleChanged {
		s.logActivity(ctx, workspaceID, &actorID, models.ActivityMemberRoleChanged,
			fmt.Sprintf("Member role changed from %s to %s", previousRole, *req.Role),
			"member", &memberID,
			map[string]interface{}{"from": previousRole, "to": *req.Role, "user_id": member.UserID})
		s.publishMemberEvent(ctx, nats.EventMemberRoleChanged, workspaceID, member.UserID.String(), "", *req.Role, actorID)
	}
	if updated && deactivated {
		s.logActivity(ctx, workspaceID, &actorID, models.ActivityMemberRemoved,
			"Member deactivated", "member", &memberID,
			map[string]interface{}{"user_id": member.UserID, "role": member.Role})
		s.publishMemberEvent(ctx, nats.EventMemberRemoved, workspaceID, member.UserID.String(), "", member.Role, actorID)
	}

	return updated, nil
}

// RemoveMember soft-deactivates a member. Idempotent: removing an
// already-inactive member is a no-op success. The actor must strictly
// outrank the target, and the last active owner can never be removed.
func (s *MembershipService) RemoveMember(ctx context.Context, workspaceID, memberID, actorID uuid.UUID) (bool, error) {
	member, err := s.membershipRepo.GetMemberByID(ctx, memberID)
	if err != nil {
		return false, err
	}
	if member == nil || member.WorkspaceID != workspaceID {
		return false, NewNotFoundError("member", memberID.String())
	}
	if !member.IsActive {
		return true, nil
	}

	actorRole, err := s.membershipRepo.GetUserRole(ctx, workspaceID, actorID)
	if err != nil {
		return false, err
	}
	if !permissions.CanPerformAction(actorRole, member.Role, permissions.ActionRemove) {
		return false, NewPermissionError(permissions.ActionRemove,
			fmt.Sprintf("role %q cannot remove a %q", actorRole, member.Role))
	}

	if member.Role == models.MembershipRoleOwner {
		if err := s.ensureNotLastOwner(ctx, workspaceID); err != nil {
			return false, err
		}
	}

	removed, err := s.membershipRepo.DeactivateMember(ctx, workspaceID, memberID)
	if err != nil {
		return false, err
	}

	if removed {
		s.logActivity(ctx, workspaceID, &actorID, models.ActivityMemberRemoved,
			"Member removed from workspace", "member", &memberID,
			map[string]interface{}{"user_id": member.UserID, "role": member.Role})
		s.publishMemberEvent(ctx, nats.EventMemberRemoved, workspaceID, member.UserID.String(), "", member.Role, actorID)
	}

	return removed, nil
}

// ensureNotLastOwner blocks operations that would leave a workspace with no
// active owner
func (s *MembershipService) ensureNotLastOwner(ctx context.Context, workspaceID uuid.UUID) error {
	owners, err := s.membershipRepo.CountActiveOwners(ctx, workspaceID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return NewConflictError("member", ErrLastOwner.Error())
	}
	return nil
}

// ============================================================================
// Invitation Lifecycle
// ============================================================================

// InviteMemberRequest represents a request to invite a member
type InviteMemberRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Role    string `json:"role" binding:"required,oneof=admin manager member viewer"`
	Message string `json:"message,omitempty"`
}

// InviteMember creates a pending invitation. The actor must be manager or
// above; the check runs against the actor's own role since there is no
// existing member to compare against.
func (s *MembershipService) InviteMember(ctx context.Context, workspaceID, actorID uuid.UUID, req *InviteMemberRequest) (*models.WorkspaceInvitation, error) {
	actorRole, err := s.membershipRepo.GetUserRole(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanPerformAction(actorRole, req.Role, permissions.ActionInvite) {
		return nil, NewPermissionError(permissions.ActionInvite,
			fmt.Sprintf("role %q cannot invite members", actorRole))
	}
	// An invite can never grant a role above the inviter's own
	if permissions.RoleRank(req.Role) > permissions.RoleRank(actorRole) {
		return nil, NewPermissionError(permissions.ActionInvite,
			fmt.Sprintf("role %q cannot grant role %q", actorRole, req.Role))
	}

	alreadyInvited, err := s.invitationRepo.HasPendingInvitation(ctx, workspaceID, req.Email)
	if err != nil {
		return nil, err
	}
	if alreadyInvited {
		return nil, NewConflictError("invitation",
			fmt.Sprintf("%s already has a pending invitation", req.Email))
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, err
	}

	invitation := &models.WorkspaceInvitation{
		WorkspaceID: workspaceID,
		Email:       req.Email,
		Role:        req.Role,
		Message:     req.Message,
		Status:      models.InvitationStatusPending,
		Token:       token,
		InvitedBy:   actorID,
		ExpiresAt:   time.Now().Add(models.DefaultInvitationTTL),
	}

	if err := s.invitationRepo.CreateInvitation(ctx, invitation); err != nil {
		return nil, err
	}

	s.logActivity(ctx, workspaceID, &actorID, models.ActivityMemberInvited,
		fmt.Sprintf("Invited %s as %s", req.Email, req.Role), "invitation", &invitation.ID,
		map[string]interface{}{"email": req.Email, "role": req.Role})
	s.publishMemberEvent(ctx, nats.EventMemberInvited, workspaceID, "", req.Email, req.Role, actorID)

	return invitation, nil
}

// generateInvitationToken produces an unguessable single-use token
func generateInvitationToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}

// AcceptInvitation consumes a token and activates the membership.
// Unknown, expired and already-used tokens all fail with the same
// ErrInvitationInvalid so callers learn nothing from the failure mode.
func (s *MembershipService) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.WorkspaceMember, error) {
	if userID == uuid.Nil {
		return nil, NewAuthError("an authenticated user is required to accept an invitation")
	}

	invitation, err := s.invitationRepo.AcceptInvitation(ctx, token, userID)
	if err != nil {
		return nil, err
	}
	if invitation == nil {
		return nil, ErrInvitationInvalid
	}

	member, err := s.membershipRepo.GetMembership(ctx, invitation.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, invitation.WorkspaceID, &userID, models.ActivityMemberJoined,
		fmt.Sprintf("%s joined as %s", invitation.Email, invitation.Role),
		"invitation", &invitation.ID,
		map[string]interface{}{"email": invitation.Email, "role": invitation.Role})
	s.publishMemberEvent(ctx, nats.EventMemberJoined, invitation.WorkspaceID, userID.String(), invitation.Email, invitation.Role, userID)

	return member, nil
}

// DeclineInvitation consumes a token without creating a membership.
// The same neutral failure applies as for accept.
func (s *MembershipService) DeclineInvitation(ctx context.Context, token string) error {
	invitation, err := s.invitationRepo.DeclineInvitation(ctx, token)
	if err != nil {
		return err
	}
	if invitation == nil {
		return ErrInvitationInvalid
	}

	s.logActivity(ctx, invitation.WorkspaceID, nil, models.ActivityInviteDeclined,
		fmt.Sprintf("Invitation for %s declined", invitation.Email),
		"invitation", &invitation.ID, nil)

	return nil
}

// CancelInvitation revokes a pending invitation by forcing it to expired
func (s *MembershipService) CancelInvitation(ctx context.Context, workspaceID, invitationID, actorID uuid.UUID) (bool, error) {
	invitation, err := s.invitationRepo.GetInvitationByID(ctx, invitationID)
	if err != nil {
		return false, err
	}
	if invitation == nil || invitation.WorkspaceID != workspaceID {
		return false, NewNotFoundError("invitation", invitationID.String())
	}

	actorRole, err := s.membershipRepo.GetUserRole(ctx, workspaceID, actorID)
	if err != nil {
		return false, err
	}
	if !permissions.HasPermission(actorRole, permissions.PermissionManageMembers) {
		return false, NewPermissionError("cancel_invitation",
			fmt.Sprintf("role %q cannot manage invitations", actorRole))
	}

	cancelled, err := s.invitationRepo.CancelInvitation(ctx, invitationID)
	if err != nil {
		return false, err
	}

	if cancelled {
		s.logActivity(ctx, workspaceID, &actorID, models.ActivityInviteCancelled,
			fmt.Sprintf("Invitation for %s cancelled", invitation.Email),
			"invitation", &invitationID, nil)
	}

	return cancelled, nil
}

// ResendInvitation extends a pending invitation by a fresh validity window.
// The token stays the same, so the original link keeps working.
func (s *MembershipService) ResendInvitation(ctx context.Context, workspaceID, invitationID, actorID uuid.UUID) (*models.WorkspaceInvitation, error) {
	invitation, err := s.invitationRepo.GetInvitationByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation == nil || invitation.WorkspaceID != workspaceID {
		return nil, NewNotFoundError("invitation", invitationID.String())
	}

	actorRole, err := s.membershipRepo.GetUserRole(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if !permissions.HasPermission(actorRole, permissions.PermissionManageMembers) {
		return nil, NewPermissionError("resend_invitation",
			fmt.Sprintf("role %q cannot manage invitations", actorRole))
	}

	resent, err := s.invitationRepo.ResendInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if !resent {
		return nil, NewConflictError("invitation", "only pending invitations can be resent")
	}

	s.logActivity(ctx, workspaceID, &actorID, models.ActivityInviteResent,
		fmt.Sprintf("Invitation for %s resent", invitation.Email),
		"invitation", &invitationID, nil)
	s.publishMemberEvent(ctx, nats.EventMemberInvited, workspaceID, "", invitation.Email, invitation.Role, actorID)

	return s.invitationRepo.GetInvitationByID(ctx, invitationID)
}

// GetPendingInvitations lists live invitations for a workspace
func (s *MembershipService) GetPendingInvitations(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceInvitation, error) {
	return s.invitationRepo.GetPendingInvitations(ctx, workspaceID)
}

// ============================================================================
// Expiry Classification
// ============================================================================

// Urgency buckets for pending invitations
const (
	ExpiryUrgencyHigh   = "high"   // expires within 24h
	ExpiryUrgencyMedium = "medium" // expires within 72h
	ExpiryUrgencyLow    = "low"    // more than 72h remaining
)

// ExpiryStatus is a presentation-only classification of an invitation's
// remaining lifetime
type ExpiryStatus struct {
	Expired   bool          `json:"expired"`
	Remaining time.Duration `json:"-"`
	Urgency   string        `json:"urgency,omitempty"`
}

// ClassifyExpiry buckets an expiry timestamp relative to now. No side
// effects; the lazy check in AcceptInvitation remains authoritative.
func ClassifyExpiry(expiresAt, now time.Time) ExpiryStatus {
	if !expiresAt.After(now) {
		return ExpiryStatus{Expired: true}
	}

	remaining := expiresAt.Sub(now)
	urgency := ExpiryUrgencyLow
	switch {
	case remaining <= 24*time.Hour:
		urgency = ExpiryUrgencyHigh
	case remaining <= 72*time.Hour:
		urgency = ExpiryUrgencyMedium
	}

	return ExpiryStatus{
		Remaining: remaining,
		Urgency:   urgency,
	}
}

// ============================================================================
// Helpers
// ============================================================================

func (s *MembershipService) logActivity(ctx context.Context, workspaceID uuid.UUID, userID *uuid.UUID, action, description, entityType string, entityID *uuid.UUID, metadata map[string]interface{}) {
	metadataJSON, err := models.NewJSONB(metadata)
	if err != nil {
		log.Printf("Warning: failed to serialize activity metadata: %v", err)
		metadataJSON = models.JSONB{}
	}

	activity := &models.WorkspaceActivity{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Action:      action,
		Description: description,
		EntityType:  entityType,
		EntityID:    entityID,
		Metadata:    metadataJSON,
	}

	if err := s.activityRepo.LogActivity(ctx, activity); err != nil {
		log.Printf("Warning: failed to log activity %s: %v", action, err)
	}
}

func (s *MembershipService) publishMemberEvent(ctx context.Context, eventType string, workspaceID uuid.UUID, userID, email, role string, actorID uuid.UUID) {
	if s.events == nil {
		return
	}
	event := &nats.MemberEvent{
		WorkspaceID: workspaceID.String(),
		UserID:      userID,
		Email:       email,
		Role:        role,
		ActorID:     actorID.String(),
	}
	if err := s.events.PublishMemberEvent(ctx, eventType, event); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}
