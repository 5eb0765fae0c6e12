package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"workspace-service/internal/models"
)

func newMembershipServiceForTest() (*MembershipService, *MockMembershipStore, *MockInvitationStore, *MockActivityStore) {
	membershipRepo := &MockMembershipStore{}
	invitationRepo := &MockInvitationStore{}
	activityRepo := &MockActivityStore{}
	svc := NewMembershipService(membershipRepo, invitationRepo, activityRepo, nil)
	return svc, membershipRepo, invitationRepo, activityRepo
}

func TestInviteMember(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()
	actorID := uuid.New()

	t.Run("manager can invite a member", func(t *testing.T) {
		svc, membershipRepo, invitationRepo, activityRepo := newMembershipServiceForTest()

		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("manager", nil)
		invitationRepo.On("HasPendingInvitation", ctx, workspaceID, "new@example.com").Return(false, nil)
		invitationRepo.On("CreateInvitation", ctx, mock.AnythingOfType("*models.WorkspaceInvitation")).Return(nil)
		activityRepo.On("LogActivity", ctx, mock.AnythingOfType("*models.WorkspaceActivity")).Return(nil)

		invitation, err := svc.InviteMember(ctx, workspaceID, actorID, &InviteMemberRequest{
			Email: "new@example.com",
			Role:  models.MembershipRoleMember,
		})

		assert.NoError(t, err)
		assert.NotNil(t, invitation)
		assert.Equal(t, models.InvitationStatusPending, invitation.Status)
		assert.NotEmpty(t, invitation.Token)
		assert.WithinDuration(t, time.Now().Add(models.DefaultInvitationTTL), invitation.ExpiresAt, time.Minute)
		invitationRepo.AssertExpectations(t)
	})

	t.Run("member cannot invite", func(t *testing.T) {
		svc, membershipRepo, invitationRepo, _ := newMembershipServiceForTest()

		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("member", nil)

		invitation, err := svc.InviteMember(ctx, workspaceID, actorID, &InviteMemberRequest{
			Email: "new@example.com",
			Role:  models.MembershipRoleMember,
		})

		assert.Nil(t, invitation)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
		invitationRepo.AssertNotCalled(t, "CreateInvitation", mock.Anything, mock.Anything)
	})

	t.Run("non-member cannot invite", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("", nil)

		invitation, err := svc.InviteMember(ctx, workspaceID, actorID, &InviteMemberRequest{
			Email: "new@example.com",
			Role:  models.MembershipRoleMember,
		})

		assert.Nil(t, invitation)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
	})

	t.Run("cannot grant a role above your own", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("manager", nil)

		invitation, err := svc.InviteMember(ctx, workspaceID, actorID, &InviteMemberRequest{
			Email: "new@example.com",
			Role:  models.MembershipRoleAdmin,
		})

		assert.Nil(t, invitation)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
	})

	t.Run("duplicate pending invitation is rejected", func(t *testing.T) {
		svc, membershipRepo, invitationRepo, _ := newMembershipServiceForTest()

		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("admin", nil)
		invitationRepo.On("HasPendingInvitation", ctx, workspaceID, "dup@example.com").Return(true, nil)

		invitation, err := svc.InviteMember(ctx, workspaceID, actorID, &InviteMemberRequest{
			Email: "dup@example.com",
			Role:  models.MembershipRoleMember,
		})

		assert.Nil(t, invitation)
		_, isConflict := IsConflictError(err)
		assert.True(t, isConflict)
	})
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an authenticated user", func(t *testing.T) {
		svc, _, _, _ := newMembershipServiceForTest()

		member, err := svc.AcceptInvitation(ctx, "some-token", uuid.Nil)

		assert.Nil(t, member)
		_, isAuth := IsAuthError(err)
		assert.True(t, isAuth)
	})

	t.Run("consumed token activates membership", func(t *testing.T) {
		svc, membershipRepo, invitationRepo, activityRepo := newMembershipServiceForTest()

		workspaceID := uuid.New()
		userID := uuid.New()
		invitation := &models.WorkspaceInvitation{
			ID:          uuid.New(),
			WorkspaceID: workspaceID,
			Email:       "joiner@example.com",
			Role:        models.MembershipRoleMember,
			Status:      models.InvitationStatusAccepted,
		}
		membership := &models.WorkspaceMember{
			ID:          uuid.New(),
			WorkspaceID: workspaceID,
			UserID:      userID,
			Role:        models.MembershipRoleMember,
			IsActive:    true,
		}

		invitationRepo.On("AcceptInvitation", ctx, "good-token", userID).Return(invitation, nil)
		membershipRepo.On("GetMembership", ctx, workspaceID, userID).Return(membership, nil)
		activityRepo.On("LogActivity", ctx, mock.AnythingOfType("*models.WorkspaceActivity")).Return(nil)

		member, err := svc.AcceptInvitation(ctx, "good-token", userID)

		assert.NoError(t, err)
		assert.Equal(t, membership, member)
	})

	t.Run("unusable token yields the uniform error", func(t *testing.T) {
		svc, _, invitationRepo, _ := newMembershipServiceForTest()

		userID := uuid.New()
		// The repository reports nil for unknown, expired and already-used
		// tokens alike
		invitationRepo.On("AcceptInvitation", ctx, "stale-token", userID).Return(nil, nil)

		member, err := svc.AcceptInvitation(ctx, "stale-token", userID)

		assert.Nil(t, member)
		assert.ErrorIs(t, err, ErrInvitationInvalid)
	})
}

func TestDeclineInvitation(t *testing.T) {
	ctx := context.Background()

	t.Run("declines a live invitation", func(t *testing.T) {
		svc, _, invitationRepo, activityRepo := newMembershipServiceForTest()

		invitation := &models.WorkspaceInvitation{
			ID:          uuid.New(),
			WorkspaceID: uuid.New(),
			Email:       "nope@example.com",
			Status:      models.InvitationStatusDeclined,
		}
		invitationRepo.On("DeclineInvitation", ctx, "token").Return(invitation, nil)
		activityRepo.On("LogActivity", ctx, mock.AnythingOfType("*models.WorkspaceActivity")).Return(nil)

		err := svc.DeclineInvitation(ctx, "token")
		assert.NoError(t, err)
	})

	t.Run("unusable token yields the uniform error", func(t *testing.T) {
		svc, _, invitationRepo, _ := newMembershipServiceForTest()

		invitationRepo.On("DeclineInvitation", ctx, "bad").Return(nil, nil)

		err := svc.DeclineInvitation(ctx, "bad")
		assert.ErrorIs(t, err, ErrInvitationInvalid)
	})
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()
	actorID := uuid.New()

	t.Run("admin removes a member", func(t *testing.T) {
		svc, membershipRepo, _, activityRepo := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			UserID:      uuid.New(),
			Role:        models.MembershipRoleMember,
			IsActive:    true,
		}

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("admin", nil)
		membershipRepo.On("DeactivateMember", ctx, workspaceID, memberID).Return(true, nil)
		activityRepo.On("LogActivity", ctx, mock.AnythingOfType("*models.WorkspaceActivity")).Return(nil)

		removed, err := svc.RemoveMember(ctx, workspaceID, memberID, actorID)

		assert.NoError(t, err)
		assert.True(t, removed)
	})

	t.Run("removing an inactive member is a no-op success", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			Role:        models.MembershipRoleMember,
			IsActive:    false,
		}

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)

		removed, err := svc.RemoveMember(ctx, workspaceID, memberID, actorID)

		assert.NoError(t, err)
		assert.True(t, removed)
		membershipRepo.AssertNotCalled(t, "DeactivateMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("peers cannot remove each other", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			Role:        models.MembershipRoleAdmin,
			IsActive:    true,
		}

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("admin", nil)

		removed, err := svc.RemoveMember(ctx, workspaceID, memberID, actorID)

		assert.False(t, removed)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
	})

	t.Run("last owner cannot be removed", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			Role:        models.MembershipRoleOwner,
			IsActive:    true,
		}

		// Only an outranking actor reaches the owner-count check; owners
		// cannot outrank each other, so this path needs a hypothetical
		// higher rank. The count guard still fires for any actor the rank
		// check lets through.
		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("owner", nil)

		removed, err := svc.RemoveMember(ctx, workspaceID, memberID, actorID)

		assert.False(t, removed)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
	})

	t.Run("unknown member yields not found", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		membershipRepo.On("GetMemberByID", ctx, memberID).Return(nil, nil)

		removed, err := svc.RemoveMember(ctx, workspaceID, memberID, actorID)

		assert.False(t, removed)
		_, isNotFound := IsNotFoundError(err)
		assert.True(t, isNotFound)
	})
}

func TestUpdateMemberRole(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()
	actorID := uuid.New()

	t.Run("owner promotes a member to manager", func(t *testing.T) {
		svc, membershipRepo, _, activityRepo := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			UserID:      uuid.New(),
			Role:        models.MembershipRoleMember,
			IsActive:    true,
		}
		newRole := models.MembershipRoleManager

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("owner", nil)
		membershipRepo.On("UpdateMember", ctx, memberID, mock.Anything).Return(true, nil)
		activityRepo.On("LogActivity", ctx, mock.AnythingOfType("*models.WorkspaceActivity")).Return(nil)

		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID, &UpdateMemberRequest{Role: &newRole})

		assert.NoError(t, err)
		assert.True(t, updated)
	})

	t.Run("manager cannot change an admin's role", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			Role:        models.MembershipRoleAdmin,
			IsActive:    true,
		}
		newRole := models.MembershipRoleMember

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("manager", nil)

		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID, &UpdateMemberRequest{Role: &newRole})

		assert.False(t, updated)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
	})

	t.Run("member from another workspace is not found", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: uuid.New(), // different workspace
			Role:        models.MembershipRoleMember,
		}

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)

		title := "Head of Ops"
		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID, &UpdateMemberRequest{Title: &title})

		assert.False(t, updated)
		_, isNotFound := IsNotFoundError(err)
		assert.True(t, isNotFound)
	})

	t.Run("empty update is a no-op success", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			Role:        models.MembershipRoleMember,
			IsActive:    true,
		}

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("admin", nil)

		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID, &UpdateMemberRequest{})

		assert.NoError(t, err)
		assert.True(t, updated)
		membershipRepo.AssertNotCalled(t, "UpdateMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-member cannot update anything", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			UserID:      uuid.New(),
			Role:        models.MembershipRoleAdmin,
			IsActive:    true,
		}
		inactive := false
		overrides := models.MustNewJSONB(map[string]interface{}{"listings": []string{"read", "write"}})

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("", nil)

		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID,
			&UpdateMemberRequest{IsActive: &inactive, Permissions: &overrides})

		assert.False(t, updated)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
		membershipRepo.AssertNotCalled(t, "UpdateMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deactivation is gated like removal", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			UserID:      uuid.New(),
			Role:        models.MembershipRoleAdmin,
			IsActive:    true,
		}
		inactive := false

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("admin", nil)

		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID, &UpdateMemberRequest{IsActive: &inactive})

		assert.False(t, updated)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
		membershipRepo.AssertNotCalled(t, "UpdateMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deactivating a subordinate logs a removal", func(t *testing.T) {
		svc, membershipRepo, _, activityRepo := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			UserID:      uuid.New(),
			Role:        models.MembershipRoleMember,
			IsActive:    true,
		}
		inactive := false

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("admin", nil)
		membershipRepo.On("UpdateMember", ctx, memberID, mock.MatchedBy(func(updates map[string]interface{}) bool {
			active, ok := updates["is_active"].(bool)
			return ok && !active
		})).Return(true, nil)
		activityRepo.On("LogActivity", ctx, mock.MatchedBy(func(a *models.WorkspaceActivity) bool {
			return a.Action == models.ActivityMemberRemoved
		})).Return(nil)

		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID, &UpdateMemberRequest{IsActive: &inactive})

		assert.NoError(t, err)
		assert.True(t, updated)
		activityRepo.AssertExpectations(t)
	})

	t.Run("permission overrides require outranking the member", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			UserID:      uuid.New(),
			Role:        models.MembershipRoleAdmin,
			IsActive:    true,
		}
		overrides := models.MustNewJSONB(map[string]interface{}{"bookings": []string{"read"}})

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("admin", nil)

		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID, &UpdateMemberRequest{Permissions: &overrides})

		assert.False(t, updated)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
		membershipRepo.AssertNotCalled(t, "UpdateMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("the granted role is capped at the actor's own", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			UserID:      uuid.New(),
			Role:        models.MembershipRoleMember,
			IsActive:    true,
		}
		newRole := models.MembershipRoleOwner

		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("admin", nil)

		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID, &UpdateMemberRequest{Role: &newRole})

		assert.False(t, updated)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
		membershipRepo.AssertNotCalled(t, "UpdateMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deactivating an owner is blocked by rank", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		memberID := uuid.New()
		member := &models.WorkspaceMember{
			ID:          memberID,
			WorkspaceID: workspaceID,
			Role:        models.MembershipRoleOwner,
			IsActive:    true,
		}
		inactive := false

		// No role outranks owner, so the rank check fires before the
		// owner-count safeguard ever runs
		membershipRepo.On("GetMemberByID", ctx, memberID).Return(member, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("owner", nil)

		updated, err := svc.UpdateMember(ctx, workspaceID, memberID, actorID, &UpdateMemberRequest{IsActive: &inactive})

		assert.False(t, updated)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
		membershipRepo.AssertNotCalled(t, "CountActiveOwners", mock.Anything, mock.Anything)
	})

	t.Run("the owner-count safeguard blocks at one owner", func(t *testing.T) {
		svc, membershipRepo, _, _ := newMembershipServiceForTest()

		membershipRepo.On("CountActiveOwners", ctx, workspaceID).Return(int64(1), nil).Once()

		err := svc.ensureNotLastOwner(ctx, workspaceID)
		conflict, isConflict := IsConflictError(err)
		assert.True(t, isConflict)
		assert.Contains(t, conflict.Message, "owner")

		membershipRepo.On("CountActiveOwners", ctx, workspaceID).Return(int64(2), nil).Once()
		assert.NoError(t, svc.ensureNotLastOwner(ctx, workspaceID))
	})
}

func TestResendInvitation(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()
	actorID := uuid.New()

	t.Run("only pending invitations can be resent", func(t *testing.T) {
		svc, membershipRepo, invitationRepo, _ := newMembershipServiceForTest()

		invitationID := uuid.New()
		invitation := &models.WorkspaceInvitation{
			ID:          invitationID,
			WorkspaceID: workspaceID,
			Email:       "late@example.com",
			Status:      models.InvitationStatusExpired,
		}

		invitationRepo.On("GetInvitationByID", ctx, invitationID).Return(invitation, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("admin", nil)
		invitationRepo.On("ResendInvitation", ctx, invitationID).Return(false, nil)

		resent, err := svc.ResendInvitation(ctx, workspaceID, invitationID, actorID)

		assert.Nil(t, resent)
		_, isConflict := IsConflictError(err)
		assert.True(t, isConflict)
	})

	t.Run("member cannot resend", func(t *testing.T) {
		svc, membershipRepo, invitationRepo, _ := newMembershipServiceForTest()

		invitationID := uuid.New()
		invitation := &models.WorkspaceInvitation{
			ID:          invitationID,
			WorkspaceID: workspaceID,
			Status:      models.InvitationStatusPending,
		}

		invitationRepo.On("GetInvitationByID", ctx, invitationID).Return(invitation, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("member", nil)

		resent, err := svc.ResendInvitation(ctx, workspaceID, invitationID, actorID)

		assert.Nil(t, resent)
		_, isPermission := IsPermissionError(err)
		assert.True(t, isPermission)
	})
}

func TestCancelInvitation(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()
	actorID := uuid.New()

	t.Run("manager cancels a pending invitation", func(t *testing.T) {
		svc, membershipRepo, invitationRepo, activityRepo := newMembershipServiceForTest()

		invitationID := uuid.New()
		invitation := &models.WorkspaceInvitation{
			ID:          invitationID,
			WorkspaceID: workspaceID,
			Email:       "gone@example.com",
			Status:      models.InvitationStatusPending,
		}

		invitationRepo.On("GetInvitationByID", ctx, invitationID).Return(invitation, nil)
		membershipRepo.On("GetUserRole", ctx, workspaceID, actorID).Return("manager", nil)
		invitationRepo.On("CancelInvitation", ctx, invitationID).Return(true, nil)
		activityRepo.On("LogActivity", ctx, mock.AnythingOfType("*models.WorkspaceActivity")).Return(nil)

		cancelled, err := svc.CancelInvitation(ctx, workspaceID, invitationID, actorID)

		assert.NoError(t, err)
		assert.True(t, cancelled)
	})

	t.Run("invitation in another workspace is not found", func(t *testing.T) {
		svc, _, invitationRepo, _ := newMembershipServiceForTest()

		invitationID := uuid.New()
		invitation := &models.WorkspaceInvitation{
			ID:          invitationID,
			WorkspaceID: uuid.New(),
		}

		invitationRepo.On("GetInvitationByID", ctx, invitationID).Return(invitation, nil)

		cancelled, err := svc.CancelInvitation(ctx, workspaceID, invitationID, actorID)

		assert.False(t, cancelled)
		_, isNotFound := IsNotFoundError(err)
		assert.True(t, isNotFound)
	})
}

func TestClassifyExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		expiresAt   time.Time
		wantExpired bool
		wantUrgency string
	}{
		{"already expired", now.Add(-time.Hour), true, ""},
		{"expiring this instant", now, true, ""},
		{"expires within 24h", now.Add(6 * time.Hour), false, ExpiryUrgencyHigh},
		{"exactly 24h remaining", now.Add(24 * time.Hour), false, ExpiryUrgencyHigh},
		{"expires within 72h", now.Add(48 * time.Hour), false, ExpiryUrgencyMedium},
		{"exactly 72h remaining", now.Add(72 * time.Hour), false, ExpiryUrgencyMedium},
		{"plenty of time left", now.Add(6 * 24 * time.Hour), false, ExpiryUrgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := ClassifyExpiry(tt.expiresAt, now)
			assert.Equal(t, tt.wantExpired, status.Expired)
			assert.Equal(t, tt.wantUrgency, status.Urgency)
		})
	}
}
