package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"workspace-service/internal/models"
)

// memberRoleRankExpr orders members by privilege for listing purposes.
// The owner-first ordering is a user-facing contract, so it lives in SQL
// rather than being sorted client-side.
const memberRoleRankExpr = `CASE role
	WHEN 'owner' THEN 5
	WHEN 'admin' THEN 4
	WHEN 'manager' THEN 3
	WHEN 'member' THEN 2
	WHEN 'viewer' THEN 1
	ELSE 0
END DESC, joined_at ASC`

// MembershipRepository handles workspace membership database operations
type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// ============================================================================
// Membership Operations
// ============================================================================

// CreateMembership creates a new workspace membership
func (r *MembershipRepository) CreateMembership(ctx context.Context, membership *models.WorkspaceMember) error {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// GetMembership retrieves a membership by workspace and user regardless of
// active state (soft-removed rows are still visible here for reactivation)
func (r *MembershipRepository) GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.WorkspaceMember, error) {
	var membership models.WorkspaceMember
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&membership).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // Not found is not an error, just no membership
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &membership, nil
}

// GetMemberByID retrieves a membership row by its primary key
func (r *MembershipRepository) GetMemberByID(ctx context.Context, memberID uuid.UUID) (*models.WorkspaceMember, error) {
	var membership models.WorkspaceMember
	if err := r.db.WithContext(ctx).
		Where("id = ?", memberID).
		First(&membership).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &membership, nil
}

// GetWorkspaceMembers retrieves active members ordered by role rank
// descending, then join time ascending (owner first, then admins, each
// cohort in chronological order)
func (r *MembershipRepository) GetWorkspaceMembers(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND is_active = ?", workspaceID, true).
		Order(memberRoleRankExpr).
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to get workspace members: %w", err)
	}
	return members, nil
}

// GetUserMemberships retrieves all active memberships for a user with
// their workspaces preloaded
func (r *MembershipRepository) GetUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.WorkspaceMember, error) {
	var memberships []models.WorkspaceMember
	if err := r.db.WithContext(ctx).
		Preload("Workspace").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("last_accessed_at DESC NULLS LAST, joined_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to get user memberships: %w", err)
	}
	return memberships, nil
}

// UpdateMember applies a partial update to a membership row.
// Hierarchy rules are enforced by the service layer before this is called;
// the store is mechanism only.
func (r *MembershipRepository) UpdateMember(ctx context.Context, memberID uuid.UUID, updates map[string]interface{}) (bool, error) {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.WorkspaceMember{}).
		Where("id = ?", memberID).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update member: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeactivateMember soft-removes a member by flipping is_active.
// Idempotent: deactivating an already-inactive member affects no rows and
// is still a success.
func (r *MembershipRepository) DeactivateMember(ctx context.Context, workspaceID, memberID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WorkspaceMember{}).
		Where("id = ? AND workspace_id = ? AND is_active = ?", memberID, workspaceID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to deactivate member: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateLastAccessed updates the last accessed time for a membership
func (r *MembershipRepository) UpdateLastAccessed(ctx context.Context, workspaceID, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Update("last_accessed_at", time.Now()).Error; err != nil {
		return fmt.Errorf("failed to update last accessed: %w", err)
	}
	return nil
}

// GetUserRole retrieves the user's role within a workspace
func (r *MembershipRepository) GetUserRole(ctx context.Context, workspaceID, userID uuid.UUID) (string, error) {
	var membership models.WorkspaceMember
	if err := r.db.WithContext(ctx).
		Select("role").
		Where("workspace_id = ? AND user_id = ? AND is_active = ?", workspaceID, userID, true).
		First(&membership).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user role: %w", err)
	}
	return membership.Role, nil
}

// CountActiveMembers counts active members in a workspace
func (r *MembershipRepository) CountActiveMembers(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND is_active = ?", workspaceID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// CountActiveOwners counts active owners in a workspace.
// Used by the last-owner safeguard before removals and demotions.
func (r *MembershipRepository) CountActiveOwners(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND role = ? AND is_active = ?", workspaceID, models.MembershipRoleOwner, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}
	return count, nil
}

// CountMembersJoinedSince counts active members who joined after the cutoff
func (r *MembershipRepository) CountMembersJoinedSince(ctx context.Context, workspaceID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND is_active = ? AND joined_at >= ?", workspaceID, true, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count recent members: %w", err)
	}
	return count, nil
}

// ============================================================================
// User Workspace Preferences
// ============================================================================

// GetPreferences retrieves a user's workspace preferences
func (r *MembershipRepository) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.UserWorkspacePreferences, error) {
	var prefs models.UserWorkspacePreferences
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&prefs).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &prefs, nil
}

// SetDefaultWorkspace sets the user's default workspace, creating the
// preferences row on first use
func (r *MembershipRepository) SetDefaultWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	prefs := &models.UserWorkspacePreferences{
		UserID:             userID,
		DefaultWorkspaceID: &workspaceID,
	}

	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Assign(map[string]interface{}{
			"default_workspace_id": workspaceID,
			"updated_at":           time.Now(),
		}).
		FirstOrCreate(prefs)
	if result.Error != nil {
		return fmt.Errorf("failed to set default workspace: %w", result.Error)
	}
	return nil
}

// SetLastActiveWorkspace records the most recently used workspace
func (r *MembershipRepository) SetLastActiveWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	prefs := &models.UserWorkspacePreferences{
		UserID:                userID,
		LastActiveWorkspaceID: &workspaceID,
	}

	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Assign(map[string]interface{}{
			"last_active_workspace_id": workspaceID,
			"updated_at":               time.Now(),
		}).
		FirstOrCreate(prefs)
	if result.Error != nil {
		return fmt.Errorf("failed to set last active workspace: %w", result.Error)
	}
	return nil
}
