package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"workspace-service/internal/models"
)

// InvitationRepository handles workspace invitation database operations
type InvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// CreateInvitation persists a new pending invitation
func (r *InvitationRepository) CreateInvitation(ctx context.Context, invitation *models.WorkspaceInvitation) error {
	if err := r.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetInvitationByID retrieves an invitation by its primary key
func (r *InvitationRepository) GetInvitationByID(ctx context.Context, id uuid.UUID) (*models.WorkspaceInvitation, error) {
	var invitation models.WorkspaceInvitation
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&invitation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &invitation, nil
}

// GetInvitationByToken retrieves an invitation by its token
func (r *InvitationRepository) GetInvitationByToken(ctx context.Context, token string) (*models.WorkspaceInvitation, error) {
	var invitation models.WorkspaceInvitation
	if err := r.db.WithContext(ctx).
		Preload("Workspace").
		Where("token = ?", token).
		First(&invitation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation by token: %w", err)
	}
	return &invitation, nil
}

// GetPendingInvitations retrieves pending, unexpired invitations for a workspace
func (r *InvitationRepository) GetPendingInvitations(ctx context.Context, workspaceID uuid.UUID) ([]models.WorkspaceInvitation, error) {
	var invitations []models.WorkspaceInvitation
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND status = ? AND expires_at > ?",
			workspaceID, models.InvitationStatusPending, time.Now()).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		return nil, fmt.Errorf("failed to get pending invitations: %w", err)
	}
	return invitations, nil
}

// HasPendingInvitation checks whether an email already has a live invitation
// for the workspace
func (r *InvitationRepository) HasPendingInvitation(ctx context.Context, workspaceID uuid.UUID, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.WorkspaceInvitation{}).
		Where("workspace_id = ? AND email = ? AND status = ? AND expires_at > ?",
			workspaceID, email, models.InvitationStatusPending, time.Now()).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check pending invitation: %w", err)
	}
	return count > 0, nil
}

// AcceptInvitation consumes a token and activates the membership.
//
// The status flip is a single conditional UPDATE guarded on
// status='pending' AND expires_at in the future, so two concurrent accepts
// of the same token race on RowsAffected and exactly one wins. The
// membership create-or-reactivate rides in the same transaction; a token
// is never consumed without its membership appearing.
//
// Returns (nil, nil) when the token is unknown, expired or already used -
// callers present all three identically.
func (r *InvitationRepository) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.WorkspaceInvitation, error) {
	var accepted *models.WorkspaceInvitation

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&models.WorkspaceInvitation{}).
			Where("token = ? AND status = ? AND expires_at > ?",
				token, models.InvitationStatusPending, now).
			Updates(map[string]interface{}{
				"status":      models.InvitationStatusAccepted,
				"accepted_at": now,
				"updated_at":  now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to accept invitation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Lost the race, expired, or never existed
			return nil
		}

		var invitation models.WorkspaceInvitation
		if err := tx.Where("token = ?", token).First(&invitation).Error; err != nil {
			return fmt.Errorf("failed to reload invitation: %w", err)
		}

		// Create the membership, or reactivate a previously removed one
		var existing models.WorkspaceMember
		err := tx.Where("workspace_id = ? AND user_id = ?", invitation.WorkspaceID, userID).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"is_active":  true,
				"role":       invitation.Role,
				"invited_by": invitation.InvitedBy,
				"joined_at":  now,
				"updated_at": now,
			}).Error; err != nil {
				return fmt.Errorf("failed to reactivate membership: %w", err)
			}
		case err == gorm.ErrRecordNotFound:
			member := &models.WorkspaceMember{
				WorkspaceID: invitation.WorkspaceID,
				UserID:      userID,
				Role:        invitation.Role,
				IsActive:    true,
				InvitedBy:   &invitation.InvitedBy,
				JoinedAt:    now,
			}
			if err := tx.Create(member).Error; err != nil {
				return fmt.Errorf("failed to create membership: %w", err)
			}
		default:
			return fmt.Errorf("failed to check existing membership: %w", err)
		}

		accepted = &invitation
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accepted, nil
}

// DeclineInvitation consumes a token without creating a membership.
// Same conditional-update guard as AcceptInvitation.
func (r *InvitationRepository) DeclineInvitation(ctx context.Context, token string) (*models.WorkspaceInvitation, error) {
	now := time.Now()

	result := r.db.WithContext(ctx).Model(&models.WorkspaceInvitation{}).
		Where("token = ? AND status = ? AND expires_at > ?",
			token, models.InvitationStatusPending, now).
		Updates(map[string]interface{}{
			"status":      models.InvitationStatusDeclined,
			"declined_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to decline invitation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var invitation models.WorkspaceInvitation
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error; err != nil {
		return nil, fmt.Errorf("failed to reload invitation: %w", err)
	}
	return &invitation, nil
}

// CancelInvitation forces a pending invitation to expired. Used by
// workspace admins to revoke an offer before it is accepted.
func (r *InvitationRepository) CancelInvitation(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.WorkspaceInvitation{}).
		Where("id = ? AND status = ?", id, models.InvitationStatusPending).
		Updates(map[string]interface{}{
			"status":     models.InvitationStatusExpired,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to cancel invitation: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ResendInvitation extends a pending invitation by a fresh validity window.
// The token is intentionally kept, so a previously sent link keeps working.
func (r *InvitationRepository) ResendInvitation(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.WorkspaceInvitation{}).
		Where("id = ? AND status = ?", id, models.InvitationStatusPending).
		Updates(map[string]interface{}{
			"expires_at": time.Now().Add(models.DefaultInvitationTTL),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to resend invitation: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ExpireOverdueInvitations sweeps pending invitations past their expiry.
// Expiry is also checked lazily at accept time, so this only keeps listings
// tidy; it is not load-bearing for correctness.
func (r *InvitationRepository) ExpireOverdueInvitations(ctx context.Context) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.WorkspaceInvitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationStatusPending, now).
		Updates(map[string]interface{}{
			"status":     models.InvitationStatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", result.Error)
	}
	return result.RowsAffected, nil
}
