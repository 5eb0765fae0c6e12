package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"workspace-service/internal/models"
)

// ActivityRepository handles the append-only workspace activity log.
// Rows are inserted and read, never updated or deleted.
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// LogActivity appends an activity entry
func (r *ActivityRepository) LogActivity(ctx context.Context, activity *models.WorkspaceActivity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

// GetWorkspaceActivity retrieves activity entries newest-first with
// limit/offset pagination
func (r *ActivityRepository) GetWorkspaceActivity(ctx context.Context, workspaceID uuid.UUID, limit, offset int) ([]models.WorkspaceActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var activities []models.WorkspaceActivity
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to get workspace activity: %w", err)
	}
	return activities, nil
}

// CountActivitySince counts entries for an action after the cutoff
// (used for dashboard growth figures)
func (r *ActivityRepository) CountActivitySince(ctx context.Context, workspaceID uuid.UUID, action string, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.WorkspaceActivity{}).
		Where("workspace_id = ? AND action = ? AND created_at >= ?", workspaceID, action, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return count, nil
}
