package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"workspace-service/internal/models"
	"workspace-service/internal/nats"
	"workspace-service/internal/permissions"
	"workspace-service/internal/repository"
)

// WorkspaceStore is the persistence surface the workspace service needs
type WorkspaceStore interface {
	CreateWorkspaceWithOwner(ctx context.Context, workspace *models.Workspace, ownerID uuid.UUID) error
	GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	GetWorkspaceBySlug(ctx context.Context, slug string) (*models.Workspace, error)
	UpdateWorkspace(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Workspace, error)
	SoftDeleteWorkspace(ctx context.Context, id uuid.UUID) (bool, error)
	IsSlugAvailable(ctx context.Context, slug string) (bool, error)
	IsReservedSlug(ctx context.Context, slug string) (bool, *models.ReservedSlug, error)
	GenerateUniqueSlug(ctx context.Context, name string) (string, error)
	GenerateSlugSuggestions(ctx context.Context, baseSlug string, count int) ([]string, error)
	ValidateSlugWithSuggestions(ctx context.Context, requestedSlug string) (*repository.SlugValidationResult, error)
}

// ActivityStore is the append-only audit surface
type ActivityStore interface {
	LogActivity(ctx context.Context, activity *models.WorkspaceActivity) error
	GetWorkspaceActivity(ctx context.Context, workspaceID uuid.UUID, limit, offset int) ([]models.WorkspaceActivity, error)
	CountActivitySince(ctx context.Context, workspaceID uuid.UUID, action string, since time.Time) (int64, error)
}

// EventPublisher publishes lifecycle events for downstream consumers.
// A nil publisher disables events; publishing is always best-effort.
type EventPublisher interface {
	PublishWorkspaceEvent(ctx context.Context, eventType string, event *nats.WorkspaceEvent) error
	PublishMemberEvent(ctx context.Context, eventType string, event *nats.MemberEvent) error
}

// WorkspaceService handles workspace lifecycle business logic
type WorkspaceService struct {
	workspaceRepo  WorkspaceStore
	membershipRepo MembershipStore
	activityRepo   ActivityStore
	events         EventPublisher
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(workspaceRepo WorkspaceStore, membershipRepo MembershipStore, activityRepo ActivityStore, events EventPublisher) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo:  workspaceRepo,
		membershipRepo: membershipRepo,
		activityRepo:   activityRepo,
		events:         events,
	}
}

// ============================================================================
// Workspace Lifecycle
// ============================================================================

// CreateWorkspaceRequest represents a request to create a new workspace
type CreateWorkspaceRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=255"`
	Slug        string `json:"slug" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=personal team business enterprise"`
	Description string `json:"description,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Locale      string `json:"locale,omitempty"`
}

// CreateWorkspace creates a workspace with its owner membership atomically.
// Validation and conflict checks run before any mutation is attempted.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, req *CreateWorkspaceRequest, ownerID uuid.UUID) (*models.Workspace, error) {
	if ownerID == uuid.Nil {
		return nil, NewAuthError("an authenticated user is required to create a workspace")
	}

	if !models.ValidateWorkspaceSlug(req.Slug) {
		return nil, NewValidationError("slug",
			fmt.Sprintf("slug must be %d-%d characters of lowercase letters, digits and hyphens, not starting or ending with a hyphen",
				models.SlugMinLength, models.SlugMaxLength), nil)
	}

	reserved, reservedInfo, err := s.workspaceRepo.IsReservedSlug(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check reserved slug: %w", err)
	}
	if reserved {
		message := "this slug is reserved"
		if reservedInfo != nil && reservedInfo.Reason != "" {
			message = fmt.Sprintf("this slug is reserved: %s", reservedInfo.Reason)
		}
		return nil, NewValidationError("slug", message, nil)
	}

	available, err := s.workspaceRepo.IsSlugAvailable(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug availability: %w", err)
	}
	if !available {
		suggestions, _ := s.workspaceRepo.GenerateSlugSuggestions(ctx, req.Slug, 5)
		conflict := NewConflictError("workspace", fmt.Sprintf("slug %q is already taken", req.Slug))
		conflict.Suggestions = suggestions
		return nil, conflict
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	workspace := &models.Workspace{
		Name:        req.Name,
		Slug:        req.Slug,
		Type:        req.Type,
		Description: req.Description,
		IsActive:    true,
		Timezone:    timezone,
		Locale:      locale,
	}

	if err := s.workspaceRepo.CreateWorkspaceWithOwner(ctx, workspace, ownerID); err != nil {
		return nil, err
	}

	s.publishWorkspaceEvent(ctx, nats.EventWorkspaceCreated, workspace, ownerID)

	return workspace, nil
}

// GetWorkspace retrieves a workspace. Returns nil for missing and inactive
// workspaces alike.
func (s *WorkspaceService) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	return s.workspaceRepo.GetWorkspace(ctx, id)
}

// GetWorkspaceBySlug retrieves an active workspace by slug
func (s *WorkspaceService) GetWorkspaceBySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	return s.workspaceRepo.GetWorkspaceBySlug(ctx, slug)
}

// UpdateWorkspaceRequest represents a partial workspace update
type UpdateWorkspaceRequest struct {
	Name           *string       `json:"name,omitempty" binding:"omitempty,min=2,max=255"`
	Description    *string       `json:"description,omitempty"`
	LogoURL        *string       `json:"logo_url,omitempty"`
	PrimaryColor   *string       `json:"primary_color,omitempty"`
	SecondaryColor *string       `json:"secondary_color,omitempty"`
	Timezone       *string       `json:"timezone,omitempty"`
	Locale         *string       `json:"locale,omitempty"`
	Settings       *models.JSONB `json:"settings,omitempty"`
	Features       *models.JSONB `json:"features,omitempty"`
}

// UpdateWorkspace applies a partial update and appends a workspace_updated
// activity entry. Returns NotFoundError for unknown IDs.
func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, id uuid.UUID, req *UpdateWorkspaceRequest, actorID uuid.UUID) (*models.Workspace, error) {
	updates := map[string]interface{}{}
	changed := []string{}
	if req.Name != nil {
		updates["name"] = *req.Name
		changed = append(changed, "name")
	}
	if req.Description != nil {
		updates["description"] = *req.Description
		changed = append(changed, "description")
	}
	if req.LogoURL != nil {
		updates["logo_url"] = *req.LogoURL
		changed = append(changed, "logo_url")
	}
	if req.PrimaryColor != nil {
		updates["primary_color"] = *req.PrimaryColor
		changed = append(changed, "primary_color")
	}
	if req.SecondaryColor != nil {
		updates["secondary_color"] = *req.SecondaryColor
		changed = append(changed, "secondary_color")
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
		changed = append(changed, "timezone")
	}
	if req.Locale != nil {
		updates["locale"] = *req.Locale
		changed = append(changed, "locale")
	}
	if req.Settings != nil {
		updates["settings"] = *req.Settings
		changed = append(changed, "settings")
	}
	if req.Features != nil {
		updates["features"] = *req.Features
		changed = append(changed, "features")
	}

	if len(updates) == 0 {
		return nil, NewValidationError("body", "no updatable fields provided", nil)
	}

	workspace, err := s.workspaceRepo.UpdateWorkspace(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("workspace", id.String())
		}
		return nil, err
	}

	s.logActivity(ctx, id, &actorID, models.ActivityWorkspaceUpdated,
		"Workspace settings updated", "workspace", &id,
		map[string]interface{}{"fields": changed})
	s.publishWorkspaceEvent(ctx, nats.EventWorkspaceUpdated, workspace, actorID)

	return workspace, nil
}

// DeleteWorkspace soft-deletes a workspace. Members, invitations and
// activity history stay in place; consumers treat them as inert.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (bool, error) {
	workspace, err := s.workspaceRepo.GetWorkspace(ctx, id)
	if err != nil {
		return false, err
	}
	if workspace == nil {
		return false, NewNotFoundError("workspace", id.String())
	}

	deleted, err := s.workspaceRepo.SoftDeleteWorkspace(ctx, id)
	if err != nil {
		return false, err
	}

	if deleted {
		s.logActivity(ctx, id, &actorID, models.ActivityWorkspaceDeleted,
			fmt.Sprintf("Workspace %q deactivated", workspace.Name), "workspace", &id, nil)
		s.publishWorkspaceEvent(ctx, nats.EventWorkspaceDeleted, workspace, actorID)
	}

	return deleted, nil
}

// ============================================================================
// User Workspaces & Preferences
// ============================================================================

// UserWorkspaceSummary represents a workspace from a user's point of view
type UserWorkspaceSummary struct {
	WorkspaceID    uuid.UUID  `json:"workspace_id"`
	Slug           string     `json:"slug"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	LogoURL        string     `json:"logo_url,omitempty"`
	Role           string     `json:"role"`
	IsOwner        bool       `json:"is_owner"`
	IsDefault      bool       `json:"is_default"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// GetUserWorkspaces retrieves all active workspaces the user belongs to
func (s *WorkspaceService) GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]UserWorkspaceSummary, error) {
	memberships, err := s.membershipRepo.GetUserMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user memberships: %w", err)
	}

	var defaultID uuid.UUID
	if prefs, err := s.membershipRepo.GetPreferences(ctx, userID); err == nil && prefs != nil && prefs.DefaultWorkspaceID != nil {
		defaultID = *prefs.DefaultWorkspaceID
	}

	summaries := make([]UserWorkspaceSummary, 0, len(memberships))
	for _, m := range memberships {
		if m.Workspace == nil || !m.Workspace.IsActive {
			continue
		}
		summaries = append(summaries, UserWorkspaceSummary{
			WorkspaceID:    m.WorkspaceID,
			Slug:           m.Workspace.Slug,
			Name:           m.Workspace.Name,
			Type:           m.Workspace.Type,
			LogoURL:        m.Workspace.LogoURL,
			Role:           m.Role,
			IsOwner:        m.Role == models.MembershipRoleOwner,
			IsDefault:      m.WorkspaceID == defaultID,
			LastAccessedAt: m.LastAccessedAt,
		})
	}

	return summaries, nil
}

// GetDefaultWorkspace returns the user's default workspace, falling back to
// their earliest-joined workspace when no preference is set
func (s *WorkspaceService) GetDefaultWorkspace(ctx context.Context, userID uuid.UUID) (*UserWorkspaceSummary, error) {
	summaries, err := s.GetUserWorkspaces(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}

	for i := range summaries {
		if summaries[i].IsDefault {
			return &summaries[i], nil
		}
	}
	return &summaries[len(summaries)-1], nil
}

// SetDefaultWorkspace sets the user's default workspace after verifying
// they are an active member of it
func (s *WorkspaceService) SetDefaultWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	role, err := s.membershipRepo.GetUserRole(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return NewPermissionError("set_default", "user is not a member of this workspace")
	}
	return s.membershipRepo.SetDefaultWorkspace(ctx, userID, workspaceID)
}

// TouchWorkspace records workspace access in membership and preference state.
// Both writes are convenience tracking, so failures are logged and swallowed.
func (s *WorkspaceService) TouchWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) {
	if err := s.membershipRepo.UpdateLastAccessed(ctx, workspaceID, userID); err != nil {
		log.Printf("Warning: failed to update last accessed: %v", err)
	}
	if err := s.membershipRepo.SetLastActiveWorkspace(ctx, userID, workspaceID); err != nil {
		log.Printf("Warning: failed to set last active workspace: %v", err)
	}
}

// ============================================================================
// Authorization Helpers
// ============================================================================

// RequirePermission resolves the caller's role in the workspace and checks
// a permission from the static role table
func (s *WorkspaceService) RequirePermission(ctx context.Context, workspaceID, userID uuid.UUID, permission string) (string, error) {
	role, err := s.membershipRepo.GetUserRole(ctx, workspaceID, userID)
	if err != nil {
		return "", err
	}
	if role == "" {
		return "", NewPermissionError(permission, "user is not a member of this workspace")
	}
	if !permissions.HasPermission(role, permission) {
		return role, NewPermissionError(permission, fmt.Sprintf("role %q does not grant %s", role, permission))
	}
	return role, nil
}

// ============================================================================
// Slug Operations
// ============================================================================

// ValidateSlug checks availability and returns suggestions when taken
func (s *WorkspaceService) ValidateSlug(ctx context.Context, slug string) (*repository.SlugValidationResult, error) {
	return s.workspaceRepo.ValidateSlugWithSuggestions(ctx, slug)
}

// GenerateSlug generates a unique slug from a workspace name
func (s *WorkspaceService) GenerateSlug(ctx context.Context, name string) (string, error) {
	return s.workspaceRepo.GenerateUniqueSlug(ctx, name)
}

// ============================================================================
// Activity
// ============================================================================

// GetWorkspaceActivity returns the newest-first paginated audit trail
func (s *WorkspaceService) GetWorkspaceActivity(ctx context.Context, workspaceID uuid.UUID, limit, offset int) ([]models.WorkspaceActivity, error) {
	workspace, err := s.workspaceRepo.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, NewNotFoundError("workspace", workspaceID.String())
	}
	return s.activityRepo.GetWorkspaceActivity(ctx, workspaceID, limit, offset)
}

// logActivity appends an audit entry. Failures are logged and swallowed:
// audit logging never blocks the operation it describes. The one exception
// is workspace creation, whose entry rides inside the creation transaction.
func (s *WorkspaceService) logActivity(ctx context.Context, workspaceID uuid.UUID, userID *uuid.UUID, action, description, entityType string, entityID *uuid.UUID, metadata map[string]interface{}) {
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

// publishWorkspaceEvent emits a lifecycle event, best-effort
func (s *WorkspaceService) publishWorkspaceEvent(ctx context.Context, eventType string, workspace *models.Workspace, actorID uuid.UUID) {
	if s.events == nil {
		return
	}
	event := &nats.WorkspaceEvent{
		WorkspaceID: workspace.ID.String(),
		Slug:        workspace.Slug,
		Name:        workspace.Name,
		ActorID:     actorID.String(),
	}
	if err := s.events.PublishWorkspaceEvent(ctx, eventType, event); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}
