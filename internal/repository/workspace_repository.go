package repository

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"workspace-service/internal/models"
)

// ReservedSlugCacheInterface abstracts the shared reserved-slug cache
// (Redis in production, nil or a fake in tests)
type ReservedSlugCacheInterface interface {
	GetReservedSlugs(ctx context.Context) ([]models.ReservedSlug, error)
	SetReservedSlugs(ctx context.Context, slugs []models.ReservedSlug) error
	InvalidateReservedSlugs(ctx context.Context) error
}

// WorkspaceRepository handles workspace database operations
type WorkspaceRepository struct {
	db        *gorm.DB
	slugCache ReservedSlugCacheInterface
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// SetReservedSlugCache sets the shared cache used for reserved slug lookups
func (r *WorkspaceRepository) SetReservedSlugCache(cache ReservedSlugCacheInterface) {
	r.slugCache = cache
}

// ============================================================================
// Workspace Operations
// ============================================================================

// CreateWorkspaceWithOwner creates a workspace together with its owner
// membership and the workspace_created activity entry in one transaction.
// A workspace without an owner must never be observable, so the three
// inserts commit or roll back together.
func (r *WorkspaceRepository) CreateWorkspaceWithOwner(ctx context.Context, workspace *models.Workspace, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workspace.OwnerUserID = ownerID
		if err := tx.Create(workspace).Error; err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}

		owner := &models.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      ownerID,
			Role:        models.MembershipRoleOwner,
			IsActive:    true,
			JoinedAt:    time.Now(),
		}
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}

		activity := &models.WorkspaceActivity{
			WorkspaceID: workspace.ID,
			UserID:      &ownerID,
			Action:      models.ActivityWorkspaceCreated,
			Description: fmt.Sprintf("Workspace %q created", workspace.Name),
			EntityType:  "workspace",
			EntityID:    &workspace.ID,
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to log workspace creation: %w", err)
		}

		return nil
	})
}

// GetWorkspace retrieves a workspace by ID.
// Returns nil (not an error) when the workspace is missing or inactive;
// callers treat both as "unavailable" and must not tell them apart.
func (r *WorkspaceRepository) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&workspace).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return &workspace, nil
}

// GetWorkspaceBySlug retrieves an active workspace by its URL slug
func (r *WorkspaceRepository) GetWorkspaceBySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := r.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&workspace).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get workspace by slug: %w", err)
	}
	return &workspace, nil
}

// UpdateWorkspace applies a partial update and returns the updated row.
// Returns gorm.ErrRecordNotFound when the ID is unknown.
func (r *WorkspaceRepository) UpdateWorkspace(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Workspace, error) {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.Workspace{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var workspace models.Workspace
	if err := r.db.WithContext(ctx).First(&workspace, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload workspace: %w", err)
	}
	return &workspace, nil
}

// SoftDeleteWorkspace flips the active flag. Members, invitations and
// activity rows are left in place for audit history; nothing cascades.
func (r *WorkspaceRepository) SoftDeleteWorkspace(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Workspace{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete workspace: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ============================================================================
// Slug Operations
// ============================================================================

// IsSlugAvailable checks if a slug is free for use
func (r *WorkspaceRepository) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Workspace{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug availability: %w", err)
	}
	return count == 0, nil
}

// GenerateUniqueSlug generates a unique URL-friendly slug from a workspace name
func (r *WorkspaceRepository) GenerateUniqueSlug(ctx context.Context, name string) (string, error) {
	baseSlug := models.GenerateWorkspaceSlug(name)
	if len(baseSlug) < models.SlugMinLength {
		baseSlug = "workspace-" + baseSlug
		baseSlug = models.GenerateWorkspaceSlug(baseSlug)
	}
	if len(baseSlug) > 45 {
		baseSlug = models.GenerateWorkspaceSlug(baseSlug[:45])
	}

	slug := baseSlug
	counter := 0

	// Check for uniqueness and append number if needed
	for {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Workspace{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check slug uniqueness: %w", err)
		}
		reserved, _, err := r.IsReservedSlug(ctx, slug)
		if err != nil {
			return "", err
		}
		if count == 0 && !reserved {
			break
		}
		counter++
		slug = fmt.Sprintf("%s-%d", baseSlug, counter)
	}

	return slug, nil
}

// GenerateSlugSuggestions generates available slug alternatives
func (r *WorkspaceRepository) GenerateSlugSuggestions(ctx context.Context, baseSlug string, count int) ([]string, error) {
	suggestions := make([]string, 0, count)

	// Strategy 1: Append numbers (1, 2, 3...)
	for i := 1; len(suggestions) < count && i <= 99; i++ {
		candidate := fmt.Sprintf("%s-%d", baseSlug, i)
		available, err := r.IsSlugAvailable(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if available {
			suggestions = append(suggestions, candidate)
		}
	}

	// Strategy 2: Append common suffixes
	suffixes := []string{"team", "hq", "co", "group", "studio"}
	for _, suffix := range suffixes {
		if len(suggestions) >= count {
			break
		}
		candidate := fmt.Sprintf("%s-%s", baseSlug, suffix)
		if len(candidate) <= models.SlugMaxLength {
			available, err := r.IsSlugAvailable(ctx, candidate)
			if err != nil {
				return nil, err
			}
			if available {
				suggestions = append(suggestions, candidate)
			}
		}
	}

	return suggestions, nil
}

// reservedSlugFallback is a per-process cache used when no shared cache is
// configured (single-replica deployments, tests)
type reservedSlugFallback struct {
	slugs    map[string]*models.ReservedSlug
	loadedAt time.Time
	mu       sync.RWMutex
}

var localReservedSlugs = &reservedSlugFallback{
	slugs: make(map[string]*models.ReservedSlug),
}

// IsReservedSlug checks whether a slug is on the reserved list
func (r *WorkspaceRepository) IsReservedSlug(ctx context.Context, slug string) (bool, *models.ReservedSlug, error) {
	// Shared cache first
	if r.slugCache != nil {
		cached, err := r.slugCache.GetReservedSlugs(ctx)
		if err == nil && cached != nil {
			for i := range cached {
				if cached[i].Slug == slug {
					return true, &cached[i], nil
				}
			}
			return false, nil, nil
		}
		// Cache miss or cache unavailable - fall through to the database
	} else {
		localReservedSlugs.mu.RLock()
		if time.Since(localReservedSlugs.loadedAt) < 5*time.Minute && len(localReservedSlugs.slugs) > 0 {
			reserved, exists := localReservedSlugs.slugs[slug]
			localReservedSlugs.mu.RUnlock()
			return exists, reserved, nil
		}
		localReservedSlugs.mu.RUnlock()
	}

	slugs, err := r.loadReservedSlugs(ctx)
	if err != nil {
		return false, nil, err
	}

	for i := range slugs {
		if slugs[i].Slug == slug {
			return true, &slugs[i], nil
		}
	}
	return false, nil, nil
}

// loadReservedSlugs reads the active reserved slugs and refreshes whichever
// cache is in play
func (r *WorkspaceRepository) loadReservedSlugs(ctx context.Context) ([]models.ReservedSlug, error) {
	var slugs []models.ReservedSlug
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&slugs).Error; err != nil {
		return nil, fmt.Errorf("failed to load reserved slugs: %w", err)
	}

	if r.slugCache != nil {
		if err := r.slugCache.SetReservedSlugs(ctx, slugs); err != nil {
			// Best effort - the database remains the source of truth
			log.Printf("Warning: failed to cache reserved slugs: %v", err)
		}
	} else {
		newCache := make(map[string]*models.ReservedSlug, len(slugs))
		for i := range slugs {
			newCache[slugs[i].Slug] = &slugs[i]
		}
		localReservedSlugs.mu.Lock()
		localReservedSlugs.slugs = newCache
		localReservedSlugs.loadedAt = time.Now()
		localReservedSlugs.mu.Unlock()
	}

	return slugs, nil
}

// AddReservedSlug adds a slug to the reserved list and invalidates the cache
func (r *WorkspaceRepository) AddReservedSlug(ctx context.Context, slug *models.ReservedSlug) error {
	if err := r.db.WithContext(ctx).Create(slug).Error; err != nil {
		return fmt.Errorf("failed to add reserved slug: %w", err)
	}
	r.invalidateReservedSlugCache(ctx)
	return nil
}

// RemoveReservedSlug deactivates a reserved slug and invalidates the cache
func (r *WorkspaceRepository) RemoveReservedSlug(ctx context.Context, slug string) error {
	if err := r.db.WithContext(ctx).Model(&models.ReservedSlug{}).
		Where("slug = ?", slug).
		Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to remove reserved slug: %w", err)
	}
	r.invalidateReservedSlugCache(ctx)
	return nil
}

func (r *WorkspaceRepository) invalidateReservedSlugCache(ctx context.Context) {
	if r.slugCache != nil {
		if err := r.slugCache.InvalidateReservedSlugs(ctx); err != nil {
			log.Printf("Warning: failed to invalidate reserved slug cache: %v", err)
		}
		return
	}
	localReservedSlugs.mu.Lock()
	localReservedSlugs.loadedAt = time.Time{}
	localReservedSlugs.mu.Unlock()
}

// SlugValidationResult contains the result of slug validation with suggestions
type SlugValidationResult struct {
	Slug        string   `json:"slug"`
	Available   bool     `json:"available"`
	Message     string   `json:"message,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ValidateSlugWithSuggestions checks if a slug is available and provides alternatives if not
func (r *WorkspaceRepository) ValidateSlugWithSuggestions(ctx context.Context, requestedSlug string) (*SlugValidationResult, error) {
	normalizedSlug := models.GenerateWorkspaceSlug(requestedSlug)

	if !models.ValidateWorkspaceSlug(normalizedSlug) {
		return &SlugValidationResult{
			Slug:      requestedSlug,
			Available: false,
			Message:   fmt.Sprintf("Slug must be %d-%d characters of lowercase letters, digits and hyphens", models.SlugMinLength, models.SlugMaxLength),
		}, nil
	}

	// Check if it's a reserved slug (database lookup with caching)
	isReserved, reservedInfo, err := r.IsReservedSlug(ctx, normalizedSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to check reserved slug: %w", err)
	}
	if isReserved {
		suggestions, err := r.GenerateSlugSuggestions(ctx, normalizedSlug, 5)
		if err != nil {
			return nil, err
		}
		reason := "This name is reserved and cannot be used"
		if reservedInfo != nil && reservedInfo.Reason != "" {
			reason = fmt.Sprintf("This name is reserved: %s", reservedInfo.Reason)
		}
		return &SlugValidationResult{
			Slug:        normalizedSlug,
			Available:   false,
			Message:     reason,
			Suggestions: suggestions,
		}, nil
	}

	available, err := r.IsSlugAvailable(ctx, normalizedSlug)
	if err != nil {
		return nil, err
	}

	if available {
		return &SlugValidationResult{
			Slug:      normalizedSlug,
			Available: true,
			Message:   "This name is available!",
		}, nil
	}

	suggestions, err := r.GenerateSlugSuggestions(ctx, normalizedSlug, 5)
	if err != nil {
		return nil, err
	}

	return &SlugValidationResult{
		Slug:        normalizedSlug,
		Available:   false,
		Message:     "This name is already taken. Try one of these alternatives:",
		Suggestions: suggestions,
	}, nil
}
