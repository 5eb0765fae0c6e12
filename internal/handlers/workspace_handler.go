package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workspace-service/internal/metrics"
	"workspace-service/internal/middleware"
	"workspace-service/internal/permissions"
	"workspace-service/internal/services"
)

// WorkspaceHandler handles workspace-related HTTP requests
type WorkspaceHandler struct {
	workspaceService *services.WorkspaceService
	metrics          *metrics.Metrics
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(workspaceService *services.WorkspaceService, m *metrics.Metrics) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		metrics:          m,
	}
}

// CreateWorkspace creates a new workspace owned by the authenticated user
// @Summary Create workspace
// @Description Creates a new workspace and assigns the current user as owner
// @Tags workspaces
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Authenticated user ID"
// @Param request body services.CreateWorkspaceRequest true "Workspace creation request"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/workspaces [post]
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	var req services.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	workspace, err := h.workspaceService.CreateWorkspace(c.Request.Context(), &req, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.WorkspacesCreated.Inc()
	}

	SuccessResponse(c, http.StatusCreated, "Workspace created successfully", workspace)
}

// GetWorkspace returns a workspace by ID
// @Summary Get workspace
// @Tags workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id} [get]
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
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

	workspace, err := h.workspaceService.GetWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if workspace == nil {
		ErrorResponse(c, http.StatusNotFound, "Workspace not found", nil)
		return
	}

	// Record access so workspace switchers can order by recency
	h.workspaceService.TouchWorkspace(c.Request.Context(), userID, workspaceID)

	SuccessResponse(c, http.StatusOK, "Workspace retrieved", workspace)
}

// GetWorkspaceBySlug returns a workspace by its slug
// @Summary Get workspace by slug
// @Tags workspaces
// @Produce json
// @Param slug path string true "Workspace slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/workspaces/slug/{slug} [get]
func (h *WorkspaceHandler) GetWorkspaceBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		ErrorResponse(c, http.StatusBadRequest, "Slug parameter is required", nil)
		return
	}

	workspace, err := h.workspaceService.GetWorkspaceBySlug(c.Request.Context(), slug)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if workspace == nil {
		ErrorResponse(c, http.StatusNotFound, "Workspace not found", nil)
		return
	}

	SuccessResponse(c, http.StatusOK, "Workspace retrieved", workspace)
}

// UpdateWorkspace applies a partial update to a workspace
// @Summary Update workspace
// @Tags workspaces
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Param request body services.UpdateWorkspaceRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id} [put]
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
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

	if _, err := h.workspaceService.RequirePermission(c.Request.Context(), workspaceID, userID, permissions.PermissionManageWorkspace); err != nil {
		HandleServiceError(c, err)
		return
	}

	var req services.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	workspace, err := h.workspaceService.UpdateWorkspace(c.Request.Context(), workspaceID, &req, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Workspace updated successfully", workspace)
}

// DeleteWorkspace soft-deletes a workspace
// @Summary Delete workspace
// @Description Deactivates the workspace. Memberships and activity are retained.
// @Tags workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id} [delete]
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
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

	if _, err := h.workspaceService.RequirePermission(c.Request.Context(), workspaceID, userID, permissions.PermissionDeleteWorkspace); err != nil {
		HandleServiceError(c, err)
		return
	}

	deleted, err := h.workspaceService.DeleteWorkspace(c.Request.Context(), workspaceID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !deleted {
		ErrorResponse(c, http.StatusNotFound, "Workspace not found", nil)
		return
	}

	SuccessResponse(c, http.StatusOK, "Workspace deleted successfully", nil)
}

// GetWorkspaceActivity returns the workspace activity feed, newest first
// @Summary Get workspace activity
// @Tags workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/activity [get]
func (h *WorkspaceHandler) GetWorkspaceActivity(c *gin.Context) {
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

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	activity, err := h.workspaceService.GetWorkspaceActivity(c.Request.Context(), workspaceID, limit, offset)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Activity retrieved", map[string]interface{}{
		"activity": activity,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetUserWorkspaces lists all workspaces the authenticated user belongs to
// @Summary List user workspaces
// @Tags users
// @Produce json
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/users/me/workspaces [get]
func (h *WorkspaceHandler) GetUserWorkspaces(c *gin.Context) {
	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	workspaces, err := h.workspaceService.GetUserWorkspaces(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Workspaces retrieved", map[string]interface{}{
		"workspaces": workspaces,
		"count":      len(workspaces),
	})
}

// GetDefaultWorkspace returns the user's default workspace
// @Summary Get default workspace
// @Tags users
// @Produce json
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/users/me/workspaces/default [get]
func (h *WorkspaceHandler) GetDefaultWorkspace(c *gin.Context) {
	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	workspace, err := h.workspaceService.GetDefaultWorkspace(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if workspace == nil {
		ErrorResponse(c, http.StatusNotFound, "No workspaces found for user", nil)
		return
	}

	SuccessResponse(c, http.StatusOK, "Default workspace retrieved", workspace)
}

// SetDefaultWorkspaceRequest selects the user's default workspace
type SetDefaultWorkspaceRequest struct {
	WorkspaceID uuid.UUID `json:"workspace_id" binding:"required"`
}

// SetDefaultWorkspace updates the user's default workspace preference
// @Summary Set default workspace
// @Tags users
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Authenticated user ID"
// @Param request body SetDefaultWorkspaceRequest true "Workspace selection"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/users/me/workspaces/default [put]
func (h *WorkspaceHandler) SetDefaultWorkspace(c *gin.Context) {
	userID := middleware.GetUserUUID(c)
	if userID == uuid.Nil {
		ErrorResponse(c, http.StatusUnauthorized, "User ID is required", nil)
		return
	}

	var req SetDefaultWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	if err := h.workspaceService.SetDefaultWorkspace(c.Request.Context(), userID, req.WorkspaceID); err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Default workspace updated", nil)
}
