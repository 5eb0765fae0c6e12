package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workspace-service/internal/middleware"
	"workspace-service/internal/permissions"
	"workspace-service/internal/services"
)

// DashboardHandler handles workspace dashboard HTTP requests
type DashboardHandler struct {
	dashboardService *services.DashboardService
	workspaceService *services.WorkspaceService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, workspaceService *services.WorkspaceService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		workspaceService: workspaceService,
	}
}

// GetDashboard returns the aggregated dashboard for a workspace
// @Summary Get workspace dashboard
// @Description Returns workspace details, stats, members, pending invitations and recent activity in one call
// @Tags dashboard
// @Produce json
// @Param id path string true "Workspace ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
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

	dashboard, err := h.dashboardService.GetWorkspaceDashboard(c.Request.Context(), workspaceID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Dashboard retrieved", dashboard)
}

// GetStats returns workspace statistics only
// @Summary Get workspace stats
// @Tags dashboard
// @Produce json
// @Param id path string true "Workspace ID"
// @Param X-User-ID header string true "Authenticated user ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/workspaces/{id}/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
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

	stats, err := h.dashboardService.GetWorkspaceStats(c.Request.Context(), workspaceID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Stats retrieved", stats)
}
