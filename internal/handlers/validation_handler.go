package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workspace-service/internal/services"
)

// ValidationHandler handles slug validation and generation requests
type ValidationHandler struct {
	workspaceService *services.WorkspaceService
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(workspaceService *services.WorkspaceService) *ValidationHandler {
	return &ValidationHandler{
		workspaceService: workspaceService,
	}
}

// ValidateSlug checks a requested slug for format, reservation and
// availability, returning alternatives when it cannot be used
// @Summary Validate workspace slug
// @Tags slugs
// @Produce json
// @Param slug query string true "Slug to validate"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/slugs/validate [get]
func (h *ValidationHandler) ValidateSlug(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		ErrorResponse(c, http.StatusBadRequest, "Slug parameter is required", nil)
		return
	}

	result, err := h.workspaceService.ValidateSlug(c.Request.Context(), slug)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Slug validated", result)
}

// GenerateSlugRequest asks for a unique slug derived from a display name
type GenerateSlugRequest struct {
	Name string `json:"name" binding:"required,min=1"`
}

// GenerateSlug derives an available slug from a workspace name
// @Summary Generate workspace slug
// @Tags slugs
// @Accept json
// @Produce json
// @Param request body GenerateSlugRequest true "Workspace name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/slugs/generate [post]
func (h *ValidationHandler) GenerateSlug(c *gin.Context) {
	var req GenerateSlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	slug, err := h.workspaceService.GenerateSlug(c.Request.Context(), req.Name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Slug generated", map[string]interface{}{
		"name": req.Name,
		"slug": slug,
	})
}
