package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workspace-service/internal/api/dto"
	"github.com/spec-kit/workspace-service/internal/auth"
	"github.com/spec-kit/workspace-service/internal/service"
	apperrors "github.com/spec-kit/workspace-service/pkg/util"
)

// WorkspaceHandler exposes workspace endpoints. Every route requires
// an authenticated caller.
type WorkspaceHandler struct {
	workspaces *service.WorkspaceService
}

// NewWorkspaceHandler constructs the handler.
func NewWorkspaceHandler(workspaceService *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaceService}
}

// Create handles POST /workspaces.
func (h *WorkspaceHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	var req dto.CreateWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid request body")
	}

	ws, err := h.workspaces.Create(c.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "workspace created successfully",
		"data": fiber.Map{
			"workspace": dto.NewWorkspaceResponse(ws),
		},
	})
}

// List handles GET /workspaces.
func (h *WorkspaceHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	workspaces, err := h.workspaces.ListForUser(c.Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "",
		"data": fiber.Map{
			"workspaces": dto.NewWorkspaceListResponse(workspaces),
		},
	})
}

// GetBySlug handles GET /workspaces/:slug.
func (h *WorkspaceHandler) GetBySlug(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	ws, err := h.workspaces.GetBySlug(c.Context(), c.Params("slug"), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "",
		"data": fiber.Map{
			"workspace": dto.NewWorkspaceResponse(ws),
		},
	})
}
