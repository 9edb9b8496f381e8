package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/service"
)

// AdminHandler handles global administration endpoints.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

type changePermissionRequest struct {
	PermissionID int `json:"permission_id"`
}

// ChangePermission handles POST /api/v1/admin/users/:id/permission.
func (h *AdminHandler) ChangePermission(c echo.Context) error {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid user ID")
	}

	var req changePermissionRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := h.service.ChangePermission(c.Request().Context(), auth.GetUserID(c), targetID, req.PermissionID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
