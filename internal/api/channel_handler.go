package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/service"
)

// ChannelHandler handles channel and membership endpoints.
type ChannelHandler struct {
	service *service.ChannelService
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(svc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{service: svc}
}

type createChannelRequest struct {
	Name     string `json:"name"`
	IsPublic *bool  `json:"is_public"`
}

// CreateChannel handles POST /api/v1/channels.
func (h *ChannelHandler) CreateChannel(c echo.Context) error {
	var req createChannelRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	channel, err := h.service.CreateChannel(c.Request().Context(), auth.GetUserID(c), req.Name, isPublic)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, channel)
}

// ListChannels handles GET /api/v1/channels.
func (h *ChannelHandler) ListChannels(c echo.Context) error {
	channels, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, channels)
}

// GetChannel handles GET /api/v1/channels/:id.
func (h *ChannelHandler) GetChannel(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	details, err := h.service.GetDetails(c.Request().Context(), channelID, auth.GetUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, details)
}

type inviteRequest struct {
	UserID int64 `json:"user_id,string"`
}

// Invite handles POST /api/v1/channels/:id/invite.
func (h *ChannelHandler) Invite(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	var req inviteRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := h.service.Invite(c.Request().Context(), channelID, auth.GetUserID(c), req.UserID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Join handles POST /api/v1/channels/:id/join.
func (h *ChannelHandler) Join(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	if err := h.service.Join(c.Request().Context(), channelID, auth.GetUserID(c)); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Leave handles POST /api/v1/channels/:id/leave.
func (h *ChannelHandler) Leave(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	if err := h.service.Leave(c.Request().Context(), channelID, auth.GetUserID(c)); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// AddOwner handles PUT /api/v1/channels/:id/owners/:user_id.
func (h *ChannelHandler) AddOwner(c echo.Context) error {
	channelID, targetID, ok := channelAndUser(c)
	if !ok {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel or user ID")
	}

	if err := h.service.AddOwner(c.Request().Context(), channelID, auth.GetUserID(c), targetID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// RemoveOwner handles DELETE /api/v1/channels/:id/owners/:user_id.
func (h *ChannelHandler) RemoveOwner(c echo.Context) error {
	channelID, targetID, ok := channelAndUser(c)
	if !ok {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel or user ID")
	}

	if err := h.service.RemoveOwner(c.Request().Context(), channelID, auth.GetUserID(c), targetID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func channelAndUser(c echo.Context) (channelID, userID int64, ok bool) {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	userID, err = strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return channelID, userID, true
}
