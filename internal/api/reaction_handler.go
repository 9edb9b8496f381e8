package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/service"
)

// ReactionHandler handles reaction endpoints.
type ReactionHandler struct {
	service *service.ReactionService
}

// NewReactionHandler creates a ReactionHandler.
func NewReactionHandler(svc *service.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: svc}
}

// AddReaction handles PUT /api/v1/messages/:id/reactions/:react_id.
func (h *ReactionHandler) AddReaction(c echo.Context) error {
	messageID, reactID, ok := messageAndReact(c)
	if !ok {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid message or react ID")
	}

	if err := h.service.AddReaction(c.Request().Context(), messageID, auth.GetUserID(c), reactID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// RemoveReaction handles DELETE /api/v1/messages/:id/reactions/:react_id.
func (h *ReactionHandler) RemoveReaction(c echo.Context) error {
	messageID, reactID, ok := messageAndReact(c)
	if !ok {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid message or react ID")
	}

	if err := h.service.RemoveReaction(c.Request().Context(), messageID, auth.GetUserID(c), reactID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func messageAndReact(c echo.Context) (int64, int, bool) {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	reactID, err := strconv.Atoi(c.Param("react_id"))
	if err != nil {
		return 0, 0, false
	}
	return messageID, reactID, true
}
