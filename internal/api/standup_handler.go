package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/service"
)

// StandupHandler handles standup endpoints.
type StandupHandler struct {
	service *service.StandupService
}

// NewStandupHandler creates a StandupHandler.
func NewStandupHandler(svc *service.StandupService) *StandupHandler {
	return &StandupHandler{service: svc}
}

type startStandupRequest struct {
	Length int64 `json:"length"` // seconds
}

type startStandupResponse struct {
	TimeFinish time.Time `json:"time_finish"`
}

// StartStandup handles POST /api/v1/channels/:id/standup.
func (h *StandupHandler) StartStandup(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	var req startStandupRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	finish, err := h.service.Start(c.Request().Context(), channelID, auth.GetUserID(c), standupLength(req.Length))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, startStandupResponse{TimeFinish: finish})
}

// standupLength converts a length in seconds. Out-of-range lengths come back
// as 0, which the service rejects, rather than overflowing.
func standupLength(seconds int64) time.Duration {
	if seconds <= 0 || seconds > int64(service.MaxStandupLength/time.Second) {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// GetStandup handles GET /api/v1/channels/:id/standup.
func (h *StandupHandler) GetStandup(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	status, err := h.service.Status(c.Request().Context(), channelID, auth.GetUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, status)
}

type standupMessageRequest struct {
	Message string `json:"message"`
}

// SendStandupMessage handles POST /api/v1/channels/:id/standup/messages.
func (h *StandupHandler) SendStandupMessage(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	var req standupMessageRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := h.service.Send(c.Request().Context(), channelID, auth.GetUserID(c), req.Message); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
