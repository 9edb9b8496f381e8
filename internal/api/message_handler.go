package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/service"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service *service.MessageService
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage handles POST /api/v1/channels/:id/messages.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	userID := auth.GetUserID(c)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	msg, err := h.service.SendMessage(c.Request().Context(), channelID, userID, req.Content)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, msg)
}

type sendLaterRequest struct {
	Content  string `json:"content"`
	TimeSent int64  `json:"time_sent"`
}

type sendLaterResponse struct {
	MessageID int64 `json:"message_id,string"`
}

// SendLater handles POST /api/v1/channels/:id/messages/later.
// time_sent is a Unix timestamp in seconds.
func (h *MessageHandler) SendLater(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	userID := auth.GetUserID(c)

	var req sendLaterRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	id, err := h.service.SendLater(c.Request().Context(), channelID, userID, req.Content, time.Unix(req.TimeSent, 0))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusAccepted, sendLaterResponse{MessageID: id})
}

// GetMessages handles GET /api/v1/channels/:id/messages?start=N.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid channel ID")
	}

	userID := auth.GetUserID(c)

	start := 0
	if s := c.QueryParam("start"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			return Error(c, http.StatusBadRequest, "INVALID_START", "start must be a non-negative integer")
		}
		start = parsed
	}

	window, err := h.service.GetWindow(c.Request().Context(), channelID, userID, start)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, window)
}

type editMessageRequest struct {
	Content string `json:"content"`
}

// EditMessage handles PATCH /api/v1/messages/:id. Empty content removes the message.
func (h *MessageHandler) EditMessage(c echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid message ID")
	}

	userID := auth.GetUserID(c)

	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	msg, err := h.service.EditMessage(c.Request().Context(), messageID, userID, req.Content)
	if err != nil {
		return mapServiceError(c, err)
	}
	if msg == nil {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, msg)
}

// DeleteMessage handles DELETE /api/v1/messages/:id.
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid message ID")
	}

	if err := h.service.DeleteMessage(c.Request().Context(), messageID, auth.GetUserID(c)); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// PinMessage handles PUT /api/v1/messages/:id/pin.
func (h *MessageHandler) PinMessage(c echo.Context) error {
	return h.setPinned(c, true)
}

// UnpinMessage handles DELETE /api/v1/messages/:id/pin.
func (h *MessageHandler) UnpinMessage(c echo.Context) error {
	return h.setPinned(c, false)
}

func (h *MessageHandler) setPinned(c echo.Context, pinned bool) error {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid message ID")
	}

	if err := h.service.SetPinned(c.Request().Context(), messageID, auth.GetUserID(c), pinned); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
