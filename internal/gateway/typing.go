package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/redis"
	"github.com/Ry1and/flockr/internal/snowflake"
)

// TypingHandler handles POST /api/v1/channels/:id/typing.
type TypingHandler struct {
	channels database.ChannelRepository
	members  database.MemberRepository
	redis    *redis.Client
	manager  Dispatcher
}

// NewTypingHandler creates a TypingHandler.
func NewTypingHandler(channels database.ChannelRepository, members database.MemberRepository, redisClient *redis.Client, manager Dispatcher) *TypingHandler {
	return &TypingHandler{
		channels: channels,
		members:  members,
		redis:    redisClient,
		manager:  manager,
	}
}

// Handle processes a typing indicator request. Repeats within the typing TTL
// are accepted but not re-broadcast.
func (h *TypingHandler) Handle(c echo.Context) error {
	id, err := snowflake.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid channel id")
	}

	channelID := id.Int64()
	userID := auth.GetUserID(c)
	ctx := c.Request().Context()

	channel, err := h.channels.GetByID(ctx, channelID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if channel == nil {
		return echo.NewHTTPError(http.StatusNotFound, "channel not found")
	}

	member, err := h.members.Get(ctx, channelID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if member == nil {
		return echo.NewHTTPError(http.StatusForbidden, "you are not a member of this channel")
	}

	fresh, err := h.redis.SetTyping(ctx, channelID, userID)
	if err != nil {
		slog.Error("failed to set typing", "channelID", channelID, "userID", userID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	if fresh {
		h.manager.DispatchToChannelExcept(channelID, userID, EventTypingStart, TypingStartData{
			ChannelID: channelID,
			UserID:    userID,
			Timestamp: time.Now().Unix(),
		})
	}

	return c.NoContent(http.StatusNoContent)
}
