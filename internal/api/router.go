package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/redis"
)

// Dependencies holds all handler instances and middleware for route wiring.
type Dependencies struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Admin     *AdminHandler
	Channels  *ChannelHandler
	Messages  *MessageHandler
	Reactions *ReactionHandler
	Standups  *StandupHandler
	Search    *SearchHandler
	Typing    *gateway.TypingHandler
	Gateway   *gateway.Manager

	Authenticator *auth.Authenticator
	Redis         *redis.Client
}

// SetupRouter registers all API routes on the Echo instance.
func SetupRouter(e *echo.Echo, deps *Dependencies) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		if err := deps.Redis.Ping(c.Request().Context()); err != nil {
			return Error(c, http.StatusServiceUnavailable, "REDIS_UNAVAILABLE", "redis is unreachable")
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// WebSocket gateway
	e.GET("/gateway", deps.Gateway.HandleWebSocket)

	v1 := e.Group("/api/v1")

	// Auth routes, no session required, stricter rate limit
	authGroup := v1.Group("/auth",
		RateLimitMiddleware(deps.Redis, "auth", 5, time.Minute),
	)
	authGroup.POST("/register", deps.Auth.Register)
	authGroup.POST("/login", deps.Auth.Login)
	authGroup.POST("/password-reset/request", deps.Auth.RequestPasswordReset)
	authGroup.POST("/password-reset/reset", deps.Auth.ResetPassword)

	// Protected routes require a live session + general rate limit
	protected := v1.Group("", deps.Authenticator.Middleware(),
		RateLimitMiddleware(deps.Redis, "api", 50, time.Minute),
	)

	protected.POST("/auth/logout", deps.Auth.Logout)

	// Users
	protected.GET("/users", deps.Users.ListUsers)
	protected.GET("/users/@me", deps.Users.GetMe)
	protected.GET("/users/:id", deps.Users.GetUser)
	protected.PATCH("/users/@me/name", deps.Users.SetName)
	protected.PATCH("/users/@me/email", deps.Users.SetEmail)
	protected.PATCH("/users/@me/handle", deps.Users.SetHandle)
	protected.POST("/users/@me/photo", deps.Users.UploadPhoto)
	protected.GET("/users/@me/channels", deps.Users.ListMyChannels)

	// Admin
	protected.POST("/admin/users/:id/permission", deps.Admin.ChangePermission)

	// Search
	protected.GET("/search", deps.Search.SearchMessages)

	// Channels
	protected.POST("/channels", deps.Channels.CreateChannel)
	protected.GET("/channels", deps.Channels.ListChannels)
	protected.GET("/channels/:id", deps.Channels.GetChannel)
	protected.POST("/channels/:id/invite", deps.Channels.Invite)
	protected.POST("/channels/:id/join", deps.Channels.Join)
	protected.POST("/channels/:id/leave", deps.Channels.Leave)
	protected.PUT("/channels/:id/owners/:user_id", deps.Channels.AddOwner)
	protected.DELETE("/channels/:id/owners/:user_id", deps.Channels.RemoveOwner)

	// Messages
	protected.GET("/channels/:id/messages", deps.Messages.GetMessages)
	protected.POST("/channels/:id/messages", deps.Messages.SendMessage)
	protected.POST("/channels/:id/messages/later", deps.Messages.SendLater)
	protected.PATCH("/messages/:id", deps.Messages.EditMessage)
	protected.DELETE("/messages/:id", deps.Messages.DeleteMessage)
	protected.PUT("/messages/:id/pin", deps.Messages.PinMessage)
	protected.DELETE("/messages/:id/pin", deps.Messages.UnpinMessage)

	// Reactions
	protected.PUT("/messages/:id/reactions/:react_id", deps.Reactions.AddReaction)
	protected.DELETE("/messages/:id/reactions/:react_id", deps.Reactions.RemoveReaction)

	// Standups
	protected.POST("/channels/:id/standup", deps.Standups.StartStandup)
	protected.GET("/channels/:id/standup", deps.Standups.GetStandup)
	protected.POST("/channels/:id/standup/messages", deps.Standups.SendStandupMessage)

	// Typing
	protected.POST("/channels/:id/typing", deps.Typing.Handle)
}
