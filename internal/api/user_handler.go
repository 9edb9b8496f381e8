package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/imaging"
	"github.com/Ry1and/flockr/internal/service"
)

// UserHandler handles user profile endpoints.
type UserHandler struct {
	users    *service.UserService
	photos   *service.PhotoService
	channels *service.ChannelService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, photos *service.PhotoService, channels *service.ChannelService) *UserHandler {
	return &UserHandler{users: users, photos: photos, channels: channels}
}

// ListUsers handles GET /api/v1/users.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetMe handles GET /api/v1/users/@me.
func (h *UserHandler) GetMe(c echo.Context) error {
	user, err := h.users.GetByID(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser handles GET /api/v1/users/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_ID", "invalid user ID")
	}

	user, err := h.users.GetByID(c.Request().Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

type setNameRequest struct {
	NameFirst string `json:"name_first"`
	NameLast  string `json:"name_last"`
}

// SetName handles PATCH /api/v1/users/@me/name.
func (h *UserHandler) SetName(c echo.Context) error {
	var req setNameRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	user, err := h.users.SetName(c.Request().Context(), auth.GetUserID(c), req.NameFirst, req.NameLast)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

type setEmailRequest struct {
	Email string `json:"email"`
}

// SetEmail handles PATCH /api/v1/users/@me/email.
func (h *UserHandler) SetEmail(c echo.Context) error {
	var req setEmailRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	user, err := h.users.SetEmail(c.Request().Context(), auth.GetUserID(c), req.Email)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

type setHandleRequest struct {
	Handle string `json:"handle"`
}

// SetHandle handles PATCH /api/v1/users/@me/handle.
func (h *UserHandler) SetHandle(c echo.Context) error {
	var req setHandleRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	user, err := h.users.SetHandle(c.Request().Context(), auth.GetUserID(c), req.Handle)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

type uploadPhotoRequest struct {
	ImgURL string `json:"img_url"`
	XStart int    `json:"x_start"`
	YStart int    `json:"y_start"`
	XEnd   int    `json:"x_end"`
	YEnd   int    `json:"y_end"`
}

// UploadPhoto handles POST /api/v1/users/@me/photo.
func (h *UserHandler) UploadPhoto(c echo.Context) error {
	var req uploadPhotoRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	rect := imaging.Rect{X0: req.XStart, Y0: req.YStart, X1: req.XEnd, Y1: req.YEnd}
	user, err := h.photos.UploadPhoto(c.Request().Context(), auth.GetUserID(c), req.ImgURL, rect)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListMyChannels handles GET /api/v1/users/@me/channels.
func (h *UserHandler) ListMyChannels(c echo.Context) error {
	channels, err := h.channels.ListMine(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, channels)
}
