package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/service"
)

// SearchHandler handles message search endpoints.
type SearchHandler struct {
	service *service.SearchService
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

type searchResponse struct {
	Messages []models.Message `json:"messages"`
}

// SearchMessages handles GET /api/v1/search?query=.
func (h *SearchHandler) SearchMessages(c echo.Context) error {
	messages, err := h.service.SearchMessages(c.Request().Context(), auth.GetUserID(c), c.QueryParam("query"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, searchResponse{Messages: messages})
}
