package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/service"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.BadRequest("INVALID_NAME", "bad"), http.StatusBadRequest, "INVALID_NAME"},
		{service.Unauthorized("INVALID_SESSION", "gone"), http.StatusUnauthorized, "INVALID_SESSION"},
		{service.Forbidden("NOT_A_MEMBER", "no"), http.StatusForbidden, "NOT_A_MEMBER"},
		{service.NotFound("UNKNOWN_CHANNEL", "?"), http.StatusNotFound, "UNKNOWN_CHANNEL"},
		{service.Conflict("EMAIL_TAKEN", "taken"), http.StatusConflict, "EMAIL_TAKEN"},
		{service.Unavailable("STORAGE_DISABLED", "off"), http.StatusServiceUnavailable, "STORAGE_DISABLED"},
		{service.Internal("INTERNAL", "boom"), http.StatusInternalServerError, "INTERNAL"},
		{errors.New("raw database error"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c, rec := newTestContext(http.MethodGet, "/", nil)
			if err := mapServiceError(c, tt.err); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			expectError(t, rec, tt.status, tt.code)
		})
	}
}

func TestMapServiceError_HidesRawErrors(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/", nil)
	_ = mapServiceError(c, errors.New("pq: password authentication failed"))

	if detail := decodeError(t, rec.Body.Bytes()); detail.Message != "internal server error" {
		t.Errorf("leaked message %q", detail.Message)
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/", nil)
	HTTPErrorHandler(echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token"), c)
	expectError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")

	c, rec = newTestContext(http.MethodGet, "/", nil)
	HTTPErrorHandler(echo.ErrNotFound, c)
	expectError(t, rec, http.StatusNotFound, "NOT_FOUND")

	c, rec = newTestContext(http.MethodGet, "/", nil)
	HTTPErrorHandler(errors.New("boom"), c)
	expectError(t, rec, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR")
}
