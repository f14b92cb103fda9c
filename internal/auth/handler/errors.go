package handler

import (
	"errors"
	"net/http"

	"finx-auth/internal/auth"

	"github.com/gin-gonic/gin"
)

// statusFor maps a session error onto the gateway's response status.
func statusFor(err error) int {
	var apiErr *auth.APIError
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrServerUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	default:
		return http.StatusBadGateway
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": auth.Message(err)})
}
