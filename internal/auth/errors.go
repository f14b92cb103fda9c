package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNetwork            = errors.New("network error")
	ErrServerUnavailable  = errors.New("server unavailable")
	ErrTokenExpired       = errors.New("token expired")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidInput       = errors.New("invalid input")
	ErrProfileFetch       = errors.New("failed to fetch user profile")
)

// APIError is a non-2xx response that maps to no sentinel.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity api: status %d", e.Status)
	}
	return fmt.Sprintf("identity api: status %d: %s", e.Status, e.Message)
}

// Message returns the single human-readable text shown to the end user.
func Message(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "Email and password are required"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrNotAuthenticated):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrServerUnavailable):
		return "Server error. Please try again later."
	case errors.Is(err, ErrNetwork):
		return "Network error. Please check your internet connection."
	case errors.Is(err, ErrProfileFetch):
		return "Failed to fetch user profile"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return "Login failed"
	}
}
