package auth

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// UserProfile is the identity endpoint's view of the signed-in account.
// Optional fields are empty when the server omits them or sends null.
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Role      string `json:"role,omitempty"`
}

// FullName joins first and last name, or returns "".
func (p UserProfile) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

type profileSchema struct {
	ID        *string `json:"id"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Avatar    *string `json:"avatar"`
	Role      *string `json:"role"`
}

// DecodeProfile decodes and validates a profile document. id and email are
// required; any type mismatch or missing required field is reported as
// ErrMalformedResponse.
func DecodeProfile(data []byte) (UserProfile, error) {
	var s profileSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return UserProfile{}, fmt.Errorf("%w: profile: %v", ErrMalformedResponse, err)
	}
	if s.ID == nil || strings.TrimSpace(*s.ID) == "" {
		return UserProfile{}, fmt.Errorf("%w: profile: missing id", ErrMalformedResponse)
	}
	if s.Email == nil || strings.TrimSpace(*s.Email) == "" {
		return UserProfile{}, fmt.Errorf("%w: profile: missing email", ErrMalformedResponse)
	}

	return UserProfile{
		ID:        *s.ID,
		Email:     *s.Email,
		FirstName: deref(s.FirstName),
		LastName:  deref(s.LastName),
		Avatar:    deref(s.Avatar),
		Role:      deref(s.Role),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// User is what the view layer shows for the signed-in person.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Photo    string `json:"photo,omitempty"`
	Provider string `json:"provider"`
}
