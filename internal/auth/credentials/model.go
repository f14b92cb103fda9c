package credentials

import (
	"fmt"
	"strings"

	"finx-auth/internal/auth"
)

// Credentials are used once per login call and never persisted.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims surrounding whitespace from the email.
func (c Credentials) Normalize() Credentials {
	c.Email = strings.TrimSpace(c.Email)
	return c
}

// Validate rejects empty fields before any network call is made.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return fmt.Errorf("%w: email and password are required", auth.ErrInvalidInput)
	}
	return nil
}

// String hides the password from logs.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Email: %q}", c.Email)
}
