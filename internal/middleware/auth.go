package middleware

import (
	"context"
	"net/http"

	"finx-auth/internal/authstate"
)

// unexported, collision-proof context key
type userIDContextKeyType struct{}

var userIDKey = userIDContextKeyType{}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// Authenticator reports whether the process holds a usable session.
type Authenticator interface {
	AccessToken(ctx context.Context) (string, error)
	Snapshot() authstate.State
}

type AuthMiddleware struct {
	Auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{Auth: auth}
}

// RequireAuth rejects requests unless a valid access token is available,
// refreshing it when it is close to expiry.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := a.Auth.AccessToken(r.Context())
		if err != nil || token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		if user := a.Auth.Snapshot().User; user != nil {
			ctx = context.WithValue(ctx, userIDKey, user.ID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
