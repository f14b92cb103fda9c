package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinUserIDKey is the gin context key holding the signed-in user's id.
const GinUserIDKey = "userID"

// GinRequireAuth runs RequireAuth inside a gin chain. Rejected requests are
// aborted with the response RequireAuth already wrote.
func GinRequireAuth(auth *AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		admitted := false
		auth.RequireAuth(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			admitted = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)

		if !admitted {
			c.Abort()
			return
		}

		if id, ok := UserIDFromContext(c.Request.Context()); ok {
			c.Set(GinUserIDKey, id)
		}
		c.Next()
	}
}
