package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// The OAuth round trip keeps its anti-forgery state and the PKCE verifier in
// short-lived cookies scoped to this gateway.
const (
	stateCookieName = "__oauth_state"
	pkceCookieName  = "__oauth_pkce"
	flowCookieTTL   = 5 * time.Minute
)

func generateState(c *gin.Context) string {
	state := uuid.NewString()
	setFlowCookie(c, stateCookieName, state, flowCookieTTL)
	return state
}

// validateState compares the callback's state parameter with the cookie.
func validateState(c *gin.Context) bool {
	query := c.Query("state")
	if query == "" {
		return false
	}
	cookie := flowCookie(c, stateCookieName)
	return cookie != "" && subtle.ConstantTimeCompare([]byte(cookie), []byte(query)) == 1
}

func generatePKCE(c *gin.Context) (verifier string, challenge string) {
	verifier = oauth2.GenerateVerifier()
	setFlowCookie(c, pkceCookieName, verifier, flowCookieTTL)
	return verifier, oauth2.S256ChallengeFromVerifier(verifier)
}

func getPKCEVerifier(c *gin.Context) string {
	return flowCookie(c, pkceCookieName)
}

func clearState(c *gin.Context) { setFlowCookie(c, stateCookieName, "", -1) }

func clearPKCE(c *gin.Context) { setFlowCookie(c, pkceCookieName, "", -1) }

// setFlowCookie writes an HttpOnly cookie; a negative ttl deletes it.
func setFlowCookie(c *gin.Context, name, value string, ttl time.Duration) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl.Seconds())
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func flowCookie(c *gin.Context, name string) string {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
