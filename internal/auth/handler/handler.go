package handler

import (
	"context"
	"net/http"

	"finx-auth/internal/auth"
	"finx-auth/internal/auth/credentials"
	"finx-auth/internal/auth/provider"
	"finx-auth/internal/authstate"
	"finx-auth/internal/logger"

	"github.com/gin-gonic/gin"
)

// AuthState is the process-wide auth context the handlers drive.
type AuthState interface {
	Login(ctx context.Context, creds credentials.Credentials) (*auth.User, error)
	LoginWithIdentity(ctx context.Context, identity *auth.Identity) (*auth.User, error)
	Logout(ctx context.Context)
	Refresh(ctx context.Context) (string, error)
	Snapshot() authstate.State
}

// Sessions exposes the authenticated calls against the identity endpoint.
type Sessions interface {
	CurrentUser(ctx context.Context) (*auth.UserProfile, error)
	AuthenticatedRequest(ctx context.Context, req *http.Request) (*http.Response, error)
}

type Handler struct {
	providers *provider.Registry
	state     AuthState
	sessions  Sessions
	upstream  string
}

// NewHandler builds the gateway handlers. upstream is the identity
// endpoint root that /api/proxy forwards to.
func NewHandler(
	registry *provider.Registry,
	state AuthState,
	sessions Sessions,
	upstream string,
) *Handler {
	return &Handler{
		providers: registry,
		state:     state,
		sessions:  sessions,
		upstream:  upstream,
	}
}

// RegisterRoutes mounts the public auth routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/auth/session", h.Session)

	r.GET("/oauth/login/:provider", h.oauthLogin)
	r.GET("/oauth/callback/:provider", h.oauthCallback)

	for _, route := range r.Routes() {
		logger.Debug("route registered", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}
}

// RegisterAPI mounts the routes that require a signed-in session.
func (h *Handler) RegisterAPI(api *gin.RouterGroup) {
	api.GET("/me", h.Me)
	api.Any("/proxy/*path", h.Proxy)
}

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}
	clearState(c)

	// The user cancelled or the provider refused consent.
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		clearPKCE(c)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "sign-in was not completed",
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oauth callback missing code and error", map[string]any{
			"provider": providerName,
		})
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}
	clearPKCE(c)

	identity, err := p.ExchangeCode(
		c.Request.Context(),
		code,
		codeVerifier,
	)
	if err != nil {
		logger.Warn("oauth code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	user, err := h.state.LoginWithIdentity(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("login succeeded", map[string]any{
		"provider": providerName,
		"user_id":  user.ID,
		"ip":       c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// Logout always succeeds.
func (h *Handler) Logout(c *gin.Context) {
	h.state.Logout(c.Request.Context())

	logger.Info("logout", map[string]any{
		"ip": c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}
