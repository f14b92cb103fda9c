package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"finx-auth/internal/auth"
	"finx-auth/internal/logger"

	"github.com/gin-gonic/gin"
)

// Forwarded in both directions by the proxy.
var proxiedHeaders = []string{"Accept", "Content-Type", "Cache-Control", "ETag", "Last-Modified"}

func (h *Handler) Me(c *gin.Context) {
	profile, err := h.sessions.CurrentUser(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    h.state.Snapshot().User,
		"profile": profile,
	})
}

// Proxy forwards the request to the identity endpoint with a valid bearer
// token, refreshing it first when needed.
func (h *Handler) Proxy(c *gin.Context) {
	target := h.upstream + "/" + strings.TrimPrefix(c.Param("path"), "/")
	if c.Request.URL.RawQuery != "" {
		target += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	req.ContentLength = c.Request.ContentLength
	copyHeaders(req.Header, c.Request.Header)
	if id := c.GetString("request_id"); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := h.sessions.AuthenticatedRequest(c.Request.Context(), req)
	if err != nil {
		if !errors.Is(err, auth.ErrNotAuthenticated) {
			logger.Warn("proxy request failed", map[string]any{
				"method": req.Method,
				"path":   req.URL.Path,
				"error":  err.Error(),
			})
		}
		respondError(c, err)
		return
	}
	defer resp.Body.Close()

	copyHeaders(c.Writer.Header(), resp.Header)
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logger.Warn("proxy response copy failed", map[string]any{
			"path":  req.URL.Path,
			"error": err.Error(),
		})
	}
}

func copyHeaders(dst, src http.Header) {
	for _, name := range proxiedHeaders {
		if v := src.Get(name); v != "" {
			dst.Set(name, v)
		}
	}
}
