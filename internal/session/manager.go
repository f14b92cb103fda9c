package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finx-auth/internal/auth"
	"finx-auth/internal/auth/credentials"
	"finx-auth/internal/auth/tokenstore"
	"finx-auth/internal/logger"

	"golang.org/x/sync/singleflight"
)

const DefaultSkew = 5 * time.Minute

// IdentityClient is the remote identity endpoint.
type IdentityClient interface {
	Login(ctx context.Context, creds credentials.Credentials) (auth.TokenResponse, error)
	LoginWithProvider(ctx context.Context, provider, accessToken, email string) (auth.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, accessToken string) (auth.UserProfile, error)
	Do(req *http.Request, accessToken string) (*http.Response, error)
}

type Options struct {
	// Skew is subtracted from the token expiry to refresh ahead of time.
	Skew time.Duration
	// ExpiresUnit is the unit of the server's "expires" lifetime.
	ExpiresUnit time.Duration
	Metrics     *Metrics
	Now         func() time.Time
}

// Manager owns the session token lifecycle: login, refresh and logout.
type Manager struct {
	client  IdentityClient
	tokens  *tokenstore.Store
	skew    time.Duration
	unit    time.Duration
	metrics *Metrics
	now     func() time.Time

	// mu serialises writes to the token store. generation changes on every
	// login and logout so a refresh that raced with either is discarded.
	mu         sync.Mutex
	generation uint64

	refreshes  singleflight.Group
	refreshing atomic.Bool
}

func NewManager(client IdentityClient, tokens *tokenstore.Store, opts Options) *Manager {
	if opts.Skew == 0 {
		opts.Skew = DefaultSkew
	}
	if opts.ExpiresUnit == 0 {
		opts.ExpiresUnit = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		client:  client,
		tokens:  tokens,
		skew:    opts.Skew,
		unit:    opts.ExpiresUnit,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
}

// Login authenticates with email and password. The session is stored only
// once the profile has been fetched; on any failure nothing is persisted.
func (m *Manager) Login(ctx context.Context, creds credentials.Credentials) (*auth.UserProfile, error) {
	creds = creds.Normalize()
	if err := creds.Validate(); err != nil {
		m.metrics.login(auth.ProviderEmail, outcome(err))
		return nil, err
	}

	resp, err := m.client.Login(ctx, creds)
	if err != nil {
		m.metrics.login(auth.ProviderEmail, outcome(err))
		logger.Warn("login rejected", map[string]any{
			"method": auth.ProviderEmail,
			"result": outcome(err),
		})
		return nil, fmt.Errorf("session: login: %w", err)
	}

	return m.establish(ctx, resp, auth.ProviderEmail)
}

// LoginWithProvider exchanges a verified provider identity for a session.
func (m *Manager) LoginWithProvider(ctx context.Context, identity *auth.Identity) (*auth.UserProfile, error) {
	if identity == nil || identity.Provider == "" || identity.AccessToken == "" {
		err := fmt.Errorf("%w: provider identity without access token", auth.ErrInvalidInput)
		m.metrics.login("provider", outcome(err))
		return nil, err
	}

	resp, err := m.client.LoginWithProvider(ctx, identity.Provider, identity.AccessToken, identity.Email)
	if err != nil {
		m.metrics.login(identity.Provider, outcome(err))
		logger.Warn("login rejected", map[string]any{
			"method": identity.Provider,
			"result": outcome(err),
		})
		return nil, fmt.Errorf("session: %s login: %w", identity.Provider, err)
	}

	return m.establish(ctx, resp, identity.Provider)
}

func (m *Manager) establish(ctx context.Context, resp auth.TokenResponse, method string) (*auth.UserProfile, error) {
	tokens := resp.TokenSet(m.now(), m.unit)

	profile, err := m.client.Me(ctx, tokens.AccessToken)
	if err != nil {
		err = fmt.Errorf("session: %s login: %w: %w", method, auth.ErrProfileFetch, err)
		m.metrics.login(method, outcome(err))
		logger.Warn("profile fetch after login failed", map[string]any{
			"method": method,
			"error":  err.Error(),
		})
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.tokens.SetAll(ctx, tokens, profile); err != nil {
		m.metrics.login(method, "storage_error")
		return nil, fmt.Errorf("session: persist: %w", err)
	}
	m.generation++

	m.metrics.login(method, "success")
	logger.Info("login succeeded", map[string]any{
		"method":      method,
		"user_id":     profile.ID,
		"expires_at":  tokens.ExpiresAt.UTC().Format(time.RFC3339),
		"has_refresh": tokens.RefreshToken != "",
	})
	return &profile, nil
}

// ValidAccessToken returns a usable access token, refreshing once when the
// stored token is within the skew window. It returns "" when signed out or
// when the refresh failed.
func (m *Manager) ValidAccessToken(ctx context.Context) (string, error) {
	tokens, err := m.tokens.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("session: %w", err)
	}
	if tokens == nil {
		return "", nil
	}
	if tokens.ValidAt(m.now(), m.skew) {
		return tokens.AccessToken, nil
	}

	token, err := m.Refresh(ctx)
	if err != nil {
		logger.Info("access token unavailable after refresh", map[string]any{
			"error": err.Error(),
		})
		return "", nil
	}
	return token, nil
}

// Refresh exchanges the stored refresh token for a new TokenSet. Concurrent
// callers share one request. Any failure clears the stored session; it is
// never retried.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	// One caller giving up must not abort the exchange for the others.
	shared := context.WithoutCancel(ctx)

	v, err, _ := m.refreshes.Do("refresh", func() (any, error) {
		return m.refresh(shared)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.refreshing.Store(true)
	defer m.refreshing.Store(false)

	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	current, err := m.tokens.Get(ctx)
	if err != nil {
		m.metrics.refresh("storage_error")
		m.clearIfCurrent(ctx, gen)
		return "", fmt.Errorf("session: refresh: %w", err)
	}
	if current == nil {
		m.metrics.refresh("no_session")
		return "", fmt.Errorf("session: refresh: %w", auth.ErrNotAuthenticated)
	}

	resp, err := m.client.Refresh(ctx, current.RefreshToken)
	if err != nil {
		m.metrics.refresh(outcome(err))
		logger.Warn("token refresh failed, clearing session", map[string]any{
			"result": outcome(err),
		})
		if !m.clearIfCurrent(ctx, gen) {
			if token := m.newerSession(ctx); token != "" {
				return token, nil
			}
		}
		return "", fmt.Errorf("session: refresh: %w", err)
	}
	tokens := resp.TokenSet(m.now(), m.unit)

	profile, profileErr := m.client.Me(ctx, tokens.AccessToken)
	if profileErr != nil {
		logger.Warn("profile re-fetch after refresh failed, keeping cached profile", map[string]any{
			"error": profileErr.Error(),
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		m.metrics.refresh("superseded")
		if token := m.newerSessionLocked(ctx); token != "" {
			return token, nil
		}
		return "", fmt.Errorf("session: refresh: %w: session changed during refresh", auth.ErrNotAuthenticated)
	}

	if profileErr == nil {
		err = m.tokens.SetAll(ctx, tokens, profile)
	} else {
		err = m.tokens.Set(ctx, tokens)
	}
	if err != nil {
		m.metrics.refresh("storage_error")
		if clearErr := m.tokens.Clear(ctx); clearErr != nil {
			logger.Error("failed to clear session", map[string]any{
				"error": clearErr.Error(),
			})
		}
		m.generation++
		return "", fmt.Errorf("session: refresh: %w", err)
	}

	m.metrics.refresh("success")
	logger.Debug("token refreshed", map[string]any{
		"expires_at": tokens.ExpiresAt.UTC().Format(time.RFC3339),
	})
	return tokens.AccessToken, nil
}

// clearIfCurrent clears the session unless a login or logout replaced it
// after gen. It reports whether it cleared.
func (m *Manager) clearIfCurrent(ctx context.Context, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		return false
	}
	if err := m.tokens.Clear(ctx); err != nil {
		logger.Error("failed to clear session", map[string]any{
			"error": err.Error(),
		})
	}
	m.generation++
	return true
}

func (m *Manager) newerSession(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newerSessionLocked(ctx)
}

// newerSessionLocked returns the access token of the session that replaced
// an in-flight refresh, or "" when it was replaced by a logout. m.mu is held.
func (m *Manager) newerSessionLocked(ctx context.Context) string {
	tokens, err := m.tokens.Get(ctx)
	if err != nil || tokens == nil || !tokens.ValidAt(m.now(), m.skew) {
		return ""
	}
	return tokens.AccessToken
}

// Logout invalidates the refresh token on the server (best-effort) and
// always clears the local session.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.tokens.Get(ctx)
	if err != nil {
		logger.Warn("logout could not read stored tokens", map[string]any{
			"error": err.Error(),
		})
	}

	if tokens != nil {
		if err := m.client.Logout(ctx, tokens.RefreshToken); err != nil {
			m.metrics.logout("failed")
			logger.Warn("server logout failed, continuing with local logout", map[string]any{
				"error": err.Error(),
			})
		} else {
			m.metrics.logout("ok")
		}
	} else {
		m.metrics.logout("skipped")
	}

	if err := m.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		logger.Error("failed to clear local session", map[string]any{
			"error": err.Error(),
		})
	}
	m.generation++

	logger.Info("logout completed", nil)
}

// IsAuthenticated reports whether a valid access token is available.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token, err := m.ValidAccessToken(ctx)
	if err != nil {
		logger.Warn("authentication check failed", map[string]any{
			"error": err.Error(),
		})
		return false
	}
	return token != ""
}

// StoredUser returns the cached profile or nil.
func (m *Manager) StoredUser(ctx context.Context) (*auth.UserProfile, error) {
	return m.tokens.Profile(ctx)
}

// CurrentUser returns the cached profile, fetching and caching it when the
// session has none.
func (m *Manager) CurrentUser(ctx context.Context) (*auth.UserProfile, error) {
	token, err := m.ValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, auth.ErrNotAuthenticated
	}

	if cached, err := m.tokens.Profile(ctx); err == nil && cached != nil {
		return cached, nil
	}

	profile, err := m.client.Me(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("session: %w: %w", auth.ErrProfileFetch, err)
	}
	if err := m.tokens.SetProfile(ctx, profile); err != nil {
		logger.Warn("failed to cache profile", map[string]any{
			"error": err.Error(),
		})
	}
	return &profile, nil
}

// AuthenticatedRequest sends req with a valid bearer token.
func (m *Manager) AuthenticatedRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	token, err := m.ValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, auth.ErrNotAuthenticated
	}

	resp, err := m.client.Do(req.WithContext(ctx), token)
	if err != nil {
		return nil, fmt.Errorf("session: request: %w", err)
	}
	return resp, nil
}

// Status reports the current state of the session.
func (m *Manager) Status(ctx context.Context) Status {
	if m.refreshing.Load() {
		return Refreshing
	}
	tokens, err := m.tokens.Get(ctx)
	if err != nil || tokens == nil {
		return SignedOut
	}
	return SignedIn
}

// TokenExpiry returns the stored token's expiry, or the zero time.
func (m *Manager) TokenExpiry(ctx context.Context) time.Time {
	tokens, err := m.tokens.Get(ctx)
	if err != nil || tokens == nil {
		return time.Time{}
	}
	return tokens.ExpiresAt
}
