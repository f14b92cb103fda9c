// Package authstate holds the process-wide authentication state shown to
// clients and keeps it in step with the session manager.
package authstate

import (
	"context"
	"errors"
	"sync"

	"finx-auth/internal/auth"
	"finx-auth/internal/auth/credentials"
	"finx-auth/internal/auth/provider"
	"finx-auth/internal/auth/resolver"
	"finx-auth/internal/auth/tokenstore"
	"finx-auth/internal/logger"
)

// State is a point-in-time view of the session.
type State struct {
	IsAuthenticated bool       `json:"is_authenticated"`
	Loading         bool       `json:"loading"`
	User            *auth.User `json:"user"`
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Sessions is the subset of session.Manager the context drives.
type Sessions interface {
	Login(ctx context.Context, creds credentials.Credentials) (*auth.UserProfile, error)
	LoginWithProvider(ctx context.Context, identity *auth.Identity) (*auth.UserProfile, error)
	Logout(ctx context.Context)
	IsAuthenticated(ctx context.Context) bool
	StoredUser(ctx context.Context) (*auth.UserProfile, error)
	ValidAccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Grants persists which provider established the session.
type Grants interface {
	Grant(ctx context.Context) (*tokenstore.Grant, error)
	SetGrant(ctx context.Context, grant tokenstore.Grant) error
	ClearGrant(ctx context.Context) error
}

type Options struct {
	// Providers supply silent sign-in on start and revocation on logout.
	Providers *provider.Registry
	Resolver  resolver.Resolver
}

type Context struct {
	sessions  Sessions
	grants    Grants
	providers *provider.Registry
	resolver  resolver.Resolver

	mu     sync.Mutex
	state  State
	subs   map[chan State]struct{}
	closed bool

	startOnce sync.Once
	readyOnce sync.Once
	ready     chan struct{}
	cancel    context.CancelFunc
	checkDone chan struct{}
}

func New(sessions Sessions, grants Grants, opts Options) *Context {
	if opts.Providers == nil {
		opts.Providers = provider.NewRegistry()
	}
	if opts.Resolver == nil {
		opts.Resolver = resolver.NewProfileResolver()
	}
	return &Context{
		sessions:  sessions,
		grants:    grants,
		providers: opts.Providers,
		resolver:  opts.Resolver,
		state:     State{Loading: true},
		subs:      make(map[chan State]struct{}),
		ready:     make(chan struct{}),
		cancel:    func() {},
	}
}

// Start runs the startup authentication check in the background. Only the
// first call has any effect. Loading becomes false exactly once, when the
// check finishes.
func (c *Context) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		c.mu.Lock()
		c.cancel = cancel
		c.checkDone = done
		c.mu.Unlock()

		go func() {
			defer close(done)
			defer c.finishLoading()
			c.check(ctx)
		}()
	})
}

// Ready is closed once the startup check has completed.
func (c *Context) Ready() <-chan struct{} {
	return c.ready
}

func (c *Context) check(ctx context.Context) {
	grant, err := c.grants.Grant(ctx)
	if err != nil {
		logger.Warn("auth check could not read provider grant", map[string]any{
			"error": err.Error(),
		})
	}

	if c.sessions.IsAuthenticated(ctx) {
		profile, err := c.sessions.StoredUser(ctx)
		if err != nil {
			logger.Warn("auth check could not read stored user", map[string]any{
				"error": err.Error(),
			})
		}
		if profile != nil {
			c.update(func(s *State) {
				s.IsAuthenticated = true
				s.User = resolver.UserFromProfile(*profile, grantProvider(grant))
			})
			logger.Info("session restored", map[string]any{
				"user_id": profile.ID,
			})
			return
		}
	}

	if grant == nil || grant.RefreshToken == "" {
		return
	}
	silent, ok := c.providers.Silent(grant.Provider)
	if !ok {
		return
	}

	identity, err := silent.SilentSignIn(ctx, grant.RefreshToken)
	if err != nil {
		logger.Info("silent sign-in skipped", map[string]any{
			"provider": grant.Provider,
			"error":    err.Error(),
		})
		return
	}
	if _, err := c.loginWithIdentity(ctx, identity); err != nil {
		logger.Warn("silent sign-in could not establish session", map[string]any{
			"provider": grant.Provider,
			"error":    err.Error(),
		})
	}
}

// stopCheck cancels the startup check and waits for it, so an explicit
// login or logout is never overwritten by a check that started earlier.
func (c *Context) stopCheck() {
	c.mu.Lock()
	cancel, done := c.cancel, c.checkDone
	c.mu.Unlock()

	cancel()
	if done != nil {
		<-done
	}
}

func (c *Context) finishLoading() {
	c.readyOnce.Do(func() {
		c.update(func(s *State) { s.Loading = false })
		close(c.ready)
	})
}

// Login signs in with email and password.
func (c *Context) Login(ctx context.Context, creds credentials.Credentials) (*auth.User, error) {
	c.stopCheck()

	profile, err := c.sessions.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := c.grants.ClearGrant(ctx); err != nil {
		logger.Warn("failed to clear provider grant", map[string]any{
			"error": err.Error(),
		})
	}

	user := resolver.UserFromProfile(*profile, auth.ProviderEmail)
	c.signedIn(user)
	return user, nil
}

// LoginWithIdentity establishes a session from a verified provider identity
// and remembers the provider grant for silent sign-in.
func (c *Context) LoginWithIdentity(ctx context.Context, identity *auth.Identity) (*auth.User, error) {
	c.stopCheck()
	return c.loginWithIdentity(ctx, identity)
}

func (c *Context) loginWithIdentity(ctx context.Context, identity *auth.Identity) (*auth.User, error) {
	if identity == nil {
		return nil, errors.New("authstate: identity is nil")
	}

	if _, err := c.sessions.LoginWithProvider(ctx, identity); err != nil {
		return nil, err
	}

	user, err := c.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	if identity.RefreshToken != "" {
		if err := c.grants.SetGrant(ctx, tokenstore.Grant{
			Provider:     identity.Provider,
			RefreshToken: identity.RefreshToken,
		}); err != nil {
			logger.Warn("failed to store provider grant", map[string]any{
				"provider": identity.Provider,
				"error":    err.Error(),
			})
		}
	}

	c.signedIn(user)
	return user, nil
}

// Logout signs out at the provider (when one established the session) and
// at the identity endpoint. It always leaves the context signed out.
func (c *Context) Logout(ctx context.Context) {
	c.stopCheck()

	grant, err := c.grants.Grant(ctx)
	if err != nil {
		logger.Warn("logout could not read provider grant", map[string]any{
			"error": err.Error(),
		})
	}
	if grant != nil {
		if silent, ok := c.providers.Silent(grant.Provider); ok {
			if err := silent.SignOut(ctx, grant.RefreshToken); err != nil {
				logger.Warn("provider sign-out failed, continuing with local logout", map[string]any{
					"provider": grant.Provider,
					"error":    err.Error(),
				})
			}
		}
	}
	if err := c.grants.ClearGrant(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("failed to clear provider grant", map[string]any{
			"error": err.Error(),
		})
	}

	c.sessions.Logout(ctx)
	c.signedOut()
}

// AccessToken returns a valid access token or "" when signed out. A failed
// refresh flips the context to signed out.
func (c *Context) AccessToken(ctx context.Context) (string, error) {
	token, err := c.sessions.ValidAccessToken(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		c.signedOut()
	}
	return token, nil
}

// Refresh forces a token refresh. On failure the session has been cleared
// and the context is signed out.
func (c *Context) Refresh(ctx context.Context) (string, error) {
	token, err := c.sessions.Refresh(ctx)
	if err != nil {
		c.signedOut()
		return "", err
	}
	return token, nil
}

// Snapshot returns a copy of the current state.
func (c *Context) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe returns a channel that receives the current state and every
// later change. Slow readers only see the latest state. The channel is
// closed by the returned cancel func or by Close.
func (c *Context) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	ch <- c.state.clone()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
}

// Close stops the startup check if it is still running and closes all
// subscriptions.
func (c *Context) Close() {
	c.stopCheck()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for ch := range c.subs {
		close(ch)
	}
	c.subs = nil
}

func (c *Context) signedIn(user *auth.User) {
	c.update(func(s *State) {
		s.IsAuthenticated = true
		s.User = user
	})
}

func (c *Context) signedOut() {
	c.update(func(s *State) {
		s.IsAuthenticated = false
		s.User = nil
	})
}

func (c *Context) update(fn func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn(&c.state)
	if c.closed {
		return
	}

	snapshot := c.state.clone()
	for ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func grantProvider(grant *tokenstore.Grant) string {
	if grant == nil {
		return auth.ProviderEmail
	}
	return grant.Provider
}
