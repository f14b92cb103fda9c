package provider

import (
	"context"

	"finx-auth/internal/auth"
)

// OAuthProvider defines the contract every external auth provider
// must implement. Implementations return identity facts only and
// must not perform session management.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider credentials
	// and returns a normalized identity. No auth decisions are made here.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Identity, error)
}

// SilentProvider is implemented by providers that can re-establish an
// identity from a stored provider refresh token and revoke it on sign-out.
type SilentProvider interface {
	OAuthProvider

	SilentSignIn(ctx context.Context, refreshToken string) (*auth.Identity, error)

	// SignOut revokes token at the provider. Callers treat failure as
	// non-fatal.
	SignOut(ctx context.Context, token string) error
}
