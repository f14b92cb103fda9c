// Package tokenstore persists the session's TokenSet, the cached user
// profile and the sign-in provider grant under fixed keys.
package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"finx-auth/internal/auth"
	"finx-auth/internal/kv"
)

const (
	AccessTokenKey  = "@finx_access_token"
	RefreshTokenKey = "@finx_refresh_token"
	ExpiresKey      = "@finx_token_expires"
	ProfileKey      = "@finx_user_profile"
	GrantKey        = "@finx_provider_grant"
)

// Grant records which provider established the session and the provider
// credential needed for silent sign-in.
type Grant struct {
	Provider     string `json:"provider"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type Store struct {
	kv kv.Store
}

func New(store kv.Store) *Store {
	return &Store{kv: store}
}

// Get returns the stored TokenSet or nil when none is stored. A partially
// stored set or an unreadable expiry is reported as absent.
func (s *Store) Get(ctx context.Context) (*auth.TokenSet, error) {
	access, okA, err := s.kv.Get(ctx, AccessTokenKey)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read access token: %w", err)
	}
	refresh, okR, err := s.kv.Get(ctx, RefreshTokenKey)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read refresh token: %w", err)
	}
	expires, okE, err := s.kv.Get(ctx, ExpiresKey)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read expiry: %w", err)
	}

	if !okA || !okR || !okE || access == "" || refresh == "" {
		return nil, nil
	}

	ms, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return nil, nil
	}

	return &auth.TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.UnixMilli(ms),
	}, nil
}

// Set replaces the stored TokenSet.
func (s *Store) Set(ctx context.Context, tokens auth.TokenSet) error {
	if !tokens.Complete() {
		return fmt.Errorf("tokenstore: %w: access and refresh token required", auth.ErrInvalidInput)
	}
	if err := s.kv.MultiSet(ctx, tokenValues(tokens)); err != nil {
		return fmt.Errorf("tokenstore: write tokens: %w", err)
	}
	return nil
}

// SetAll stores the TokenSet and profile in one write.
func (s *Store) SetAll(ctx context.Context, tokens auth.TokenSet, profile auth.UserProfile) error {
	if !tokens.Complete() {
		return fmt.Errorf("tokenstore: %w: access and refresh token required", auth.ErrInvalidInput)
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("tokenstore: encode profile: %w", err)
	}

	values := tokenValues(tokens)
	values[ProfileKey] = string(raw)

	if err := s.kv.MultiSet(ctx, values); err != nil {
		return fmt.Errorf("tokenstore: write session: %w", err)
	}
	return nil
}

// Clear removes tokens and the cached profile. The provider grant is kept
// so a later start can attempt silent sign-in.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.MultiRemove(ctx, AccessTokenKey, RefreshTokenKey, ExpiresKey, ProfileKey); err != nil {
		return fmt.Errorf("tokenstore: clear: %w", err)
	}
	return nil
}

func (s *Store) SetProfile(ctx context.Context, profile auth.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("tokenstore: encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, ProfileKey, string(raw)); err != nil {
		return fmt.Errorf("tokenstore: write profile: %w", err)
	}
	return nil
}

// Profile returns the cached profile or nil. A corrupt entry is reported
// as absent.
func (s *Store) Profile(ctx context.Context) (*auth.UserProfile, error) {
	raw, ok, err := s.kv.Get(ctx, ProfileKey)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read profile: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	profile, err := auth.DecodeProfile([]byte(raw))
	if err != nil {
		return nil, nil
	}
	return &profile, nil
}

func (s *Store) SetGrant(ctx context.Context, grant Grant) error {
	raw, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("tokenstore: encode grant: %w", err)
	}
	if err := s.kv.Set(ctx, GrantKey, string(raw)); err != nil {
		return fmt.Errorf("tokenstore: write grant: %w", err)
	}
	return nil
}

// Grant returns the stored provider grant or nil.
func (s *Store) Grant(ctx context.Context) (*Grant, error) {
	raw, ok, err := s.kv.Get(ctx, GrantKey)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read grant: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var g Grant
	if err := json.Unmarshal([]byte(raw), &g); err != nil || g.Provider == "" {
		return nil, nil
	}
	return &g, nil
}

func (s *Store) ClearGrant(ctx context.Context) error {
	if err := s.kv.Remove(ctx, GrantKey); err != nil {
		return fmt.Errorf("tokenstore: clear grant: %w", err)
	}
	return nil
}

func tokenValues(tokens auth.TokenSet) map[string]string {
	return map[string]string{
		AccessTokenKey:  tokens.AccessToken,
		RefreshTokenKey: tokens.RefreshToken,
		ExpiresKey:      strconv.FormatInt(tokens.ExpiresAt.UnixMilli(), 10),
	}
}
