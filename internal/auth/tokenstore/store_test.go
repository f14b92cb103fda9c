package tokenstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"finx-auth/internal/auth"
	"finx-auth/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())

	expires := time.UnixMilli(time.Now().Add(15 * time.Minute).UnixMilli())
	in := auth.TokenSet{AccessToken: "A.b-c_d", RefreshToken: "R/+=", ExpiresAt: expires}
	require.NoError(t, s.Set(ctx, in))

	out, err := s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.AccessToken, out.AccessToken)
	assert.Equal(t, in.RefreshToken, out.RefreshToken)
	assert.True(t, in.ExpiresAt.Equal(out.ExpiresAt))
}

func TestStore_GetAfterClearIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())

	require.NoError(t, s.SetAll(ctx,
		auth.TokenSet{AccessToken: "A", RefreshToken: "R", ExpiresAt: time.Now().Add(time.Hour)},
		auth.UserProfile{ID: "1", Email: "user@x.com"},
	))

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	tokens, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, tokens)

	profile, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestStore_PartialStateIsAbsent(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem)

	require.NoError(t, mem.Set(ctx, AccessTokenKey, "A"))
	require.NoError(t, mem.Set(ctx, ExpiresKey, "99999999999999"))

	tokens, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, tokens)

	require.NoError(t, mem.Set(ctx, RefreshTokenKey, "R"))
	require.NoError(t, mem.Set(ctx, ExpiresKey, "not-a-number"))

	tokens, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, tokens)
}

func TestStore_SetRejectsIncompleteSet(t *testing.T) {
	s := New(kv.NewMemory())
	err := s.Set(context.Background(), auth.TokenSet{AccessToken: "A"})
	assert.True(t, errors.Is(err, auth.ErrInvalidInput))
}

func TestStore_Profile(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := New(mem)

	want := auth.UserProfile{ID: "1", Email: "user@x.com", FirstName: "Ada"}
	require.NoError(t, s.SetProfile(ctx, want))

	got, err := s.Profile(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	require.NoError(t, mem.Set(ctx, ProfileKey, "{broken"))
	got, err = s.Profile(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_GrantSurvivesClear(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())

	require.NoError(t, s.SetGrant(ctx, Grant{Provider: auth.ProviderGoogle, RefreshToken: "g-r"}))
	require.NoError(t, s.Clear(ctx))

	g, err := s.Grant(ctx)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "g-r", g.RefreshToken)

	require.NoError(t, s.ClearGrant(ctx))
	g, err = s.Grant(ctx)
	require.NoError(t, err)
	assert.Nil(t, g)
}
