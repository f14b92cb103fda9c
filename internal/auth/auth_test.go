package auth

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProfile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    UserProfile
		wantErr bool
	}{
		{
			name: "required only",
			body: `{"id":"1","email":"user@x.com"}`,
			want: UserProfile{ID: "1", Email: "user@x.com"},
		},
		{
			name: "optional fields and nulls",
			body: `{"id":"1","email":"user@x.com","first_name":"Ada","last_name":null,"avatar":"f-1","role":"r-1"}`,
			want: UserProfile{ID: "1", Email: "user@x.com", FirstName: "Ada", Avatar: "f-1", Role: "r-1"},
		},
		{name: "missing id", body: `{"email":"user@x.com"}`, wantErr: true},
		{name: "empty email", body: `{"id":"1","email":""}`, wantErr: true},
		{name: "numeric id", body: `{"id":1,"email":"user@x.com"}`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeProfile([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedResponse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserProfile_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", UserProfile{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", UserProfile{FirstName: "Ada"}.FullName())
	assert.Equal(t, "", UserProfile{}.FullName())
}

func TestTokenSet_ValidAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	skew := 5 * time.Minute

	set := TokenSet{AccessToken: "A", RefreshToken: "R", ExpiresAt: now.Add(15 * time.Minute)}
	assert.True(t, set.ValidAt(now, skew))
	assert.False(t, set.ValidAt(now.Add(10*time.Minute), skew), "inside skew window")
	assert.False(t, set.ValidAt(now.Add(20*time.Minute), skew), "expired")

	partial := TokenSet{AccessToken: "A", ExpiresAt: now.Add(time.Hour)}
	assert.False(t, partial.ValidAt(now, skew))
}

func TestTokenResponse_TokenSet(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	resp := TokenResponse{AccessToken: "A", RefreshToken: "R", Expires: 900}

	assert.Equal(t, issued.Add(900*time.Second), resp.TokenSet(issued, time.Second).ExpiresAt)
	assert.Equal(t, issued.Add(900*time.Millisecond), resp.TokenSet(issued, time.Millisecond).ExpiresAt)
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("login: %w", ErrInvalidCredentials), "Invalid email or password"},
		{ErrServerUnavailable, "Server error. Please try again later."},
		{fmt.Errorf("x: %w", ErrNetwork), "Network error. Please check your internet connection."},
		{ErrInvalidInput, "Email and password are required"},
		{&APIError{Status: 400, Message: "Invalid payload"}, "Invalid payload"},
		{errors.New("boom"), "Login failed"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Message(tt.err))
	}
}
