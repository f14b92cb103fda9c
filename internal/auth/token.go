package auth

import "time"

// TokenSet is the persisted credential pair for the identity endpoint.
// Both tokens are either present or the set is absent.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Complete reports whether both tokens are present.
func (t TokenSet) Complete() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// ValidAt reports whether the access token may still be used at now,
// keeping skew in reserve before the hard expiry.
func (t TokenSet) ValidAt(now time.Time, skew time.Duration) bool {
	return t.Complete() && now.Before(t.ExpiresAt.Add(-skew))
}

// TokenResponse is the token payload issued by the identity endpoint.
// Expires is the server-declared lifetime in the configured unit.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Expires      int64  `json:"expires"`
}

// TokenSet converts the response into a TokenSet issued at issuedAt.
func (r TokenResponse) TokenSet(issuedAt time.Time, unit time.Duration) TokenSet {
	return TokenSet{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    issuedAt.Add(time.Duration(r.Expires) * unit),
	}
}
