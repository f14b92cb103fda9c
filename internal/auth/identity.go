package auth

// Identity represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions.
type Identity struct {
	Provider       string // e.g. "google"
	ProviderUserID string // provider-scoped unique user identifier (sub)
	Email          string // verified email returned by provider
	EmailVerified  bool   // whether provider asserts email ownership

	Name       string
	GivenName  string
	FamilyName string
	Picture    string

	// Provider credentials. AccessToken is forwarded to the identity
	// endpoint for SSO login; RefreshToken enables silent sign-in.
	AccessToken  string
	RefreshToken string
	IDToken      string
}
