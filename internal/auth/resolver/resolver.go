package resolver

import (
	"context"
	"errors"
	"strings"

	"finx-auth/internal/auth"
)

const (
	unknownID   = "unknown"
	unknownName = "Unknown User"
)

// Resolver determines which user an external identity presents as.
// It is the ONLY place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.Identity,
	) (*auth.User, error)
}

// ProfileResolver maps provider identity facts onto the displayed user
// without any lookup.
type ProfileResolver struct{}

func NewProfileResolver() *ProfileResolver {
	return &ProfileResolver{}
}

func (ProfileResolver) Resolve(_ context.Context, identity *auth.Identity) (*auth.User, error) {
	if identity == nil {
		return nil, errors.New("identity is nil")
	}

	id := firstNonEmpty(identity.ProviderUserID, identity.Email, unknownID)
	name := firstNonEmpty(
		identity.Name,
		joinName(identity.GivenName, identity.FamilyName),
		unknownName,
	)

	return &auth.User{
		ID:       id,
		Name:     name,
		Email:    identity.Email,
		Photo:    identity.Picture,
		Provider: identity.Provider,
	}, nil
}

// UserFromProfile maps a profile from the identity endpoint.
func UserFromProfile(profile auth.UserProfile, provider string) *auth.User {
	if provider == "" {
		provider = auth.ProviderEmail
	}
	return &auth.User{
		ID:       firstNonEmpty(profile.ID, profile.Email, unknownID),
		Name:     firstNonEmpty(profile.FullName(), profile.Email, unknownName),
		Email:    profile.Email,
		Photo:    profile.Avatar,
		Provider: provider,
	}
}

func joinName(given, family string) string {
	return strings.TrimSpace(strings.TrimSpace(given) + " " + strings.TrimSpace(family))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
