package provider

import (
	"context"
	"encoding/json"

	"prosektor-api/internal/domain"
)

// User is the identity provider's account record, narrowed to the fields
// this service reads.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

// IsSuperAdmin reads the provider-verified application-level claim. Only
// app_metadata counts: user_metadata is self-editable and must never grant
// privilege.
func (u *User) IsSuperAdmin() bool {
	if u.AppMetadata == nil {
		return false
	}
	v, ok := u.AppMetadata["is_super_admin"].(bool)
	return ok && v
}

// Principal converts the provider user into a domain principal
func (u *User) Principal() domain.Principal {
	p := domain.Principal{
		ID:    u.ID,
		Email: u.Email,
	}
	if u.UserMetadata != nil {
		if name, ok := u.UserMetadata["name"].(string); ok {
			p.Name = name
		}
		if avatar, ok := u.UserMetadata["avatar_url"].(string); ok {
			p.AvatarURL = avatar
		}
	}
	if raw, err := json.Marshal(u.AppMetadata); err == nil {
		p.RawProviderMetadata = raw
	}
	return p
}

// SessionGateway is the narrow surface of the identity provider actually
// used by this service. An implementation is injected, which keeps the auth
// subsystem testable without a live provider.
type SessionGateway interface {
	// GetUser verifies a session access token and returns its account.
	// Verification happens provider-side; a rejected token is an error.
	GetUser(ctx context.Context, accessToken string) (*User, error)

	// AdminListUsers pages through all accounts. Pages are 1-based; an empty
	// slice signals the end.
	AdminListUsers(ctx context.Context, page, perPage int) ([]User, error)

	// AdminUpdateUser patches an account's app_metadata through the
	// provider's administrative API.
	AdminUpdateUser(ctx context.Context, userID string, appMetadata map[string]any) error
}
