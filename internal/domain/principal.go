package domain

import "encoding/json"

// Principal is the authenticated identity behind a request. It is sourced
// either from the identity provider's verified session or from a verified
// custom token payload.
type Principal struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`

	// RawProviderMetadata carries the provider's app_metadata untouched.
	// Only provider-verified claims live here; user-editable profile data
	// must never be trusted for authorization decisions.
	RawProviderMetadata json.RawMessage `json:"-"`
}
