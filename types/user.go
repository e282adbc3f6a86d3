package types

import "strings"

// AuthenticatedUser is the identity the auth middleware extracts from a
// validated Supabase token. The backend never manages credentials itself.
type AuthenticatedUser struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// UserMetadata mirrors the user_metadata claim Supabase attaches to tokens.
type UserMetadata struct {
	Name      string `json:"name,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DisplayName picks the best human-readable name from the metadata claim,
// or "" when the claim carries none.
func (m UserMetadata) DisplayName() string {
	switch {
	case m.Name != "":
		return m.Name
	case m.Username != "":
		return m.Username
	case m.FirstName != "":
		return strings.TrimSpace(m.FirstName + " " + m.LastName)
	default:
		return ""
	}
}
