// Package credentials defines durable persistence for the session's
// credential entries: access token, refresh token and cached profile.
package credentials

import (
	"github.com/yomnaalset/elibrary-go-client/users"
)

// Credentials is the persisted mirror of the in-memory session tokens.
// All fields are independently optional; a zero value means "not stored".
type Credentials struct {
	AccessToken  string         `json:"access_token,omitempty"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	Profile      *users.Profile `json:"profile,omitempty"`
}

// Empty reports whether no credential entry is present.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.Profile == nil
}

// Merge overlays the non-zero fields of update onto c. Omitted fields keep
// their previously stored values, matching partial saves.
func (c Credentials) Merge(update Credentials) Credentials {
	merged := c
	if update.AccessToken != "" {
		merged.AccessToken = update.AccessToken
	}
	if update.RefreshToken != "" {
		merged.RefreshToken = update.RefreshToken
	}
	if update.Profile != nil {
		merged.Profile = update.Profile
	}
	return merged
}

// Store persists credential entries across process restarts.
//
// The session manager is the single writer during a session; other
// collaborators may read concurrently and observe eventually consistent
// state, since writes are atomic at the store level.
type Store interface {
	// Save writes the non-zero fields of creds without clearing omitted ones.
	Save(creds Credentials) error

	// Load returns whatever is currently persisted. A store with no saved
	// session returns an empty Credentials and no error.
	Load() (Credentials, error)

	// Clear removes all entries. No partial state is observable afterward,
	// and clearing an already-empty store is not an error.
	Clear() error
}
