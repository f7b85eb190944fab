// Package session owns the in-memory authenticated state of the running
// client and coordinates the token lifecycle: startup restoration, proactive
// refresh scheduling, reactive refresh on authorization failures, and
// credential persistence.
package session

import (
	"github.com/yomnaalset/elibrary-go-client/internal/utils"
	"github.com/yomnaalset/elibrary-go-client/users"
)

// State is the session's lifecycle state.
type State string

const (
	// StateUnauthenticated is the initial and terminal state.
	StateUnauthenticated State = "unauthenticated"
	// StateRestoring is entered only during startup restoration.
	StateRestoring State = "restoring"
	// StateAuthenticated means a non-empty access token is held.
	StateAuthenticated State = "authenticated"
)

// Snapshot is the immutable view of session state delivered to subscribers
// and returned by Manager.Snapshot. Authenticated is strictly derived: it is
// true iff AccessToken is non-empty.
type Snapshot struct {
	State         State
	Authenticated bool
	Refreshing    bool
	AccessToken   string
	RefreshToken  string
	User          *users.Profile
}

// Role returns the user's role tag, or the empty role when no profile is
// attached. Used by callers for route guarding.
func (s Snapshot) Role() users.RoleType {
	return utils.Value(s.User).Role
}
