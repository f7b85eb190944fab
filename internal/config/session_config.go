package config

import (
	"strconv"
	"time"
)

const (
	restoreTimeoutVar = "SESSION_RESTORE_TIMEOUT"
	refreshRetriesVar = "SESSION_REFRESH_RETRIES"
)

type SessionConfig interface {
	GetRestoreTimeout() time.Duration
	GetRefreshRetries() int
	GetRefreshBackoffStep() time.Duration
	GetRefreshMargin() time.Duration
	GetShortLifetimeDelay() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetRestoreTimeout bounds startup restoration so the UI is never held
// hostage by a slow disk or network.
func (Session) GetRestoreTimeout() time.Duration {
	return getDuration(restoreTimeoutVar, 5*time.Second)
}

// GetRefreshRetries is the number of refresh attempts per triggering event.
func (Session) GetRefreshRetries() int {
	value := GetEnv(refreshRetriesVar, "")
	if value == "" {
		return 3
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 3
	}
	return n
}

// GetRefreshBackoffStep is multiplied by the attempt number between
// failed refresh attempts (2s, 4s, ...).
func (Session) GetRefreshBackoffStep() time.Duration {
	return 2 * time.Second
}

// GetRefreshMargin is how long before access-token expiry the proactive
// refresh fires, for tokens with more than the margin remaining.
func (Session) GetRefreshMargin() time.Duration {
	return time.Hour
}

// GetShortLifetimeDelay schedules refresh for tokens whose remaining
// lifetime is inside the margin, avoiding an instant-fire loop.
func (Session) GetShortLifetimeDelay() time.Duration {
	return 5 * time.Minute
}
