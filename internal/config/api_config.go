package config

import "time"

const (
	baseURLVar        = "API_BASE_URL"
	requestTimeoutVar = "API_REQUEST_TIMEOUT"
	profileTimeoutVar = "API_PROFILE_TIMEOUT"
)

type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetProfileTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetBaseURL returns the root URL of the E-Library backend API.
func (API) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8000/api")
}

// GetRequestTimeout bounds login, register and refresh calls.
func (API) GetRequestTimeout() time.Duration {
	return getDuration(requestTimeoutVar, 10*time.Second)
}

// GetProfileTimeout bounds the advisory profile fetch. It is deliberately
// short: profile verification must never hold up the session.
func (API) GetProfileTimeout() time.Duration {
	return getDuration(profileTimeoutVar, 3*time.Second)
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
