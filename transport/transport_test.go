package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yomnaalset/elibrary-go-client/transport"
)

type testConfig struct {
	baseURL        string
	requestTimeout time.Duration
	profileTimeout time.Duration
}

func (c testConfig) GetBaseURL() string               { return c.baseURL }
func (c testConfig) GetRequestTimeout() time.Duration { return c.requestTimeout }
func (c testConfig) GetProfileTimeout() time.Duration { return c.profileTimeout }

func newClient(t *testing.T, baseURL string) *transport.Client {
	t.Helper()
	client, err := transport.NewClient(testConfig{
		baseURL:        baseURL,
		requestTimeout: 2 * time.Second,
		profileTimeout: time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login/", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "john.doe@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]any{
			"access":  "access-token",
			"refresh": "refresh-token",
			"user":    map[string]any{"id": "user-1", "email": "john.doe@example.com", "user_type": "customer"},
			"message": "login successful",
		})
	}))
	defer server.Close()

	result := newClient(t, server.URL).Login(context.Background(), "john.doe@example.com", "password123")
	require.True(t, result.Success)
	require.Equal(t, "access-token", result.AccessToken)
	require.Equal(t, "refresh-token", result.RefreshToken)
	require.NotNil(t, result.User)
	require.Equal(t, "user-1", result.User.ID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "invalid email or password"})
	}))
	defer server.Close()

	result := newClient(t, server.URL).Login(context.Background(), "john.doe@example.com", "wrong")
	require.False(t, result.Success)
	require.True(t, result.Unauthorized)
	require.Equal(t, "invalid email or password", result.Message)
}

func TestNetworkErrorFoldsIntoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	result := newClient(t, server.URL).Login(context.Background(), "a@b.com", "pw")
	require.False(t, result.Success)
	require.False(t, result.Unauthorized)
	require.NotEmpty(t, result.Message)
}

func TestRefreshTimeoutIsAFailedResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"access": "late"})
	}))
	defer server.Close()

	client, err := transport.NewClient(testConfig{
		baseURL:        server.URL,
		requestTimeout: 50 * time.Millisecond,
		profileTimeout: 50 * time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)

	result := client.Refresh(context.Background(), "refresh-token")
	require.False(t, result.Success)
}

func TestRefreshRotatesTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token/refresh/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "old-refresh", body["refresh"])

		json.NewEncoder(w).Encode(map[string]string{
			"access":  "new-access",
			"refresh": "new-refresh",
		})
	}))
	defer server.Close()

	result := newClient(t, server.URL).Refresh(context.Background(), "old-refresh")
	require.True(t, result.Success)
	require.Equal(t, "new-access", result.AccessToken)
	require.Equal(t, "new-refresh", result.RefreshToken)
}

func TestGetProfileTopLevelObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"id":         "user-1",
			"email":      "john.doe@example.com",
			"first_name": "John",
			"user_type":  "library_admin",
		})
	}))
	defer server.Close()

	result := newClient(t, server.URL).GetProfile(context.Background(), "access-token")
	require.True(t, result.Success)
	require.NotNil(t, result.User)
	require.Equal(t, "John", result.User.FirstName)
	require.True(t, result.User.IsLibraryAdmin())
}

func TestGetProfileUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "token not valid"})
	}))
	defer server.Close()

	result := newClient(t, server.URL).GetProfile(context.Background(), "stale-token")
	require.False(t, result.Success)
	require.True(t, result.Unauthorized)
}

func TestLogoutFailureStillReturnsResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	result := newClient(t, server.URL).Logout(context.Background(), "refresh-token")
	require.False(t, result.Success)
	require.False(t, result.Unauthorized)
}

func TestForgotPassword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/forgot-password/", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"message": "reset email sent"})
	}))
	defer server.Close()

	result := newClient(t, server.URL).ForgotPassword(context.Background(), "john.doe@example.com")
	require.True(t, result.Success)
	require.Equal(t, "reset email sent", result.Message)
}
