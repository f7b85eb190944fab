package errors

import (
	"errors"
	"fmt"
)

// Common error types for the E-Library session client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrPasswordMismatch   = errors.New("passwords do not match")

	// Token errors
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrNoRefreshToken      = errors.New("no refresh token available")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshInProgress   = errors.New("refresh already in progress")
	ErrRefreshExhausted    = errors.New("refresh attempts exhausted")

	// Transport errors
	ErrNetwork = errors.New("network error")
	ErrTimeout = errors.New("request timed out")

	// Store errors
	ErrStoreUnavailable = errors.New("credential store unavailable")
	ErrNoStoredSession  = errors.New("no stored session")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
