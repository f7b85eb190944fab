// Package token decodes claim-bearing bearer tokens on the client side.
//
// The codec never verifies signatures: the backend is the authority on token
// validity, and the client only reads the expiry claim to decide when to
// refresh. Decoding is therefore advisory and fails closed.
package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// IsExpired reports whether the token's expiry claim is at or before now.
// Unparseable tokens and tokens without an expiry claim are treated as
// expired rather than surfacing a decode error to the caller.
func IsExpired(rawToken string) bool {
	exp, ok := expiry(rawToken)
	if !ok {
		return true
	}
	return !exp.After(NowTimeFunc())
}

// TimeUntilExpiration returns the duration from now until the token's expiry
// claim, or nil if the token is unparseable, carries no expiry claim, or has
// already expired.
func TimeUntilExpiration(rawToken string) *time.Duration {
	exp, ok := expiry(rawToken)
	if !ok {
		return nil
	}
	remaining := exp.Sub(NowTimeFunc())
	if remaining <= 0 {
		return nil
	}
	return &remaining
}

// expiry extracts the exp claim without verifying the token signature.
func expiry(rawToken string) (time.Time, bool) {
	if strings.TrimSpace(rawToken) == "" {
		return time.Time{}, false
	}

	unverifiedToken, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	claims, ok := unverifiedToken.Claims.(jwtlib.MapClaims)
	if !ok {
		return time.Time{}, false
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}

	return time.Unix(int64(exp), 0), true
}
