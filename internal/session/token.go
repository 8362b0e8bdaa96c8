package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry peeks at the exp claim of a JWT access token without verifying
// its signature (the client does not hold the signing secret). It is used
// only to warn about a stale session at startup; gating decisions never
// depend on it, the server stays authoritative.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
