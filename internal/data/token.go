package data

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry peeks at a stored bearer token and, when it happens to be
// a JWT with an exp claim, returns the expiry. The token is opaque to
// the flow contract, so this is display-only: nothing gates on it and
// the signature is not verified here.
func TokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
