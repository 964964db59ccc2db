package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiresAt decodes the exp claim when the token happens to be a JWT.
// The signature is NOT verified; the result is a display hint only and must
// never be used to decide whether a session is valid.
func ExpiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
