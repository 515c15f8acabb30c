package mediagrab

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenResponse is the body of the backend token endpoints. Only access_token
// and token_type are contractual; the rest is advisory decoration.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id,omitempty"`
	Email       string `json:"email,omitempty"`
	Username    string `json:"username,omitempty"`
	Role        string `json:"role,omitempty"`
}

// TokenExpiry extracts the expiry claim from a JWT-shaped token without
// verifying its signature. The second return is false when the token is not
// a parseable JWT or carries no exp claim; callers must then defer to the
// backend's verdict.
func TokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// TokenExpired reports whether the token carries an expiry claim that is
// already in the past. Opaque tokens are never considered locally expired.
func TokenExpired(raw string, now time.Time) bool {
	exp, ok := TokenExpiry(raw)
	if !ok {
		return false
	}
	return exp.Before(now)
}
