package mediagrab

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// JWKSValidator verifies stored tokens against the backend's JWK Set before
// they are exchanged for a profile. It is optional: without it the client
// only performs an unverified expiry check and lets the backend decide.
type JWKSValidator struct {
	jwks   *keyfunc.JWKS
	logger Logger
}

// JWKSValidatorOption customizes JWKS validator construction.
type JWKSValidatorOption func(*JWKSValidator)

// WithJWKSLogger overrides the logger used for background refresh failures.
func WithJWKSLogger(logger Logger) JWKSValidatorOption {
	return func(v *JWKSValidator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewJWKSValidator fetches the JWK Set from jwksURL and keeps it refreshed in
// the background until Close is called.
func NewJWKSValidator(jwksURL string, opts ...JWKSValidatorOption) (*JWKSValidator, error) {
	v := &JWKSValidator{logger: defLogger{}}

	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			v.logger.Warn("jwks background refresh failed: %v", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("jwks: failed to get key set from %q: %w", jwksURL, err)
	}

	v.jwks = jwks
	return v, nil
}

// Validate implements TokenValidator.
func (v *JWKSValidator) Validate(tokenString string) error {
	if v == nil || v.jwks == nil {
		return errors.New("jwks validator not initialized", errors.CategoryInternal)
	}

	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		return ErrTokenMalformed
	}

	return nil
}

// Close stops the background JWKS refresh.
func (v *JWKSValidator) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}
