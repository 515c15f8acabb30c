package mediagrab

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore persists the opaque bearer credential between runs.
// Implementations live in the tokenstore package.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Authenticator holds the auth operations consumers drive the session with.
type Authenticator interface {
	Bootstrap(ctx context.Context) error
	Login(ctx context.Context, payload LoginRequest) error
	Register(ctx context.Context, payload RegisterRequest) error
	Logout(ctx context.Context) error
}

// TokenValidator checks a stored token locally before it is exchanged for a
// profile. Implementations may verify signatures (JWKS) or only expiry.
type TokenValidator interface {
	Validate(tokenString string) error
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) error

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) error {
	if f == nil {
		return ErrTokenMalformed
	}
	return f(tokenString)
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetLoginRoute() string
	GetHomeRoute() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] MEDIAGRAB "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] MEDIAGRAB "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] MEDIAGRAB "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] MEDIAGRAB "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
