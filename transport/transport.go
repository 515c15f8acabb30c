// Package transport provides a RoundTripper middleware pipeline for the API
// client: bearer injection, global 401 handling, and request logging compose
// around a base transport without the client knowing about any of them.
package transport

import (
	"context"
	"net/http"
)

// TokenReader is the part of the token store the pipeline needs. A broader
// store implementation satisfies it directly.
type TokenReader interface {
	Get(ctx context.Context) (string, error)
}

// Logger mirrors the root package logger so transport carries no dependency
// back into it.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Middleware wraps a RoundTripper with additional behavior.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to the http.RoundTripper interface.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain applies middlewares to base so the first middleware listed is the
// outermost, i.e. runs first on the way out and last on the way back.
func Chain(base http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	next := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			next = middlewares[i](next)
		}
	}

	return next
}

// NewClient builds an http.Client backed by the chained pipeline.
func NewClient(base http.RoundTripper, middlewares ...Middleware) *http.Client {
	return &http.Client{Transport: Chain(base, middlewares...)}
}
