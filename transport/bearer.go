package transport

import "net/http"

// BearerToken attaches the stored token as an Authorization header on every
// request. Requests proceed without the header when the store is empty, so
// public endpoints keep working before sign-in.
func BearerToken(tokens TokenReader) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") == "" {
				if raw, err := tokens.Get(req.Context()); err == nil && raw != "" {
					clone := req.Clone(req.Context())
					clone.Header.Set("Authorization", "Bearer "+raw)
					return next.RoundTrip(clone)
				}
			}
			return next.RoundTrip(req)
		})
	}
}
