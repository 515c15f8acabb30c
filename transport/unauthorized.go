package transport

import (
	"context"
	"net/http"
)

// UnauthorizedHook fires handler whenever the backend answers 401, after the
// response has passed back through the pipeline. The response itself is
// untouched so callers still see the rejection; the handler is the one place
// that tears the session down.
func UnauthorizedHook(handler func(context.Context)) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}

			if resp.StatusCode == http.StatusUnauthorized && handler != nil {
				handler(req.Context())
			}

			return resp, nil
		})
	}
}
