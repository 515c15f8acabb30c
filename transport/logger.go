package transport

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each outgoing request with an X-Request-ID and logs
// method, path, status, and duration.
func RequestLogger(logger Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			reqID := req.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
				req = req.Clone(req.Context())
				req.Header.Set(requestIDHeader, reqID)
			}

			start := time.Now()
			resp, err := next.RoundTrip(req)
			elapsed := time.Since(start)

			if err != nil {
				logger.Error("http %s %s id=%s err=%v (%s)", req.Method, req.URL.Path, reqID, err, elapsed)
				return nil, err
			}

			logger.Debug("http %s %s id=%s status=%d (%s)", req.Method, req.URL.Path, reqID, resp.StatusCode, elapsed)
			return resp, nil
		})
	}
}
