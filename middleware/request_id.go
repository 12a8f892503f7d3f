package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-Id"

type requestIDContextKey struct{}

// WithRequestID pins the id RequestID will send for requests made with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the id pinned by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	return id, ok && id != ""
}

// RequestID sets X-Request-Id when the caller has not. The id comes from the
// request context if pinned, otherwise a random UUID.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(HeaderRequestID) != "" {
				return next.RoundTrip(req)
			}

			id, ok := RequestIDFromContext(req.Context())
			if !ok {
				id = uuid.NewString()
			}

			// RoundTrippers must not modify the caller's request.
			req = req.Clone(req.Context())
			req.Header.Set(HeaderRequestID, id)
			return next.RoundTrip(req)
		})
	}
}
