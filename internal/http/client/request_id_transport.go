package client

import (
	"net/http"

	"prosektor-api/internal/observability/requestid"
)

// RequestIDTransport is an http.RoundTripper that propagates the
// X-Request-Id header from the request context to outbound calls, giving
// end-to-end correlation across service boundaries.
type RequestIDTransport struct {
	base http.RoundTripper
}

// NewRequestIDTransport creates a RequestIDTransport wrapping base.
// If base is nil, defaults to http.DefaultTransport.
func NewRequestIDTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RequestIDTransport{base: base}
}

// RoundTrip implements http.RoundTripper. An explicitly set X-Request-Id
// header takes precedence over the context value.
func (t *RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("X-Request-Id") != "" {
		return t.base.RoundTrip(req)
	}

	reqID := requestid.GetRequestID(req.Context())
	if reqID == "" {
		// Background jobs have no request scope; proceed without header.
		return t.base.RoundTrip(req)
	}

	// Clone: http.Request.Header is shared and must not be mutated in place.
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("X-Request-Id", reqID)

	return t.base.RoundTrip(clonedReq)
}
