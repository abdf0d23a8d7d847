package client

import (
	"net/http"
	"time"
)

// NewExternalHTTPClient creates an http.Client for calls to third-party
// services (identity provider admin API, webhooks). http.DefaultClient has
// no timeout, which can hang a request goroutine indefinitely; this client
// enforces deterministic behavior and propagates X-Request-Id.
func NewExternalHTTPClient() *http.Client {
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()
	transport := NewRequestIDTransport(baseTransport)

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
