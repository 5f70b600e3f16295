// Package httpclient builds the shared HTTP client used for model and grammar endpoints.
package httpclient

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

var (
	sharedOnce      sync.Once
	sharedTransport http.RoundTripper
)

// Transport returns the process-wide transport. Hosted endpoints negotiate
// HTTP/2 with connection health pings; plain-http local servers stay on HTTP/1.1.
func Transport() http.RoundTripper {
	sharedOnce.Do(func() {
		sharedTransport = newTransport()
	})
	return sharedTransport
}

// New returns a client with the shared transport and a per-request timeout.
func New(timeout time.Duration) *http.Client {
	return &http.Client{Transport: Transport(), Timeout: timeout}
}

// Millis converts a config millisecond value, using fallback when unset.
func Millis(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func newTransport() http.RoundTripper {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	h2, err := http2.ConfigureTransports(base)
	if err != nil {
		return base
	}
	h2.ReadIdleTimeout = 30 * time.Second
	h2.PingTimeout = 10 * time.Second
	return base
}
