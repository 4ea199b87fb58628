package transport

import (
	"net"
	"net/http"
	"time"
)

const userAgent = "emaildraft/1.0"

// NewHTTPClient возвращает http.Client для исходящих запросов к модели.
// Общий таймаут ставится только при timeout > 0, иначе действуют таймауты транспорта.
func NewHTTPClient(timeout time.Duration) *http.Client {
	client := &http.Client{
		Transport: &userAgentTransport{
			next: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}

type userAgentTransport struct {
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", userAgent)
	return t.next.RoundTrip(clone)
}
