package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/lifeweeks/internal/telegram/netutil"
)

const (
	dialTimeout       = 5 * time.Second
	tlsHandshake      = 5 * time.Second
	idleConnTimeout   = 30 * time.Second
	responseTimeout   = 5 * time.Second
	clientTimeout     = 30 * time.Second
	keepAliveInterval = 30 * time.Second
	httpRetryAttempts = 3
	httpRetryBackoff  = 2 * time.Second
)

// buildHTTPClient returns an HTTP client tuned for Telegram API calls,
// with transport-level retries on transient network failures.
func buildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshake,
		ResponseHeaderTimeout: responseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: clientTimeout,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: httpRetryAttempts,
			backoff:    httpRetryBackoff,
		},
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		currReq := req
		if attempt > 1 {
			currReq = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				currReq.Body = body
			} else if req.Body != nil {
				// Non-rewindable body, cannot safely retry.
				return nil, lastErr
			}
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := t.backoff * time.Duration(attempt)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}
