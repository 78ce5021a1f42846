package loadtester

import (
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"

	"golang.org/x/net/http2"
)

// NewHttpTransport returns a new configured *http.Transport
// sized for a loadtest that runs up to maxWorkers calls at once
// against a single endpoint.
//
// Every worker may hold one connection, so idle and per-host limits
// match the worker count; keeping them equal lets connections be
// reused across calls instead of re-dialed under load.
//
// HTTP/2 is negotiated over TLS when the endpoint supports it, with
// health-check pings so a silently dropped connection surfaces as a
// retryable transport error rather than a 15s timeout on every
// stream multiplexed over it.
func NewHttpTransport(maxWorkers int) (*http.Transport, error) {

	// adding runtime CPU count to the max
	// just to ensure whenever one worker releases
	// a connection back to the pool we're not impacted
	// by the delay of that connection getting re-pooled
	maxConnections := maxWorkers + runtime.NumCPU()

	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 15 * time.Second,
		}).DialContext,
		MaxIdleConns:          maxConnections,
		IdleConnTimeout:       20 * time.Second, // default was 90
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   maxConnections,
		MaxConnsPerHost:       maxConnections,
	}

	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, fmt.Errorf("failed to configure http2 transport: %w", err)
	}

	h2.ReadIdleTimeout = 10 * time.Second
	h2.PingTimeout = 5 * time.Second

	return t, nil
}
