// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wsbridge

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Option configures Dial, NewListener and the connections they produce.
type Option func(*config)

type config struct {
	dialer       *websocket.Dialer
	header       http.Header
	maxRetries   uint64
	maxElapsed   time.Duration
	checkOrigin  func(*http.Request) bool
	pingInterval time.Duration
	writeTimeout time.Duration
	readLimit    int64
	breaker      *BreakerSettings
}

func defaultConfig() config {
	return config{
		dialer:       websocket.DefaultDialer,
		maxRetries:   5,
		maxElapsed:   30 * time.Second,
		writeTimeout: 10 * time.Second,
		readLimit:    16 << 20,
	}
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *config) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithHeader adds request headers to the opening handshake.
func WithHeader(h http.Header) Option {
	return func(c *config) { c.header = h }
}

// WithRetry bounds how Dial retries a failed handshake: at most n
// additional attempts with exponential backoff, giving up after
// maxElapsed. WithRetry(0, 0) disables retries.
func WithRetry(n uint64, maxElapsed time.Duration) Option {
	return func(c *config) {
		c.maxRetries = n
		c.maxElapsed = maxElapsed
	}
}

// WithCheckOrigin sets the Listener's origin check. The default accepts
// same-origin requests only.
func WithCheckOrigin(f func(*http.Request) bool) Option {
	return func(c *config) { c.checkOrigin = f }
}

// WithPingInterval sends a ping every d so idle connections through
// proxies stay open. Zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(c *config) { c.pingInterval = d }
}

// WithWriteTimeout bounds each frame write. Zero disables the deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) { c.writeTimeout = d }
}

// WithCircuitBreaker makes invocations fail fast with a transport error
// once the tab has stopped answering. See BreakerSettings.
func WithCircuitBreaker(s BreakerSettings) Option {
	return func(c *config) { c.breaker = &s }
}
