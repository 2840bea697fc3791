// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wsbridge

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/gogpu/gpubridge"
)

// Dial opens a connection to url, retrying failed handshakes with
// exponential backoff. A handshake the server rejects with an HTTP status
// is not retried.
func Dial(ctx context.Context, url string, opts ...Option) (*Conn, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var ws *websocket.Conn
	attempt := 0
	op := func() error {
		attempt++
		c, resp, err := cfg.dialer.DialContext(ctx, url, cfg.header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			gpubridge.Logger().Debug("wsbridge: dial failed", "url", url, "attempt", attempt, "err", err)
			if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
				return backoff.Permanent(fmt.Errorf("wsbridge: handshake rejected with status %d: %w", resp.StatusCode, err))
			}
			return err
		}
		ws = c
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = cfg.maxElapsed
	var bo backoff.BackOff = eb
	bo = backoff.WithMaxRetries(bo, cfg.maxRetries)
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, &gpubridge.TransportError{Identifier: "dial " + url, Err: err}
	}

	gpubridge.Logger().Info("wsbridge: connected", "url", url, "attempts", attempt)
	return newConn(ws, cfg), nil
}
