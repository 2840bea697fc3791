// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wsbridge

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/gogpu/gpubridge"
)

// Listener is an http.Handler that upgrades connecting tabs and hands
// them out through Accept.
type Listener struct {
	cfg      config
	upgrader websocket.Upgrader
	conns    chan *Conn
}

// NewListener returns a Listener. Tabs that connect while nobody is
// waiting in Accept are queued up to a small limit and rejected after.
func NewListener(opts ...Option) *Listener {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Listener{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.checkOrigin,
		},
		conns: make(chan *Conn, 4),
	}
}

// ServeHTTP upgrades the request and queues the connection.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		gpubridge.Logger().Warn("wsbridge: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	c := newConn(ws, l.cfg)
	select {
	case l.conns <- c:
		gpubridge.Logger().Info("wsbridge: tab connected", "remote", r.RemoteAddr)
	default:
		gpubridge.Logger().Warn("wsbridge: rejecting tab, accept queue full", "remote", r.RemoteAddr)
		_ = c.Close()
	}
}

// Accept waits for the next tab to connect.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
