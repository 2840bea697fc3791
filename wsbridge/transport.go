// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wsbridge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/shim"
)

// InteropPath is where Serve mounts the Listener.
const InteropPath = "/interop"

func init() {
	gpubridge.RegisterTransport("ws", func(ctx context.Context, addr string) (gpubridge.Channel, error) {
		return Dial(ctx, addr)
	})
	gpubridge.RegisterTransport("ws-listen", func(ctx context.Context, addr string) (gpubridge.Channel, error) {
		return Serve(ctx, addr, shim.Page{})
	})
}

// ServedConn is a Conn accepted by Serve. Closing it also stops the HTTP
// server.
type ServedConn struct {
	*Conn
	srv *http.Server
}

// Close closes the connection and shuts the server down.
func (s *ServedConn) Close() error {
	err := s.Conn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(err, s.srv.Shutdown(ctx))
}

// Serve listens on addr, serves the bootstrap page and runtime at "/" and
// waits for the first tab to connect back on InteropPath. Open the logged
// address in a WebGPU-capable browser to continue.
func Serve(ctx context.Context, addr string, page shim.Page, opts ...Option) (*ServedConn, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &gpubridge.TransportError{Identifier: "listen " + addr, Err: err}
	}
	return ServeListener(ctx, ln, page, opts...)
}

// ServeListener is Serve on an existing listener. The listener is closed
// when the returned connection is closed or when no tab connects before
// ctx ends.
func ServeListener(ctx context.Context, ln net.Listener, page shim.Page, opts ...Option) (*ServedConn, error) {
	addr := ln.Addr().String()
	page.InteropPath = InteropPath
	l := NewListener(opts...)

	mux := http.NewServeMux()
	mux.Handle(InteropPath, l)
	mux.Handle("/", shim.Handler(page))

	srv := &http.Server{
		Handler:           logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			gpubridge.Logger().Warn("wsbridge: serve failed", "addr", addr, "err", err)
		}
	}()
	gpubridge.Logger().Info("wsbridge: waiting for a tab", "url", "http://"+addr+"/")

	c, err := l.Accept(ctx)
	if err != nil {
		_ = srv.Close()
		return nil, err
	}
	return &ServedConn{Conn: c, srv: srv}, nil
}

// logRequests logs every page request at debug level. The WebSocket
// upgrade hijacks the connection, so httpsnoop's hijack-aware wrapper is
// required to keep it working.
func logRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(h, w, r)
		gpubridge.Logger().Debug("wsbridge: http",
			"method", r.Method, "path", r.URL.Path, "status", m.Code, "bytes", m.Written, "elapsed", m.Duration)
	})
}
