// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wsbridge carries gpubridge invocations over a WebSocket to a
// browser tab running the shim runtime.
//
// Either side may open the connection. A host that serves the page itself
// uses a Listener and waits for the tab to connect back:
//
//	l := wsbridge.NewListener()
//	http.Handle("/interop", l)
//	http.Handle("/", shim.Handler(shim.Page{InteropPath: "/interop"}))
//	conn, err := l.Accept(ctx)
//
// A host talking to a tab that is reachable by URL uses Dial. Both return a
// *Conn, which is a gpubridge.Channel.
//
// Importing the package registers the "ws" (dial) and "ws-listen"
// transports with gpubridge.Dial.
package wsbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/wire"
)

// ErrClosed is the transport cause reported after Close or after the tab
// went away.
var ErrClosed = errors.New("wsbridge: connection closed")

// Conn is a gpubridge.Channel over one WebSocket connection. Invocations
// are multiplexed by request id and may be issued concurrently.
type Conn struct {
	ws      *websocket.Conn
	cfg     config
	breaker *gobreaker.CircuitBreaker

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan wire.Response

	done      chan struct{}
	closeOnce sync.Once
	err       error // set before done is closed
}

var _ gpubridge.Channel = (*Conn)(nil)

func newConn(ws *websocket.Conn, cfg config) *Conn {
	c := &Conn{
		ws:      ws,
		cfg:     cfg,
		pending: make(map[string]chan wire.Response),
		done:    make(chan struct{}),
	}
	if cfg.breaker != nil {
		c.breaker = newBreaker(*cfg.breaker)
	}
	if cfg.readLimit > 0 {
		ws.SetReadLimit(cfg.readLimit)
	}
	go c.readLoop()
	if cfg.pingInterval > 0 {
		go c.pingLoop(cfg.pingInterval)
	}
	return c
}

// Invoke sends identifier and args to the tab and waits for the answer.
// When ctx ends first the call keeps running in the tab and its late
// answer is discarded.
func (c *Conn) Invoke(ctx context.Context, identifier string, args ...any) (any, error) {
	if c.breaker == nil {
		return c.invoke(ctx, identifier, args)
	}
	v, err := c.breaker.Execute(func() (any, error) {
		return c.invoke(ctx, identifier, args)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &gpubridge.TransportError{Identifier: identifier, Err: err}
	}
	return v, err
}

func (c *Conn) invoke(ctx context.Context, identifier string, args []any) (any, error) {
	if args == nil {
		args = []any{}
	}
	req := wire.Request{ID: uuid.NewString(), Method: identifier, Args: args}
	data, err := wire.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("wsbridge: encode %s: %w", identifier, err)
	}

	answer := make(chan wire.Response, 1)
	c.mu.Lock()
	c.pending[req.ID] = answer
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	select {
	case <-c.done:
		return nil, &gpubridge.TransportError{Identifier: identifier, Err: c.err}
	default:
	}

	if err := c.write(data); err != nil {
		c.shutdown(err)
		return nil, &gpubridge.TransportError{Identifier: identifier, Err: err}
	}

	select {
	case resp := <-answer:
		return decode(identifier, resp)
	case <-c.done:
		return nil, &gpubridge.TransportError{Identifier: identifier, Err: c.err}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.cfg.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// decode maps a response to the Channel result contract.
func decode(identifier string, resp wire.Response) (any, error) {
	if !resp.OK {
		re := &gpubridge.RemoteError{Identifier: identifier, Message: "remote call failed"}
		if resp.Error != nil {
			re.Message = resp.Error.Message
			re.Cause = gpubridge.ParseCause(resp.Error.Cause)
		}
		return nil, re
	}
	if resp.Ref != nil {
		return gpubridge.Token(*resp.Ref), nil
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}
	var v any
	if err := wire.Unmarshal(resp.Result, &v); err != nil {
		return nil, fmt.Errorf("wsbridge: decode %s result: %w", identifier, err)
	}
	switch v.(type) {
	case nil, bool, float64, string:
		return v, nil
	}
	return resp.Result, nil
}

func (c *Conn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.shutdown(err)
			return
		}
		var resp wire.Response
		if err := wire.Unmarshal(data, &resp); err != nil {
			gpubridge.Logger().Warn("wsbridge: malformed response", "err", err)
			continue
		}
		// Claiming the entry makes this the only send on answer, so the
		// buffered send cannot block even if the tab repeats an id.
		c.mu.Lock()
		answer, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if !ok {
			gpubridge.Logger().Debug("wsbridge: discarding late or duplicate response", "id", resp.ID)
			continue
		}
		answer <- resp
	}
}

func (c *Conn) pingLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(every))
			c.writeMu.Unlock()
			if err != nil {
				c.shutdown(err)
				return
			}
		}
	}
}

// shutdown records why the connection ended and releases every waiter.
func (c *Conn) shutdown(cause error) {
	c.closeOnce.Do(func() {
		if cause == nil || websocket.IsCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			cause = ErrClosed
		} else {
			cause = fmt.Errorf("%w: %w", ErrClosed, cause)
		}
		c.err = cause
		close(c.done)
		_ = c.ws.Close()
		gpubridge.Logger().Info("wsbridge: connection closed", "remote", c.ws.RemoteAddr().String(), "err", cause)
	})
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended, or nil while it is open.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close ends the connection. Pending invocations fail with a
// *gpubridge.TransportError.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.shutdown(nil)
	return nil
}
