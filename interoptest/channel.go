// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package interoptest provides a substitute gpubridge.Channel for tests.
//
// Unless told otherwise the double answers every identifier with a fresh
// token, true for the capability probe and "bgra8unorm" for the preferred
// canvas format, so tests only stub what they care about:
//
//	ch := interoptest.NewChannel()
//	dev, _ := gpubridge.Open(ctx, ch)
//	ch.SimulateShaderCompilationError("bad syntax")
//	_, err := dev.CreateShaderModule(ctx, desc) // *gpubridge.ShaderCompilationError
//
// Invocations are recorded per identifier with last-write-wins semantics:
// a second call with the same identifier overwrites the arguments of the
// first. Use it to answer "was this identifier invoked, and with what last",
// not as a call history.
package interoptest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/gogpu/gpubridge"
)

// outcome is a stubbed answer. err builds the failure for the identifier
// being invoked.
type outcome struct {
	value any
	err   func(identifier string) error
}

// Channel is a recording, stubbable gpubridge.Channel.
// It is safe for concurrent use.
type Channel struct {
	mu      sync.Mutex
	record  map[string][]any
	count   int
	stubs   map[string]outcome
	all     *outcome
	latency time.Duration
	next    gpubridge.Token
}

var _ gpubridge.Channel = (*Channel)(nil)

// NewChannel returns a double that succeeds for every identifier.
func NewChannel() *Channel {
	return &Channel{
		record: make(map[string][]any),
		stubs:  make(map[string]outcome),
	}
}

// Invoke records the call and answers from the override table, falling back
// to a generic success.
func (c *Channel) Invoke(ctx context.Context, identifier string, args ...any) (any, error) {
	c.mu.Lock()
	c.record[identifier] = slices.Clone(args)
	c.count++
	latency := c.latency
	o, stubbed := c.stubs[identifier]
	if c.all != nil {
		o, stubbed = *c.all, true
	}
	var tok gpubridge.Token
	if !stubbed {
		c.next++
		tok = c.next
	}
	c.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if stubbed {
		if o.err != nil {
			return nil, o.err(identifier)
		}
		return o.value, nil
	}
	switch identifier {
	case gpubridge.OpIsSupported:
		return true, nil
	case gpubridge.OpGetPreferredCanvasFormat:
		return "bgra8unorm", nil
	}
	return tok, nil
}

// Stub makes identifier succeed with value.
func (c *Channel) Stub(identifier string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stubs[identifier] = outcome{value: value}
}

// StubError makes identifier fail with err.
func (c *Channel) StubError(identifier string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stubs[identifier] = outcome{err: func(string) error { return err }}
}

// SimulateShaderCompilationError makes shader module creation fail with a
// remote compilation error carrying message.
func (c *Channel) SimulateShaderCompilationError(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stubs[gpubridge.OpCreateShaderModule] = outcome{err: func(id string) error {
		return &gpubridge.RemoteError{Identifier: id, Message: message, Cause: gpubridge.CauseCompilationError}
	}}
}

// SimulateDeviceLost makes every identifier, including ones already
// stubbed, fail with a remote device-lost error.
func (c *Channel) SimulateDeviceLost() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = &outcome{err: func(id string) error {
		return &gpubridge.RemoteError{Identifier: id, Message: "GPU device was lost", Cause: gpubridge.CauseDeviceLost}
	}}
}

// ErrDisconnected is the transport failure used by SimulateDisconnect.
var ErrDisconnected = errors.New("interoptest: remote runtime disconnected")

// SimulateDisconnect makes every identifier fail with a transport error,
// as if the browser tab went away.
func (c *Channel) SimulateDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = &outcome{err: func(id string) error {
		return &gpubridge.TransportError{Identifier: id, Err: ErrDisconnected}
	}}
}

// SetLatency delays every answer by d. A context that ends first makes
// Invoke return the context error.
func (c *Channel) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = d
}

// Invoked reports whether identifier was ever invoked.
func (c *Channel) Invoked(identifier string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.record[identifier]
	return ok
}

// Args returns the arguments of the last invocation of identifier.
func (c *Channel) Args(identifier string) ([]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	args, ok := c.record[identifier]
	return slices.Clone(args), ok
}

// Record returns a copy of the invocation record.
func (c *Channel) Record() map[string][]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]any, len(c.record))
	for id, args := range c.record {
		out[id] = slices.Clone(args)
	}
	return out
}

// Count returns the total number of invocations.
func (c *Channel) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Reset clears the record, stubs, simulations and latency. Token numbering
// continues so tokens stay unique across a Reset.
func (c *Channel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.record)
	clear(c.stubs)
	c.count = 0
	c.all = nil
	c.latency = 0
}
