// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubridge

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/gpubridge/wire"
)

// Channel invokes named operations in the remote runtime.
//
// Identifiers are dotted names understood only by the remote side; the set
// is open-ended. Invoke blocks until the remote runtime answers. A
// successful result is one of bool, float64, string, nil, Token (the remote
// runtime kept an object and issued a token for it) or wire.Raw.
//
// Failures are *TransportError when the remote runtime cannot be reached
// and *RemoteError when the remote call threw. Implementations never
// recover errors themselves.
//
// ctx bounds how long the caller waits. It does not abort the remote call:
// an in-flight invocation always resolves on the remote side and a late
// answer is discarded.
type Channel interface {
	Invoke(ctx context.Context, identifier string, args ...any) (any, error)
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(ctx context.Context, identifier string, args ...any) (any, error)

// Invoke calls f.
func (f ChannelFunc) Invoke(ctx context.Context, identifier string, args ...any) (any, error) {
	return f(ctx, identifier, args...)
}

// Invoke calls identifier on ch and converts the result to T.
//
//	ok, err := gpubridge.Invoke[bool](ctx, ch, gpubridge.OpIsSupported)
func Invoke[T any](ctx context.Context, ch Channel, identifier string, args ...any) (T, error) {
	var zero T
	start := time.Now()
	v, err := ch.Invoke(ctx, identifier, args...)
	if err != nil {
		Logger().Debug("gpubridge: invoke failed", "op", identifier, "elapsed", time.Since(start), "err", err)
		return zero, err
	}
	Logger().Debug("gpubridge: invoke", "op", identifier, "elapsed", time.Since(start))
	return convert[T](identifier, v)
}

func convert[T any](identifier string, v any) (T, error) {
	var out T
	if v == nil {
		return out, nil
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	if err := wire.Convert(v, &out); err != nil {
		return out, fmt.Errorf("%w: %s returned %T: %w", ErrResultType, identifier, v, err)
	}
	return out, nil
}

// Future is the pending result of an invocation started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts identifier on ch in its own goroutine. Independent invocations
// may be overlapped this way; dependent ones must be sequenced by awaiting
// the first before issuing the second.
func Go[T any](ctx context.Context, ch Channel, identifier string, args ...any) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = Invoke[T](ctx, ch, identifier, args...)
	}()
	return f
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the invocation resolves.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.val, f.err
}
