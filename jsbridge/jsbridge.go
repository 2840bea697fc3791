// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

// Package jsbridge is the in-page gpubridge.Channel for programs compiled
// to js/wasm. Identifiers are resolved as dotted paths from the JavaScript
// global object, so "webGpuInterop.createBuffer" calls
// globalThis.webGpuInterop.createBuffer. Load the shim runtime before the
// wasm module starts.
//
// Invoke blocks the calling goroutine while the returned Promise settles.
// Do not call it from a js.Func callback; the callback must return first.
package jsbridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/wire"
)

// ErrNotFound is the transport cause when the root object of an
// identifier is missing from the page, which means the runtime script was
// never loaded. A loaded runtime without the named function answers with a
// RemoteError instead, as the other channels do.
var ErrNotFound = errors.New("jsbridge: runtime not found")

func init() {
	gpubridge.RegisterTransport("js", func(context.Context, string) (gpubridge.Channel, error) {
		return New(), nil
	})
}

// Channel invokes functions on the page's global object.
type Channel struct {
	global js.Value
}

var _ gpubridge.Channel = (*Channel)(nil)

// New returns a Channel rooted at js.Global().
func New() *Channel {
	return &Channel{global: js.Global()}
}

// Invoke calls identifier with args and waits for the result.
func (c *Channel) Invoke(ctx context.Context, identifier string, args ...any) (any, error) {
	target, fn, err := c.resolve(identifier)
	if errors.Is(err, ErrNotFound) {
		return nil, &gpubridge.TransportError{Identifier: identifier, Err: err}
	}
	if err != nil {
		return nil, &gpubridge.RemoteError{Identifier: identifier, Message: err.Error()}
	}
	jsArgs, err := toJS(args)
	if err != nil {
		return nil, fmt.Errorf("jsbridge: encode %s: %w", identifier, err)
	}

	result, err := call(target, fn, jsArgs)
	if err != nil {
		return nil, remoteError(identifier, err)
	}
	if isThenable(result) {
		return c.await(ctx, identifier, result)
	}
	return fromJS(identifier, result)
}

// resolve walks the dotted path and returns the owning object and the
// function. A missing root fails with ErrNotFound.
func (c *Channel) resolve(identifier string) (js.Value, js.Value, error) {
	parts := strings.Split(identifier, ".")
	if root := c.global.Get(parts[0]); root.IsUndefined() || root.IsNull() {
		return js.Value{}, js.Value{}, fmt.Errorf("%w: %s", ErrNotFound, parts[0])
	}
	unknown := fmt.Errorf("unknown identifier %s", identifier)
	owner := c.global
	v := c.global
	for _, p := range parts {
		if v.IsUndefined() || v.IsNull() {
			return js.Value{}, js.Value{}, unknown
		}
		owner = v
		v = v.Get(p)
	}
	if len(parts) < 2 || v.Type() != js.TypeFunction {
		return js.Value{}, js.Value{}, unknown
	}
	return owner, v, nil
}

// jsError carries a thrown JavaScript value.
type jsError struct{ v js.Value }

func (e jsError) Error() string { return errorMessage(e.v) }

// call invokes fn with this=target and turns a synchronous throw into an
// error.
func call(target, fn js.Value, args []any) (result js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if jerr, ok := r.(js.Error); ok {
				err = jsError{jerr.Value}
				return
			}
			panic(r)
		}
	}()
	return fn.Call("apply", target, js.ValueOf(args)), nil
}

func (c *Channel) await(ctx context.Context, identifier string, promise js.Value) (any, error) {
	type settled struct {
		v   js.Value
		err error
	}
	done := make(chan settled, 1)
	onOK := js.FuncOf(func(_ js.Value, a []js.Value) any {
		v := js.Undefined()
		if len(a) > 0 {
			v = a[0]
		}
		done <- settled{v: v}
		return nil
	})
	onErr := js.FuncOf(func(_ js.Value, a []js.Value) any {
		v := js.Undefined()
		if len(a) > 0 {
			v = a[0]
		}
		done <- settled{err: jsError{v}}
		return nil
	})
	promise.Call("then", onOK, onErr)

	select {
	case s := <-done:
		onOK.Release()
		onErr.Release()
		if s.err != nil {
			return nil, remoteError(identifier, s.err)
		}
		return fromJS(identifier, s.v)
	case <-ctx.Done():
		// The Promise still settles; release the callbacks once it does.
		go func() {
			<-done
			onOK.Release()
			onErr.Release()
		}()
		return nil, ctx.Err()
	}
}

func isThenable(v js.Value) bool {
	return v.Type() == js.TypeObject && v.Get("then").Type() == js.TypeFunction
}

func remoteError(identifier string, err error) error {
	re := &gpubridge.RemoteError{Identifier: identifier, Message: err.Error()}
	var jerr jsError
	if errors.As(err, &jerr) && jerr.v.Type() == js.TypeObject {
		if cause := jerr.v.Get("cause"); cause.Type() == js.TypeString {
			re.Cause = gpubridge.ParseCause(cause.String())
		}
		if re.Cause == gpubridge.CauseUnknown {
			if name := jerr.v.Get("constructor").Get("name"); name.Type() == js.TypeString {
				re.Cause = gpubridge.ParseCause(name.String())
			}
		}
	}
	return re
}

func errorMessage(v js.Value) string {
	if v.Type() == js.TypeObject {
		if m := v.Get("message"); m.Type() == js.TypeString {
			return m.String()
		}
	}
	if v.IsUndefined() {
		return "undefined"
	}
	return js.Global().Get("String").Invoke(v).String()
}

// toJS converts Go arguments. Byte slices become Uint8Array; everything
// else goes through JSON so wire descriptors keep their field names.
func toJS(args []any) ([]any, error) {
	out := make([]any, len(args))
	parse := js.Global().Get("JSON").Get("parse")
	for i, a := range args {
		switch v := a.(type) {
		case nil:
			out[i] = js.Null()
		case []byte:
			arr := js.Global().Get("Uint8Array").New(len(v))
			js.CopyBytesToJS(arr, v)
			out[i] = arr
		case bool, string, float64, int, uint32, int64:
			out[i] = js.ValueOf(v)
		case uint64:
			out[i] = js.ValueOf(float64(v))
		case gpubridge.Token:
			out[i] = js.ValueOf(float64(v))
		default:
			data, err := wire.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out[i] = parse.Invoke(string(data))
		}
	}
	return out, nil
}

// fromJS maps a JavaScript result onto the Channel result contract.
func fromJS(identifier string, v js.Value) (any, error) {
	switch v.Type() {
	case js.TypeUndefined, js.TypeNull:
		return nil, nil
	case js.TypeBoolean:
		return v.Bool(), nil
	case js.TypeNumber:
		return v.Float(), nil
	case js.TypeString:
		return v.String(), nil
	case js.TypeObject:
		if ref := v.Get("ref"); ref.Type() == js.TypeNumber {
			return gpubridge.Token(ref.Int()), nil
		}
		s := js.Global().Get("JSON").Call("stringify", v)
		return wire.Raw(s.String()), nil
	}
	return nil, fmt.Errorf("jsbridge: %s returned unsupported %s", identifier, v.Type())
}
