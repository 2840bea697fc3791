//go:build js && wasm

package jsbridge

import (
	"context"
	"errors"
	"syscall/js"
	"testing"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/wire"
)

// installFake puts a fake runtime at globalThis.fakeInterop.
func installFake(t *testing.T) {
	t.Helper()
	obj := js.Global().Get("Object").New()
	funcs := map[string]js.Func{
		"supported": js.FuncOf(func(js.Value, []js.Value) any { return true }),
		"create": js.FuncOf(func(js.Value, []js.Value) any {
			ref := js.Global().Get("Object").New()
			ref.Set("ref", 7)
			return js.Global().Get("Promise").Call("resolve", ref)
		}),
		"echoSize": js.FuncOf(func(_ js.Value, args []js.Value) any {
			return args[1].Get("size")
		}),
		"byteLen": js.FuncOf(func(_ js.Value, args []js.Value) any {
			return args[0].Get("length")
		}),
		"lost": js.FuncOf(func(js.Value, []js.Value) any {
			e := js.Global().Get("Error").New("GPU device was lost")
			e.Set("cause", "DeviceLost")
			return js.Global().Get("Promise").Call("reject", e)
		}),
	}
	for name, fn := range funcs {
		obj.Set(name, fn)
	}
	obj.Set("throws", js.Global().Get("Function").New("throw new TypeError('boom')"))
	js.Global().Set("fakeInterop", obj)
	t.Cleanup(func() {
		js.Global().Delete("fakeInterop")
		for _, fn := range funcs {
			fn.Release()
		}
	})
}

func TestInvoke(t *testing.T) {
	installFake(t)
	ctx := context.Background()
	c := New()

	ok, err := gpubridge.Invoke[bool](ctx, c, "fakeInterop.supported")
	if err != nil || !ok {
		t.Errorf("supported = %v, %v", ok, err)
	}

	v, err := c.Invoke(ctx, "fakeInterop.create")
	if err != nil || v != gpubridge.Token(7) {
		t.Errorf("create = %#v, %v; want Token(7)", v, err)
	}

	size, err := gpubridge.Invoke[int](ctx, c, "fakeInterop.echoSize", uint64(1), wire.BufferDescriptor{Size: 64})
	if err != nil || size != 64 {
		t.Errorf("echoSize = %d, %v", size, err)
	}

	n, err := gpubridge.Invoke[int](ctx, c, "fakeInterop.byteLen", []byte{1, 2, 3})
	if err != nil || n != 3 {
		t.Errorf("byteLen = %d, %v", n, err)
	}
}

func TestInvokeErrors(t *testing.T) {
	installFake(t)
	ctx := context.Background()
	c := New()

	_, err := c.Invoke(ctx, "fakeInterop.lost")
	var re *gpubridge.RemoteError
	if !errors.As(err, &re) || re.Cause != gpubridge.CauseDeviceLost || re.Message != "GPU device was lost" {
		t.Errorf("lost error = %v, want device-lost RemoteError", err)
	}

	_, err = c.Invoke(ctx, "fakeInterop.throws")
	if !errors.As(err, &re) || re.Cause != gpubridge.CauseUnknown || re.Message != "boom" {
		t.Errorf("throws error = %v, want RemoteError", err)
	}

	if _, err := c.Invoke(ctx, "noSuchGlobal.fn"); !errors.Is(err, gpubridge.ErrTransport) || !errors.Is(err, ErrNotFound) {
		t.Errorf("Invoke(missing runtime) error = %v, want transport error", err)
	}
	for _, id := range []string{"fakeInterop.missing", "fakeInterop.missing.deeper", "fakeInterop"} {
		_, err := c.Invoke(ctx, id)
		if !errors.As(err, &re) || errors.Is(err, gpubridge.ErrTransport) || re.Message != "unknown identifier "+id {
			t.Errorf("Invoke(%q) error = %v, want unknown identifier RemoteError", id, err)
		}
	}
}
