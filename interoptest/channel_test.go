package interoptest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gpubridge"
)

func TestDefaultSuccess(t *testing.T) {
	ctx := context.Background()
	ch := NewChannel()

	ok, err := gpubridge.Invoke[bool](ctx, ch, gpubridge.OpIsSupported)
	if err != nil || !ok {
		t.Fatalf("isSupported = %v, %v; want true, nil", ok, err)
	}

	seen := make(map[gpubridge.Token]bool)
	for _, id := range []string{"webGpuInterop.createBuffer", "webGpuInterop.somethingNew", "other.namespace.call"} {
		tok, err := gpubridge.Invoke[gpubridge.Token](ctx, ch, id)
		if err != nil {
			t.Fatalf("Invoke(%q) error = %v", id, err)
		}
		if tok == 0 || seen[tok] {
			t.Errorf("Invoke(%q) = %d, want a fresh non-zero token", id, tok)
		}
		seen[tok] = true
	}

	format, err := gpubridge.Invoke[string](ctx, ch, gpubridge.OpGetPreferredCanvasFormat)
	if err != nil || format != "bgra8unorm" {
		t.Errorf("getPreferredCanvasFormat = %q, %v", format, err)
	}
}

func TestRecordLastWriteWins(t *testing.T) {
	ctx := context.Background()
	ch := NewChannel()

	if ch.Invoked("a.b") {
		t.Fatal("Invoked before any call")
	}
	_, _ = ch.Invoke(ctx, "a.b", 1, "first")
	_, _ = ch.Invoke(ctx, "a.b", 2, "second")
	_, _ = ch.Invoke(ctx, "c.d")

	if !ch.Invoked("a.b") || !ch.Invoked("c.d") {
		t.Error("Invoked() = false for called identifiers")
	}
	args, ok := ch.Args("a.b")
	if !ok || len(args) != 2 || args[0] != 2 || args[1] != "second" {
		t.Errorf("Args(a.b) = %v, %v; want [2 second]", args, ok)
	}
	if got := ch.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
	if got := len(ch.Record()); got != 2 {
		t.Errorf("len(Record()) = %d, want 2", got)
	}
}

func TestArgsAreCopied(t *testing.T) {
	ch := NewChannel()
	args := []any{"x"}
	_, _ = ch.Invoke(context.Background(), "a.b", args...)
	args[0] = "mutated"

	got, _ := ch.Args("a.b")
	if got[0] != "x" {
		t.Errorf("recorded args changed with caller slice: %v", got)
	}
	got[0] = "mutated"
	again, _ := ch.Args("a.b")
	if again[0] != "x" {
		t.Errorf("Args() returned the internal slice: %v", again)
	}
}

func TestStubs(t *testing.T) {
	ctx := context.Background()
	ch := NewChannel()
	boom := errors.New("boom")

	ch.Stub(gpubridge.OpIsSupported, false)
	ch.StubError("a.fail", boom)

	ok, err := gpubridge.Invoke[bool](ctx, ch, gpubridge.OpIsSupported)
	if err != nil || ok {
		t.Errorf("stubbed isSupported = %v, %v; want false", ok, err)
	}
	if _, err := ch.Invoke(ctx, "a.fail"); !errors.Is(err, boom) {
		t.Errorf("stubbed error = %v, want %v", err, boom)
	}
	if _, err := ch.Invoke(ctx, "a.other"); err != nil {
		t.Errorf("unstubbed identifier failed: %v", err)
	}
}

func TestSimulateShaderCompilationError(t *testing.T) {
	ctx := context.Background()
	ch := NewChannel()
	ch.SimulateShaderCompilationError("bad syntax")

	_, err := ch.Invoke(ctx, gpubridge.OpCreateShaderModule)
	var re *gpubridge.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	if re.Cause != gpubridge.CauseCompilationError || re.Message != "bad syntax" {
		t.Errorf("RemoteError = %+v", re)
	}
	if _, err := ch.Invoke(ctx, gpubridge.OpCreateBuffer); err != nil {
		t.Errorf("other identifiers must keep succeeding, got %v", err)
	}
}

func TestSimulateDeviceLostOverridesEverything(t *testing.T) {
	ctx := context.Background()
	ch := NewChannel()
	ch.Stub("a.b", "value")
	ch.SimulateDeviceLost()

	for _, id := range []string{"a.b", gpubridge.OpIsSupported, gpubridge.OpCreateBuffer} {
		_, err := ch.Invoke(ctx, id)
		var re *gpubridge.RemoteError
		if !errors.As(err, &re) || re.Cause != gpubridge.CauseDeviceLost || re.Identifier != id {
			t.Errorf("Invoke(%q) error = %v, want device-lost RemoteError", id, err)
		}
	}
}

func TestSimulateDisconnect(t *testing.T) {
	ch := NewChannel()
	ch.SimulateDisconnect()

	_, err := ch.Invoke(context.Background(), gpubridge.OpCreateBuffer)
	if !errors.Is(err, gpubridge.ErrTransport) || !errors.Is(err, ErrDisconnected) {
		t.Errorf("error = %v, want ErrTransport wrapping ErrDisconnected", err)
	}
}

func TestLatency(t *testing.T) {
	ch := NewChannel()
	ch.SetLatency(20 * time.Millisecond)

	start := time.Now()
	if _, err := ch.Invoke(context.Background(), "a.b"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Invoke returned after %v, want >= 20ms", elapsed)
	}

	ch.SetLatency(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := ch.Invoke(ctx, "a.b"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	ch := NewChannel()
	first, _ := gpubridge.Invoke[gpubridge.Token](ctx, ch, "a.b")
	ch.SimulateDeviceLost()
	ch.Reset()

	if ch.Invoked("a.b") || ch.Count() != 0 {
		t.Error("Reset() kept the record")
	}
	second, err := gpubridge.Invoke[gpubridge.Token](ctx, ch, "a.b")
	if err != nil {
		t.Fatalf("Invoke after Reset error = %v", err)
	}
	if second == first {
		t.Errorf("token %d reused after Reset", second)
	}
}
