// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubridge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/gpubridge/cache"
	"github.com/gogpu/gpubridge/wire"
)

// wgslChecks memoizes local validation by source text. Applications tend
// to submit the same WGSL many times.
var wgslChecks = cache.NewSharded[string, error](cache.DefaultCapacity, cache.StringHasher)

func validateWGSL(code string) error {
	return wgslChecks.GetOrCreate(code, func() error {
		_, err := naga.Compile(code)
		return err
	})
}

// DeviceState is the lifecycle state of a Device.
type DeviceState uint32

const (
	// StateReady accepts operations.
	StateReady DeviceState = iota
	// StateLost is terminal. Every operation fails with ErrDeviceLost
	// without reaching the remote runtime.
	StateLost
)

func (s DeviceState) String() string {
	if s == StateLost {
		return "lost"
	}
	return "ready"
}

// Device is a typed facade over a Channel for one remote GPU device.
//
// Operations translate to a single invocation each. Remote failures pass
// through unchanged, except that shader compilation failures become
// *ShaderCompilationError and device loss becomes ErrDeviceLost. After the
// first device loss the Device is lost for good; construct a new one
// against a freshly probed device.
//
// Handles created before the loss stay valid values, but every operation
// that would use them fails fast with ErrDeviceLost.
//
// A Device is meant to be driven by one logical caller. Independent
// operations may still be issued from several goroutines; ordering between
// them is not guaranteed.
type Device struct {
	ch      Channel
	opts    options
	adapter Handle
	device  Handle
	handles *handleTable
	lost    atomic.Bool
}

// NewDevice builds a Device from tokens obtained through a Channel. It does
// not probe for support; use Open for the documented construction path.
func NewDevice(ch Channel, adapter, device Token, opts ...Option) *Device {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d := &Device{ch: ch, opts: o, handles: newHandleTable()}
	d.adapter = d.handles.adopt(adapter, KindAdapter)
	d.device = d.handles.adopt(device, KindDevice)
	return d
}

// State reports whether the device is ready or lost.
func (d *Device) State() DeviceState {
	if d.lost.Load() {
		return StateLost
	}
	return StateReady
}

// Adapter returns the adapter handle the device was requested from.
func (d *Device) Adapter() Handle { return d.adapter }

// Handle returns the device handle.
func (d *Device) Handle() Handle { return d.device }

// LiveHandles returns the number of unreleased handles, including the
// adapter and device.
func (d *Device) LiveHandles() int { return d.handles.len() }

// CreateBuffer creates a GPU buffer.
func (d *Device) CreateBuffer(ctx context.Context, desc BufferDescriptor) (Handle, error) {
	if err := d.ready(OpCreateBuffer); err != nil {
		return Handle{}, err
	}
	return d.create(ctx, OpCreateBuffer, KindBuffer, uint64(d.device.token), desc.encode())
}

// WriteBuffer copies data into buf at offset.
func (d *Device) WriteBuffer(ctx context.Context, buf Handle, offset uint64, data []byte) error {
	if err := d.ready(OpWriteBuffer); err != nil {
		return err
	}
	if err := d.handles.check(OpWriteBuffer, buf, KindBuffer); err != nil {
		return err
	}
	if _, err := d.ch.Invoke(ctx, OpWriteBuffer, uint64(d.device.token), uint64(buf.token), offset, data); err != nil {
		return d.fail(OpWriteBuffer, err)
	}
	return nil
}

// CreateShaderModule creates a shader module from WGSL source.
func (d *Device) CreateShaderModule(ctx context.Context, desc ShaderModuleDescriptor) (Handle, error) {
	if err := d.ready(OpCreateShaderModule); err != nil {
		return Handle{}, err
	}
	if d.opts.validateShaders {
		if err := validateWGSL(desc.Code); err != nil {
			return Handle{}, &ShaderCompilationError{Message: err.Error()}
		}
	}
	return d.create(ctx, OpCreateShaderModule, KindShaderModule, uint64(d.device.token), desc.encode())
}

// CreateRenderPipeline creates a render pipeline. The shader modules it
// references are borrowed; the caller still owns and releases them.
func (d *Device) CreateRenderPipeline(ctx context.Context, desc RenderPipelineDescriptor) (Handle, error) {
	if err := d.ready(OpCreateRenderPipeline); err != nil {
		return Handle{}, err
	}
	w, err := d.encodePipeline(desc)
	if err != nil {
		return Handle{}, err
	}
	return d.create(ctx, OpCreateRenderPipeline, KindPipeline, uint64(d.device.token), w)
}

func (d *Device) encodePipeline(desc RenderPipelineDescriptor) (wire.RenderPipelineDescriptor, error) {
	w := wire.RenderPipelineDescriptor{Label: desc.Label, Layout: wire.LayoutAuto}
	if err := d.handles.check(OpCreateRenderPipeline, desc.Vertex.Module, KindShaderModule); err != nil {
		return w, err
	}
	buffers, err := encodeVertexBuffers(desc.Vertex.Buffers)
	if err != nil {
		return w, fmt.Errorf("gpubridge: %s: %w", OpCreateRenderPipeline, err)
	}
	w.Vertex = wire.VertexState{
		Module:     uint64(desc.Vertex.Module.token),
		EntryPoint: desc.Vertex.EntryPoint,
		Buffers:    buffers,
	}
	if f := desc.Fragment; f != nil {
		if err := d.handles.check(OpCreateRenderPipeline, f.Module, KindShaderModule); err != nil {
			return w, err
		}
		targets, err := encodeTargets(f.Targets)
		if err != nil {
			return w, fmt.Errorf("gpubridge: %s: %w", OpCreateRenderPipeline, err)
		}
		w.Fragment = &wire.FragmentState{
			Module:     uint64(f.Module.token),
			EntryPoint: f.EntryPoint,
			Targets:    targets,
		}
	}
	if w.Primitive, err = encodePrimitive(desc.Primitive); err != nil {
		return w, fmt.Errorf("gpubridge: %s: %w", OpCreateRenderPipeline, err)
	}
	return w, nil
}

// CanvasContext returns the WebGPU context of the canvas matched by the
// CSS selector.
func (d *Device) CanvasContext(ctx context.Context, selector string) (Handle, error) {
	if err := d.ready(OpGetCanvasContext); err != nil {
		return Handle{}, err
	}
	return d.create(ctx, OpGetCanvasContext, KindCanvasContext, selector)
}

// ConfigureCanvas binds a canvas context to this device.
func (d *Device) ConfigureCanvas(ctx context.Context, canvas Handle, cfg CanvasConfiguration) error {
	if err := d.ready(OpConfigureCanvasContext); err != nil {
		return err
	}
	if err := d.handles.check(OpConfigureCanvasContext, canvas, KindCanvasContext); err != nil {
		return err
	}
	format, err := wire.TextureFormat(cfg.Format)
	if err != nil {
		return fmt.Errorf("gpubridge: %s: %w", OpConfigureCanvasContext, err)
	}
	alpha := cfg.AlphaMode
	if alpha == "" {
		alpha = AlphaOpaque
	}
	w := wire.CanvasConfiguration{Device: uint64(d.device.token), Format: format, AlphaMode: string(alpha)}
	if _, err := d.ch.Invoke(ctx, OpConfigureCanvasContext, uint64(canvas.token), w); err != nil {
		return d.fail(OpConfigureCanvasContext, err)
	}
	return nil
}

// PreferredCanvasFormat returns the texture format the browser prefers for
// canvas presentation.
func (d *Device) PreferredCanvasFormat(ctx context.Context) (gputypes.TextureFormat, error) {
	if err := d.ready(OpGetPreferredCanvasFormat); err != nil {
		return gputypes.TextureFormatUndefined, err
	}
	name, err := Invoke[string](ctx, d.ch, OpGetPreferredCanvasFormat)
	if err != nil {
		return gputypes.TextureFormatUndefined, d.fail(OpGetPreferredCanvasFormat, err)
	}
	return wire.ParseTextureFormat(name)
}

// Release disposes of the remote object behind h. Releasing a handle that
// is already released is a no-op. Once released, any use of h fails with
// ErrHandleInvalid. A handle issued by another Device is rejected with a
// *HandleError and nothing is freed.
//
// On a lost device the handle is dropped locally and ErrDeviceLost is
// returned without reaching the remote runtime.
func (d *Device) Release(ctx context.Context, h Handle) error {
	if h == d.device || h == d.adapter {
		return &HandleError{Handle: h, Op: OpRelease, Reason: "owned by the Device; use Destroy"}
	}
	if h.owner != d.handles.owner {
		return &HandleError{Handle: h, Op: OpRelease, Reason: "issued by another device"}
	}
	if !d.handles.forget(h) {
		return nil
	}
	if d.lost.Load() {
		return ErrDeviceLost
	}
	if _, err := d.ch.Invoke(ctx, OpRelease, uint64(h.token)); err != nil {
		Logger().Warn("gpubridge: release failed", "handle", h.String(), "err", err)
		return d.fail(OpRelease, err)
	}
	return nil
}

// Destroy destroys the remote device and invalidates every handle issued
// through d. Destroying twice is a no-op. On a lost device only the local
// state is dropped and ErrDeviceLost is returned.
func (d *Device) Destroy(ctx context.Context) error {
	if !d.handles.forget(d.device) {
		return nil
	}
	d.handles.clear()
	if d.lost.Load() {
		return ErrDeviceLost
	}
	if _, err := d.ch.Invoke(ctx, OpDestroyDevice, uint64(d.device.token)); err != nil {
		return d.fail(OpDestroyDevice, err)
	}
	Logger().Info("gpubridge: device destroyed", "device", d.device.String())
	return nil
}

// ready fails fast on a lost or destroyed device.
func (d *Device) ready(op string) error {
	if d.lost.Load() {
		return ErrDeviceLost
	}
	return d.handles.check(op, d.device, KindDevice)
}

// create invokes op and adopts the returned token as a handle of kind.
func (d *Device) create(ctx context.Context, op string, kind HandleKind, args ...any) (Handle, error) {
	tok, err := Invoke[Token](ctx, d.ch, op, args...)
	if err != nil {
		return Handle{}, d.fail(op, err)
	}
	if tok == 0 {
		return Handle{}, &RemoteError{Identifier: op, Message: "remote runtime returned no object"}
	}
	return d.handles.adopt(tok, kind), nil
}

// fail translates the two remote causes the Device recognizes. Everything
// else is returned unchanged.
func (d *Device) fail(op string, err error) error {
	switch classify(err) {
	case CauseDeviceLost:
		msg := remoteMessage(err)
		if d.lost.CompareAndSwap(false, true) {
			Logger().Warn("gpubridge: device lost", "device", d.device.String(), "op", op, "reason", msg)
		}
		return fmt.Errorf("%w: %s", ErrDeviceLost, msg)
	case CauseCompilationError:
		return &ShaderCompilationError{Message: remoteMessage(err)}
	}
	return err
}

// IsDeviceLost reports whether err means the device must be re-probed and
// reconstructed.
func IsDeviceLost(err error) bool { return errors.Is(err, ErrDeviceLost) }
