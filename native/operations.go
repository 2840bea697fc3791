// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpubridge"
	"github.com/gogpu/gpubridge/wire"
)

// operation runs with the Channel lock held.
type operation func(c *Channel, args []any) (any, error)

// operations maps the last segment of an identifier to its handler.
var operations = map[string]operation{
	"isSupported":              (*Channel).isSupported,
	"requestAdapter":           (*Channel).requestAdapter,
	"requestDevice":            (*Channel).requestDevice,
	"getPreferredCanvasFormat": (*Channel).preferredCanvasFormat,
	"getCanvasContext":         noCanvas,
	"configureCanvasContext":   noCanvas,
	"createBuffer":             (*Channel).createBuffer,
	"writeBuffer":              (*Channel).writeBuffer,
	"createShaderModule":       (*Channel).createShaderModule,
	"createRenderPipeline":     (*Channel).createRenderPipeline,
	"release":                  (*Channel).release,
	"destroyDevice":            (*Channel).destroyDeviceOp,
}

// arg returns args[i] as T. Values of the exact type pass through; anything
// else is re-encoded, so JSON-shaped arguments work too.
func arg[T any](args []any, i int) (T, error) {
	var out T
	if i >= len(args) {
		return out, fmt.Errorf("missing argument %d", i)
	}
	if v, ok := args[i].(T); ok {
		return v, nil
	}
	if err := wire.Convert(args[i], &out); err != nil {
		return out, fmt.Errorf("argument %d: %w", i, err)
	}
	return out, nil
}

func (c *Channel) isSupported([]any) (any, error) {
	if c.provider != nil {
		return true, nil
	}
	_, ok := hal.GetBackend(gputypes.BackendVulkan)
	return ok, nil
}

// requestAdapter answers nil when no adapter is available, like
// navigator.gpu.requestAdapter.
func (c *Channel) requestAdapter(args []any) (any, error) {
	var opts wire.AdapterOptions
	if len(args) > 0 {
		var err error
		if opts, err = arg[wire.AdapterOptions](args, 0); err != nil {
			return nil, err
		}
	}
	if c.provider != nil {
		return c.keep(&object{kind: kindAdapter}), nil
	}

	instance, err := c.openInstance()
	if err != nil {
		gpubridge.Logger().Warn("native: no GPU instance", "err", err)
		return nil, nil
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, nil
	}
	selected := selectAdapter(adapters, opts.PowerPreference)
	gpubridge.Logger().Info("native: adapter selected", "name", selected.Info.Name)
	return c.keep(&object{kind: kindAdapter, adapter: selected}), nil
}

// selectAdapter prefers a discrete GPU for "high-performance", an
// integrated one for "low-power" and any hardware GPU otherwise.
func selectAdapter(adapters []hal.ExposedAdapter, preference string) *hal.ExposedAdapter {
	order := []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU}
	if preference == "low-power" {
		order[0], order[1] = order[1], order[0]
	}
	if preference == "" {
		for i := range adapters {
			if t := adapters[i].Info.DeviceType; t == order[0] || t == order[1] {
				return &adapters[i]
			}
		}
		return &adapters[0]
	}
	for _, want := range order {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

func (c *Channel) requestDevice(args []any) (any, error) {
	tok, err := arg[uint64](args, 0)
	if err != nil {
		return nil, err
	}
	adapter, err := c.lookup(tok, kindAdapter)
	if err != nil {
		return nil, err
	}
	label := ""
	if len(args) > 1 {
		label, _ = arg[string](args, 1)
	}

	if adapter.adapter == nil {
		device, queue, err := c.sharedDevice()
		if err != nil {
			return nil, err
		}
		return c.keep(&object{kind: kindDevice, device: device, queue: queue, external: true}), nil
	}
	opened, err := adapter.adapter.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	gpubridge.Logger().Debug("native: device opened", "label", label, "adapter", adapter.adapter.Info.Name)
	return c.keep(&object{kind: kindDevice, device: opened.Device, queue: opened.Queue}), nil
}

// preferredCanvasFormat is the provider's surface format, or BGRA8 which
// is what swapchains use on most platforms.
func (c *Channel) preferredCanvasFormat([]any) (any, error) {
	format := gputypes.TextureFormatBGRA8Unorm
	if c.provider != nil {
		if f := c.provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			format = f
		}
	}
	return wire.TextureFormat(format)
}

func noCanvas(*Channel, []any) (any, error) {
	return nil, errors.New("no canvas outside a browser")
}

func (c *Channel) createBuffer(args []any) (any, error) {
	devTok, err := arg[uint64](args, 0)
	if err != nil {
		return nil, err
	}
	desc, err := arg[wire.BufferDescriptor](args, 1)
	if err != nil {
		return nil, err
	}
	dev, err := c.liveDevice(devTok)
	if err != nil {
		return nil, err
	}
	buf, err := dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: gputypes.BufferUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}
	return c.keep(&object{kind: kindBuffer, owner: gpubridge.Token(devTok), buffer: buf}), nil
}

func (c *Channel) writeBuffer(args []any) (any, error) {
	devTok, err := arg[uint64](args, 0)
	if err != nil {
		return nil, err
	}
	bufTok, err := arg[uint64](args, 1)
	if err != nil {
		return nil, err
	}
	offset, err := arg[uint64](args, 2)
	if err != nil {
		return nil, err
	}
	data, err := arg[[]byte](args, 3)
	if err != nil {
		return nil, err
	}
	dev, err := c.liveDevice(devTok)
	if err != nil {
		return nil, err
	}
	buf, err := c.owned(devTok, bufTok, kindBuffer)
	if err != nil {
		return nil, err
	}
	dev.queue.WriteBuffer(buf.buffer, offset, data)
	return nil, nil
}

func (c *Channel) createShaderModule(args []any) (any, error) {
	devTok, err := arg[uint64](args, 0)
	if err != nil {
		return nil, err
	}
	desc, err := arg[wire.ShaderModuleDescriptor](args, 1)
	if err != nil {
		return nil, err
	}
	dev, err := c.liveDevice(devTok)
	if err != nil {
		return nil, err
	}
	if err := validateWGSL(desc.Code); err != nil {
		return nil, err
	}
	module, err := dev.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{WGSL: desc.Code},
	})
	if err != nil {
		return nil, fail(gpubridge.CauseCompilationError, "%v", err)
	}
	return c.keep(&object{kind: kindShaderModule, owner: gpubridge.Token(devTok), shader: module}), nil
}

func (c *Channel) createRenderPipeline(args []any) (any, error) {
	devTok, err := arg[uint64](args, 0)
	if err != nil {
		return nil, err
	}
	desc, err := arg[wire.RenderPipelineDescriptor](args, 1)
	if err != nil {
		return nil, err
	}
	dev, err := c.liveDevice(devTok)
	if err != nil {
		return nil, err
	}
	if desc.Layout != "" && desc.Layout != wire.LayoutAuto {
		return nil, fmt.Errorf("layout %q is not supported", desc.Layout)
	}
	vs, err := c.owned(devTok, desc.Vertex.Module, kindShaderModule)
	if err != nil {
		return nil, err
	}
	buffers, err := vertexBuffers(desc.Vertex.Buffers)
	if err != nil {
		return nil, err
	}
	primitive, err := primitiveState(desc.Primitive)
	if err != nil {
		return nil, err
	}
	pd := &hal.RenderPipelineDescriptor{
		Label: desc.Label,
		Vertex: hal.VertexState{
			Module:     vs.shader,
			EntryPoint: entryPoint(desc.Vertex.EntryPoint, "vs_main"),
			Buffers:    buffers,
		},
		Primitive: primitive,
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if f := desc.Fragment; f != nil {
		fs, err := c.owned(devTok, f.Module, kindShaderModule)
		if err != nil {
			return nil, err
		}
		targets, err := colorTargets(f.Targets)
		if err != nil {
			return nil, err
		}
		pd.Fragment = &hal.FragmentState{
			Module:     fs.shader,
			EntryPoint: entryPoint(f.EntryPoint, "fs_main"),
			Targets:    targets,
		}
	}

	layout, err := dev.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: desc.Label,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	pd.Layout = layout
	pipeline, err := dev.device.CreateRenderPipeline(pd)
	if err != nil {
		dev.device.DestroyPipelineLayout(layout)
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	return c.keep(&object{kind: kindPipeline, owner: gpubridge.Token(devTok), layout: layout, pipeline: pipeline}), nil
}

// release frees one object. Unknown tokens are ignored so a second release
// is harmless. Objects of a destroyed device are already gone.
func (c *Channel) release(args []any) (any, error) {
	tok, err := arg[uint64](args, 0)
	if err != nil {
		return nil, err
	}
	o, ok := c.objects[gpubridge.Token(tok)]
	if !ok {
		return nil, nil
	}
	switch o.kind {
	case kindAdapter:
	case kindDevice:
		c.destroyDevice(gpubridge.Token(tok), o)
	default:
		if dev, ok := c.objects[o.owner]; ok && !dev.lost {
			destroyObject(dev.device, o)
		}
	}
	delete(c.objects, gpubridge.Token(tok))
	return nil, nil
}

func (c *Channel) destroyDeviceOp(args []any) (any, error) {
	tok, err := arg[uint64](args, 0)
	if err != nil {
		return nil, err
	}
	dev, err := c.lookup(tok, kindDevice)
	if err != nil {
		return nil, err
	}
	c.destroyDevice(gpubridge.Token(tok), dev)
	return nil, nil
}
