// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan backend

	"github.com/gogpu/gpubridge"
)

// ErrClosed is the transport cause once the Channel has been closed.
var ErrClosed = errors.New("native: channel closed")

func init() {
	gpubridge.RegisterTransport("native", func(context.Context, string) (gpubridge.Channel, error) {
		return New(), nil
	})
}

// Option configures a Channel.
type Option func(*Channel)

// WithDeviceProvider makes requestDevice hand out the provider's device
// instead of opening one, so a bridge Device can share the GPU with a host
// application. The provider must also implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue. A shared device is
// never destroyed by the Channel.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(c *Channel) {
		c.provider = p
	}
}

// Channel is an in-process gpubridge.Channel. Objects it creates live in
// an arena keyed by token, the way the browser runtime keeps them.
// It is safe for concurrent use; invocations are serialized.
type Channel struct {
	mu       sync.Mutex
	provider gpucontext.DeviceProvider
	instance hal.Instance
	objects  map[gpubridge.Token]*object
	next     gpubridge.Token
	closed   bool
}

var _ gpubridge.Channel = (*Channel)(nil)

// New returns a Channel. The HAL instance is created on the first adapter
// request.
func New(opts ...Option) *Channel {
	c := &Channel{objects: make(map[gpubridge.Token]*object)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke runs the operation named by the last dotted segment of
// identifier. Operations complete synchronously, so ctx is only checked
// before the call starts.
func (c *Channel) Invoke(ctx context.Context, identifier string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := identifier[strings.LastIndex(identifier, ".")+1:]
	op, ok := operations[name]
	if !ok {
		return nil, &gpubridge.RemoteError{Identifier: identifier, Message: "unknown identifier " + identifier}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, &gpubridge.TransportError{Identifier: identifier, Err: ErrClosed}
	}
	v, err := op(c, args)
	if err != nil {
		return nil, remoteError(identifier, err)
	}
	return v, nil
}

// Close destroys every object the Channel still holds, then the HAL
// instance. Shared devices are left alone.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for tok, o := range c.objects {
		if o.kind == kindDevice {
			c.destroyDevice(tok, o)
		}
	}
	clear(c.objects)
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
	return nil
}

// failure is an operation error with a remote cause.
type failure struct {
	cause   gpubridge.Cause
	message string
}

func (f *failure) Error() string { return f.message }

func fail(cause gpubridge.Cause, format string, args ...any) error {
	return &failure{cause: cause, message: fmt.Sprintf(format, args...)}
}

func remoteError(identifier string, err error) error {
	re := &gpubridge.RemoteError{Identifier: identifier, Message: err.Error()}
	var f *failure
	if errors.As(err, &f) {
		re.Cause = f.cause
	}
	return re
}

type kind uint8

const (
	kindAdapter kind = iota + 1
	kindDevice
	kindBuffer
	kindShaderModule
	kindPipeline
)

func (k kind) String() string {
	switch k {
	case kindAdapter:
		return "adapter"
	case kindDevice:
		return "device"
	case kindBuffer:
		return "buffer"
	case kindShaderModule:
		return "shader module"
	case kindPipeline:
		return "render pipeline"
	default:
		return "object"
	}
}

// object is one arena entry. Only the fields of its kind are set.
type object struct {
	kind  kind
	owner gpubridge.Token // creating device, for device-owned kinds

	adapter *hal.ExposedAdapter // nil when a provider supplies the device

	device   hal.Device
	queue    hal.Queue
	external bool
	lost     bool

	buffer   hal.Buffer
	shader   hal.ShaderModule
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
}

func (c *Channel) keep(o *object) gpubridge.Token {
	c.next++
	c.objects[c.next] = o
	return c.next
}

func (c *Channel) lookup(tok uint64, want kind) (*object, error) {
	o, ok := c.objects[gpubridge.Token(tok)]
	if !ok {
		return nil, fmt.Errorf("no object for token %d", tok)
	}
	if o.kind != want {
		return nil, fmt.Errorf("token %d is a %s, not a %s", tok, o.kind, want)
	}
	return o, nil
}

// liveDevice returns the device for tok, failing with a device-lost cause
// once it has been destroyed.
func (c *Channel) liveDevice(tok uint64) (*object, error) {
	o, err := c.lookup(tok, kindDevice)
	if err != nil {
		return nil, err
	}
	if o.lost {
		return nil, fail(gpubridge.CauseDeviceLost, "GPU device was lost: destroyed")
	}
	return o, nil
}

// owned looks up a device-owned object and checks it belongs to dev.
func (c *Channel) owned(dev, tok uint64, want kind) (*object, error) {
	o, err := c.lookup(tok, want)
	if err != nil {
		return nil, err
	}
	if o.owner != gpubridge.Token(dev) {
		return nil, fmt.Errorf("%s %d belongs to another device", want, tok)
	}
	return o, nil
}

// destroyObject frees the HAL resource behind a device-owned object.
func destroyObject(dev hal.Device, o *object) {
	switch o.kind {
	case kindBuffer:
		dev.DestroyBuffer(o.buffer)
	case kindShaderModule:
		dev.DestroyShaderModule(o.shader)
	case kindPipeline:
		dev.DestroyRenderPipeline(o.pipeline)
		dev.DestroyPipelineLayout(o.layout)
	}
}

// destroyDevice frees every object created on the device, then the device
// itself unless it is shared. The entry stays in the arena marked lost so
// later operations report device loss.
func (c *Channel) destroyDevice(tok gpubridge.Token, dev *object) {
	if dev.lost {
		return
	}
	for t, o := range c.objects {
		if o.owner == tok {
			destroyObject(dev.device, o)
			delete(c.objects, t)
		}
	}
	if !dev.external {
		dev.device.Destroy()
	}
	dev.lost = true
	dev.device, dev.queue = nil, nil
	gpubridge.Logger().Debug("native: device destroyed", "token", uint64(tok), "shared", dev.external)
}

// openInstance creates the HAL instance on first use.
func (c *Channel) openInstance() (hal.Instance, error) {
	if c.instance != nil {
		return c.instance, nil
	}
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	c.instance = instance
	return instance, nil
}

// halProvider is what a shared device provider must expose besides
// gpucontext.DeviceProvider.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

func (c *Channel) sharedDevice() (hal.Device, hal.Queue, error) {
	hp, ok := c.provider.(halProvider)
	if !ok {
		return nil, nil, errors.New("device provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, errors.New("device provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, errors.New("device provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}
