// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubridge

import (
	"context"
	"fmt"

	"github.com/gogpu/gpubridge/wire"
)

// IsSupported asks the remote runtime whether WebGPU is available. The
// answer is relayed as-is.
//
// Callers must get true from IsSupported before constructing a Device. The
// check is made once; a Device never re-probes.
func IsSupported(ctx context.Context, ch Channel) (bool, error) {
	return Invoke[bool](ctx, ch, OpIsSupported)
}

// Open probes ch, requests an adapter and a device, and returns the Device.
// It fails with ErrNotSupported when the probe answers false or the browser
// has no adapter to offer. Adapter and device request failures keep the
// remote message for display.
func Open(ctx context.Context, ch Channel, opts ...Option) (*Device, error) {
	ok, err := IsSupported(ctx, ch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotSupported
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	adapter, err := Invoke[Token](ctx, ch, OpRequestAdapter, wire.AdapterOptions{
		PowerPreference: wire.PowerPreference(o.powerPreference),
	})
	if err != nil {
		return nil, fmt.Errorf("gpubridge: request adapter: %w", err)
	}
	if adapter == 0 {
		return nil, fmt.Errorf("%w: no adapter available", ErrNotSupported)
	}

	device, err := Invoke[Token](ctx, ch, OpRequestDevice, uint64(adapter), o.label)
	if err != nil {
		if _, rerr := ch.Invoke(ctx, OpRelease, uint64(adapter)); rerr != nil {
			Logger().Warn("gpubridge: release adapter failed", "err", rerr)
		}
		return nil, fmt.Errorf("gpubridge: request device: %w", err)
	}

	d := NewDevice(ch, adapter, device, opts...)
	Logger().Info("gpubridge: device opened", "adapter", d.adapter.String(), "device", d.device.String(), "label", o.label)
	return d, nil
}
