// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubridge

import "github.com/gogpu/gputypes"

// Option configures Open and NewDevice.
//
// Example:
//
//	dev, err := gpubridge.Open(ctx, ch,
//	    gpubridge.WithPowerPreference(gputypes.PowerPreferenceHighPerformance),
//	    gpubridge.WithShaderValidation(),
//	)
type Option func(*options)

// options holds optional configuration for a Device.
type options struct {
	label           string
	powerPreference gputypes.PowerPreference
	validateShaders bool
}

func defaultOptions() options {
	return options{
		label: "gpubridge-device",
	}
}

// WithLabel sets the debug label of the requested device.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithPowerPreference sets the adapter power preference used by Open.
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(o *options) {
		o.powerPreference = p
	}
}

// WithShaderValidation compiles WGSL locally with naga before sending it
// across the boundary. A local failure is reported as
// *ShaderCompilationError and no invocation is made.
//
// naga does not implement every WGSL feature yet, so validation is opt-in.
func WithShaderValidation() Option {
	return func(o *options) {
		o.validateShaders = true
	}
}
