// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubridge

// Remote operation identifiers. The remote runtime exposes them under the
// webGpuInterop namespace; the Device only ever constructs them.
const (
	OpIsSupported              = "webGpuInterop.isSupported"
	OpRequestAdapter           = "webGpuInterop.requestAdapter"
	OpRequestDevice            = "webGpuInterop.requestDevice"
	OpGetPreferredCanvasFormat = "webGpuInterop.getPreferredCanvasFormat"
	OpGetCanvasContext         = "webGpuInterop.getCanvasContext"
	OpConfigureCanvasContext   = "webGpuInterop.configureCanvasContext"
	OpCreateBuffer             = "webGpuInterop.createBuffer"
	OpWriteBuffer              = "webGpuInterop.writeBuffer"
	OpCreateShaderModule       = "webGpuInterop.createShaderModule"
	OpCreateRenderPipeline     = "webGpuInterop.createRenderPipeline"
	OpRelease                  = "webGpuInterop.release"
	OpDestroyDevice            = "webGpuInterop.destroyDevice"
)
