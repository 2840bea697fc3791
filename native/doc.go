// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native answers gpubridge invocations in-process on the wgpu HAL
// instead of a browser. It lets a Device run headless, in tests and on
// machines without a WebGPU-capable browser:
//
//	ch, _ := gpubridge.Dial(ctx, "native", "")
//	dev, _ := gpubridge.Open(ctx, ch)
//
// Only the webGpuInterop operations the Device issues are understood. There
// is no canvas outside a browser, so canvas operations fail with a remote
// error. Build with the nogpu tag to leave the transport out.
package native
