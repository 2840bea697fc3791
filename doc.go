// Package gpubridge drives a browser's WebGPU implementation from Go.
//
// # Overview
//
// WebGPU objects live on the far side of an interop boundary: in a browser
// tab, a wasm host page or a local wgpu device. gpubridge never touches them
// directly. It sends named operations through a Channel and keeps only the
// opaque tokens the remote runtime hands back, wrapped in typed Handles.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/gpubridge"
//		_ "github.com/gogpu/gpubridge/wsbridge"
//	)
//
//	ch, err := gpubridge.Dial(ctx, "ws-listen", "127.0.0.1:8080")
//	dev, err := gpubridge.Open(ctx, ch)
//	defer dev.Destroy(ctx)
//
//	buf, err := dev.CreateBuffer(ctx, gpubridge.BufferDescriptor{
//		Size:  64,
//		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
//	})
//
// # Transports
//
// A transport turns an address into a Channel. Import the package that
// registers it:
//   - wsbridge: "ws" dials a tab running the shim runtime, "ws-listen"
//     serves the bootstrap page and waits for a tab to connect
//   - jsbridge: "js" calls the runtime in the same page (js/wasm only)
//   - native: "native" answers in-process on a wgpu HAL device
//
// interoptest provides a scriptable Channel for tests.
//
// # Errors
//
// Transport failures match ErrTransport and are fatal to one invocation
// only. A device-lost failure is terminal: the Device stops issuing
// invocations and every later call fails with ErrDeviceLost. Shader
// compilation failures keep the remote diagnostic in
// *ShaderCompilationError and leave the Device usable.
//
// # Logging
//
// The package is silent by default. Call SetLogger with a *slog.Logger to
// see device lifecycle and, at debug level, every invocation.
package gpubridge

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
