// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubridge

import (
	"errors"
	"fmt"
	"strings"
)

// Boundary errors.
var (
	// ErrTransport is returned when the remote runtime cannot be reached.
	// It is fatal to the in-flight invocation, not to the Device.
	ErrTransport = errors.New("gpubridge: interop boundary unreachable")

	// ErrDeviceLost is returned once the remote GPU device is no longer
	// usable. A Device that observed it stays lost.
	ErrDeviceLost = errors.New("gpubridge: device lost")

	// ErrHandleInvalid is returned when a released handle, a handle from
	// another Device, or a handle of the wrong kind is used.
	ErrHandleInvalid = errors.New("gpubridge: invalid handle")

	// ErrNotSupported is returned by Open when the capability probe
	// reports that WebGPU is unavailable.
	ErrNotSupported = errors.New("gpubridge: WebGPU not supported")

	// ErrResultType is returned by Invoke when the remote result cannot be
	// converted to the requested Go type.
	ErrResultType = errors.New("gpubridge: unexpected result type")
)

// Cause is the machine-checkable reason attached to a RemoteError.
type Cause uint8

const (
	// CauseUnknown is any remote failure without a recognized cause.
	CauseUnknown Cause = iota

	// CauseDeviceLost means the remote device is no longer usable.
	CauseDeviceLost

	// CauseCompilationError means a shader failed to compile.
	CauseCompilationError
)

// String returns the wire name of the cause.
func (c Cause) String() string {
	switch c {
	case CauseDeviceLost:
		return "DeviceLost"
	case CauseCompilationError:
		return "CompilationError"
	default:
		return "Unknown"
	}
}

// ParseCause maps a wire cause name to a Cause. Unrecognized names map to
// CauseUnknown.
func ParseCause(s string) Cause {
	switch s {
	case "DeviceLost", "GPUDeviceLostInfo", "device-lost":
		return CauseDeviceLost
	case "CompilationError", "GPUCompilationInfo", "compilation-error":
		return CauseCompilationError
	default:
		return CauseUnknown
	}
}

// TransportError reports that an invocation could not reach the remote
// runtime. It matches ErrTransport with errors.Is.
type TransportError struct {
	Identifier string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gpubridge: %s: interop boundary unreachable", e.Identifier)
	}
	return fmt.Sprintf("gpubridge: %s: interop boundary unreachable: %v", e.Identifier, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// RemoteError reports that the browser-side call threw.
type RemoteError struct {
	Identifier string
	Message    string
	Cause      Cause
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("gpubridge: %s failed: %s", e.Identifier, e.Message)
}

// ShaderCompilationError reports that the remote runtime (or local
// validation) rejected shader source. Message carries the remote
// diagnostic text.
type ShaderCompilationError struct {
	Message string
}

func (e *ShaderCompilationError) Error() string {
	return "gpubridge: shader compilation failed: " + e.Message
}

// HandleError reports misuse of a Handle. It matches ErrHandleInvalid.
type HandleError struct {
	Handle Handle
	Op     string
	Reason string
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("gpubridge: %s: %s handle %d: %s", e.Op, e.Handle.Kind(), e.Handle.Token(), e.Reason)
}

func (e *HandleError) Unwrap() error { return ErrHandleInvalid }

// classify recognizes the two remote failure causes the Device handles
// specially. Messages are consulted only when the remote side gave no
// cause. Shader wording counts only for createShaderModule, where it
// cannot come from a caller error about some other object.
func classify(err error) Cause {
	var re *RemoteError
	if !errors.As(err, &re) {
		return CauseUnknown
	}
	if re.Cause != CauseUnknown {
		return re.Cause
	}
	msg := strings.ToLower(re.Message)
	switch {
	case strings.Contains(msg, "device lost"),
		strings.Contains(msg, "device is lost"),
		strings.Contains(msg, "device was lost"),
		strings.Contains(msg, "device has been destroyed"):
		return CauseDeviceLost
	case strings.Contains(msg, "compilation"):
		return CauseCompilationError
	case re.Identifier == OpCreateShaderModule &&
		(strings.Contains(msg, "shader module") || strings.Contains(msg, "wgsl")):
		return CauseCompilationError
	}
	return CauseUnknown
}

// CauseOf reports the remote cause carried by err. It returns CauseUnknown
// for transport failures, caller errors and anything that is not a
// *RemoteError.
func CauseOf(err error) Cause { return classify(err) }

// remoteMessage returns the remote message of err, or err.Error().
func remoteMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
