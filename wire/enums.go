// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wire

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

var textureFormats = map[gputypes.TextureFormat]string{
	gputypes.TextureFormatBGRA8Unorm:          "bgra8unorm",
	gputypes.TextureFormatRGBA8Unorm:          "rgba8unorm",
	gputypes.TextureFormatR8Unorm:             "r8unorm",
	gputypes.TextureFormatDepth24PlusStencil8: "depth24plus-stencil8",
}

var vertexFormats = map[gputypes.VertexFormat]string{
	gputypes.VertexFormatFloat32:   "float32",
	gputypes.VertexFormatFloat32x2: "float32x2",
	gputypes.VertexFormatFloat32x4: "float32x4",
}

// TextureFormat returns the browser name of f.
func TextureFormat(f gputypes.TextureFormat) (string, error) {
	if s, ok := textureFormats[f]; ok {
		return s, nil
	}
	return "", fmt.Errorf("wire: texture format %d has no WebGPU name", f)
}

// ParseTextureFormat maps a browser texture format name back to gputypes.
func ParseTextureFormat(s string) (gputypes.TextureFormat, error) {
	for f, name := range textureFormats {
		if name == s {
			return f, nil
		}
	}
	return gputypes.TextureFormatUndefined, fmt.Errorf("wire: unknown texture format %q", s)
}

// VertexFormat returns the browser name of f.
func VertexFormat(f gputypes.VertexFormat) (string, error) {
	if s, ok := vertexFormats[f]; ok {
		return s, nil
	}
	return "", fmt.Errorf("wire: vertex format %d has no WebGPU name", f)
}

// ParseVertexFormat maps a browser vertex format name back to gputypes.
func ParseVertexFormat(s string) (gputypes.VertexFormat, error) {
	for f, name := range vertexFormats {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("wire: unknown vertex format %q", s)
}

// Topology returns the browser name of t. Only triangle lists are
// supported by the bridge.
func Topology(t gputypes.PrimitiveTopology) (string, error) {
	if t == gputypes.PrimitiveTopologyTriangleList {
		return "triangle-list", nil
	}
	return "", fmt.Errorf("wire: primitive topology %d is not supported", t)
}

// CullMode returns the browser name of m. Only "none" is supported.
func CullMode(m gputypes.CullMode) (string, error) {
	if m == gputypes.CullModeNone {
		return "none", nil
	}
	return "", fmt.Errorf("wire: cull mode %d is not supported", m)
}

// StepMode returns the browser name of m.
func StepMode(m gputypes.VertexStepMode) (string, error) {
	if m == gputypes.VertexStepModeVertex {
		return "vertex", nil
	}
	return "", fmt.Errorf("wire: vertex step mode %d is not supported", m)
}

// PowerPreference returns the browser name of p; the zero value means no
// preference.
func PowerPreference(p gputypes.PowerPreference) string {
	if p == gputypes.PowerPreferenceHighPerformance {
		return "high-performance"
	}
	return ""
}
