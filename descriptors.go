// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubridge

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpubridge/wire"
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label            string
	Size             uint64
	Usage            gputypes.BufferUsage
	MappedAtCreation bool
}

// ShaderModuleDescriptor describes a shader module. Code is WGSL source.
type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// BlendMode selects a blend preset for a color target.
type BlendMode uint8

// Blend presets.
const (
	// BlendReplace writes the source color unchanged.
	BlendReplace BlendMode = iota
	// BlendAlpha is classic straight-alpha "over".
	BlendAlpha
	// BlendPremultiplied is "over" for premultiplied colors.
	BlendPremultiplied
)

// ColorTarget describes one fragment output.
type ColorTarget struct {
	Format gputypes.TextureFormat
	Blend  BlendMode
}

// VertexState describes the vertex stage. Module must be a shader module
// handle issued by the same Device.
type VertexState struct {
	Module     Handle
	EntryPoint string
	Buffers    []gputypes.VertexBufferLayout
}

// FragmentState describes the fragment stage.
type FragmentState struct {
	Module     Handle
	EntryPoint string
	Targets    []ColorTarget
}

// RenderPipelineDescriptor describes a render pipeline. The layout is
// derived by the remote runtime. A zero Primitive means a triangle list
// without culling.
type RenderPipelineDescriptor struct {
	Label     string
	Vertex    VertexState
	Fragment  *FragmentState
	Primitive gputypes.PrimitiveState
}

// AlphaMode selects how the canvas compositor treats alpha.
type AlphaMode string

// Canvas alpha modes.
const (
	AlphaOpaque        AlphaMode = "opaque"
	AlphaPremultiplied AlphaMode = "premultiplied"
)

// CanvasConfiguration configures a canvas context for presentation.
type CanvasConfiguration struct {
	Format    gputypes.TextureFormat
	AlphaMode AlphaMode
}

func (d BufferDescriptor) encode() wire.BufferDescriptor {
	return wire.BufferDescriptor{
		Label:            d.Label,
		Size:             d.Size,
		Usage:            uint32(d.Usage),
		MappedAtCreation: d.MappedAtCreation,
	}
}

func (d ShaderModuleDescriptor) encode() wire.ShaderModuleDescriptor {
	return wire.ShaderModuleDescriptor{Label: d.Label, Code: d.Code}
}

func (m BlendMode) encode() string {
	switch m {
	case BlendAlpha:
		return wire.BlendAlpha
	case BlendPremultiplied:
		return wire.BlendPremultiplied
	default:
		return wire.BlendReplace
	}
}

func encodeVertexBuffers(layouts []gputypes.VertexBufferLayout) ([]wire.VertexBufferLayout, error) {
	out := make([]wire.VertexBufferLayout, 0, len(layouts))
	for i, l := range layouts {
		step := "vertex"
		if l.StepMode != 0 {
			s, err := wire.StepMode(l.StepMode)
			if err != nil {
				return nil, fmt.Errorf("buffer %d: %w", i, err)
			}
			step = s
		}
		attrs := make([]wire.VertexAttribute, 0, len(l.Attributes))
		for _, a := range l.Attributes {
			format, err := wire.VertexFormat(a.Format)
			if err != nil {
				return nil, fmt.Errorf("buffer %d location %d: %w", i, a.ShaderLocation, err)
			}
			attrs = append(attrs, wire.VertexAttribute{
				Format:         format,
				Offset:         uint64(a.Offset),
				ShaderLocation: uint32(a.ShaderLocation),
			})
		}
		out = append(out, wire.VertexBufferLayout{
			ArrayStride: uint64(l.ArrayStride),
			StepMode:    step,
			Attributes:  attrs,
		})
	}
	return out, nil
}

func encodePrimitive(p gputypes.PrimitiveState) (wire.PrimitiveState, error) {
	out := wire.PrimitiveState{Topology: "triangle-list", CullMode: "none"}
	if p.Topology != 0 {
		t, err := wire.Topology(p.Topology)
		if err != nil {
			return out, err
		}
		out.Topology = t
	}
	if p.CullMode != 0 {
		c, err := wire.CullMode(p.CullMode)
		if err != nil {
			return out, err
		}
		out.CullMode = c
	}
	return out, nil
}

func encodeTargets(targets []ColorTarget) ([]wire.ColorTargetState, error) {
	out := make([]wire.ColorTargetState, 0, len(targets))
	for _, t := range targets {
		format, err := wire.TextureFormat(t.Format)
		if err != nil {
			return nil, err
		}
		out = append(out, wire.ColorTargetState{Format: format, Blend: t.Blend.encode()})
	}
	return out, nil
}
